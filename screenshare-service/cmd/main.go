package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pkglog "github.com/psxio/the-platform/pkg/log"
	"github.com/psxio/the-platform/pkg/pubsub"
	"github.com/psxio/the-platform/screenshare-service/internal/config"
	"github.com/psxio/the-platform/screenshare-service/internal/events"
	"github.com/psxio/the-platform/screenshare-service/internal/handler"
	"github.com/psxio/the-platform/screenshare-service/internal/service"
	"github.com/psxio/the-platform/screenshare-service/internal/store"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	cfg.Log.ServiceName = "screenshare-service"
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting screenshare-service")

	// Lifecycle event sinks
	var sinks []events.Sink

	bus, err := pubsub.NewPublisher(cfg.PubSub)
	switch {
	case errors.Is(err, pubsub.ErrDisabled):
		logger.Info().Msg("event bus disabled")
	case err != nil:
		logger.Warn().Err(err).Str("driver", cfg.PubSub.Driver).Msg("failed to create event bus, lifecycle events not published")
	default:
		defer bus.Close()
		sinks = append(sinks, events.NewBusSink(bus))
		logger.Info().Str("driver", cfg.PubSub.Driver).Msg("event bus connected")
	}

	if cfg.Directory.Enabled {
		dir, err := store.NewRedisDirectory(store.RedisConfig{
			Address:   cfg.Directory.Address,
			Password:  cfg.Directory.Password,
			DB:        cfg.Directory.DB,
			KeyPrefix: cfg.Directory.KeyPrefix,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("failed to connect stream directory, directory disabled")
		} else {
			defer dir.Close()
			resetCtx, resetCancel := context.WithTimeout(context.Background(), cfg.Events.PublishTimeout)
			if err := dir.Reset(resetCtx); err != nil {
				logger.Warn().Err(err).Msg("failed to clear stale directory entries")
			}
			resetCancel()
			sinks = append(sinks, events.NewDirectorySink(dir))
			logger.Info().Str("address", cfg.Directory.Address).Msg("stream directory connected")
		}
	}

	publisher := events.NewPublisher(cfg.Events.QueueSize, cfg.Events.PublishTimeout, sinks...)

	// Initialize relay
	var opts []service.Option
	if len(sinks) > 0 {
		opts = append(opts, service.WithEventSink(publisher))
	}
	relay := service.NewRelayService(opts...)

	// Initialize handlers
	wsHandler := handler.NewWSHandler(relay, cfg.WebSocket, cfg.Server.AllowedOrigins)
	httpHandler := handler.NewHTTPHandler(relay)

	// Setup routes
	router := mux.NewRouter()
	wsHandler.RegisterRoutes(router)
	httpHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     pkglog.HTTPMiddleware(logger)(router),
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The publisher outlives the server so shutdown events are flushed.
	pubCtx, pubCancel := context.WithCancel(context.Background())
	defer pubCancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return publisher.Run(pubCtx)
	})

	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("screenshare-service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down screenshare-service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Upgraded connections are not tracked by Shutdown; the relay
		// closes them.
		err := server.Shutdown(shutdownCtx)
		relay.Close()
		pubCancel()
		if err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("screenshare-service exited with error")
		return
	}
	logger.Info().Msg("screenshare-service stopped")
}
