package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string // defaults to "screenshare"
}

// redisDirectory implements StreamDirectory using Redis.
type redisDirectory struct {
	client *redis.Client
	prefix string
}

// NewRedisDirectory connects to Redis and returns a directory.
func NewRedisDirectory(cfg RedisConfig) (StreamDirectory, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "screenshare"
	}

	return &redisDirectory{client: client, prefix: prefix}, nil
}

// Redis key patterns:
// {prefix}:live_workers          SET<worker_id>  - workers with a registered connection
// {prefix}:worker:{worker_id}    HASH            - stream details
//   - client_id: connection serving the worker
//   - viewer_count: current viewers
//   - started_at: unix millis

func (s *redisDirectory) liveWorkersKey() string {
	return s.prefix + ":live_workers"
}

func (s *redisDirectory) workerKey(workerID string) string {
	return fmt.Sprintf("%s:worker:%s", s.prefix, workerID)
}

func (s *redisDirectory) SetLive(ctx context.Context, workerID, clientID string, startedAt time.Time) error {
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.liveWorkersKey(), workerID)
	pipe.HSet(ctx, s.workerKey(workerID), map[string]interface{}{
		"client_id":    clientID,
		"viewer_count": "0",
		"started_at":   strconv.FormatInt(startedAt.UnixMilli(), 10),
	})
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisDirectory) SetViewerCount(ctx context.Context, workerID string, count int) error {
	key := s.workerKey(workerID)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	// Counts for streams that already ended must not resurrect the hash.
	if exists == 0 {
		return nil
	}
	return s.client.HSet(ctx, key, "viewer_count", strconv.Itoa(count)).Err()
}

func (s *redisDirectory) SetOffline(ctx context.Context, workerID string) error {
	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, s.liveWorkersKey(), workerID)
	pipe.Del(ctx, s.workerKey(workerID))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisDirectory) ListLive(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, s.liveWorkersKey()).Result()
}

func (s *redisDirectory) Reset(ctx context.Context) error {
	ids, err := s.ListLive(ctx)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, s.liveWorkersKey())
	for _, id := range ids {
		keys = append(keys, s.workerKey(id))
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *redisDirectory) Close() error {
	return s.client.Close()
}
