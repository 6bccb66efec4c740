package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMalformed means the payload is not a JSON object with a type field.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownType means the type discriminator is not one we accept.
	ErrUnknownType = errors.New("unknown message type")
	// ErrInvalidMessage means a known message is missing required fields.
	ErrInvalidMessage = errors.New("invalid message")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode parses one inbound WebSocket payload into its typed variant.
func Decode(data []byte) (Inbound, error) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if base.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	var msg Inbound
	switch base.Type {
	case MsgTypeWorkerRegister:
		msg = &WorkerRegister{}
	case MsgTypeViewerSubscribe:
		msg = &ViewerSubscribe{}
	case MsgTypeViewerUnsubscribe:
		return &ViewerUnsubscribe{}, nil
	case MsgTypeScreenFrame:
		msg = &ScreenFrame{}
	case MsgTypeStreamStatus:
		msg = &StreamStatus{}
	case MsgTypePing:
		return &Ping{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, base.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, base.Type, err)
	}

	switch m := msg.(type) {
	case *ScreenFrame:
		if m.WorkerID == "" {
			m.WorkerID = m.UserID
		}
	case *StreamStatus:
		if m.WorkerID == "" {
			m.WorkerID = m.UserID
		}
	}

	if err := validate.Struct(msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, base.Type, err)
	}
	return msg, nil
}
