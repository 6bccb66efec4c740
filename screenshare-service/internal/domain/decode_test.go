package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_KnownTypes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Inbound
	}{
		{
			name: "worker register",
			raw:  `{"type":"worker-register","userId":"W1"}`,
			want: &WorkerRegister{UserID: "W1"},
		},
		{
			name: "viewer subscribe",
			raw:  `{"type":"viewer-subscribe","viewerId":"U9","targetUserId":"W1"}`,
			want: &ViewerSubscribe{ViewerID: "U9", TargetUserID: "W1"},
		},
		{
			name: "viewer unsubscribe",
			raw:  `{"type":"viewer-unsubscribe"}`,
			want: &ViewerUnsubscribe{},
		},
		{
			name: "ping",
			raw:  `{"type":"ping"}`,
			want: &Ping{},
		},
		{
			name: "frame keyed by userId",
			raw:  `{"type":"screen-frame","userId":"W1","frame":"aGVsbG8=","timestamp":1700000000000}`,
			want: &ScreenFrame{UserID: "W1", WorkerID: "W1", Frame: "aGVsbG8=", Timestamp: 1700000000000},
		},
		{
			name: "frame keyed by workerId",
			raw:  `{"type":"screen-frame","workerId":"W2","frame":"eA=="}`,
			want: &ScreenFrame{WorkerID: "W2", Frame: "eA=="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Kind(), got.Kind())
		})
	}
}

func TestDecode_StreamStatus(t *testing.T) {
	got, err := Decode([]byte(`{"type":"stream-status","workerId":"W1","isStreaming":false}`))
	require.NoError(t, err)

	status, ok := got.(*StreamStatus)
	require.True(t, ok)
	assert.Equal(t, "W1", status.WorkerID)
	require.NotNil(t, status.IsStreaming)
	assert.False(t, *status.IsStreaming)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `hello`, ErrMalformed},
		{"array", `[1,2]`, ErrMalformed},
		{"missing type", `{"userId":"W1"}`, ErrMalformed},
		{"unknown type", `{"type":"chat"}`, ErrUnknownType},
		{"wrong field type", `{"type":"worker-register","userId":42}`, ErrMalformed},
		{"register without id", `{"type":"worker-register"}`, ErrInvalidMessage},
		{"subscribe without target", `{"type":"viewer-subscribe","viewerId":"U1"}`, ErrInvalidMessage},
		{"frame without payload", `{"type":"screen-frame","userId":"W1"}`, ErrInvalidMessage},
		{"frame without worker", `{"type":"screen-frame","frame":"eA=="}`, ErrInvalidMessage},
		{"negative timestamp", `{"type":"screen-frame","userId":"W1","frame":"eA==","timestamp":-1}`, ErrInvalidMessage},
		{"status without flag", `{"type":"stream-status","workerId":"W1"}`, ErrInvalidMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestEncode_WireNames(t *testing.T) {
	data, err := Encode(NewWorkerRegisteredMessage("c-1", 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"worker-registered","clientId":"c-1","viewerCount":0}`, string(data))

	data, err = Encode(NewSubscribedMessage("W1", true))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"subscribed","targetUserId":"W1","isStreamActive":true}`, string(data))

	data, err = Encode(NewStreamEndedMessage("W1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"stream-ended","workerId":"W1"}`, string(data))

	data, err = Encode(NewViewerCountMessage("W1", 2))
	require.NoError(t, err)
	var vc map[string]any
	require.NoError(t, json.Unmarshal(data, &vc))
	assert.Equal(t, float64(2), vc["count"])
}

func TestRoleNames(t *testing.T) {
	roles := []Role{Unregistered{}, Worker{WorkerID: "W1"}, Viewer{ViewerID: "U1", Watching: "W1"}}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"unregistered", "worker", "viewer"}, names)
}
