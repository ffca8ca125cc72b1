package mqtt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateServerURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"mqtt://localhost:1883", false},
		{"mqtt://broker", false},
		{"http://localhost:1883", true},
		{"tcp://localhost:1883", true},
		{"invalid-url", true},
		{"mqtt://", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateServerURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidServerURL)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewClient_WrongScheme(t *testing.T) {
	_, err := NewClient(Config{ServerURL: "http://localhost:1883"})
	assert.ErrorIs(t, err, ErrInvalidServerURL)
}

func TestClient_NotConnected(t *testing.T) {
	// Nothing listens on this port, so the client stays disconnected.
	c, err := NewClient(Config{
		ServerURL:         "mqtt://127.0.0.1:1",
		ClientID:          "relayd-test",
		MaxRetries:        1,
		InitialRetryDelay: time.Millisecond,
	})
	require.NoError(t, err)

	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.Publish("relay/state", 0, true, "open"), ErrNotConnected)
	assert.ErrorIs(t, c.Subscribe("relay/rpc", 0, func(string, []byte) {}), ErrNotConnected)

	// Should not panic when not connected
	c.Disconnect(0)
}
