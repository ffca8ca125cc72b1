package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d := NewDispatcher()
	require.NoError(t, d.Register("ping", HandlerFunc(func(ctx context.Context, params json.RawMessage) (any, error) {
		return map[string]string{"r": "pong"}, nil
	})))
	require.NoError(t, d.Register("fail", HandlerFunc(func(ctx context.Context, params json.RawMessage) (any, error) {
		return nil, errors.New("hardware on fire")
	})))
	require.NoError(t, d.Register("typed", HandlerFunc(func(ctx context.Context, params json.RawMessage) (any, error) {
		return nil, &Error{Code: CodeInvalidParams, Message: "bad params"}
	})))
	return d
}

func TestCall(t *testing.T) {
	d := newTestDispatcher(t)

	tests := []struct {
		name     string
		request  string
		expected string
	}{
		{
			name:     "success with numeric id",
			request:  `{"jsonrpc":"2.0","method":"ping","id":1}`,
			expected: `{"jsonrpc":"2.0","result":{"r":"pong"},"id":1}`,
		},
		{
			name:     "success with string id and ignored params",
			request:  `{"jsonrpc":"2.0","method":"ping","params":{"x":true},"id":"abc"}`,
			expected: `{"jsonrpc":"2.0","result":{"r":"pong"},"id":"abc"}`,
		},
		{
			name:     "parse error",
			request:  `{"jsonrpc":`,
			expected: `{"jsonrpc":"2.0","error":{"code":-32700,"message":"parse error: unexpected end of JSON input"},"id":null}`,
		},
		{
			name:     "wrong version",
			request:  `{"jsonrpc":"1.0","method":"ping","id":7}`,
			expected: `{"jsonrpc":"2.0","error":{"code":-32600,"message":"invalid request: jsonrpc must be \"2.0\""},"id":7}`,
		},
		{
			name:     "missing method",
			request:  `{"jsonrpc":"2.0","id":8}`,
			expected: `{"jsonrpc":"2.0","error":{"code":-32600,"message":"invalid request: method is required"},"id":8}`,
		},
		{
			name:     "unknown method",
			request:  `{"jsonrpc":"2.0","method":"reboot","id":2}`,
			expected: `{"jsonrpc":"2.0","error":{"code":-32601,"message":"method not found: reboot"},"id":2}`,
		},
		{
			name:     "handler error",
			request:  `{"jsonrpc":"2.0","method":"fail","id":3}`,
			expected: `{"jsonrpc":"2.0","error":{"code":-32603,"message":"hardware on fire"},"id":3}`,
		},
		{
			name:     "handler returns rpc error",
			request:  `{"jsonrpc":"2.0","method":"typed","id":4}`,
			expected: `{"jsonrpc":"2.0","error":{"code":-32602,"message":"bad params"},"id":4}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := d.Call(context.Background(), []byte(tt.request))
			require.NotNil(t, out)
			assert.JSONEq(t, tt.expected, string(out))
		})
	}
}

func TestCallNotification(t *testing.T) {
	d := NewDispatcher()
	called := false
	require.NoError(t, d.Register("poke", HandlerFunc(func(ctx context.Context, params json.RawMessage) (any, error) {
		called = true
		return nil, nil
	})))

	out := d.Call(context.Background(), []byte(`{"jsonrpc":"2.0","method":"poke"}`))
	assert.Nil(t, out)
	assert.True(t, called)
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest("open", nil, 5)
	require.NoError(t, err)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"open","id":5}`, string(data))

	req, err = NewRequest("open", map[string]int{"n": 1}, 6)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(req.Params))
	assert.False(t, req.IsNotification())
}

func TestDecodeRequestReplyTo(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"jsonrpc":"2.0","method":"getState","id":1,"reply-to":"clients/42"}`))
	require.NoError(t, err)
	assert.Equal(t, "clients/42", req.ReplyTo)
	assert.Equal(t, "getState", req.Method)
}

func TestCallInvalidRequests(t *testing.T) {
	d := newTestDispatcher(t)

	tests := []struct {
		name    string
		request string
	}{
		{"batch", `[{"jsonrpc":"2.0","method":"ping","id":1}]`},
		{"numeric method", `{"jsonrpc":"2.0","method":1,"id":1}`},
		{"object id", `{"jsonrpc":"2.0","method":"ping","id":{"a":1}}`},
		{"array id", `{"jsonrpc":"2.0","method":"ping","id":[1]}`},
		{"bare string", `"ping"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := d.Call(context.Background(), []byte(tt.request))
			require.NotNil(t, out)

			var resp struct {
				Result json.RawMessage `json:"result"`
				Error  *Error          `json:"error"`
				ID     json.RawMessage `json:"id"`
			}
			require.NoError(t, json.Unmarshal(out, &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, CodeInvalidRequest, resp.Error.Code)
			assert.Equal(t, "null", string(resp.ID))
			assert.Nil(t, resp.Result)
		})
	}
}

func TestDecodeRequestAcceptsNullID(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"jsonrpc":"2.0","method":"ping","id":null}`))
	require.NoError(t, err)
	assert.Equal(t, "ping", req.Method)
}
