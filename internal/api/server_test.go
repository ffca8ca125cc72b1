package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/larsks/relayrpc/internal/auth"
	"github.com/larsks/relayrpc/internal/commands"
	"github.com/larsks/relayrpc/internal/gpio"
	"github.com/larsks/relayrpc/internal/relay"
	"github.com/larsks/relayrpc/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestServer creates a server backed by a fake pin.
func createTestServer(t *testing.T, opts Options) (*Server, *gpio.FakePin) {
	t.Helper()
	pin := gpio.NewFakePin("GPIO0")
	r := relay.New(pin)
	require.NoError(t, r.Initialize())

	d := rpc.NewDispatcher()
	require.NoError(t, commands.Register(d, r))

	return NewServer(d, r, opts), pin
}

func postRPC(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestRPCEndpoint(t *testing.T) {
	s, pin := createTestServer(t, Options{})

	tests := []struct {
		name      string
		body      string
		expected  string
		wantLevel gpio.Level
	}{
		{
			name:      "getState after startup",
			body:      `{"jsonrpc":"2.0","method":"getState","id":1}`,
			expected:  `{"jsonrpc":"2.0","result":{"r":"open"},"id":1}`,
			wantLevel: gpio.High,
		},
		{
			name:      "close",
			body:      `{"jsonrpc":"2.0","method":"close","id":2}`,
			expected:  `{"jsonrpc":"2.0","result":{"r":"close"},"id":2}`,
			wantLevel: gpio.Low,
		},
		{
			name:      "getState after close",
			body:      `{"jsonrpc":"2.0","method":"getState","id":3}`,
			expected:  `{"jsonrpc":"2.0","result":{"r":"close"},"id":3}`,
			wantLevel: gpio.Low,
		},
		{
			name:      "open",
			body:      `{"jsonrpc":"2.0","method":"open","params":{"unused":1},"id":4}`,
			expected:  `{"jsonrpc":"2.0","result":{"r":"open"},"id":4}`,
			wantLevel: gpio.High,
		},
		{
			name:      "unknown method",
			body:      `{"jsonrpc":"2.0","method":"toggle","id":5}`,
			expected:  `{"jsonrpc":"2.0","error":{"code":-32601,"message":"method not found: toggle"},"id":5}`,
			wantLevel: gpio.High,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postRPC(t, s, tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expected, w.Body.String())
			assert.Equal(t, tt.wantLevel, pin.Level())
		})
	}
}

func TestRPCNotification(t *testing.T) {
	s, pin := createTestServer(t, Options{})

	w := postRPC(t, s, `{"jsonrpc":"2.0","method":"close"}`)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, gpio.Low, pin.Level())
}

func TestRPCRejectsWrongContentType(t *testing.T) {
	s, pin := createTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(`{"jsonrpc":"2.0","method":"close","id":1}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, gpio.High, pin.Level())
}

func TestRPCAcceptsContentTypeWithCharset(t *testing.T) {
	s, _ := createTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(`{"jsonrpc":"2.0","method":"getState","id":1}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRPCMethodNotAllowed(t *testing.T) {
	s, _ := createTestServer(t, Options{})

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rpc", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRPCBodyTooLarge(t *testing.T) {
	s, _ := createTestServer(t, Options{})

	w := postRPC(t, s, `{"jsonrpc":"2.0","method":"open","params":"`+strings.Repeat("x", maxRequestSize)+`","id":1}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestGetEndpoints(t *testing.T) {
	s, _ := createTestServer(t, Options{})

	tests := []struct {
		path     string
		expected string
	}{
		{"/state", `{"r":"open"}`},
		{"/methods", `{"methods":["close","getState","open"]}`},
		{"/healthz", `{"status":"ok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.expected, w.Body.String())
		})
	}
}

func TestCORS(t *testing.T) {
	s, _ := createTestServer(t, Options{CORSOrigins: []string{"http://panel.local"}})

	req := httptest.NewRequest(http.MethodOptions, "/rpc", nil)
	req.Header.Set("Origin", "http://panel.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, "http://panel.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOverHTTP(t *testing.T) {
	s, pin := createTestServer(t, Options{AccessLog: true})
	ts := httptest.NewServer(s)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/rpc", "application/json", strings.NewReader(`{"jsonrpc":"2.0","method":"close","id":"a"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","result":{"r":"close"},"id":"a"}`, string(body))
	assert.Equal(t, gpio.Low, pin.Level())
}

func TestRPCAuthentication(t *testing.T) {
	v, err := auth.NewVerifier("s3cret")
	require.NoError(t, err)
	s, pin := createTestServer(t, Options{Authenticate: v.Middleware})

	w := postRPC(t, s, `{"jsonrpc":"2.0","method":"close","id":1}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, gpio.High, pin.Level())

	token, err := v.Issue("test", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(`{"jsonrpc":"2.0","method":"close","id":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	s.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, gpio.Low, pin.Level())

	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/state", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
