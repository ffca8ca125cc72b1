// Package relayctl implements a command line client for relayd.
package relayctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/larsks/relayrpc/internal/auth"
	"github.com/larsks/relayrpc/internal/cli"
	"github.com/larsks/relayrpc/internal/commands"
	"github.com/larsks/relayrpc/internal/rpc"
	"github.com/larsks/relayrpc/internal/version"
)

// HTTPClient interface for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Handler implements the relayctl command handler
type Handler struct {
	config     *Config
	httpClient HTTPClient
	stdout     io.Writer
	stderr     io.Writer
	nextID     int
}

// NewHandler creates a new relayctl handler
func NewHandler() *Handler {
	return &Handler{
		httpClient: &http.Client{},
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

// rpcResponse is the client side of rpc.Response; the result is kept raw so
// it can be decoded into the expected type.
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpc.Error      `json:"error"`
}

// Start implements cli.CommandHandler.
func (h *Handler) Start(ctx context.Context, config cli.Configurable, args []string) error {
	h.config = config.(*Config)

	if len(args) == 0 {
		h.showHelp()
		return nil
	}

	command, rest := args[0], args[1:]
	if len(rest) > 0 {
		return fmt.Errorf("%s takes no arguments", command)
	}

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	switch command {
	case "open":
		return h.cmdState(ctx, commands.MethodOpen)
	case "close":
		return h.cmdState(ctx, commands.MethodClose)
	case "state":
		return h.cmdState(ctx, commands.MethodGetState)
	case "methods":
		return h.cmdMethods(ctx)
	case "version":
		fmt.Fprintln(h.stdout, version.String()) //nolint:errcheck
		return nil
	case "help":
		h.showHelp()
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

func (h *Handler) showHelp() {
	//nolint:errcheck
	fmt.Fprintf(h.stdout, `relayctl - Command line tool for controlling a relayd relay

Usage: relayctl [flags] <command>

Commands:
  open        Open the relay
  close       Close the relay
  state       Show the relay state
  methods     List the commands the server accepts
  help        Show this help
  version     Show version information

Flags:
  --config string       Config file to use (default "%s")
  --server-url string   relayd server URL (default "%s")
  --timeout duration    Request timeout (default %s)
  --token string        Bearer token for the rpc endpoint
  --auth-secret string  Shared secret used to mint a token
  --version             Show version and exit
`, getDefaultConfigFile(), defaultServerURL, defaultTimeout)
}

// cmdState calls method and prints the relay state name it returns.
func (h *Handler) cmdState(ctx context.Context, method string) error {
	var result commands.StateResult
	if err := h.call(ctx, method, &result); err != nil {
		return err
	}
	fmt.Fprintln(h.stdout, result.R) //nolint:errcheck
	return nil
}

func (h *Handler) cmdMethods(ctx context.Context) error {
	body, err := h.makeAPIRequest(ctx, http.MethodGet, "/methods", nil)
	if err != nil {
		return err
	}

	var resp struct {
		Methods []string `json:"methods"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	for _, m := range resp.Methods {
		fmt.Fprintln(h.stdout, m) //nolint:errcheck
	}
	return nil
}

func (h *Handler) call(ctx context.Context, method string, result any) error {
	h.nextID++
	req, err := rpc.NewRequest(method, nil, h.nextID)
	if err != nil {
		return err
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := h.makeAPIRequest(ctx, http.MethodPost, "/rpc", reqBody)
	if err != nil {
		return err
	}

	var resp rpcResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%w: %s failed: %v", ErrServer, method, resp.Error)
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

// bearerToken returns the configured token, or mints a short lived one from
// the shared secret.
func (h *Handler) bearerToken() (string, error) {
	if h.config.Token != "" || h.config.AuthSecret == "" {
		return h.config.Token, nil
	}

	v, err := auth.NewVerifier(h.config.AuthSecret)
	if err != nil {
		return "", err
	}
	ttl := h.config.Timeout
	if ttl <= 0 {
		ttl = time.Minute
	}
	return v.Issue("relayctl", ttl)
}

func (h *Handler) makeAPIRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	url := strings.TrimRight(h.config.ServerURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := h.bearerToken()
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to contact %s: %w", h.config.ServerURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s %s: %s", ErrServer, method, path, resp.Status)
	}

	return respBody, nil
}
