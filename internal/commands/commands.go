// Package commands exposes a relay.Controller as the open, close and
// getState RPC commands.
package commands

import (
	"context"
	"encoding/json"

	"github.com/larsks/relayrpc/internal/relay"
	"github.com/larsks/relayrpc/internal/rpc"
)

// Command names
const (
	MethodOpen     = "open"
	MethodClose    = "close"
	MethodGetState = "getState"
)

// StateResult is the result of every relay command.
type StateResult struct {
	R string `json:"r"`
}

// NewStateResult reports the state name of s.
func NewStateResult(s relay.State) StateResult {
	return StateResult{R: relay.Name(s)}
}

// setStateHandler drives the relay to a fixed state. Params are ignored.
type setStateHandler struct {
	relay  *relay.Controller
	target relay.State
}

func (h *setStateHandler) Handle(ctx context.Context, params json.RawMessage) (any, error) {
	if err := h.relay.SetState(h.target); err != nil {
		return nil, err
	}
	return NewStateResult(h.relay.State()), nil
}

// getStateHandler reports the relay state without changing it. Params are
// ignored.
type getStateHandler struct {
	relay *relay.Controller
}

func (h *getStateHandler) Handle(ctx context.Context, params json.RawMessage) (any, error) {
	return NewStateResult(h.relay.State()), nil
}

// Register adds the relay commands to d.
func Register(d *rpc.Dispatcher, r *relay.Controller) error {
	handlers := []struct {
		name    string
		handler rpc.Handler
	}{
		{MethodOpen, &setStateHandler{relay: r, target: relay.Open}},
		{MethodClose, &setStateHandler{relay: r, target: relay.Closed}},
		{MethodGetState, &getStateHandler{relay: r}},
	}

	for _, h := range handlers {
		if err := d.Register(h.name, h.handler); err != nil {
			return err
		}
	}
	return nil
}
