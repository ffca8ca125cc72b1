// Package rpc routes named commands to registered handlers and implements
// the JSON-RPC 2.0 envelope used by the HTTP and MQTT transports.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Handler processes one command. Params holds the raw request parameters and
// may be nil.
type Handler interface {
	Handle(ctx context.Context, params json.RawMessage) (any, error)
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, params json.RawMessage) (any, error) {
	return f(ctx, params)
}

// Dispatcher maps command names to handlers. Dispatch runs one handler at a
// time, so a handler always runs to completion before the next one starts,
// whichever transport delivered the call.
type Dispatcher struct {
	regMu    sync.RWMutex
	handlers map[string]Handler

	callMu sync.Mutex
}

// NewDispatcher creates a dispatcher with no commands.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler under name.
func (d *Dispatcher) Register(name string, h Handler) error {
	if name == "" {
		return ErrEmptyMethod
	}
	if h == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, name)
	}

	d.regMu.Lock()
	defer d.regMu.Unlock()

	if _, exists := d.handlers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMethod, name)
	}
	d.handlers[name] = h
	return nil
}

// Dispatch invokes the handler registered under method.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, params json.RawMessage) (any, error) {
	d.regMu.RLock()
	h, exists := d.handlers[method]
	d.regMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}

	d.callMu.Lock()
	defer d.callMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.Handle(ctx, params)
}

// Methods returns the sorted names of all registered commands.
func (d *Dispatcher) Methods() []string {
	d.regMu.RLock()
	defer d.regMu.RUnlock()

	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
