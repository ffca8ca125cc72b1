// Package relay holds the state of a single relay and drives its output line.
package relay

import (
	"fmt"
	"log"
	"sync"

	"github.com/larsks/relayrpc/internal/gpio"
)

// State is the logical state of the relay.
type State int

const (
	Open State = iota
	Closed
)

// Names returned by Name. Each is shorter than 8 bytes.
const (
	NameOpen    = "open"
	NameClosed  = "close"
	NameUnknown = "unknown"
)

// Name maps a state to its wire name. Values other than Open and Closed map
// to "unknown".
func Name(s State) string {
	switch s {
	case Open:
		return NameOpen
	case Closed:
		return NameClosed
	default:
		return NameUnknown
	}
}

func (s State) String() string {
	return Name(s)
}

// Level returns the output level that represents s: Open is high, Closed
// (and anything else) is low.
func Level(s State) gpio.Level {
	if s == Open {
		return gpio.High
	}
	return gpio.Low
}

// Controller owns the relay output pin and the current state.
type Controller struct {
	pin gpio.OutputPin

	mu        sync.RWMutex
	state     State
	observers []func(State)
}

// New returns a Controller for pin. Call Initialize before use.
func New(pin gpio.OutputPin) *Controller {
	return &Controller{
		pin:   pin,
		state: Open,
	}
}

// Initialize forces the relay open.
func (c *Controller) Initialize() error {
	log.Printf("initializing relay on %s", c.pin)
	if err := c.SetState(Open); err != nil {
		return fmt.Errorf("%w: %w", ErrInitFailed, err)
	}
	return nil
}

// SetState drives the pin to the level for s, then records s. If the write
// fails the recorded state is unchanged.
func (c *Controller) SetState(s State) error {
	if s != Open && s != Closed {
		return fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}

	c.mu.Lock()
	if err := c.pin.Out(Level(s)); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("%w %s: %w", ErrSetState, Name(s), err)
	}
	c.state = s
	observers := c.observers
	c.mu.Unlock()

	log.Printf("relay %s is %s", c.pin, Name(s))

	for _, fn := range observers {
		fn(s)
	}
	return nil
}

// State returns the recorded state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// OnChange registers fn to be called after every successful SetState,
// including repeats of the current state.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers[:len(c.observers):len(c.observers)], fn)
}

// Close releases the output pin. The line keeps its last level.
func (c *Controller) Close() error {
	return c.pin.Close()
}

func (c *Controller) String() string {
	return fmt.Sprintf("relay on %s (%s)", c.pin, Name(c.State()))
}
