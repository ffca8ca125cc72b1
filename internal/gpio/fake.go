package gpio

import (
	"fmt"
	"sync"
)

// FakePin is an in-memory OutputPin that records every level written to it.
type FakePin struct {
	name string

	mu     sync.Mutex
	level  Level
	writes []Level
	closed bool

	// WriteError, if set, is returned by Out and the level is not changed.
	WriteError error
}

// NewFakePin creates a FakePin. The line starts low, as a freshly requested
// output line does.
func NewFakePin(name string) *FakePin {
	return &FakePin{name: name}
}

func (p *FakePin) Out(level Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.WriteError != nil {
		return fmt.Errorf("%w %s: %v", ErrPinWrite, p.name, p.WriteError)
	}
	p.level = level
	p.writes = append(p.writes, level)
	return nil
}

func (p *FakePin) Read() (Level, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level, nil
}

// Level returns the current level without an error, for tests.
func (p *FakePin) Level() Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Writes returns a copy of every level written so far, oldest first.
func (p *FakePin) Writes() []Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Level(nil), p.writes...)
}

func (p *FakePin) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *FakePin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *FakePin) String() string {
	return fmt.Sprintf("dummy:%s", p.name)
}
