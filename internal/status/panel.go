// Package status shows the relay state on an SSD1306 OLED panel.
package status

import (
	"fmt"
	"log"
	"sync"

	"github.com/larsks/display1306/v2/display"
	"github.com/larsks/display1306/v2/display/fakedriver"
	"github.com/larsks/relayrpc/internal/relay"
)

// Screen is the subset of *display.Display used by the panel.
type Screen interface {
	Init() error
	ClearScreen() error
	PrintLines(start int, lines []string) error
	Update() error
	Close() error
}

// OpenDisplay builds the SSD1306 display, or a fake one when fake is set.
func OpenDisplay(fake bool) (*display.Display, error) {
	var d *display.Display
	var err error

	if fake {
		d, err = display.NewDisplay().WithDriver(fakedriver.NewFakeSSD1306()).Build()
	} else {
		d, err = display.NewDisplay().Build()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDisplayInit, err)
	}
	return d, nil
}

// Panel renders a few lines of relay status.
type Panel struct {
	screen Screen
	title  string
	addr   string

	mu    sync.Mutex
	lines []string
}

// NewPanel returns a panel drawing on screen. addr is shown so that the
// device can be found on the network.
func NewPanel(screen Screen, title, addr string) *Panel {
	return &Panel{
		screen: screen,
		title:  title,
		addr:   addr,
	}
}

// Start initializes the screen, draws the current state and redraws on every
// state change.
func (p *Panel) Start(r *relay.Controller) error {
	if err := p.screen.Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrDisplayInit, err)
	}
	if err := p.Show(r.State()); err != nil {
		return err
	}
	r.OnChange(func(s relay.State) {
		if err := p.Show(s); err != nil {
			log.Printf("failed to update display: %v", err)
		}
	})
	return nil
}

// Show draws s.
func (p *Panel) Show(s relay.State) error {
	lines := []string{
		p.title,
		fmt.Sprintf("ADDR: %s", p.addr),
		fmt.Sprintf("RELAY: %s", relay.Name(s)),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.screen.ClearScreen(); err != nil {
		return fmt.Errorf("%w: %v", ErrDisplayUpdate, err)
	}
	if err := p.screen.PrintLines(0, lines); err != nil {
		return fmt.Errorf("%w: %v", ErrDisplayUpdate, err)
	}
	if err := p.screen.Update(); err != nil {
		return fmt.Errorf("%w: %v", ErrDisplayUpdate, err)
	}
	p.lines = lines
	return nil
}

// Lines returns the lines last drawn.
func (p *Panel) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

// Close blanks the panel and releases it.
func (p *Panel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.screen.ClearScreen() //nolint:errcheck
	p.screen.Update()      //nolint:errcheck
	return p.screen.Close()
}
