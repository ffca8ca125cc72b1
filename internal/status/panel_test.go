package status

import (
	"errors"
	"testing"

	"github.com/larsks/relayrpc/internal/gpio"
	"github.com/larsks/relayrpc/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingScreen struct {
	initialized bool
	closed      bool
	cleared     int
	printed     [][]string
	updates     int
	updateErr   error
}

func (s *recordingScreen) Init() error        { s.initialized = true; return nil }
func (s *recordingScreen) ClearScreen() error { s.cleared++; return nil }
func (s *recordingScreen) Update() error      { s.updates++; return s.updateErr }
func (s *recordingScreen) Close() error       { s.closed = true; return nil }

func (s *recordingScreen) PrintLines(start int, lines []string) error {
	s.printed = append(s.printed, lines)
	return nil
}

func newRelay(t *testing.T) *relay.Controller {
	t.Helper()
	r := relay.New(gpio.NewFakePin("GPIO0"))
	require.NoError(t, r.Initialize())
	return r
}

func TestPanelFollowsRelay(t *testing.T) {
	screen := &recordingScreen{}
	p := NewPanel(screen, "relayd", "10.0.0.5:8080")
	r := newRelay(t)

	require.NoError(t, p.Start(r))
	assert.True(t, screen.initialized)
	assert.Equal(t, []string{"relayd", "ADDR: 10.0.0.5:8080", "RELAY: open"}, p.Lines())

	require.NoError(t, r.SetState(relay.Closed))
	assert.Equal(t, "RELAY: close", p.Lines()[2])
	assert.Len(t, screen.printed, 2)

	require.NoError(t, p.Close())
	assert.True(t, screen.closed)
}

func TestPanelUpdateError(t *testing.T) {
	screen := &recordingScreen{updateErr: errors.New("i2c nack")}
	p := NewPanel(screen, "relayd", ":8080")

	err := p.Show(relay.Open)
	assert.ErrorIs(t, err, ErrDisplayUpdate)
	assert.Empty(t, p.Lines())
}

func TestPanelWithFakeDisplay(t *testing.T) {
	d, err := OpenDisplay(true)
	require.NoError(t, err)

	p := NewPanel(d, "relayd", ":8080")
	require.NoError(t, p.Start(newRelay(t)))
	defer p.Close()

	assert.Equal(t, "RELAY: open", p.Lines()[2])
}
