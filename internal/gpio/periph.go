package gpio

import (
	"fmt"

	periphgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphPin drives a line through periph.io. The chip part of the pin
// specification is ignored; periph addresses pins by name.
type PeriphPin struct {
	pin periphgpio.PinIO
}

// OpenPeriphPin looks up the pin by its GPIO name and puts it in output
// mode, initially low.
func OpenPeriphPin(spec *PinSpec) (*PeriphPin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPeriphInitFailed, err)
	}

	pin := gpioreg.ByName(spec.Name())
	if pin == nil {
		return nil, fmt.Errorf("%w %s", ErrPinNotFound, spec.Name())
	}

	if err := pin.Out(periphgpio.Low); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrPinWrite, spec.Name(), err)
	}

	return &PeriphPin{pin: pin}, nil
}

func (p *PeriphPin) Out(level Level) error {
	if err := p.pin.Out(periphgpio.Level(level)); err != nil {
		return fmt.Errorf("%w %s: %v", ErrPinWrite, p, err)
	}
	return nil
}

func (p *PeriphPin) Read() (Level, error) {
	return Level(p.pin.Read()), nil
}

// Close leaves the line as it is; periph has no per-pin handle to release.
func (p *PeriphPin) Close() error {
	return nil
}

func (p *PeriphPin) String() string {
	return p.pin.Name()
}
