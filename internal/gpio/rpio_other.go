//go:build !linux

package gpio

// RpioPin is not available on non-Linux platforms.
type RpioPin struct{}

// OpenRpioPin returns ErrNotSupported on non-Linux platforms.
func OpenRpioPin(spec *PinSpec) (*RpioPin, error) {
	return nil, ErrNotSupported
}

func (p *RpioPin) Out(level Level) error { return ErrNotSupported }

func (p *RpioPin) Read() (Level, error) { return Low, ErrNotSupported }

func (p *RpioPin) Close() error { return nil }

func (p *RpioPin) String() string { return "unsupported" }
