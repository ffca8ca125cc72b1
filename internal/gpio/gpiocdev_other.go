//go:build !linux

package gpio

// CdevPin is not available on non-Linux platforms.
type CdevPin struct{}

// OpenCdevPin returns ErrNotSupported on non-Linux platforms.
func OpenCdevPin(spec *PinSpec) (*CdevPin, error) {
	return nil, ErrNotSupported
}

func (p *CdevPin) Out(level Level) error { return ErrNotSupported }

func (p *CdevPin) Read() (Level, error) { return Low, ErrNotSupported }

func (p *CdevPin) Close() error { return nil }

func (p *CdevPin) String() string { return "unsupported" }
