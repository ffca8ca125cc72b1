//go:build linux

package gpio

import (
	"fmt"
	"log"

	"github.com/warthog618/go-gpiocdev"
)

// CdevPin drives a line through the Linux GPIO character device.
type CdevPin struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	spec PinSpec
}

// OpenCdevPin requests the line described by spec as an output, initially low.
func OpenCdevPin(spec *PinSpec) (*CdevPin, error) {
	chip, err := gpiocdev.NewChip(spec.Chip, gpiocdev.WithConsumer("relayd"))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrGPIOChipOpenFailed, spec.Chip, err)
	}

	line, err := chip.RequestLine(spec.LineNum, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close() //nolint:errcheck
		return nil, fmt.Errorf("%w: line %d: %v", ErrLineRequestFailed, spec.LineNum, err)
	}

	return &CdevPin{
		chip: chip,
		line: line,
		spec: *spec,
	}, nil
}

func (p *CdevPin) Out(level Level) error {
	value := 0
	if level == High {
		value = 1
	}
	if err := p.line.SetValue(value); err != nil {
		return fmt.Errorf("%w %s: %v", ErrPinWrite, p, err)
	}
	return nil
}

func (p *CdevPin) Read() (Level, error) {
	value, err := p.line.Value()
	if err != nil {
		return Low, fmt.Errorf("%w %s: %v", ErrPinRead, p, err)
	}
	return Level(value != 0), nil
}

func (p *CdevPin) Close() error {
	log.Printf("releasing %s", p)
	var lineErr error
	if err := p.line.Close(); err != nil {
		lineErr = fmt.Errorf("failed to close GPIO line %d: %w", p.spec.LineNum, err)
	}
	if err := p.chip.Close(); err != nil && lineErr == nil {
		return fmt.Errorf("failed to close GPIO chip: %w", err)
	}
	return lineErr
}

func (p *CdevPin) String() string {
	return p.spec.String()
}
