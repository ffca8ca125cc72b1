package gpio

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/racerxdl/go-mcp23017"
)

// MCP23017Outputs is the number of I/O lines on an MCP23017 expander.
const MCP23017Outputs = 16

// MCP23017Pin is one line of an MCP23017 I2C expander, as found on many relay
// hats.
type MCP23017Pin struct {
	device *mcp23017.Device
	bus    uint8
	devNum uint8
	line   uint8
}

// ParseMCP23017Chip parses "<bus>.<device>" (e.g. "1.0"). The default chip
// name selects bus 1, device 0.
func ParseMCP23017Chip(chip string) (bus, devNum uint8, err error) {
	if chip == DefaultChip {
		return 1, 0, nil
	}

	busStr, devStr, ok := strings.Cut(chip, ".")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q (expected <bus>.<device>)", ErrInvalidPinSpec, chip)
	}

	b, err := strconv.ParseUint(busStr, 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bus %q", ErrInvalidPinSpec, busStr)
	}
	d, err := strconv.ParseUint(devStr, 10, 8)
	if err != nil || d > 7 {
		return 0, 0, fmt.Errorf("%w: device %q (must be 0-7)", ErrInvalidPinSpec, devStr)
	}
	return uint8(b), uint8(d), nil
}

// OpenMCP23017Pin opens line spec.LineNum of the expander named by spec.Chip
// as an output, initially low.
func OpenMCP23017Pin(spec *PinSpec) (*MCP23017Pin, error) {
	if spec.LineNum >= MCP23017Outputs {
		return nil, fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidPinNumber, spec.LineNum, MCP23017Outputs-1)
	}

	bus, devNum, err := ParseMCP23017Chip(spec.Chip)
	if err != nil {
		return nil, err
	}

	device, err := mcp23017.Open(bus, devNum)
	if err != nil {
		return nil, fmt.Errorf("%w %d.%d: %v", ErrExpanderOpen, bus, devNum, err)
	}

	p := &MCP23017Pin{
		device: device,
		bus:    bus,
		devNum: devNum,
		line:   uint8(spec.LineNum),
	}

	if err := device.PinMode(p.line, mcp23017.OUTPUT); err != nil {
		device.Close() //nolint:errcheck
		return nil, fmt.Errorf("%w %s: %v", ErrLineRequestFailed, p, err)
	}
	if err := p.Out(Low); err != nil {
		device.Close() //nolint:errcheck
		return nil, err
	}

	log.Printf("opened %s", p)
	return p, nil
}

func (p *MCP23017Pin) Out(level Level) error {
	if err := p.device.DigitalWrite(p.line, mcp23017.PinLevel(level)); err != nil {
		return fmt.Errorf("%w %s: %v", ErrPinWrite, p, err)
	}
	return nil
}

func (p *MCP23017Pin) Read() (Level, error) {
	level, err := p.device.DigitalRead(p.line)
	if err != nil {
		return Low, fmt.Errorf("%w %s: %v", ErrPinRead, p, err)
	}
	return Level(level), nil
}

// Close releases the I2C device. The line keeps its level.
func (p *MCP23017Pin) Close() error {
	return p.device.Close()
}

func (p *MCP23017Pin) String() string {
	return fmt.Sprintf("mcp23017:%d.%d:%d", p.bus, p.devNum, p.line)
}
