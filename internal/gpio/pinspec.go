package gpio

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultChip is the GPIO chip used when a pin specification does not name one.
const DefaultChip = "gpiochip0"

// PinSpec represents a parsed GPIO pin specification
type PinSpec struct {
	// Chip is the GPIO character device name (e.g. gpiochip0)
	Chip string

	// LineNum is the GPIO line number (e.g., 18 for GPIO18)
	LineNum int
}

// ParsePin parses a GPIO pin specification string.
// Format: "[chip:]pin", where pin is "GPIO<number>" or "<number>".
// Examples: "GPIO17", "17", "gpiochip1:GPIO4"
func ParsePin(pinSpec string) (*PinSpec, error) {
	pinSpec = strings.TrimSpace(pinSpec)
	if pinSpec == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPinSpec)
	}

	chip := DefaultChip
	pin := pinSpec

	parts := strings.Split(pinSpec, ":")
	switch len(parts) {
	case 1:
	case 2:
		chip = strings.TrimSpace(parts[0])
		pin = parts[1]
		if chip == "" {
			return nil, fmt.Errorf("%w: %s: empty chip name", ErrInvalidPinSpec, pinSpec)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidPinSpec, pinSpec)
	}

	lineNum, err := ParsePinNumber(strings.TrimSpace(pin))
	if err != nil {
		return nil, err
	}

	return &PinSpec{
		Chip:    chip,
		LineNum: lineNum,
	}, nil
}

// ParsePinNumber parses a GPIO pin name (e.g., "GPIO16") and returns the line number
// Supports both "GPIO<number>" and "<number>" formats
func ParsePinNumber(pinName string) (int, error) {
	numStr := pinName
	if strings.HasPrefix(strings.ToUpper(pinName), "GPIO") {
		numStr = pinName[len("GPIO"):]
	}

	lineNum, err := strconv.Atoi(numStr)
	if err != nil || lineNum < 0 {
		return 0, fmt.Errorf("%w: %q (expected GPIO<number> or <number>)", ErrInvalidPinNumber, pinName)
	}

	return lineNum, nil
}

// Name returns the conventional pin name, e.g. GPIO17.
func (ps *PinSpec) Name() string {
	return fmt.Sprintf("GPIO%d", ps.LineNum)
}

// String returns a string representation of the pin specification
func (ps *PinSpec) String() string {
	return fmt.Sprintf("%s:GPIO%d", ps.Chip, ps.LineNum)
}
