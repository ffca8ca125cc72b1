// Package gpio drives a single digital output line. Drivers for the Linux
// GPIO character device and for periph.io are provided, plus an in-memory
// fake used by tests and dry runs.
package gpio

// Level is the electrical level of a digital line.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// OutputPin is a digital output line. Drivers return a pin that is already
// configured for output.
type OutputPin interface {
	// Out drives the line to the given level.
	Out(level Level) error

	// Read returns the level currently driven on the line.
	Read() (Level, error)

	// Close releases the line.
	Close() error

	String() string
}
