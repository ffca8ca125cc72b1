//go:build linux

package gpio

import (
	"fmt"
	"log"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// go-rpio maps the GPIO registers once per process.
var (
	rpioMu    sync.Mutex
	rpioUsers int
)

// RpioPin drives a Raspberry Pi BCM pin through /dev/gpiomem.
type RpioPin struct {
	pin  rpio.Pin
	spec PinSpec
}

// OpenRpioPin maps the GPIO registers and sets spec.LineNum (a BCM number)
// as an output, initially low. The chip name is ignored.
func OpenRpioPin(spec *PinSpec) (*RpioPin, error) {
	rpioMu.Lock()
	defer rpioMu.Unlock()

	if rpioUsers == 0 {
		if err := rpio.Open(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGPIOMemOpen, err)
		}
	}
	rpioUsers++

	p := &RpioPin{
		pin:  rpio.Pin(spec.LineNum),
		spec: *spec,
	}
	p.pin.Output()
	p.pin.Low()
	log.Printf("opened %s", p)
	return p, nil
}

func (p *RpioPin) Out(level Level) error {
	if level == High {
		p.pin.High()
	} else {
		p.pin.Low()
	}
	return nil
}

func (p *RpioPin) Read() (Level, error) {
	return Level(p.pin.Read() == rpio.High), nil
}

// Close unmaps the registers once the last pin is closed. The pin keeps its
// level.
func (p *RpioPin) Close() error {
	rpioMu.Lock()
	defer rpioMu.Unlock()

	rpioUsers--
	if rpioUsers > 0 {
		return nil
	}
	return rpio.Close()
}

func (p *RpioPin) String() string {
	return fmt.Sprintf("rpio:%s", p.spec.Name())
}
