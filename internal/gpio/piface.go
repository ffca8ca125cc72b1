package gpio

import (
	"fmt"
	"log"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// MCP23S17 registers used by the PiFace Digital board. Port A drives the
// outputs (relays on outputs 0 and 1), port B reads the inputs.
const (
	regIODIRA = 0x00
	regIODIRB = 0x01
	regIOCON  = 0x0a
	regGPPUB  = 0x0d
	regGPIOA  = 0x12
)

const (
	opcodeWrite = 0x40
	opcodeRead  = 0x41
)

// PiFaceOutputs is the number of outputs on a PiFace Digital board.
const PiFaceOutputs = 8

// spiTx is the part of spi.Conn used to talk to the expander.
type spiTx interface {
	Tx(w, r []byte) error
}

type mcp23s17 struct {
	conn spiTx
	mu   sync.Mutex
}

func (m *mcp23s17) writeRegister(reg, value uint8) error {
	write := []byte{opcodeWrite, reg, value}
	read := make([]byte, len(write))
	if err := m.conn.Tx(write, read); err != nil {
		return fmt.Errorf("%w 0x%02x: %v", ErrRegisterWrite, reg, err)
	}
	return nil
}

func (m *mcp23s17) readRegister(reg uint8) (uint8, error) {
	write := []byte{opcodeRead, reg, 0x00}
	read := make([]byte, len(write))
	if err := m.conn.Tx(write, read); err != nil {
		return 0, fmt.Errorf("%w 0x%02x: %v", ErrRegisterRead, reg, err)
	}
	return read[2], nil
}

func (m *mcp23s17) init() error {
	steps := []struct {
		reg   uint8
		value uint8
		desc  string
	}{
		{regIOCON, 0x08, "enable hardware addressing"},
		{regIODIRA, 0x00, "set port A as outputs"},
		{regIODIRB, 0xff, "set port B as inputs"},
		{regGPPUB, 0xff, "enable port B pullups"},
	}

	for _, step := range steps {
		if err := m.writeRegister(step.reg, step.value); err != nil {
			return fmt.Errorf("%w (%s): %v", ErrRegisterWrite, step.desc, err)
		}
	}
	return nil
}

// setOutput does a read-modify-write of port A so the other outputs keep
// their level.
func (m *mcp23s17) setOutput(bit uint8, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	outputs, err := m.readRegister(regGPIOA)
	if err != nil {
		return err
	}
	if on {
		outputs |= 1 << bit
	} else {
		outputs &^= 1 << bit
	}
	return m.writeRegister(regGPIOA, outputs)
}

func (m *mcp23s17) output(bit uint8) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	outputs, err := m.readRegister(regGPIOA)
	if err != nil {
		return false, err
	}
	return (outputs>>bit)&1 != 0, nil
}

// PiFacePin is one output of a PiFace Digital board.
type PiFacePin struct {
	port     spi.PortCloser
	portName string
	dev      *mcp23s17
	bit      uint8
}

// OpenPiFacePin opens output spec.LineNum on the PiFace attached to the SPI
// port named by spec.Chip. The default chip name selects the first SPI port.
// The output is driven Low.
func OpenPiFacePin(spec *PinSpec) (*PiFacePin, error) {
	if spec.LineNum >= PiFaceOutputs {
		return nil, fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidPinNumber, spec.LineNum, PiFaceOutputs-1)
	}

	portName := spec.Chip
	if portName == DefaultChip {
		portName = ""
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPeriphInitFailed, err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrSPIPortOpen, portName, err)
	}

	conn, err := port.Connect(1*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		port.Close() //nolint:errcheck
		return nil, fmt.Errorf("%w: %v", ErrSPIConnect, err)
	}

	pin, err := newPiFacePin(conn, uint8(spec.LineNum))
	if err != nil {
		port.Close() //nolint:errcheck
		return nil, err
	}
	pin.port = port
	pin.portName = port.String()
	log.Printf("opened piface output %s", pin)
	return pin, nil
}

func newPiFacePin(conn spiTx, bit uint8) (*PiFacePin, error) {
	pin := &PiFacePin{
		dev: &mcp23s17{conn: conn},
		bit: bit,
	}
	if err := pin.dev.init(); err != nil {
		return nil, err
	}
	if err := pin.Out(Low); err != nil {
		return nil, err
	}
	return pin, nil
}

func (p *PiFacePin) Out(level Level) error {
	if err := p.dev.setOutput(p.bit, bool(level)); err != nil {
		return fmt.Errorf("%w %s: %v", ErrPinWrite, p, err)
	}
	return nil
}

func (p *PiFacePin) Read() (Level, error) {
	on, err := p.dev.output(p.bit)
	if err != nil {
		return Low, fmt.Errorf("%w %s: %v", ErrPinRead, p, err)
	}
	return Level(on), nil
}

// Close releases the SPI port. The output keeps its level.
func (p *PiFacePin) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}

func (p *PiFacePin) String() string {
	return fmt.Sprintf("piface:%s:%d", p.portName, p.bit)
}
