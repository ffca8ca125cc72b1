package gpio

import (
	"fmt"
	"sort"
	"sync"
)

// Factory opens an output pin for a parsed pin specification.
type Factory func(spec *PinSpec) (OutputPin, error)

// Registry maps driver names to factories.
type Registry struct {
	drivers map[string]Factory
	mu      sync.RWMutex
}

// NewRegistry creates an empty driver registry
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[string]Factory),
	}
}

// Register adds a driver factory to the registry
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDriverRegistered, name)
	}

	r.drivers[name] = factory
	return nil
}

// Open parses pinSpec and opens it with the named driver.
func (r *Registry) Open(driverName, pinSpec string) (OutputPin, error) {
	r.mu.RLock()
	factory, exists := r.drivers[driverName]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driverName)
	}

	spec, err := ParsePin(pinSpec)
	if err != nil {
		return nil, err
	}

	return factory(spec)
}

// ListDrivers returns the sorted names of all registered drivers
func (r *Registry) ListDrivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Register adds a driver factory to the default registry
func Register(name string, factory Factory) error {
	return defaultRegistry.Register(name, factory)
}

// Open opens a pin using the default registry
func Open(driverName, pinSpec string) (OutputPin, error) {
	return defaultRegistry.Open(driverName, pinSpec)
}

// ListDrivers returns the names of all drivers in the default registry
func ListDrivers() []string {
	return defaultRegistry.ListDrivers()
}

func init() {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(Register("gpiocdev", func(spec *PinSpec) (OutputPin, error) {
		pin, err := OpenCdevPin(spec)
		if err != nil {
			return nil, err
		}
		return pin, nil
	}))
	must(Register("periph", func(spec *PinSpec) (OutputPin, error) {
		pin, err := OpenPeriphPin(spec)
		if err != nil {
			return nil, err
		}
		return pin, nil
	}))
	must(Register("piface", func(spec *PinSpec) (OutputPin, error) {
		pin, err := OpenPiFacePin(spec)
		if err != nil {
			return nil, err
		}
		return pin, nil
	}))
	must(Register("mcp23017", func(spec *PinSpec) (OutputPin, error) {
		pin, err := OpenMCP23017Pin(spec)
		if err != nil {
			return nil, err
		}
		return pin, nil
	}))
	must(Register("rpio", func(spec *PinSpec) (OutputPin, error) {
		pin, err := OpenRpioPin(spec)
		if err != nil {
			return nil, err
		}
		return pin, nil
	}))
	must(Register("dummy", func(spec *PinSpec) (OutputPin, error) {
		return NewFakePin(spec.Name()), nil
	}))
}
