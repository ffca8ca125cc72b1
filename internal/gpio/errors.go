package gpio

import "errors"

// Pin specification errors
var (
	ErrInvalidPinSpec   = errors.New("invalid pin specification")
	ErrInvalidPinNumber = errors.New("invalid GPIO pin format")
)

// Hardware errors
var (
	ErrGPIOChipOpenFailed = errors.New("failed to open GPIO chip")
	ErrLineRequestFailed  = errors.New("failed to request GPIO line")
	ErrPeriphInitFailed   = errors.New("failed to initialize periph.io")
	ErrPinNotFound        = errors.New("failed to find pin")
	ErrPinWrite           = errors.New("failed to write pin")
	ErrPinRead            = errors.New("failed to read pin")
	ErrGPIOMemOpen        = errors.New("failed to map GPIO memory")
	ErrExpanderOpen       = errors.New("failed to open I2C expander")
	ErrNotSupported       = errors.New("gpio: not supported on this platform (requires Linux)")
)

// PiFace errors
var (
	ErrSPIPortOpen   = errors.New("failed to open SPI port")
	ErrSPIConnect    = errors.New("failed to connect to SPI")
	ErrRegisterWrite = errors.New("failed to write register")
	ErrRegisterRead  = errors.New("failed to read register")
)

// Driver registry errors
var (
	ErrUnknownDriver    = errors.New("unknown pin driver")
	ErrDriverRegistered = errors.New("pin driver already registered")
)
