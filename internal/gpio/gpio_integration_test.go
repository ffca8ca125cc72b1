//go:build integration && gpio

package gpio

import (
	"os"
	"testing"
	"time"
)

// Run with RELAY_TEST_PIN set to a line that is safe to toggle, e.g.
// RELAY_TEST_PIN=GPIO23 go test -tags integration,gpio ./internal/gpio
func TestCdevPinIntegration(t *testing.T) {
	pinSpec := os.Getenv("RELAY_TEST_PIN")
	if pinSpec == "" {
		t.Skip("RELAY_TEST_PIN not set")
	}

	for _, driver := range []string{"gpiocdev", "periph"} {
		t.Run(driver, func(t *testing.T) {
			pin, err := Open(driver, pinSpec)
			if err != nil {
				t.Fatalf("failed to open %s with %s: %v", pinSpec, driver, err)
			}
			defer pin.Close()

			for _, level := range []Level{High, Low} {
				if err := pin.Out(level); err != nil {
					t.Fatalf("Out(%s) failed: %v", level, err)
				}

				// Give hardware time to respond
				time.Sleep(100 * time.Millisecond)

				got, err := pin.Read()
				if err != nil {
					t.Fatalf("Read() failed: %v", err)
				}
				if got != level {
					t.Errorf("Read() = %s, want %s", got, level)
				}
			}
		})
	}
}
