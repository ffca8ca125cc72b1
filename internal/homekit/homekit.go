// Package homekit exposes the relay as a HomeKit switch. The switch is on
// while the relay is closed.
package homekit

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/larsks/relayrpc/internal/commands"
	"github.com/larsks/relayrpc/internal/relay"
	"github.com/larsks/relayrpc/internal/rpc"
	"github.com/larsks/relayrpc/internal/version"
)

// DefaultPin is the setup code used when none is configured.
const DefaultPin = "00102003"

// Config holds the HomeKit settings.
type Config struct {
	Enabled  bool   `mapstructure:"enabled"`
	Name     string `mapstructure:"name"`
	Pin      string `mapstructure:"pin"`
	Address  string `mapstructure:"address"`
	StoreDir string `mapstructure:"store-dir"`
}

// Validate checks the setup code and store directory.
func (c *Config) Validate() error {
	if len(c.Pin) != 8 || strings.Trim(c.Pin, "0123456789") != "" {
		return fmt.Errorf("%w: %q (must be 8 digits)", ErrInvalidPin, c.Pin)
	}
	if c.StoreDir == "" {
		return ErrNoStoreDir
	}
	return nil
}

// Bridge keeps a HomeKit switch and the relay in step. Remote updates are
// sent through the dispatcher like any other command.
type Bridge struct {
	ctx        context.Context
	dispatcher *rpc.Dispatcher
	relay      *relay.Controller
	name       string
	acc        *accessory.Switch
}

// New creates the accessory and subscribes it to relay state changes. ctx is
// passed to commands sent from HomeKit.
func New(ctx context.Context, name string, d *rpc.Dispatcher, r *relay.Controller) *Bridge {
	b := &Bridge{
		ctx:        ctx,
		dispatcher: d,
		relay:      r,
		name:       name,
		acc: accessory.NewSwitch(accessory.Info{
			Name:         name,
			Manufacturer: "relayrpc",
			Model:        "relayd",
			Firmware:     version.BuildVersion,
		}),
	}

	b.acc.Switch.On.SetValue(r.State() == relay.Closed)
	b.acc.Switch.On.OnValueRemoteUpdate(func(on bool) {
		go b.setOn(on)
	})
	r.OnChange(func(s relay.State) {
		b.acc.Switch.On.SetValue(s == relay.Closed)
	})
	return b
}

// On reports the switch value HomeKit sees.
func (b *Bridge) On() bool {
	return b.acc.Switch.On.Value()
}

func (b *Bridge) setOn(on bool) {
	method := commands.MethodOpen
	if on {
		method = commands.MethodClose
	}

	log.Printf("homekit requested %s", method)
	if _, err := b.dispatcher.Dispatch(b.ctx, method, nil); err != nil {
		log.Printf("homekit %s failed: %v", method, err)
		b.acc.Switch.On.SetValue(b.relay.State() == relay.Closed)
	}
}

// Serve runs the HomeKit server until ctx is cancelled. Pairing data is kept
// in cfg.StoreDir.
func (b *Bridge) Serve(ctx context.Context, cfg Config) error {
	server, err := hap.NewServer(hap.NewFsStore(cfg.StoreDir), b.acc.A)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}
	server.Pin = cfg.Pin
	if cfg.Address != "" {
		server.Addr = cfg.Address
	}

	log.Printf("serving homekit accessory %q", b.name)
	if err := server.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}
	return nil
}
