// Package relayd wires the relay controller to its transports.
package relayd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/larsks/relayrpc/internal/api"
	"github.com/larsks/relayrpc/internal/auth"
	"github.com/larsks/relayrpc/internal/cli"
	"github.com/larsks/relayrpc/internal/commands"
	"github.com/larsks/relayrpc/internal/gpio"
	"github.com/larsks/relayrpc/internal/history"
	"github.com/larsks/relayrpc/internal/homekit"
	"github.com/larsks/relayrpc/internal/httpserver"
	"github.com/larsks/relayrpc/internal/logsetup"
	"github.com/larsks/relayrpc/internal/mqtt"
	"github.com/larsks/relayrpc/internal/mqttrpc"
	"github.com/larsks/relayrpc/internal/relay"
	"github.com/larsks/relayrpc/internal/rpc"
	"github.com/larsks/relayrpc/internal/status"
	"golang.org/x/sync/errgroup"
)

// Daemon owns the relay and everything that serves it.
type Daemon struct {
	relay      *relay.Controller
	dispatcher *rpc.Dispatcher
	server     *api.Server
	transport  *mqttrpc.Transport
	mqttClient *mqtt.Client
	panel      *status.Panel
	homekit    *homekit.Bridge
	history    *history.Recorder
}

// OpenScreen returns the display used for the status panel.
type OpenScreen func(fake bool) (status.Screen, error)

func openDisplay(fake bool) (status.Screen, error) {
	d, err := status.OpenDisplay(fake)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// NewDaemon opens the relay pin, forces the relay open and builds the
// transports enabled in cfg. ctx is passed to commands received over mqtt.
func NewDaemon(ctx context.Context, cfg *Config, openScreen OpenScreen) (*Daemon, error) {
	pin, err := gpio.Open(cfg.Driver, cfg.Pin)
	if err != nil {
		return nil, fmt.Errorf("%w %s using %s: %v", ErrOpenPin, cfg.Pin, cfg.Driver, err)
	}

	d := &Daemon{
		relay:      relay.New(pin),
		dispatcher: rpc.NewDispatcher(),
	}

	if err := d.relay.Initialize(); err != nil {
		pin.Close() //nolint:errcheck
		return nil, err
	}

	if err := commands.Register(d.dispatcher, d.relay); err != nil {
		d.Close() //nolint:errcheck
		return nil, err
	}

	opts := api.Options{
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   cfg.AccessLog,
	}
	if cfg.Auth.Secret != "" {
		verifier, err := auth.NewVerifier(cfg.Auth.Secret)
		if err != nil {
			d.Close() //nolint:errcheck
			return nil, err
		}
		opts.Authenticate = verifier.Middleware
	}
	d.server = api.NewServer(d.dispatcher, d.relay, opts)

	if cfg.History.URL != "" {
		d.history = history.Open(cfg.History, map[string]string{
			"pin":    cfg.Pin,
			"driver": cfg.Driver,
		})
		d.history.Attach(d.relay)
	}

	if cfg.HomeKit.Enabled {
		d.homekit = homekit.New(ctx, cfg.HomeKit.Name, d.dispatcher, d.relay)
	}

	if cfg.Display.Enabled {
		if openScreen == nil {
			openScreen = openDisplay
		}
		screen, err := openScreen(cfg.Display.Fake)
		if err != nil {
			d.Close() //nolint:errcheck
			return nil, err
		}
		d.panel = status.NewPanel(screen, "relayd", httpserver.Addr(cfg))
		if err := d.panel.Start(d.relay); err != nil {
			d.Close() //nolint:errcheck
			return nil, err
		}
	}

	if cfg.MQTT.Server != "" {
		d.transport = mqttrpc.New(ctx, cfg.MQTT.TopicPrefix, d.dispatcher, d.relay)
		d.mqttClient, err = mqtt.NewClient(mqtt.Config{
			ServerURL: cfg.MQTT.Server,
			ClientID:  cfg.MQTT.ClientID,
			Will: &mqtt.Will{
				Topic:    d.transport.StatusTopic(),
				Payload:  mqttrpc.StatusOffline,
				QoS:      1,
				Retained: true,
			},
			OnConnect: func(c *mqtt.Client) {
				if err := d.transport.Attach(c); err != nil {
					log.Printf("failed to attach mqtt transport: %v", err)
				}
			},
		})
		if err != nil {
			d.Close() //nolint:errcheck
			return nil, err
		}
	}

	return d, nil
}

// Relay returns the controller.
func (d *Daemon) Relay() *relay.Controller {
	return d.relay
}

// Handler returns the http api.
func (d *Daemon) Handler() http.Handler {
	return d.server
}

// Serve runs the http api, and the HomeKit server when enabled, until ctx is
// cancelled or one of them fails.
func (d *Daemon) Serve(ctx context.Context, cfg *Config) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpserver.ListenAndServe(ctx, httpserver.Addr(cfg), d.Handler())
	})
	if d.homekit != nil {
		g.Go(func() error {
			return d.homekit.Serve(ctx, cfg.HomeKit)
		})
	}

	return g.Wait()
}

// Close stops the transports and releases the pin. The relay line keeps its
// last level.
func (d *Daemon) Close() error {
	var errs []error

	if d.transport != nil {
		d.transport.Detach()
	}
	if d.mqttClient != nil {
		d.mqttClient.Disconnect(250)
	}
	if d.panel != nil {
		if err := d.panel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.history != nil {
		d.history.Close()
	}
	if err := d.relay.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Handler implements cli.CommandHandler for relayd.
type Handler struct {
	openScreen OpenScreen
}

// NewHandler creates a relayd handler. A nil openScreen uses the SSD1306
// display.
func NewHandler(openScreen OpenScreen) *Handler {
	return &Handler{openScreen: openScreen}
}

// Start runs the daemon until ctx is cancelled.
func (h *Handler) Start(ctx context.Context, config cli.Configurable, args []string) error {
	cfg := config.(*Config)
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}

	logFile := logsetup.ToFile(cfg.Log)
	defer logFile.Close() //nolint:errcheck

	d, err := NewDaemon(ctx, cfg, h.openScreen)
	if err != nil {
		return err
	}
	defer d.Close() //nolint:errcheck

	log.Printf("relay %s ready", d.relay)
	return d.Serve(ctx, cfg)
}
