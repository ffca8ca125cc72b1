package relayd

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/adrg/xdg"
	"github.com/larsks/relayrpc/internal/config"
	"github.com/larsks/relayrpc/internal/gpio"
	"github.com/larsks/relayrpc/internal/history"
	"github.com/larsks/relayrpc/internal/homekit"
	"github.com/larsks/relayrpc/internal/logsetup"
	"github.com/larsks/relayrpc/internal/mqtt"
	"github.com/spf13/pflag"
)

const (
	defaultListenPort  = 8080
	defaultPin         = "GPIO0"
	defaultTopicPrefix = "relay"
	defaultClientID    = "relayd"
	defaultName        = "Relay"
)

type (
	MQTTConfig struct {
		Server      string `mapstructure:"server"`
		ClientID    string `mapstructure:"client-id"`
		TopicPrefix string `mapstructure:"topic-prefix"`
	}

	DisplayConfig struct {
		Enabled bool `mapstructure:"enabled"`
		Fake    bool `mapstructure:"fake"`
	}

	AuthConfig struct {
		Secret string `mapstructure:"secret"`
	}

	// Config holds the relayd configuration.
	Config struct {
		ListenAddress string              `mapstructure:"listen-address"`
		ListenPort    int                 `mapstructure:"listen-port"`
		Driver        string              `mapstructure:"driver"`
		Pin           string              `mapstructure:"pin"`
		CORSOrigins   []string            `mapstructure:"cors-origins"`
		AccessLog     bool                `mapstructure:"access-log"`
		ConfigFile    string              `mapstructure:"config"`
		MQTT          MQTTConfig          `mapstructure:"mqtt"`
		Display       DisplayConfig       `mapstructure:"display"`
		Auth          AuthConfig          `mapstructure:"auth"`
		Log           logsetup.FileConfig `mapstructure:"log"`
		HomeKit       homekit.Config      `mapstructure:"homekit"`
		History       history.Config      `mapstructure:"history"`
	}
)

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		ListenPort: defaultListenPort,
		Driver:     "gpiocdev",
		Pin:        defaultPin,
		AccessLog:  true,
		MQTT: MQTTConfig{
			ClientID:    defaultClientID,
			TopicPrefix: defaultTopicPrefix,
		},
		Log: logsetup.FileConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		HomeKit: homekit.Config{
			Name:     defaultName,
			Pin:      homekit.DefaultPin,
			StoreDir: filepath.Join(xdg.DataHome, "relayd", "homekit"),
		},
		History: history.Config{
			Measurement: "relay",
		},
	}
}

// AddFlags adds command-line flags for all configuration options.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", "", "Config file to use")
	fs.StringVar(&c.ListenAddress, "listen-address", c.ListenAddress, "Listen address for http server")
	fs.IntVar(&c.ListenPort, "listen-port", c.ListenPort, "Listen port for http server")
	fs.StringVar(&c.Driver, "driver", c.Driver, fmt.Sprintf("GPIO driver to use %v", gpio.ListDrivers()))
	fs.StringVar(&c.Pin, "pin", c.Pin, "Relay output pin ([chip:]GPIOn)")
	fs.StringSliceVar(&c.CORSOrigins, "cors-origins", c.CORSOrigins, "Origins allowed to call the http api")
	fs.BoolVar(&c.AccessLog, "access-log", c.AccessLog, "Log every http request")
	fs.StringVar(&c.Auth.Secret, "auth.secret", c.Auth.Secret, "Shared secret for rpc bearer tokens; empty disables authentication")

	fs.StringVar(&c.MQTT.Server, "mqtt.server", c.MQTT.Server, "MQTT broker URL (mqtt://host:port); empty disables mqtt")
	fs.StringVar(&c.MQTT.ClientID, "mqtt.client-id", c.MQTT.ClientID, "MQTT client id")
	fs.StringVar(&c.MQTT.TopicPrefix, "mqtt.topic-prefix", c.MQTT.TopicPrefix, "Prefix for mqtt topics")

	fs.BoolVar(&c.Display.Enabled, "display.enabled", c.Display.Enabled, "Show relay state on an SSD1306 display")
	fs.BoolVar(&c.Display.Fake, "display.fake", c.Display.Fake, "Use a fake display driver")

	fs.StringVar(&c.Log.Path, "log.path", c.Log.Path, "Also write logs to this file, with rotation")
	fs.IntVar(&c.Log.MaxSizeMB, "log.max-size", c.Log.MaxSizeMB, "Rotate the log file after this many megabytes")
	fs.IntVar(&c.Log.MaxBackups, "log.max-backups", c.Log.MaxBackups, "Number of rotated log files to keep")
	fs.IntVar(&c.Log.MaxAgeDays, "log.max-age", c.Log.MaxAgeDays, "Days to keep rotated log files")
	fs.BoolVar(&c.Log.Compress, "log.compress", c.Log.Compress, "Compress rotated log files")

	fs.BoolVar(&c.HomeKit.Enabled, "homekit.enabled", c.HomeKit.Enabled, "Expose the relay as a HomeKit switch")
	fs.StringVar(&c.HomeKit.Name, "homekit.name", c.HomeKit.Name, "HomeKit accessory name")
	fs.StringVar(&c.HomeKit.Pin, "homekit.pin", c.HomeKit.Pin, "HomeKit setup code (8 digits)")
	fs.StringVar(&c.HomeKit.Address, "homekit.address", c.HomeKit.Address, "Listen address for the HomeKit server")
	fs.StringVar(&c.HomeKit.StoreDir, "homekit.store-dir", c.HomeKit.StoreDir, "Directory for HomeKit pairing data")

	fs.StringVar(&c.History.URL, "history.url", c.History.URL, "InfluxDB URL for state history; empty disables recording")
	fs.StringVar(&c.History.Token, "history.token", c.History.Token, "InfluxDB token")
	fs.StringVar(&c.History.Org, "history.org", c.History.Org, "InfluxDB organization")
	fs.StringVar(&c.History.Bucket, "history.bucket", c.History.Bucket, "InfluxDB bucket")
	fs.StringVar(&c.History.Measurement, "history.measurement", c.History.Measurement, "InfluxDB measurement name")
}

// LoadConfigWithFlagSet loads configuration with precedence defaults < config
// file < explicit flags, then validates it.
func (c *Config) LoadConfigWithFlagSet(fs *pflag.FlagSet) error {
	defaults := NewConfig()

	loader := config.NewConfigLoader()
	loader.SetStrictMode(true)
	loader.SetConfigFile(c.ConfigFile)
	loader.SetDefaults(map[string]any{
		"listen-address":      defaults.ListenAddress,
		"listen-port":         defaults.ListenPort,
		"driver":              defaults.Driver,
		"pin":                 defaults.Pin,
		"cors-origins":        []string{},
		"access-log":          defaults.AccessLog,
		"auth.secret":         defaults.Auth.Secret,
		"mqtt.server":         defaults.MQTT.Server,
		"mqtt.client-id":      defaults.MQTT.ClientID,
		"mqtt.topic-prefix":   defaults.MQTT.TopicPrefix,
		"display.enabled":     defaults.Display.Enabled,
		"display.fake":        defaults.Display.Fake,
		"log.path":            defaults.Log.Path,
		"log.max-size":        defaults.Log.MaxSizeMB,
		"log.max-backups":     defaults.Log.MaxBackups,
		"log.max-age":         defaults.Log.MaxAgeDays,
		"log.compress":        defaults.Log.Compress,
		"homekit.enabled":     defaults.HomeKit.Enabled,
		"homekit.name":        defaults.HomeKit.Name,
		"homekit.pin":         defaults.HomeKit.Pin,
		"homekit.address":     defaults.HomeKit.Address,
		"homekit.store-dir":   defaults.HomeKit.StoreDir,
		"history.url":         defaults.History.URL,
		"history.token":       defaults.History.Token,
		"history.org":         defaults.History.Org,
		"history.bucket":      defaults.History.Bucket,
		"history.measurement": defaults.History.Measurement,
	})

	if err := loader.LoadConfigWithFlagSet(c, fs); err != nil {
		return err
	}
	return c.Validate()
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.ListenPort < 0 || c.ListenPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidListenPort, c.ListenPort)
	}
	if !slices.Contains(gpio.ListDrivers(), c.Driver) {
		return fmt.Errorf("%w: %s", gpio.ErrUnknownDriver, c.Driver)
	}
	if _, err := gpio.ParsePin(c.Pin); err != nil {
		return err
	}
	if c.MQTT.Server != "" {
		if err := mqtt.ValidateServerURL(c.MQTT.Server); err != nil {
			return err
		}
		if c.MQTT.TopicPrefix == "" {
			return ErrEmptyTopicPrefix
		}
	}
	if c.HomeKit.Enabled {
		if err := c.HomeKit.Validate(); err != nil {
			return err
		}
	}
	return c.History.Validate()
}

func (c *Config) GetListenAddress() string {
	return c.ListenAddress
}

func (c *Config) GetListenPort() int {
	return c.ListenPort
}
