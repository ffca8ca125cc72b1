package relayctl

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/larsks/relayrpc/internal/config"
	"github.com/spf13/pflag"
)

const (
	defaultServerURL = "http://localhost:8080"
	defaultTimeout   = 10 * time.Second
)

// Config holds the relayctl configuration
type Config struct {
	ServerURL          string        `mapstructure:"server-url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	Token              string        `mapstructure:"token"`
	AuthSecret         string        `mapstructure:"auth-secret"`
	ConfigFile         string        `mapstructure:"config"`
	explicitConfigFile bool
}

func getDefaultServerURL() string {
	if url := os.Getenv("RELAY_SERVER_URL"); url != "" {
		return url
	}
	return defaultServerURL
}

func getDefaultConfigFile() string {
	return filepath.Join(xdg.ConfigHome, "relay", "relayctl.toml")
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		ServerURL: getDefaultServerURL(),
		Timeout:   defaultTimeout,
	}
}

// AddFlags adds command-line flags for all configuration options
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", getDefaultConfigFile(), "Config file to use")
	fs.StringVar(&c.ServerURL, "server-url", c.ServerURL, "relayd server URL")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Request timeout")
	fs.StringVar(&c.Token, "token", c.Token, "Bearer token for the rpc endpoint")
	fs.StringVar(&c.AuthSecret, "auth-secret", c.AuthSecret, "Shared secret used to mint a token when --token is not set")
}

// LoadConfigWithFlagSet loads configuration with proper precedence. A missing
// default config file is ignored; a missing explicit one is an error.
func (c *Config) LoadConfigWithFlagSet(fs *pflag.FlagSet) error {
	c.explicitConfigFile = fs.Changed("config")

	if _, err := os.Stat(c.ConfigFile); os.IsNotExist(err) {
		if c.explicitConfigFile {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, c.ConfigFile)
		}
		c.ConfigFile = ""
	}

	loader := config.NewConfigLoader()
	loader.SetConfigFile(c.ConfigFile)
	loader.SetDefaults(map[string]any{
		"server-url":  getDefaultServerURL(),
		"timeout":     defaultTimeout,
		"token":       "",
		"auth-secret": "",
	})

	return loader.LoadConfigWithFlagSet(c, fs)
}
