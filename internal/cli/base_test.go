package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockConfig implements Configurable for testing
type MockConfig struct {
	ConfigFile string
	TestValue  string
	LoadError  error
	Loaded     bool
}

func (m *MockConfig) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&m.ConfigFile, "config", "", "Config file")
	fs.StringVar(&m.TestValue, "test-value", "default", "Test value")
}

func (m *MockConfig) LoadConfigWithFlagSet(fs *pflag.FlagSet) error {
	m.Loaded = true
	return m.LoadError
}

// MockHandler implements CommandHandler for testing
type MockHandler struct {
	StartCalled bool
	StartArgs   []string
	StartError  error
}

func (m *MockHandler) Start(ctx context.Context, config Configurable, args []string) error {
	m.StartCalled = true
	m.StartArgs = args
	return m.StartError
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Usage = func() {}
	return fs
}

func TestParseArgs_Version(t *testing.T) {
	cli := NewBaseCLI(&bytes.Buffer{}, &bytes.Buffer{})
	cfg := &MockConfig{}

	cmdArgs, err := cli.ParseArgsWithFlagSet([]string{"--version"}, func() Configurable { return cfg }, newFlagSet())
	require.NoError(t, err)

	assert.Equal(t, "version", cmdArgs.Command)
	assert.False(t, cfg.Loaded, "config should not be loaded for --version")
}

func TestParseArgs_StartWithPositionalArgs(t *testing.T) {
	cli := NewBaseCLI(&bytes.Buffer{}, &bytes.Buffer{})

	cmdArgs, err := cli.ParseArgsWithFlagSet(
		[]string{"--test-value", "custom", "open"},
		func() Configurable { return &MockConfig{} },
		newFlagSet(),
	)
	require.NoError(t, err)

	assert.Equal(t, "start", cmdArgs.Command)
	assert.Equal(t, []string{"open"}, cmdArgs.Args)

	cfg, ok := cmdArgs.Config.(*MockConfig)
	require.True(t, ok)
	assert.Equal(t, "custom", cfg.TestValue)
	assert.True(t, cfg.Loaded)
}

func TestParseArgs_Errors(t *testing.T) {
	cli := NewBaseCLI(&bytes.Buffer{}, &bytes.Buffer{})

	_, err := cli.ParseArgsWithFlagSet([]string{"--no-such-flag"}, func() Configurable { return &MockConfig{} }, newFlagSet())
	assert.Error(t, err)

	loadErr := errors.New("bad config")
	_, err = cli.ParseArgsWithFlagSet(nil, func() Configurable { return &MockConfig{LoadError: loadErr} }, newFlagSet())
	assert.ErrorIs(t, err, loadErr)
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name        string
		command     string
		wantStart   bool
		wantErr     bool
		wantVersion bool
	}{
		{name: "version", command: "version", wantVersion: true},
		{name: "start", command: "start", wantStart: true},
		{name: "unknown", command: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			cli := NewBaseCLI(&stdout, &bytes.Buffer{})
			handler := &MockHandler{}

			err := cli.Execute(context.Background(), &CommandArgs{
				Command: tt.command,
				Args:    []string{"state"},
				Config:  &MockConfig{},
			}, handler)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantStart, handler.StartCalled)
			if tt.wantStart {
				assert.Equal(t, []string{"state"}, handler.StartArgs)
			}
			if tt.wantVersion {
				assert.Contains(t, stdout.String(), "version")
			}
		})
	}
}

func TestExecute_StartError(t *testing.T) {
	cli := NewBaseCLI(&bytes.Buffer{}, &bytes.Buffer{})
	startErr := errors.New("boom")

	err := cli.Execute(context.Background(), &CommandArgs{Command: "start", Config: &MockConfig{}}, &MockHandler{StartError: startErr})
	assert.ErrorIs(t, err, startErr)
}
