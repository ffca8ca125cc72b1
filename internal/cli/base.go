package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/larsks/relayrpc/internal/version"
	"github.com/spf13/pflag"
)

// Configurable represents a type that can be configured via flags and config files
type Configurable interface {
	AddFlags(fs *pflag.FlagSet)
	LoadConfigWithFlagSet(fs *pflag.FlagSet) error
}

// CommandHandler runs a command with a loaded configuration. Start should
// return when ctx is cancelled.
type CommandHandler interface {
	Start(ctx context.Context, config Configurable, args []string) error
}

// BaseCLI provides common CLI functionality
type BaseCLI struct {
	stdout io.Writer
	stderr io.Writer
}

// NewBaseCLI creates a new BaseCLI instance
func NewBaseCLI(stdout, stderr io.Writer) *BaseCLI {
	return &BaseCLI{
		stdout: stdout,
		stderr: stderr,
	}
}

// CommandArgs represents parsed command line arguments
type CommandArgs struct {
	Command string
	Args    []string
	Config  Configurable
}

// ParseArgs parses args against pflag.CommandLine.
func (c *BaseCLI) ParseArgs(args []string, configFactory func() Configurable) (*CommandArgs, error) {
	return c.ParseArgsWithFlagSet(args, configFactory, pflag.CommandLine)
}

// ParseArgsWithFlagSet registers the config's flags plus --version on fs,
// parses args and loads the configuration. Positional arguments are returned
// in Args.
func (c *BaseCLI) ParseArgsWithFlagSet(args []string, configFactory func() Configurable, fs *pflag.FlagSet) (*CommandArgs, error) {
	versionFlag := fs.Bool("version", false, "Show version and exit")

	cfg := configFactory()
	cfg.AddFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *versionFlag {
		return &CommandArgs{Command: "version", Config: cfg}, nil
	}

	if err := cfg.LoadConfigWithFlagSet(fs); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &CommandArgs{Command: "start", Args: fs.Args(), Config: cfg}, nil
}

// Execute runs the parsed command.
func (c *BaseCLI) Execute(ctx context.Context, cmdArgs *CommandArgs, handler CommandHandler) error {
	switch cmdArgs.Command {
	case "version":
		fmt.Fprintln(c.stdout, version.String())
		return nil
	case "start":
		return handler.Start(ctx, cmdArgs.Config, cmdArgs.Args)
	default:
		return fmt.Errorf("unknown command: %s", cmdArgs.Command)
	}
}

// StandardMain parses os.Args, then runs handler until it returns or the
// process receives SIGINT or SIGTERM.
func StandardMain(configFactory func() Configurable, handler CommandHandler) {
	cli := NewBaseCLI(os.Stdout, os.Stderr)

	cmdArgs, err := cli.ParseArgs(os.Args[1:], configFactory)
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, cmdArgs, handler); err != nil {
		stop()
		log.Fatalf("error: %v", err)
	}
}
