package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/sntnmjones/RentalApp/internal/config"
	"github.com/sntnmjones/RentalApp/pkg/di"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

// Runner holds the dependencies shared by every command action.
type Runner struct {
	logger       *log.Logger
	output       io.Writer
	lookupEnv    func(string) (string, bool)
	newContainer func(ctx context.Context, cfg *config.Config) (*di.Container, error)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Logger    *log.Logger
	Output    io.Writer
	LookupEnv func(string) (string, bool)
}

// NewRunner creates a new Runner, filling in defaults for unset options.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = config.NewLogger(nil, config.LogConfig{Level: "info"})
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	r := &Runner{
		logger:    opts.Logger,
		output:    opts.Output,
		lookupEnv: opts.LookupEnv,
	}
	r.newContainer = func(ctx context.Context, cfg *config.Config) (*di.Container, error) {
		return di.NewContainer(ctx, cfg, di.WithLogger(r.logger))
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, migrateCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
		Sources: cli.EnvVars("RENTALAPP_CONFIG"),
	}
}

// loadConfig reads the file at path. A missing file falls back to the
// built-in defaults; environment overrides apply either way.
func (r *Runner) loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err == nil {
		r.logger.SetLevel(levelOf(cfg.Log))
		return cfg, nil
	}
	if !errors.Is(err, config.ErrMissingConfig) {
		return nil, err
	}

	r.logger.Warn("config file not found, using defaults", "path", path)
	cfg = config.DefaultConfig()
	cfg.ApplyEnv(r.lookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func levelOf(cfg config.LogConfig) log.Level {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
