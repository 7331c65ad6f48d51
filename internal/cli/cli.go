// Package cli provides the command-line interface for snipconv.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/klauern/snipconv/internal/config"
	"github.com/klauern/snipconv/internal/logging"
	"github.com/klauern/snipconv/internal/ui"
	"github.com/klauern/snipconv/internal/util"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "snipconv",
		Usage:   "Convert TextMate snippets to Vim snipMate snippets",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "Write log records as JSON",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Read configuration from `FILE` (.yaml, .yml or .toml)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load SNIPCONV_* variables from `FILE` before reading configuration",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			ctx = logging.NewContext(ctx, configureLogging(cmd))
			cfg, err := loadConfig(cmd)
			if err != nil {
				return ctx, err
			}
			if err := configureColors(cmd, cfg); err != nil {
				return ctx, err
			}
			return withConfig(ctx, cfg), nil
		},
		Commands: []*cli.Command{
			convertCommand(),
			listCommand(),
			configCommand(),
			versionCommand(),
		},
	}
	return app.Run(ctx, args)
}

// configureColors sets up color output from the --no-color flag or the
// configured color mode.
func configureColors(cmd *cli.Command, cfg *config.Config) error {
	if cmd.Bool("no-color") {
		ui.DisableColors()
		return nil
	}
	return ui.SetColorMode(cfg.Output.Color)
}

// configureLogging sets up the logging level based on CLI flags and returns
// the logger for the invoked command.
func configureLogging(cmd *cli.Command) *slog.Logger {
	opts := logging.DefaultOptions()

	if cmd.Bool("debug") {
		opts.Level = logging.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") {
		opts.Level = logging.LevelInfo
	}
	opts.JSON = cmd.Bool("log-json")

	logger := logging.New(opts)
	logging.SetDefault(logger)

	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	if name := cmd.Args().First(); name != "" {
		return logging.With(slog.String("command", name))
	}
	return logger
}

// loadConfig reads the env file, then the config file, and validates the
// result.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	if path := cmd.String("env-file"); path != "" {
		if err := config.LoadEnvFile(util.ExpandPath(path, "")); err != nil {
			return nil, err
		}
	}

	var (
		cfg *config.Config
		err error
	)
	if path := cmd.String("config"); path != "" {
		cfg, err = config.LoadFromPath(util.ExpandPath(path, ""))
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFrom returns the configuration loaded by the root command, or the
// defaults when none was stored.
func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok && cfg != nil {
		return cfg
	}
	return config.Default()
}
