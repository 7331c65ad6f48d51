package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/klauern/snipconv/internal/config"
	"github.com/klauern/snipconv/internal/logging"
	"github.com/klauern/snipconv/internal/ui"
	"github.com/klauern/snipconv/internal/util"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Display or initialize configuration",
		Description: `Print the effective configuration after defaults, the config file,
   and SNIPCONV_* environment variables have been applied.

   Examples:
     snipconv config
     snipconv config --format toml
     snipconv config init`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "yaml",
				Usage:   "Output format: yaml or toml",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			data, err := configFrom(ctx).Marshal(cmd.String("format"))
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
		Commands: []*cli.Command{
			{
				Name:  "path",
				Usage: "Print the default configuration file path",
				Action: func(_ context.Context, _ *cli.Command) error {
					fmt.Println(config.FilePath())
					return nil
				},
			},
			{
				Name:      "init",
				Usage:     "Write the default configuration to a file",
				UsageText: "snipconv config init [options] [file]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() > 1 {
						return errors.New("config init takes at most 1 argument: [file]")
					}
					if cmd.Args().Len() == 0 {
						return initDefaultConfig(cmd.Bool("force"))
					}
					return initConfig(util.ExpandPath(cmd.Args().Get(0), ""), cmd.Bool("force"))
				},
			},
		},
	}
}

// initDefaultConfig writes the defaults to the default config file. A YAML or
// TOML file already in the config directory counts as existing.
func initDefaultConfig(force bool) error {
	if config.Exists() && !force {
		return fmt.Errorf("config file already exists in %s (use --force to overwrite)", util.ConfigDir())
	}

	if err := config.Default().Save(); err != nil {
		return err
	}

	logging.Info("wrote config file", logging.Path(config.FilePath()))
	fmt.Println(ui.StatusSuccess(fmt.Sprintf("Wrote %s", config.FilePath())))
	return nil
}

// initConfig writes the defaults to path. A directory gets the default file
// name inside it.
func initConfig(path string, force bool) error {
	if util.IsDir(path) {
		path = filepath.Join(path, filepath.Base(config.FilePath()))
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}

	if err := config.Default().SaveToPath(path); err != nil {
		return err
	}

	logging.Info("wrote config file", logging.Path(path))
	fmt.Println(ui.StatusSuccess(fmt.Sprintf("Wrote %s", filepath.Clean(path))))
	return nil
}
