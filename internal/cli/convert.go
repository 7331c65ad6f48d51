package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/klauern/snipconv/internal/config"
	"github.com/klauern/snipconv/internal/convert"
	"github.com/klauern/snipconv/internal/logging"
	"github.com/klauern/snipconv/internal/model"
	"github.com/klauern/snipconv/internal/progress"
	"github.com/klauern/snipconv/internal/ui"
	"github.com/klauern/snipconv/internal/util"
)

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a directory of TextMate snippets into snipMate files",
		UsageText: "snipconv convert [options] <source-dir> <target-dir>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"r"},
				Usage:   "Also convert snippets in subdirectories of the source directory",
			},
			&cli.StringFlag{
				Name:    "layout",
				Aliases: []string{"l"},
				Usage:   "Output layout: per-snippet (one file per snippet) or namespace (one file per scope)",
			},
			&cli.StringFlag{
				Name:  "domain",
				Usage: "Suffix appended to namespaces derived from scopes (e.g. django)",
			},
			&cli.StringFlag{
				Name:  "extension",
				Usage: "Output file extension",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Show what would be written without writing anything",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return errors.New("convert requires exactly 2 arguments: <source-dir> <target-dir>")
			}
			source := util.ExpandPath(cmd.Args().Get(0), "")
			target := util.ExpandPath(cmd.Args().Get(1), "")

			opts, err := convertOptions(cmd, configFrom(ctx))
			if err != nil {
				return err
			}
			return runConvert(ctx, source, target, opts)
		},
	}
}

// convertOptions merges command flags over the loaded configuration.
func convertOptions(cmd *cli.Command, cfg *config.Config) (convert.Options, error) {
	formats, err := cfg.SourceFormats()
	if err != nil {
		return convert.Options{}, err
	}

	opts := convert.DefaultOptions()
	opts.Formats = formats
	opts.Recursive = cfg.Source.Recursive
	opts.Layout = cfg.GetLayout()
	opts.Domain = cfg.Output.Domain
	if cfg.Output.Extension != "" {
		opts.Extension = cfg.Output.Extension
	}

	if cmd.IsSet("recursive") {
		opts.Recursive = cmd.Bool("recursive")
	}
	if cmd.IsSet("layout") {
		layout, err := model.ParseLayout(cmd.String("layout"))
		if err != nil {
			return convert.Options{}, err
		}
		opts.Layout = layout
	}
	if cmd.IsSet("domain") {
		opts.Domain = cmd.String("domain")
	}
	if cmd.IsSet("extension") {
		opts.Extension = cmd.String("extension")
	}
	opts.DryRun = cmd.Bool("dry-run")

	return opts, nil
}

func runConvert(ctx context.Context, source, target string, opts convert.Options) error {
	var bar *progress.Bar
	opts.Progress = func(e convert.ProgressEvent) {
		switch e.Type {
		case convert.ProgressEventStart:
			if e.Total > 0 {
				barOpts := progress.DefaultOptions()
				barOpts.Total = e.Total
				barOpts.Logger = logging.WithContext(ctx)
				bar = progress.New(barOpts)
			}
		case convert.ProgressEventFile:
			if bar != nil {
				bar.Describe(filepath.Base(e.Path))
				_ = bar.Set(e.Current)
			}
		case convert.ProgressEventComplete:
			if bar != nil {
				_ = bar.Finish()
			}
		}
	}

	result, err := convert.New(opts).Convert(ctx, source, target)
	if err != nil {
		if bar != nil && bar.Enabled() {
			_ = bar.Clear()
		}
		return err
	}

	printConvertResult(result)
	return nil
}

func printConvertResult(result *convert.Result) {
	verb := "Wrote"
	if result.DryRun {
		verb = "Would write"
	}

	for _, file := range result.Files {
		fmt.Println(ui.StatusSuccess(fmt.Sprintf("%s %s", verb, relativeTo(result.Target, file))))
	}
	for _, s := range result.Skipped {
		fmt.Println(ui.StatusSkipped(fmt.Sprintf("Skipped %s", relativeTo(result.Source, s.Path))))
	}
	if len(result.Files) > 0 || len(result.Skipped) > 0 {
		fmt.Println()
	}

	fmt.Print(result.Summary())
}

func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
