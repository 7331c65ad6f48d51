package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/snipconv/internal/convert"
	"github.com/klauern/snipconv/internal/export"
	"github.com/klauern/snipconv/internal/model"
	"github.com/klauern/snipconv/internal/snipmate"
	"github.com/klauern/snipconv/internal/ui"
	"github.com/klauern/snipconv/internal/util"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List the snippets found in a source directory without converting them",
		UsageText: "snipconv list [options] <source-dir>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"r"},
				Usage:   "Also list snippets in subdirectories",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format: table, json, yaml or markdown",
			},
			&cli.BoolFlag{
				Name:  "body",
				Usage: "Include snippet bodies and their snipMate translation (json, yaml, markdown)",
			},
			&cli.StringFlag{
				Name:  "domain",
				Usage: "Suffix appended to the namespace column",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("list requires exactly 1 argument: <source-dir>")
			}
			source := util.ExpandPath(cmd.Args().Get(0), "")

			cfg := configFrom(ctx)
			formats, err := cfg.SourceFormats()
			if err != nil {
				return err
			}

			opts := convert.DefaultOptions()
			opts.Formats = formats
			opts.Recursive = cfg.Source.Recursive
			if cmd.IsSet("recursive") {
				opts.Recursive = cmd.Bool("recursive")
			}
			domain := cfg.Output.Domain
			if cmd.IsSet("domain") {
				domain = cmd.String("domain")
			}

			snippets, skipped, err := convert.New(opts).Scan(ctx, source)
			if err != nil {
				return err
			}
			if len(skipped) > 0 {
				fmt.Fprintln(os.Stderr, ui.StatusWarning(fmt.Sprintf("%d file(s) skipped", len(skipped))))
			}

			format := strings.ToLower(strings.TrimSpace(cmd.String("format")))
			if format == "table" {
				return listTable(source, snippets, domain)
			}

			exportFormat, err := export.ParseFormat(format)
			if err != nil {
				return fmt.Errorf("unsupported format %q (valid: table, %s)", format, export.FormatNames())
			}
			exportOpts := export.DefaultOptions()
			exportOpts.Format = exportFormat
			exportOpts.IncludeBody = cmd.Bool("body")
			exportOpts.Domain = domain
			return export.New(exportOpts).Export(snippets, os.Stdout)
		},
	}
}

func listTable(source string, snippets []model.SourceSnippet, domain string) error {
	if len(snippets) == 0 {
		fmt.Println(ui.Info(fmt.Sprintf("No snippets found in %s", source)))
		return nil
	}

	rows := make([][]string, 0, len(snippets))
	for _, s := range snippets {
		rows = append(rows, []string{
			s.Trigger,
			s.DisplayName(),
			snipmate.Namespace(s.Scope, domain),
			s.Format.String(),
			relativeTo(source, s.Path),
		})
	}

	fmt.Println(ui.Table([]string{"TRIGGER", "NAME", "NAMESPACE", "FORMAT", "FILE"}, rows))
	fmt.Println()
	fmt.Println(ui.Bold(fmt.Sprintf("Total: %d snippet(s)", len(snippets))))
	return nil
}
