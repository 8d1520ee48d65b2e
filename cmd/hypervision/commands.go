package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hypervision/hypervision/pkg/catalog"
	"github.com/hypervision/hypervision/pkg/export"
	"github.com/hypervision/hypervision/pkg/log"
	"github.com/hypervision/hypervision/pkg/models"
	cli "github.com/urfave/cli/v3"
)

var errFlowFileRequired = errors.New("a flow file is required")

const (
	formatJSON = "json"
	formatPDF  = "pdf"
	formatPNG  = "png"
)

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"c"},
		Usage:   "Print the module palette as JSON",
		Action: func(_ context.Context, command *cli.Command) error {
			return printJSON(command.Root().Writer, catalog.Default().List())
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Check that a file is a valid exported flow",
		ArgsUsage: "<file>",
		Action: func(_ context.Context, command *cli.Command) error {
			f, err := readFlow(command.Args().First())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(command.Root().Writer, "valid flow: %d nodes, %d edges\n", len(f.Nodes), len(f.Edges))

			return err
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Aliases:   []string{"e"},
		Usage:     "Convert an exported flow to json, pdf or png",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (json, pdf, png)",
				Value:   formatPDF,
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Directory the export is written to",
				Value:   ".",
			},
			&cli.BoolFlag{
				Name:  "tech",
				Usage: "Render technical details of each node",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("export")

			f, err := readFlow(command.Args().First())
			if err != nil {
				return err
			}

			if command.Bool("tech") {
				f.ViewMode = models.ViewModeTech
			}

			format := command.String("format")

			body, err := render(f, format)
			if err != nil {
				return err
			}

			path := filepath.Join(command.String("output-dir"), export.Filename(format, time.Now()))

			if err := os.WriteFile(path, body, 0o600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}

			logger.InfoContext(ctx, "Exported flow", "path", path, "bytes", len(body))

			_, err = fmt.Fprintln(command.Root().Writer, path)

			return err
		},
	}
}

func render(f *models.Flow, format string) ([]byte, error) {
	switch format {
	case formatJSON:
		return export.JSON(f)
	case formatPDF:
		return export.PDF(f)
	case formatPNG:
		return export.Screenshot(f, export.ScreenshotOptions{Format: export.FormatPNG, Scale: 1})
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func readFlow(path string) (*models.Flow, error) {
	if path == "" {
		return nil, errFlowFileRequired
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return export.ParseJSON(data)
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
