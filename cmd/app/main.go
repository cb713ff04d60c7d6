package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/linkmend/internal"
	pkgconfig "github.com/starford/linkmend/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.String("root"); root != "" {
		cfg.Docs.Root = root
	}
	if !found {
		slog.Debug("config file not found, using defaults", slog.String("path", configPath))
	}
	return cfg, nil
}

func baseOptions(cmd *cli.Command) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func runScan(ctx context.Context, cmd *cli.Command) error {
	opts, err := baseOptions(cmd)
	if err != nil {
		return err
	}
	params := internal.ScanParams{
		JSON:           cmd.Bool("json"),
		EmitFixes:      cmd.String("emit-fixes"),
		UseIndex:       cmd.Bool("index"),
		FailOnCritical: cmd.Bool("fail-on-critical"),
	}
	if err := internal.Scan(ctx, params, opts...); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	return nil
}

func runFix(ctx context.Context, cmd *cli.Command) error {
	opts, err := baseOptions(cmd)
	if err != nil {
		return err
	}
	params := internal.FixParams{
		Table:        cmd.String("table"),
		File:         cmd.String("file"),
		Replacements: cmd.StringSlice("replace"),
		DryRun:       cmd.Bool("dry-run"),
	}
	if err := internal.Fix(ctx, params, opts...); err != nil {
		return fmt.Errorf("fix: %w", err)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	opts, err := baseOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Serve(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := baseOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.ServeMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "linkmend",
		Usage:   "Find and fix Markdown image links whose paths contain stray spaces",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Docs root (overrides docs.root from the config file)",
				Sources: cli.EnvVars("LINKMEND_DOCS_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "scan",
				Usage:  "Scan documents for image links with whitespace in their paths",
				Action: runScan,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Write the report as JSON"},
					&cli.StringFlag{Name: "emit-fixes", Usage: "Write a YAML fix table for critical issues to this file"},
					&cli.BoolFlag{Name: "index", Usage: "Read references through the SQLite index"},
					&cli.BoolFlag{Name: "fail-on-critical", Usage: "Exit non-zero when critical issues are found"},
				},
			},
			{
				Name:   "fix",
				Usage:  "Apply a fix table or single-file replacements",
				Action: runFix,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "table", Aliases: []string{"t"}, Usage: "YAML fix table"},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Document for --replace entries"},
					&cli.StringSliceFlag{Name: "replace", Usage: "Replacement of the form old=>new (repeatable)"},
					&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "Report without writing"},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the REST API with a live-updating index",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
