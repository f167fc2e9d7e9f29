package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/broady/composedoc/cmd/composegen/internal/watch"
	"github.com/broady/composedoc/composegen"
)

type GenCmd struct {
	SourceFlags `embed:""`
	OutputFlags `embed:""`

	Out   string `help:"Output directory for generated files." short:"o" type:"path"`
	Watch bool   `help:"Watch for changes and regenerate." short:"w"`
}

func (c *GenCmd) Run(app *App) error {
	flags := c.SourceFlags.config().Merge(c.OutputFlags.config())
	flags.OutDir = c.Out
	cfg, err := app.loadConfig(flags)
	if err != nil {
		return err
	}
	if cfg.OutDir == "" {
		return errors.New("no output directory: pass --out or set out in the config file")
	}

	ctx := app.Context()
	err = c.generate(ctx, app, cfg)
	if !c.Watch {
		return err
	}
	if err != nil && !errors.Is(err, errDiagnostics) {
		app.Logger.Error("generation failed", slog.Any("error", err))
	}

	root := cfg.Dir
	if root == "" {
		root = "."
	}
	w, err := watch.New(watch.Config{
		BaseDir: root,
		Ignore:  []string{cfg.OutDir},
		OnChange: func(ctx context.Context, changed []string) error {
			app.Logger.Info("regenerating", slog.Int("changed", len(changed)))
			if err := c.generate(ctx, app, cfg); err != nil && !errors.Is(err, errDiagnostics) {
				return err
			}
			return nil
		},
		Logger: app.Logger,
	})
	if err != nil {
		return err
	}
	app.Logger.Info("watching for changes", slog.String("dir", root))
	return w.Run(ctx)
}

func (c *GenCmd) generate(ctx context.Context, app *App, cfg composegen.Config) error {
	out, err := filepath.Abs(cfg.OutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	result, err := composegen.FromConfig(cfg).ToDir(ctx, out)
	if err != nil {
		return err
	}
	return app.report(result)
}
