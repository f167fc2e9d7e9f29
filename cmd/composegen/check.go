package main

import (
	"fmt"

	"github.com/broady/composedoc/composegen"
)

type CheckCmd struct {
	SourceFlags `embed:""`
	OutputFlags `embed:""`
}

func (c *CheckCmd) Run(app *App) error {
	cfg, err := app.loadConfig(c.SourceFlags.config().Merge(c.OutputFlags.config()))
	if err != nil {
		return err
	}

	result, err := composegen.FromConfig(cfg).Check(app.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Stdout, "✓ %d handlers, %d routes\n", len(result.Pass.Units), len(result.Pass.Schemas))
	for _, f := range result.Files {
		fmt.Fprintf(app.Stdout, "  %s (%d bytes)\n", f.Path, f.Size)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(app.Stdout, "  warning: %s\n", w)
	}
	return app.report(result)
}
