package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/broady/composedoc/composegen"
)

// errDiagnostics makes the process exit non-zero after error diagnostics.
var errDiagnostics = errors.New("composition errors reported")

// App carries the state shared by all commands.
type App struct {
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
	ConfigFile string

	ctx context.Context
}

func (a *App) Context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

func (a *App) Println(args ...any) {
	fmt.Fprintln(a.Stdout, args...)
}

// SourceFlags select and configure the analyzed packages.
type SourceFlags struct {
	Patterns    []string `arg:"" optional:"" help:"Package patterns to analyze (default from config, else ./...)."`
	Dir         string   `help:"Directory to load packages from." short:"C" type:"path"`
	Marker      string   `help:"Qualified marker interface handlers implement."`
	Request     string   `help:"Qualified request type handler methods take."`
	StripPrefix string   `help:"Prefix removed from owning type names when deriving identifiers." name:"strip-prefix"`
}

// OutputFlags configure the generated artifacts.
type OutputFlags struct {
	Package        string `help:"Package name of generated files." short:"p"`
	SingleFile     bool   `help:"Emit every model into one file."`
	FileName       string `help:"File name stem used with --single-file."`
	OpenAPI        string `help:"Also write an OpenAPI document to this path under the output directory (.json, .yaml or .yml)." name:"openapi"`
	OpenAPITitle   string `help:"OpenAPI info title." name:"openapi-title"`
	OpenAPIVersion string `help:"OpenAPI info version." name:"openapi-version"`
}

func (f SourceFlags) config() composegen.Config {
	return composegen.Config{
		Dir:                f.Dir,
		Patterns:           f.Patterns,
		Marker:             f.Marker,
		Request:            f.Request,
		StripPackagePrefix: f.StripPrefix,
	}
}

func (f OutputFlags) config() composegen.Config {
	return composegen.Config{
		Package:        f.Package,
		SingleFile:     f.SingleFile,
		FileName:       f.FileName,
		OpenAPI:        f.OpenAPI,
		OpenAPITitle:   f.OpenAPITitle,
		OpenAPIVersion: f.OpenAPIVersion,
	}
}

// loadConfig layers flags over the environment over the config file.
func (a *App) loadConfig(flags composegen.Config) (composegen.Config, error) {
	path := a.ConfigFile
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return composegen.Config{}, err
		}
		path = composegen.FindConfigFile(wd)
	}
	if path != "" {
		a.Logger.Debug("using config file", slog.String("path", path))
	}

	fc, err := composegen.LoadFileConfig(path)
	if err != nil {
		return composegen.Config{}, err
	}

	cfg := fc.Config().Merge(flags)
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"./..."}
	}
	cfg.Logger = a.Logger
	return cfg, nil
}

// report prints diagnostics to Stderr and returns errDiagnostics if any of
// them is an error.
func (a *App) report(result *composegen.GenerateResult) error {
	for _, d := range result.Diagnostics() {
		fmt.Fprintln(a.Stderr, d)
	}
	if result.HasErrors() {
		return errDiagnostics
	}
	return nil
}
