package composegen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/broady/composedoc/composegen/golang"
	"github.com/broady/composedoc/composegen/ir"
	"github.com/broady/composedoc/composegen/openapi"
	"github.com/broady/composedoc/composegen/sink"
	"github.com/broady/composedoc/internal/extract"
)

// Config holds the configuration for one generation run.
type Config struct {
	// Dir is the directory packages are loaded from. Default: the current
	// directory.
	Dir string

	// Patterns are go command package patterns, e.g. "./handlers/...".
	Patterns []string `validate:"required,min=1,dive,required"`

	// Marker is the qualified marker interface handlers implement.
	// Default: "github.com/broady/composedoc.Handler".
	Marker string `validate:"omitempty,qualified"`

	// Request is the qualified request type handler methods take.
	// Default: "net/http.Request".
	Request string `validate:"omitempty,qualified"`

	// OutDir is the directory generated files are written to by ToDir and
	// the CLI.
	OutDir string

	// Package is the package clause of generated files.
	// Default: "composition".
	Package string `validate:"omitempty,goident"`

	// SingleFile emits all schemas into FileName + ".compose.go".
	SingleFile bool

	// FileName is the SingleFile file name stem. Default: "composition".
	FileName string `validate:"omitempty,excludesall=/\\"`

	// StripPackagePrefix is removed from owning type names when deriving
	// identifiers. Default: module path + "/".
	StripPackagePrefix string

	// OpenAPI is the output path of the OpenAPI document, relative to the
	// output root. Empty disables it. A .yaml or .yml extension selects YAML.
	OpenAPI string `validate:"omitempty,endswith=.json|endswith=.yaml|endswith=.yml"`

	// OpenAPITitle and OpenAPIVersion fill the document's info object.
	OpenAPITitle   string
	OpenAPIVersion string

	// Logger receives progress and skipped-unit messages.
	// Default: slog.Default().
	Logger *slog.Logger `validate:"-"`
}

// Validate checks cfg after defaults are applied.
func (cfg Config) Validate() error {
	if err := validate.Struct(&cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// GenerateResult describes a run.
type GenerateResult struct {
	// Pass holds the analysis of the loaded packages.
	Pass *Pass

	// Files lists the generated files in path order.
	Files []golang.OutputFile

	// Warnings are non-fatal synthesis issues.
	Warnings []golang.Warning
}

// Diagnostics returns the pass diagnostics.
func (r *GenerateResult) Diagnostics() []ir.Diagnostic {
	if r.Pass == nil {
		return nil
	}
	return r.Pass.Diagnostics
}

// HasErrors reports whether any error diagnostic was produced.
func (r *GenerateResult) HasErrors() bool {
	return r.Pass != nil && r.Pass.HasErrors()
}

// Generate loads the configured packages, analyzes them and writes the
// generated files to out. If out is nil, nothing is written and the result
// only describes what would be generated.
//
// Every artifact is staged in memory first; out receives nothing unless the
// whole run succeeds. Error diagnostics do not fail the run: rejected groups
// are simply absent from the output.
func Generate(ctx context.Context, cfg *Config, out sink.OutputSink) (*GenerateResult, error) {
	cfg = applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger

	pkgs, err := extract.Load(ctx, cfg.Dir, cfg.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	logger.Debug("loaded packages", slog.Int("count", len(pkgs)))

	pass, err := Analyze(ctx, pkgs, PassOptions{
		Marker:             cfg.Marker,
		Request:            cfg.Request,
		StripPackagePrefix: cfg.StripPackagePrefix,
		Logger:             logger,
	})
	if err != nil {
		return nil, err
	}

	staged := sink.NewMemorySink()
	gen := &golang.Generator{}
	res, err := gen.Generate(ctx, pass.Schemas, golang.GenerateOptions{
		Sink: staged,
		Config: golang.Config{
			Package:    cfg.Package,
			SingleFile: cfg.SingleFile,
			BaseName:   cfg.FileName,
			Request:    cfg.Request,
			Marker:     cfg.Marker,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate Go source: %w", err)
	}
	for _, w := range res.Warnings {
		logger.Warn("synthesis warning", slog.String("route", w.Route), slog.String("message", w.Message))
	}

	if cfg.OpenAPI != "" {
		doc := openapi.Build(openapi.Info{Title: cfg.OpenAPITitle, Version: cfg.OpenAPIVersion}, pass.Accepted, pass.Schemas)
		if err := openapi.Write(ctx, staged, cfg.OpenAPI, doc); err != nil {
			return nil, fmt.Errorf("failed to write OpenAPI document: %w", err)
		}
	}

	result := &GenerateResult{Pass: pass, Warnings: res.Warnings}
	for _, p := range staged.Paths() {
		result.Files = append(result.Files, golang.OutputFile{Path: p, Size: int64(len(staged.Get(p)))})
	}

	if out == nil {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := staged.Flush(ctx, out); err != nil {
		return nil, err
	}

	logger.Info("generated files",
		slog.Int("files", len(result.Files)),
		slog.Int("schemas", len(pass.Schemas)),
		slog.Int("diagnostics", len(pass.Diagnostics)))
	return result, nil
}

// applyConfigDefaults returns a copy of cfg with defaults filled in.
func applyConfigDefaults(cfg *Config) *Config {
	result := *cfg

	if result.Dir == "" {
		result.Dir = "."
	}
	if result.Marker == "" {
		result.Marker = extract.DefaultMarker
	}
	if result.Request == "" {
		result.Request = extract.DefaultRequest
	}
	if result.Package == "" {
		result.Package = "composition"
	}
	if result.FileName == "" {
		result.FileName = "composition"
	}
	if result.Logger == nil {
		result.Logger = slog.Default()
	}

	return &result
}
