package composegen

import (
	"context"
	"log/slog"

	"github.com/broady/composedoc/composegen/sink"
)

// Generator provides a fluent API for generation.
// Create with FromPackages and configure with method chaining.
//
// Example:
//
//	composegen.FromPackages("./handlers/...").
//	    OutputPackage("docs").
//	    WithOpenAPI("openapi.json").
//	    ToDir(ctx, "./docs")
type Generator struct {
	cfg Config
}

// FromPackages creates a Generator for the given package patterns.
func FromPackages(patterns ...string) *Generator {
	return &Generator{cfg: Config{Patterns: patterns}}
}

// FromConfig creates a Generator starting from cfg.
func FromConfig(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// Dir sets the directory packages are loaded from.
func (g *Generator) Dir(dir string) *Generator {
	g.cfg.Dir = dir
	return g
}

// Marker sets the qualified marker interface, e.g. "example.com/app/compose.Handler".
func (g *Generator) Marker(marker string) *Generator {
	g.cfg.Marker = marker
	return g
}

// Request sets the qualified request type handler methods take.
func (g *Generator) Request(request string) *Generator {
	g.cfg.Request = request
	return g
}

// OutputPackage sets the package clause of generated files.
func (g *Generator) OutputPackage(name string) *Generator {
	g.cfg.Package = name
	return g
}

// SingleFile emits all schemas into one file named stem + ".compose.go".
// An empty stem keeps the default.
func (g *Generator) SingleFile(stem string) *Generator {
	g.cfg.SingleFile = true
	g.cfg.FileName = stem
	return g
}

// StripPackagePrefix sets the prefix removed from owning type names.
func (g *Generator) StripPackagePrefix(prefix string) *Generator {
	g.cfg.StripPackagePrefix = prefix
	return g
}

// WithOpenAPI enables the OpenAPI document at path.
func (g *Generator) WithOpenAPI(path string) *Generator {
	g.cfg.OpenAPI = path
	return g
}

// OpenAPIInfo sets the title and version of the OpenAPI document.
func (g *Generator) OpenAPIInfo(title, version string) *Generator {
	g.cfg.OpenAPITitle = title
	g.cfg.OpenAPIVersion = version
	return g
}

// Logger sets the logger.
func (g *Generator) Logger(logger *slog.Logger) *Generator {
	g.cfg.Logger = logger
	return g
}

// Config returns a copy of the accumulated configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// ToDir generates files into dir.
// This is a terminal operation that writes files to disk.
func (g *Generator) ToDir(ctx context.Context, dir string) (*GenerateResult, error) {
	g.cfg.OutDir = dir
	return Generate(ctx, &g.cfg, sink.NewFilesystemSink(dir))
}

// ToSink generates files into out.
func (g *Generator) ToSink(ctx context.Context, out sink.OutputSink) (*GenerateResult, error) {
	return Generate(ctx, &g.cfg, out)
}

// Check analyzes the packages without writing anything.
func (g *Generator) Check(ctx context.Context) (*GenerateResult, error) {
	return Generate(ctx, &g.cfg, nil)
}
