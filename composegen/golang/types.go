// Package golang synthesizes Go source for merged composition schemas: one
// response model struct and one documentation handler per route.
//
// A generated handler is never routed. Its Handle method carries //compose:
// directives (route, 200 response with the model, default response and
// parameters) so route-description tooling sees it as an ordinary handler.
package golang

import (
	"github.com/broady/composedoc/composegen/sink"
	"github.com/broady/composedoc/internal/extract"
)

// FileSuffix is appended to every generated file name.
const FileSuffix = ".compose.go"

// Header is the first line of every generated file. It matches the
// convention recognized by ast.IsGenerated, so generated files are never
// scanned as handler sources.
const Header = "// Code generated by composegen. DO NOT EDIT."

// GenerateOptions configures one Generate call.
type GenerateOptions struct {
	// Sink receives the generated files.
	Sink sink.OutputSink

	Config Config
}

// Config controls the shape of generated files.
type Config struct {
	// Package is the package clause of generated files.
	Package string

	// SingleFile emits every schema into one file named BaseName+FileSuffix.
	// Otherwise each schema gets its own file named after its prefix.
	SingleFile bool

	// BaseName names the single file. Default: "composition".
	BaseName string

	// Request is the qualified request type taken by generated Handle
	// methods. Default: extract.DefaultRequest.
	Request string

	// Marker is the qualified marker interface. An implementation
	// assertion is emitted only for the default marker and request.
	Marker string
}

// WithDefaults returns c with empty fields set to their defaults.
func (c Config) WithDefaults() Config {
	if c.Package == "" {
		c.Package = "composition"
	}
	if c.BaseName == "" {
		c.BaseName = "composition"
	}
	if c.Request == "" {
		c.Request = extract.DefaultRequest
	}
	if c.Marker == "" {
		c.Marker = extract.DefaultMarker
	}
	return c
}

// GenerateResult describes what Generate wrote.
type GenerateResult struct {
	// Files lists the written files in write order.
	Files []OutputFile

	// TypesGenerated counts emitted model and handler types.
	TypesGenerated int

	// Warnings contains non-fatal issues.
	Warnings []Warning
}

// OutputFile describes a generated file.
type OutputFile struct {
	Path string
	Size int64
}

// Warning is a non-fatal synthesis issue.
type Warning struct {
	Route   string
	Message string
}

func (w Warning) String() string {
	return w.Route + ": " + w.Message
}
