// Package analyzer reports composition diagnostics as a go/analysis pass,
// so editors and go vet surface them while handlers are being written.
//
// The pass sees one package at a time. Collisions between handlers of
// different packages sharing a route are only reported by composegen,
// which analyzes every package of a run together.
package analyzer

import (
	"context"
	"errors"
	"go/token"
	"io"
	"log/slog"

	"golang.org/x/tools/go/analysis"

	"github.com/broady/composedoc/composegen"
	"github.com/broady/composedoc/composegen/decode"
	"github.com/broady/composedoc/internal/extract"
)

// CategoryDirective is the category of malformed-directive reports.
const CategoryDirective = "directive"

var (
	marker  string
	request string
)

// Analyzer is the composedoc analysis pass. Use it with singlechecker or
// via go vet -vettool.
var Analyzer = &analysis.Analyzer{
	Name: "composedoc",
	Doc:  "reports composition handlers whose //compose: directives cannot be documented",
	URL:  "https://pkg.go.dev/github.com/broady/composedoc/composegen/analyzer",
	Run:  run,
}

func init() {
	Analyzer.Flags.StringVar(&marker, "marker", extract.DefaultMarker,
		"qualified marker interface composition handlers implement")
	Analyzer.Flags.StringVar(&request, "request", extract.DefaultRequest,
		"qualified request type handler methods take")
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func run(pass *analysis.Pass) (any, error) {
	pkg := extract.FromPass(pass)
	result, err := composegen.Analyze(context.Background(), []*extract.Package{pkg}, composegen.PassOptions{
		Marker:  marker,
		Request: request,
		Logger:  discard,
	})
	if err != nil {
		return nil, err
	}

	for _, err := range result.Skipped {
		var derr *decode.Error
		if !errors.As(err, &derr) {
			continue
		}
		pass.Report(analysis.Diagnostic{
			Pos:      position(pass, derr.Pos),
			Category: CategoryDirective,
			Message:  derr.Unit + ": " + derr.Err.Error(),
		})
	}
	for _, d := range result.Diagnostics {
		pass.Report(analysis.Diagnostic{
			Pos:      position(pass, d.Pos),
			Category: string(d.Code),
			Message:  string(d.Code) + ": " + d.Message,
		})
	}
	return nil, nil
}

// position maps a resolved position back onto the pass's file set.
func position(pass *analysis.Pass, p token.Position) token.Pos {
	for _, f := range pass.Files {
		tf := pass.Fset.File(f.Pos())
		if tf == nil || tf.Name() != p.Filename || p.Line < 1 || p.Line > tf.LineCount() {
			continue
		}
		pos := tf.LineStart(p.Line)
		if p.Column > 1 {
			pos += token.Pos(p.Column - 1)
		}
		return pos
	}
	return token.NoPos
}
