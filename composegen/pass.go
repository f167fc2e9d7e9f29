package composegen

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/broady/composedoc/composegen/decode"
	"github.com/broady/composedoc/composegen/ir"
	"github.com/broady/composedoc/internal/extract"
)

// Pass holds everything one batch of packages contributes to a run.
// Handlers of different packages in the same batch merge into the same
// route groups.
type Pass struct {
	// Packages are the import paths of the analyzed packages, sorted.
	Packages []string

	// Units are the decoded units, ordered by owning type then method.
	Units []ir.HandlerUnit

	// Accepted are the units that passed validation.
	Accepted []ir.HandlerUnit

	// Schemas are the merged schemas, one per accepted route group.
	Schemas []ir.MergedSchema

	// Diagnostics are sorted by position.
	Diagnostics []ir.Diagnostic

	// Skipped lists units dropped by hard decode failures.
	Skipped []error
}

// PassOptions configures Analyze.
type PassOptions struct {
	Marker  string
	Request string

	// StripPackagePrefix is removed from owning type names when deriving
	// identifiers. Default: the module path of the first package followed
	// by "/".
	StripPackagePrefix string

	Logger *slog.Logger
}

type decoded struct {
	units   []ir.HandlerUnit
	skipped []error
}

// Analyze runs extraction, decoding, validation, grouping and merging over
// pkgs. Packages are extracted and decoded concurrently; everything after
// decoding runs on the combined, sorted unit list. The only error is ctx's.
func Analyze(ctx context.Context, pkgs []*extract.Package, opts PassOptions) (*Pass, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]decoded, len(pkgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, pkg := range pkgs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = decodePackage(pkg, opts, logger.With(slog.String("package", pkg.Path)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pass := &Pass{}
	for i, pkg := range pkgs {
		pass.Packages = append(pass.Packages, pkg.Path)
		pass.Units = append(pass.Units, out[i].units...)
		pass.Skipped = append(pass.Skipped, out[i].skipped...)
	}
	slices.Sort(pass.Packages)
	slices.SortStableFunc(pass.Units, func(a, b ir.HandlerUnit) int {
		return cmp.Or(cmp.Compare(a.Owner, b.Owner), cmp.Compare(a.Method, b.Method))
	})

	strip := opts.StripPackagePrefix
	if strip == "" && len(pkgs) > 0 && pkgs[0].Module != "" {
		strip = pkgs[0].Module + "/"
	}

	var diags []ir.Diagnostic
	pass.Accepted, diags = Validate(pass.Units)

	schemas, planDiags := Plan(pass.Accepted, strip)
	pass.Schemas = schemas
	pass.Diagnostics = sortDiagnostics(append(diags, planDiags...))

	logger.Debug("analyzed packages",
		slog.Int("packages", len(pkgs)),
		slog.Int("units", len(pass.Units)),
		slog.Int("accepted", len(pass.Accepted)),
		slog.Int("schemas", len(pass.Schemas)),
		slog.Int("diagnostics", len(pass.Diagnostics)))
	return pass, nil
}

func decodePackage(pkg *extract.Package, opts PassOptions, logger *slog.Logger) decoded {
	var out decoded

	candidates := extract.Find(pkg, extract.Options{Marker: opts.Marker, Request: opts.Request})
	logger.Debug("found candidates", slog.Int("count", len(candidates)))

	dec := decode.New(pkg, logger)
	for _, c := range candidates {
		unit, err := dec.Decode(c)
		if err != nil {
			var derr *decode.Error
			if errors.As(err, &derr) {
				logger.Warn("skipping handler", slog.String("unit", derr.Unit), slog.Any("error", derr.Err))
			}
			out.skipped = append(out.skipped, err)
			continue
		}
		out.units = append(out.units, unit)
	}
	return out
}

// HasErrors reports whether the pass produced an error diagnostic.
func (p *Pass) HasErrors() bool {
	return ir.HasErrors(p.Diagnostics)
}

func sortDiagnostics(diags []ir.Diagnostic) []ir.Diagnostic {
	slices.SortStableFunc(diags, func(a, b ir.Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Pos.Filename, b.Pos.Filename),
			cmp.Compare(a.Pos.Line, b.Pos.Line),
			cmp.Compare(a.Pos.Column, b.Pos.Column),
		)
	})
	return diags
}
