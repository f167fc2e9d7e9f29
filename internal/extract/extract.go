// Package extract finds composition handler methods by type structure.
//
// A method is a candidate when its receiver's named type (or a pointer to it)
// implements the marker interface and the method takes exactly one parameter
// of the request type. Nothing is executed; only declarations and type
// information are inspected.
package extract

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"slices"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/packages"

	"github.com/broady/composedoc/composegen/ir"
)

const (
	// DefaultMarker is the marker interface composition handlers implement.
	DefaultMarker = "github.com/broady/composedoc.Handler"

	// DefaultRequest is the request type a handler method accepts.
	DefaultRequest = "net/http.Request"
)

// ErrNoPackages is returned by Load when a pattern matches nothing.
var ErrNoPackages = errors.New("no packages found")

// Package is the declaration set of one type-checked Go package.
type Package struct {
	Path   string // import path
	Name   string // package name
	Module string // module path, empty if unknown
	Fset   *token.FileSet
	Files  []*ast.File
	Types  *types.Package
	Info   *types.Info
}

// Options selects what counts as a composition handler.
type Options struct {
	// Marker is the qualified name ("pkgpath.Name") of the marker interface.
	Marker string

	// Request is the qualified name of the request type. Parameters of type
	// Request and *Request both match.
	Request string
}

// WithDefaults returns o with empty fields set to their defaults.
func (o Options) WithDefaults() Options {
	if o.Marker == "" {
		o.Marker = DefaultMarker
	}
	if o.Request == "" {
		o.Request = DefaultRequest
	}
	return o
}

// Candidate is a method that passed the structural checks.
type Candidate struct {
	// Unit holds the identity and position only; directives are not decoded.
	Unit ir.HandlerUnit

	// Decl is the method declaration.
	Decl *ast.FuncDecl
}

// Load loads and type-checks the packages matching patterns.
//
// The patterns follow go command semantics. dir is the working directory;
// if empty, the current directory is used. Any load or type error fails the
// whole load: an unreadable declaration set yields no passes.
func Load(ctx context.Context, dir string, patterns ...string) ([]*Package, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports |
			packages.NeedModule,
		Dir: dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w matching %q", ErrNoPackages, patterns)
	}

	result := make([]*Package, 0, len(pkgs))
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s: %v", pkg.PkgPath, pkg.Errors[0])
		}

		p := &Package{
			Path:  pkg.PkgPath,
			Name:  pkg.Name,
			Fset:  pkg.Fset,
			Files: pkg.Syntax,
			Types: pkg.Types,
			Info:  pkg.TypesInfo,
		}
		if pkg.Module != nil {
			p.Module = pkg.Module.Path
		}
		result = append(result, p)
	}

	slices.SortFunc(result, func(a, b *Package) int {
		return cmp.Compare(a.Path, b.Path)
	})

	return result, nil
}

// FromPass adapts an analysis pass.
func FromPass(pass *analysis.Pass) *Package {
	p := &Package{
		Path:  pass.Pkg.Path(),
		Name:  pass.Pkg.Name(),
		Fset:  pass.Fset,
		Files: pass.Files,
		Types: pass.Pkg,
		Info:  pass.TypesInfo,
	}
	if pass.Module != nil {
		p.Module = pass.Module.Path
	}
	return p
}

// Find returns the composition handler methods declared in pkg.
//
// Types that cannot be resolved to a concrete method list (interfaces,
// generic types) are skipped, as are methods declared in generated files.
// If the marker interface is not reachable from pkg, Find returns nil.
//
// Candidates are ordered by owning type name, then method name.
func Find(pkg *Package, opts Options) []Candidate {
	opts = opts.WithDefaults()

	marker := lookupInterface(pkg.Types, opts.Marker)
	if marker == nil {
		return nil
	}

	reqPath, reqName := splitQualified(opts.Request)
	decls := methodDecls(pkg)

	var candidates []Candidate
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}

		named, ok := tn.Type().(*types.Named)
		if !ok || named.TypeParams().Len() > 0 {
			continue
		}
		if types.IsInterface(named) {
			continue
		}

		if !types.Implements(named, marker) && !types.Implements(types.NewPointer(named), marker) {
			continue
		}

		for i := 0; i < named.NumMethods(); i++ {
			m := named.Method(i)
			if !acceptsRequest(m, reqPath, reqName) {
				continue
			}

			decl, ok := decls[m]
			if !ok {
				continue
			}

			candidates = append(candidates, Candidate{
				Unit: ir.HandlerUnit{
					Owner:  pkg.Path + "." + tn.Name(),
					Method: m.Name(),
					Pos:    pkg.Fset.Position(decl.Name.Pos()),
				},
				Decl: decl,
			})
		}
	}

	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		return cmp.Or(
			cmp.Compare(a.Unit.Owner, b.Unit.Owner),
			cmp.Compare(a.Unit.Method, b.Unit.Method),
		)
	})

	return candidates
}

// methodDecls maps method objects to their declarations, skipping generated files.
func methodDecls(pkg *Package) map[*types.Func]*ast.FuncDecl {
	decls := make(map[*types.Func]*ast.FuncDecl)
	for _, f := range pkg.Files {
		if ast.IsGenerated(f) {
			continue
		}
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil {
				continue
			}
			if obj, ok := pkg.Info.Defs[fn.Name].(*types.Func); ok {
				decls[obj] = fn
			}
		}
	}
	return decls
}

// acceptsRequest checks for exactly one parameter of type T or *T, where T
// is the request type.
func acceptsRequest(m *types.Func, path, name string) bool {
	sig, ok := m.Type().(*types.Signature)
	if !ok || sig.Params().Len() != 1 {
		return false
	}

	t := sig.Params().At(0).Type()
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}

	named, ok := t.(*types.Named)
	if !ok {
		return false
	}

	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == path && obj.Name() == name
}

// lookupInterface finds the named interface qualified by "pkgpath.Name" in pkg
// or any package it imports, transitively.
func lookupInterface(pkg *types.Package, qualified string) *types.Interface {
	path, name := splitQualified(qualified)
	if path == "" || name == "" {
		return nil
	}

	seen := make(map[*types.Package]bool)
	queue := []*types.Package{pkg}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if seen[p] {
			continue
		}
		seen[p] = true

		if p.Path() == path {
			tn, ok := p.Scope().Lookup(name).(*types.TypeName)
			if !ok {
				return nil
			}
			iface, _ := tn.Type().Underlying().(*types.Interface)
			return iface
		}
		queue = append(queue, p.Imports()...)
	}
	return nil
}

// splitQualified splits "pkgpath.Name" at the last dot.
func splitQualified(s string) (path, name string) {
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+1:]
}
