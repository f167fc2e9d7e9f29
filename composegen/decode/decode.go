// Package decode turns the directives attached to a candidate method into a
// fully populated ir.HandlerUnit.
//
// Type expressions and status codes are resolved against the type-checked
// package at decode time; the resulting ir.TypeRef values carry the resolved
// types.Type so later stages never need the package again.
//
// Malformed directives are skipped without a diagnostic. The only hard
// failure is a parameter source outside Path, Query, Body and Header, which
// is reported as an *Error wrapping ErrUnknownParamSource.
package decode

import (
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"
	"strconv"
	"strings"

	"github.com/broady/composedoc/composegen/ir"
	"github.com/broady/composedoc/internal/directive"
	"github.com/broady/composedoc/internal/extract"
)

// ErrUnknownParamSource is wrapped by Error when a //compose:param source
// is not one of Path, Query, Body or Header.
var ErrUnknownParamSource = errors.New("unknown parameter source")

// Error is a hard decode failure of one unit.
type Error struct {
	Unit string
	Pos  token.Position
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Pos, e.Unit, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Decoder decodes candidates of one package.
type Decoder struct {
	pkg    *extract.Package
	logger *slog.Logger
}

// New returns a Decoder for pkg. If logger is nil, slog.Default() is used.
func New(pkg *extract.Package, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{pkg: pkg, logger: logger}
}

// Decode returns c.Unit populated from the method's directives.
func (d *Decoder) Decode(c extract.Candidate) (ir.HandlerUnit, error) {
	unit := c.Unit
	pos := c.Decl.Pos()

	for _, dir := range directive.Scan(d.pkg.Fset, c.Decl.Doc) {
		switch dir.Kind {
		case directive.KindGet:
			route, err := directive.Unquote(dir.Text)
			if err != nil || route == "" {
				d.skip(unit, dir, "missing or malformed route template")
				continue
			}
			unit.Routes = append(unit.Routes, route)

		case directive.KindField:
			if unit.Field != nil {
				d.skip(unit, dir, "only the first //compose:field is used")
				continue
			}
			field, ok := d.field(dir, pos)
			if !ok {
				d.skip(unit, dir, "malformed composition field")
				continue
			}
			unit.Field = field

		case directive.KindResponse:
			resp, ok := d.response(dir, pos)
			if !ok {
				d.skip(unit, dir, "malformed response")
				continue
			}
			unit.Responses = append(unit.Responses, resp)

		case directive.KindDefaultResponse:
			ref, ok := d.optionalType(dir.Text, pos)
			if !ok {
				d.skip(unit, dir, "unresolvable default response type")
				continue
			}
			unit.Responses = append(unit.Responses, ir.Response{Type: ref, IsDefault: true})

		case directive.KindParam:
			param, err := d.param(dir, pos)
			if errors.Is(err, ErrUnknownParamSource) {
				return ir.HandlerUnit{}, &Error{Unit: unit.ID(), Pos: dir.Pos, Err: err}
			}
			if err != nil {
				d.skip(unit, dir, err.Error())
				continue
			}
			unit.Params = append(unit.Params, param)

		default:
			d.skip(unit, dir, "unknown directive")
		}
	}

	return unit, nil
}

func (d *Decoder) skip(unit ir.HandlerUnit, dir directive.Directive, reason string) {
	d.logger.Debug("skipping directive",
		slog.String("unit", unit.ID()),
		slog.String("directive", string(dir.Kind)),
		slog.String("pos", dir.Pos.String()),
		slog.String("reason", reason))
}

func (d *Decoder) field(dir directive.Directive, pos token.Pos) (*ir.CompositionField, bool) {
	if len(dir.Args) < 2 {
		return nil, false
	}

	name, err := directive.Unquote(dir.Args[0])
	if err != nil || !token.IsIdentifier(name) {
		return nil, false
	}

	ref, ok := d.Type(strings.Join(dir.Args[1:], " "), pos)
	if !ok {
		return nil, false
	}
	return &ir.CompositionField{Name: name, Type: ref}, true
}

func (d *Decoder) response(dir directive.Directive, pos token.Pos) (ir.Response, bool) {
	if len(dir.Args) == 0 {
		return ir.Response{}, false
	}

	status, ok := d.Status(dir.Args[0], pos)
	if !ok {
		return ir.Response{}, false
	}

	ref, ok := d.optionalType(strings.Join(dir.Args[1:], " "), pos)
	if !ok {
		return ir.Response{}, false
	}

	return ir.Response{
		Status:     status,
		StatusText: strconv.Itoa(status),
		Type:       ref,
	}, true
}

func (d *Decoder) param(dir directive.Directive, pos token.Pos) (ir.Param, error) {
	args, err := directive.DecodeParam(dir.Args)
	if err != nil {
		return ir.Param{}, err
	}

	source, ok := ir.ParseParamSource(args.Source)
	if !ok {
		return ir.Param{}, fmt.Errorf("%w %q", ErrUnknownParamSource, args.Source)
	}

	ref, ok := d.Type(args.Type, pos)
	if !ok {
		return ir.Param{}, fmt.Errorf("unresolvable parameter type %q", args.Type)
	}

	return ir.Param{
		Name:     args.Name,
		Required: args.Required,
		Type:     ref,
		Source:   source,
	}, nil
}

func (d *Decoder) optionalType(text string, pos token.Pos) (ir.TypeRef, bool) {
	if strings.TrimSpace(text) == "" {
		return ir.TypeRef{}, true
	}
	return d.Type(text, pos)
}

// Type resolves a type expression in the scope enclosing pos.
//
// A bare identifier naming a package-level type is promoted to its fully
// qualified "pkgpath.Name" form. Any other expression keeps its text,
// normalized by go/ast formatting.
func (d *Decoder) Type(text string, pos token.Pos) (ir.TypeRef, bool) {
	expr, err := parser.ParseExpr(text)
	if err != nil {
		return ir.TypeRef{}, false
	}

	tv, err := types.Eval(d.pkg.Fset, d.pkg.Types, pos, text)
	if err != nil || !tv.IsType() {
		return ir.TypeRef{}, false
	}

	ref := ir.TypeRef{
		Name: types.ExprString(expr),
		Type: tv.Type,
	}

	if id, ok := expr.(*ast.Ident); ok {
		if qualified := d.qualify(id.Name, pos); qualified != "" {
			ref.Name = qualified
		}
	}

	if named, ok := types.Unalias(tv.Type).(*types.Named); ok {
		ref.Arity = named.TypeArgs().Len()
	}

	return ref, true
}

// qualify returns "pkgpath.name" when name resolves to a type declared in a
// package, or "" for predeclared types.
func (d *Decoder) qualify(name string, pos token.Pos) string {
	scope := d.pkg.Types.Scope().Innermost(pos)
	if scope == nil {
		scope = d.pkg.Types.Scope()
	}

	_, obj := scope.LookupParent(name, pos)
	tn, ok := obj.(*types.TypeName)
	if !ok || tn.Pkg() == nil {
		return ""
	}
	return tn.Pkg().Path() + "." + tn.Name()
}

// Status resolves a status code expression: an integer literal or any
// constant expression, such as http.StatusNotFound. Codes outside 100-599
// are rejected.
func (d *Decoder) Status(text string, pos token.Pos) (int, bool) {
	var code int64
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		code = n
	} else {
		tv, err := types.Eval(d.pkg.Fset, d.pkg.Types, pos, text)
		if err != nil || tv.Value == nil {
			return 0, false
		}
		v, ok := constant.Int64Val(constant.ToInt(tv.Value))
		if !ok {
			return 0, false
		}
		code = v
	}

	if code < 100 || code > 599 {
		return 0, false
	}
	return int(code), true
}
