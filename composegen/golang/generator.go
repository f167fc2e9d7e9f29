package golang

import (
	"bytes"
	"context"
	"fmt"
	"go/format"
	"go/token"
	"go/types"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/broady/composedoc/composegen/ir"
	"github.com/broady/composedoc/internal/extract"
)

// Generator emits Go source for merged schemas.
type Generator struct{}

// Name returns "go".
func (*Generator) Name() string { return "go" }

// Generate writes files for schemas to opts.Sink. Schemas are emitted in the
// given order. Nothing is written for an empty schema list.
func (g *Generator) Generate(ctx context.Context, schemas []ir.MergedSchema, opts GenerateOptions) (*GenerateResult, error) {
	if opts.Sink == nil {
		return nil, fmt.Errorf("golang: sink is required")
	}
	cfg := opts.Config.WithDefaults()
	if !token.IsIdentifier(cfg.Package) {
		return nil, fmt.Errorf("golang: invalid package name %q", cfg.Package)
	}

	result := &GenerateResult{}
	if len(schemas) == 0 {
		return result, nil
	}

	var batches [][]ir.MergedSchema
	if cfg.SingleFile {
		batches = [][]ir.MergedSchema{schemas}
	} else {
		for _, s := range schemas {
			batches = append(batches, []ir.MergedSchema{s})
		}
	}

	written := make(map[string]bool, len(batches))
	for _, batch := range batches {
		name := cfg.BaseName
		if !cfg.SingleFile {
			name = SnakeCase(batch[0].Prefix)
		}
		filePath := name + FileSuffix
		if written[filePath] {
			return nil, fmt.Errorf("golang: schemas for %s and an earlier route both map to %s", batch[0].Route, filePath)
		}
		written[filePath] = true

		src, warnings, err := render(cfg, batch)
		if err != nil {
			return nil, fmt.Errorf("golang: %s: %w", filePath, err)
		}
		if err := opts.Sink.WriteFile(ctx, filePath, src); err != nil {
			return nil, fmt.Errorf("golang: write %s: %w", filePath, err)
		}

		result.Files = append(result.Files, OutputFile{Path: filePath, Size: int64(len(src))})
		result.TypesGenerated += 2 * len(batch)
		result.Warnings = append(result.Warnings, warnings...)
	}

	return result, nil
}

type fileData struct {
	Package string
	Imports []importSpec
	Request string
	Marker  string
	Schemas []schemaData
}

type schemaData struct {
	Route       string
	ModelName   string
	HandlerName string
	HandlerBody string
	Fields      []fieldData
	Directives  []string
}

type fieldData struct {
	GoName string
	Type   string
	Tag    string
	Origin string
}

var fileTemplate = template.Must(template.New("file").Parse(Header + `

package {{.Package}}

import (
{{- range .Imports}}
	{{if .Alias}}{{.Alias}} {{end}}{{printf "%q" .Path}}
{{- end}}
)
{{range .Schemas}}
// {{.ModelName}} is the composed response of GET {{.Route}}.
type {{.ModelName}} struct {
{{- range .Fields}}
	{{.GoName}} {{.Type}} {{.Tag}} // {{.Origin}}
{{- end}}
}

// {{.HandlerName}} documents GET {{.Route}}. It is never routed.
type {{.HandlerName}} {{.HandlerBody}}

// Handle does nothing.
//
{{- range .Directives}}
//compose:{{.}}
{{- end}}
func ({{.HandlerName}}) Handle({{$.Request}}) error {
	return nil
}
{{if $.Marker}}
var _ {{$.Marker}} = {{.HandlerName}}{}
{{end}}
{{- end}}`))

func render(cfg Config, schemas []ir.MergedSchema) ([]byte, []Warning, error) {
	imports := newImportSet()

	reqPath, reqName := splitQualified(cfg.Request)
	data := fileData{
		Package: cfg.Package,
		Request: "*" + reqName,
	}
	if reqPath != "" {
		data.Request = "*" + imports.add(reqPath, guessName(reqPath)) + "." + reqName
	}
	if cfg.Marker == extract.DefaultMarker && cfg.Request == extract.DefaultRequest {
		markerPath, markerName := splitQualified(cfg.Marker)
		data.Marker = imports.add(markerPath, guessName(markerPath)) + "." + markerName
	}

	var warnings []Warning
	for _, s := range schemas {
		sd, w := renderSchema(s, imports)
		data.Schemas = append(data.Schemas, sd)
		warnings = append(warnings, w...)
	}
	data.Imports = imports.specs()

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, nil, fmt.Errorf("execute template: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, nil, fmt.Errorf("format generated source: %w\n%s", err, buf.Bytes())
	}
	return src, warnings, nil
}

func renderSchema(s ir.MergedSchema, imports *importSet) (schemaData, []Warning) {
	var warnings []Warning
	warn := func(format string, args ...any) {
		warnings = append(warnings, Warning{Route: s.Route, Message: fmt.Sprintf(format, args...)})
	}

	sd := schemaData{
		Route:       s.Route,
		ModelName:   s.ModelName,
		HandlerName: s.HandlerName,
	}

	for _, f := range s.Fields {
		typ, ok := typeExpr(f.Type, imports)
		if !ok {
			warn("field %s: type %s is not accessible from another package; emitted as any", f.Name, f.Type)
			typ = "any"
		}
		sd.Fields = append(sd.Fields, fieldData{
			GoName: f.GoName,
			Type:   typ,
			Tag:    fmt.Sprintf("`json:%q`", f.Name),
			Origin: f.Origin,
		})
	}

	// Types named only in directives are anchored as blank fields so their
	// imports stay used and the directives resolve in the generated package.
	var anchors []string
	anchor := func(t string) {
		if strings.Contains(t, ".") && !slices.Contains(anchors, t) {
			anchors = append(anchors, t)
		}
	}

	sd.Directives = append(sd.Directives,
		"get "+quoteArg(s.Route),
		"response 200 "+s.ModelName)

	if s.Default != nil {
		d := "default-response"
		if !s.Default.Type.IsZero() {
			typ, ok := typeExpr(s.Default.Type, imports)
			if ok {
				d += " " + typ
				anchor(typ)
			} else {
				warn("default response type %s is not accessible from another package; dropped", s.Default.Type)
			}
		}
		sd.Directives = append(sd.Directives, d)
	}

	for _, p := range s.Params {
		typ, ok := typeExpr(p.Type, imports)
		if !ok {
			warn("parameter %s: type %s is not accessible from another package; dropped", p.Name, p.Type)
			continue
		}
		anchor(typ)

		d := "param name=" + quoteArg(p.Name)
		if p.Required {
			d += " required"
		}
		d += " type=" + quoteArg(typ) + " source=" + p.Source.String()
		sd.Directives = append(sd.Directives, d)
	}

	if len(anchors) == 0 {
		sd.HandlerBody = "struct{}"
	} else {
		var b strings.Builder
		b.WriteString("struct {\n")
		for _, a := range anchors {
			b.WriteString("\t_ " + a + "\n")
		}
		b.WriteString("}")
		sd.HandlerBody = b.String()
	}

	return sd, warnings
}

// typeExpr renders ref for use in the generated package. It reports false
// when the type involves identifiers the generated package cannot name.
func typeExpr(ref ir.TypeRef, imports *importSet) (string, bool) {
	if ref.Type == nil {
		return ref.Name, ref.Name != ""
	}
	if !accessible(ref.Type, make(map[types.Type]bool)) {
		return "", false
	}
	return types.TypeString(ref.Type, imports.qualifier), true
}

func accessible(t types.Type, seen map[types.Type]bool) bool {
	if seen[t] {
		return true
	}
	seen[t] = true

	switch t := t.(type) {
	case *types.Basic:
		return t.Kind() != types.Invalid
	case *types.Pointer:
		return accessible(t.Elem(), seen)
	case *types.Slice:
		return accessible(t.Elem(), seen)
	case *types.Array:
		return accessible(t.Elem(), seen)
	case *types.Chan:
		return accessible(t.Elem(), seen)
	case *types.Map:
		return accessible(t.Key(), seen) && accessible(t.Elem(), seen)
	case *types.Alias:
		return exported(t.Obj()) && typeArgsAccessible(t.TypeArgs(), seen)
	case *types.Named:
		return exported(t.Obj()) && typeArgsAccessible(t.TypeArgs(), seen)
	case *types.Struct:
		for i := range t.NumFields() {
			if !accessible(t.Field(i).Type(), seen) {
				return false
			}
		}
		return true
	case *types.Signature:
		return tupleAccessible(t.Params(), seen) && tupleAccessible(t.Results(), seen)
	case *types.Interface:
		for i := range t.NumExplicitMethods() {
			if !t.ExplicitMethod(i).Exported() {
				return false
			}
		}
		for i := range t.NumEmbeddeds() {
			if !accessible(t.EmbeddedType(i), seen) {
				return false
			}
		}
		return true
	case *types.TypeParam:
		return false
	default:
		return true
	}
}

func exported(obj *types.TypeName) bool {
	// Predeclared named types (error, comparable) have no package.
	return obj.Pkg() == nil || obj.Exported()
}

func typeArgsAccessible(list *types.TypeList, seen map[types.Type]bool) bool {
	for i := range list.Len() {
		if !accessible(list.At(i), seen) {
			return false
		}
	}
	return true
}

func tupleAccessible(tuple *types.Tuple, seen map[types.Type]bool) bool {
	for i := range tuple.Len() {
		if !accessible(tuple.At(i).Type(), seen) {
			return false
		}
	}
	return true
}

func quoteArg(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"`") {
		return strconv.Quote(s)
	}
	return s
}

// SnakeCase converts an identifier to snake_case for file names:
// "HandlersServiceaSampleHandler" becomes "handlers_servicea_sample_handler"
// and "HTTPServer" becomes "http_server".
func SnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
