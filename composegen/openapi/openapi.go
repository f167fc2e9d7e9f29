// Package openapi builds an OpenAPI 3 description of composed routes.
//
// Every route declared by an accepted unit becomes a GET operation. The
// operation of a composed route answers 200 with the merged model; other
// explicit responses are merged first-wins per status code, and the first
// default response becomes "default". Component schemas are derived from the
// resolved go/types types.
package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/broady/composedoc/composegen/ir"
	"github.com/broady/composedoc/composegen/sink"
)

// Version is the OpenAPI version of built documents.
const Version = "3.0.3"

// Info describes the API.
type Info struct {
	Title   string
	Version string

	// Tag groups the operations. Default: "Composition".
	Tag string
}

func (i Info) withDefaults() Info {
	if i.Title == "" {
		i.Title = "composedoc"
	}
	if i.Version == "" {
		i.Version = "0.0.0"
	}
	if i.Tag == "" {
		i.Tag = "Composition"
	}
	return i
}

var pathParam = regexp.MustCompile(`\{([^{}/]+)\}`)

// Build returns the description of units and schemas. Units must be the
// accepted units in discovery order; schemas the merged schemas of the same
// units.
func Build(info Info, units []ir.HandlerUnit, schemas []ir.MergedSchema) *openapi3.T {
	info = info.withDefaults()

	doc := &openapi3.T{
		OpenAPI:    Version,
		Info:       &openapi3.Info{Title: info.Title, Version: info.Version},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{Schemas: openapi3.Schemas{}},
		Tags:       openapi3.Tags{{Name: info.Tag}},
	}
	b := &builder{doc: doc, components: newComponents(doc.Components.Schemas)}

	// Composed models are registered first so their 200 response wins.
	for _, s := range schemas {
		op := b.operation(s.Route, info.Tag)
		op.OperationID = s.HandlerName
		b.response(op, "200", ir.TypeRef{}, b.model(s))
		if s.Default != nil {
			b.response(op, "default", s.Default.Type, nil)
		}
		for _, p := range s.Params {
			b.param(op, p)
		}
	}

	for _, u := range units {
		for _, route := range u.Routes {
			op := b.operation(route, info.Tag)
			for _, r := range u.Responses {
				status := r.StatusText
				if r.IsDefault {
					status = "default"
				}
				b.response(op, status, r.Type, nil)
			}
			for _, p := range u.Params {
				b.param(op, p)
			}
		}
	}

	for _, route := range b.routes {
		b.finish(route, doc.Paths.Value(route).Get)
	}
	if len(schemas) == 0 && len(units) == 0 {
		doc.Tags = nil
	}
	return doc
}

type builder struct {
	doc        *openapi3.T
	components *components
	routes     []string
	params     map[*openapi3.Operation]map[string]bool
}

func (b *builder) operation(route, tag string) *openapi3.Operation {
	route = pathKey(route)
	if item := b.doc.Paths.Value(route); item != nil {
		return item.Get
	}

	op := openapi3.NewOperation()
	op.Tags = []string{tag}
	op.Responses = &openapi3.Responses{}
	b.doc.Paths.Set(route, &openapi3.PathItem{Get: op})
	b.routes = append(b.routes, route)
	return op
}

// response adds status to op unless already present. A non-nil override is
// used as the body schema instead of typ.
func (b *builder) response(op *openapi3.Operation, status string, typ ir.TypeRef, override *openapi3.SchemaRef) {
	if op.Responses.Value(status) != nil {
		return
	}

	resp := openapi3.NewResponse().WithDescription(description(status))
	switch {
	case override != nil:
		resp = resp.WithContent(openapi3.NewContentWithJSONSchemaRef(override))
	case typ.Type != nil:
		resp = resp.WithContent(openapi3.NewContentWithJSONSchemaRef(b.components.ref(typ.Type)))
	}
	op.Responses.Set(status, &openapi3.ResponseRef{Value: resp})
}

func (b *builder) param(op *openapi3.Operation, p ir.Param) {
	if b.params == nil {
		b.params = make(map[*openapi3.Operation]map[string]bool)
	}
	seen := b.params[op]
	if seen == nil {
		seen = make(map[string]bool)
		b.params[op] = seen
	}
	key := p.Source.String() + "\x00" + p.Name
	if seen[key] {
		return
	}
	seen[key] = true

	schema := openapi3.NewSchemaRef("", openapi3.NewSchema())
	if p.Type.Type != nil {
		schema = b.components.ref(p.Type.Type)
	}

	var param *openapi3.Parameter
	switch p.Source {
	case ir.SourcePath:
		param = openapi3.NewPathParameter(p.Name)
	case ir.SourceQuery:
		param = openapi3.NewQueryParameter(p.Name).WithRequired(p.Required)
	case ir.SourceHeader:
		param = openapi3.NewHeaderParameter(p.Name).WithRequired(p.Required)
	case ir.SourceBody:
		if op.RequestBody == nil {
			body := openapi3.NewRequestBody().
				WithDescription(p.Name).
				WithRequired(p.Required).
				WithJSONSchemaRef(schema)
			op.RequestBody = &openapi3.RequestBodyRef{Value: body}
		}
		return
	default:
		return
	}
	param.Schema = schema
	op.AddParameter(param)
}

// finish reconciles declared path parameters with the route template:
// template variables without a declaration are added as strings, and
// declarations the template does not mention are dropped. Operations
// without any response get an empty default one.
func (b *builder) finish(route string, op *openapi3.Operation) {
	var vars []string
	for _, m := range pathParam.FindAllStringSubmatch(route, -1) {
		vars = append(vars, m[1])
	}

	params := op.Parameters[:0]
	declared := make(map[string]bool)
	for _, p := range op.Parameters {
		if p.Value.In == openapi3.ParameterInPath {
			if !slices.Contains(vars, p.Value.Name) || declared[p.Value.Name] {
				continue
			}
			declared[p.Value.Name] = true
		}
		params = append(params, p)
	}
	op.Parameters = params

	for _, v := range vars {
		if !declared[v] {
			p := openapi3.NewPathParameter(v).WithSchema(openapi3.NewStringSchema())
			op.AddParameter(p)
			declared[v] = true
		}
	}

	if op.Responses.Len() == 0 {
		op.Responses.Set("default", &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(description("default"))})
	}
}

// pathKey converts a route template to an OpenAPI path: rooted, with the
// net/http wildcard forms {name...} and {$} reduced to {name} and nothing.
func pathKey(route string) string {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return pathParam.ReplaceAllStringFunc(route, func(m string) string {
		name := strings.TrimSuffix(m[1:len(m)-1], "...")
		if name == "$" {
			return ""
		}
		return "{" + name + "}"
	})
}

// model registers the merged model of s as a component and returns a
// reference to it.
func (b *builder) model(s ir.MergedSchema) *openapi3.SchemaRef {
	obj := openapi3.NewObjectSchema()
	obj.Title = s.ModelName
	for _, f := range s.Fields {
		prop := openapi3.NewSchemaRef("", openapi3.NewSchema())
		if f.Type.Type != nil {
			prop = b.components.ref(f.Type.Type)
		}
		obj.Properties[f.Name] = prop
		obj.Required = append(obj.Required, f.Name)
	}
	return b.components.add(s.ModelName, obj)
}

func description(status string) string {
	if code, err := strconv.Atoi(status); err == nil {
		if text := http.StatusText(code); text != "" {
			return text
		}
	}
	if status == "default" {
		return "Default response"
	}
	return "Response " + status
}

// Marshal encodes doc as indented JSON, or as YAML when format is "yaml".
func Marshal(doc *openapi3.T, format string) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal openapi document: %w", err)
	}
	if format != "yaml" {
		return append(data, '\n'), nil
	}

	// JSON is YAML; decoding into a node keeps the key order of the JSON
	// encoding, and clearing the styles switches to block layout.
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("convert openapi document to yaml: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encode openapi document as yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode openapi document as yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func blockStyle(n *yaml.Node) {
	if n.Kind != yaml.ScalarNode {
		n.Style = 0
	} else if n.Style == yaml.DoubleQuotedStyle && n.Tag == "!!str" {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// FormatOf returns "yaml" for .yaml and .yml paths and "json" otherwise.
func FormatOf(name string) string {
	switch path.Ext(name) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// Write marshals doc in the format implied by name and writes it to out.
func Write(ctx context.Context, out sink.OutputSink, name string, doc *openapi3.T) error {
	data, err := Marshal(doc, FormatOf(name))
	if err != nil {
		return err
	}
	if err := out.WriteFile(ctx, name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
