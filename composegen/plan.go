package composegen

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/broady/composedoc/composegen/ir"
)

const (
	modelSuffix   = "CompositionModel"
	handlerSuffix = "DocumentationHandler"
)

// Group partitions composition-bearing units by exact route template.
//
// Units must already be in discovery order; groups are returned in order of
// first appearance and keep that order internally. A unit listing the same
// template twice contributes once. Units without a composition field, or
// without routes, contribute nothing.
func Group(units []ir.HandlerUnit) []ir.RouteGroup {
	var groups []ir.RouteGroup
	index := make(map[string]int)

	for i := range units {
		u := &units[i]
		if u.Field == nil {
			continue
		}

		seen := make(map[string]bool, len(u.Routes))
		for _, route := range u.Routes {
			if seen[route] {
				continue
			}
			seen[route] = true

			gi, ok := index[route]
			if !ok {
				gi = len(groups)
				index[route] = gi
				groups = append(groups, ir.RouteGroup{Route: route})
			}
			groups[gi].Units = append(groups[gi].Units, u)
		}
	}
	return groups
}

// Merge builds the schema of one group. It reports SC0002 and returns nil
// when two contributions share a property name, or map to the same Go
// field name.
func Merge(g ir.RouteGroup, prefix string) (*ir.MergedSchema, []ir.Diagnostic) {
	s := &ir.MergedSchema{
		Route:       g.Route,
		Prefix:      prefix,
		ModelName:   prefix + modelSuffix,
		HandlerName: prefix + handlerSuffix,
	}

	var diags []ir.Diagnostic
	byName := make(map[string]string)
	byGoName := make(map[string]string)
	params := make(map[string]bool)

	for _, u := range g.Units {
		name := u.Field.Name
		goName := ExportedName(name)

		if origin, dup := byName[name]; dup {
			diags = append(diags, ir.DuplicateProperty.New(u.Pos, name, g.Route, origin))
			continue
		}
		if origin, dup := byGoName[goName]; dup {
			diags = append(diags, ir.DuplicateProperty.New(u.Pos, goName, g.Route, origin))
			continue
		}
		byName[name] = u.ID()
		byGoName[goName] = u.ID()

		s.Fields = append(s.Fields, ir.SchemaField{
			Name:   name,
			GoName: goName,
			Type:   u.Field.Type,
			Origin: u.ID(),
		})

		if s.Default == nil {
			if def := u.DefaultResponse(); def != nil {
				d := *def
				s.Default = &d
			}
		}

		for _, p := range u.Params {
			key := p.Source.String() + "\x00" + p.Name
			if params[key] {
				continue
			}
			params[key] = true
			s.Params = append(s.Params, p)
		}
	}

	if len(diags) > 0 {
		return nil, diags
	}
	return s, nil
}

// Plan groups accepted units and merges every group into a schema.
//
// Identifier prefixes derive from the owning type of each group's first unit
// with stripPrefix removed. When that owner already led an earlier group,
// the route is appended ("OrdersSummary" then "OrdersSummaryV2OrdersId"),
// so one handler can document several routes. A group whose derived names
// were already taken by an earlier group is rejected with SC0003.
func Plan(accepted []ir.HandlerUnit, stripPrefix string) ([]ir.MergedSchema, []ir.Diagnostic) {
	var (
		schemas []ir.MergedSchema
		diags   []ir.Diagnostic
		taken   = make(map[string]string) // model name -> route
		led     = make(map[string]bool)   // owners that named a group
	)

	for _, g := range Group(accepted) {
		lead := g.Units[0]
		prefix := DeriveName(lead.Owner, stripPrefix)
		if led[lead.Owner] {
			prefix += routeSuffix(g.Route)
		}
		led[lead.Owner] = true
		model := prefix + modelSuffix

		if route, ok := taken[model]; ok {
			diags = append(diags, ir.NameCollision.New(lead.Pos, model, g.Route, route))
			continue
		}

		s, mdiags := Merge(g, prefix)
		diags = append(diags, mdiags...)
		if s == nil {
			continue
		}
		taken[model] = g.Route
		schemas = append(schemas, *s)
	}

	return schemas, diags
}

// DeriveName turns a qualified name ("example.com/app/orders.Handler") into
// a plain exported identifier ("OrdersHandler" with stripPrefix
// "example.com/app/"). Every run of non-identifier characters separates
// parts; each part is capitalized.
func DeriveName(qualified, stripPrefix string) string {
	name := qualified
	if stripPrefix != "" {
		trimmed := strings.TrimPrefix(name, stripPrefix)
		if trimmed == name && strings.HasSuffix(stripPrefix, "/") {
			// Root package of the module: "example.com/app.Handler".
			trimmed = strings.TrimPrefix(name, strings.TrimSuffix(stripPrefix, "/")+".")
		}
		name = trimmed
	}

	out := pascal(name)
	if out == "" {
		return "Composition"
	}
	if r, _ := utf8.DecodeRuneInString(out); !unicode.IsLetter(r) {
		out = "X" + out
	}
	return out
}

// routeSuffix names a route template: "/v2/orders/{id}" becomes "V2OrdersId".
func routeSuffix(route string) string {
	if s := pascal(route); s != "" {
		return s
	}
	return "Root"
}

func pascal(s string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}) {
		part = strings.Trim(part, "_")
		if part == "" {
			continue
		}
		b.WriteString(upperFirst(part))
	}
	return b.String()
}

// ExportedName returns the exported Go field name for a property name.
func ExportedName(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if !unicode.IsLetter(r) {
		return "X" + name
	}
	return upperFirst(name)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
