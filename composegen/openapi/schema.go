package openapi

import (
	"fmt"
	"go/types"
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const componentPrefix = "#/components/schemas/"

// components derives schemas from go/types types. Named struct types become
// components referenced by $ref; everything else is inlined.
type components struct {
	schemas openapi3.Schemas
	names   map[string]string // qualified type name -> component name
}

func newComponents(schemas openapi3.Schemas) *components {
	return &components{schemas: schemas, names: make(map[string]string)}
}

// add registers schema under name and returns a reference to it.
func (c *components) add(name string, schema *openapi3.Schema) *openapi3.SchemaRef {
	c.schemas[name] = openapi3.NewSchemaRef("", schema)
	return openapi3.NewSchemaRef(componentPrefix+name, schema)
}

func (c *components) ref(t types.Type) *openapi3.SchemaRef {
	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		return openapi3.NewSchemaRef("", basic(t))

	case *types.Pointer:
		elem := c.ref(t.Elem())
		if elem.Ref != "" {
			return elem
		}
		return openapi3.NewSchemaRef("", elem.Value.WithNullable())

	case *types.Slice:
		if isByte(t.Elem()) {
			return openapi3.NewSchemaRef("", openapi3.NewBytesSchema())
		}
		arr := openapi3.NewArraySchema()
		arr.Items = c.ref(t.Elem())
		return openapi3.NewSchemaRef("", arr)

	case *types.Array:
		arr := openapi3.NewArraySchema()
		arr.Items = c.ref(t.Elem())
		arr.MinItems = uint64(t.Len())
		maxItems := uint64(t.Len())
		arr.MaxItems = &maxItems
		return openapi3.NewSchemaRef("", arr)

	case *types.Map:
		obj := openapi3.NewObjectSchema()
		obj.AdditionalProperties = openapi3.AdditionalProperties{Schema: c.ref(t.Elem())}
		return openapi3.NewSchemaRef("", obj)

	case *types.Named:
		return c.named(t)

	case *types.Struct:
		return openapi3.NewSchemaRef("", c.object(t))

	default:
		// Interfaces, functions and channels have no JSON shape.
		return openapi3.NewSchemaRef("", openapi3.NewSchema())
	}
}

func (c *components) named(t *types.Named) *openapi3.SchemaRef {
	obj := t.Obj()
	if obj.Pkg() != nil && obj.Pkg().Path() == "time" && obj.Name() == "Time" {
		return openapi3.NewSchemaRef("", openapi3.NewDateTimeSchema())
	}

	st, ok := t.Underlying().(*types.Struct)
	if !ok {
		return c.ref(t.Underlying())
	}

	key := types.TypeString(t, nil)
	if name, ok := c.names[key]; ok {
		return openapi3.NewSchemaRef(componentPrefix+name, c.schemas[name].Value)
	}

	name := c.name(t)
	c.names[key] = name

	// Registered before its fields so recursive types resolve to a $ref.
	schema := openapi3.NewObjectSchema()
	schema.Title = obj.Name()
	c.schemas[name] = openapi3.NewSchemaRef("", schema)
	c.fill(schema, st)

	return openapi3.NewSchemaRef(componentPrefix+name, schema)
}

// name picks a component name unique within the document.
func (c *components) name(t *types.Named) string {
	obj := t.Obj()
	base := obj.Name()
	if args := t.TypeArgs(); args.Len() > 0 {
		var b strings.Builder
		b.WriteString(base)
		for i := range args.Len() {
			b.WriteString("_")
			b.WriteString(sanitize(types.TypeString(args.At(i), func(p *types.Package) string { return p.Name() })))
		}
		base = b.String()
	}

	candidates := []string{base}
	if obj.Pkg() != nil {
		candidates = append(candidates, obj.Pkg().Name()+"."+base)
	}
	for _, n := range candidates {
		if _, taken := c.schemas[n]; !taken {
			return n
		}
	}
	for i := 2; ; i++ {
		n := fmt.Sprintf("%s%d", candidates[len(candidates)-1], i)
		if _, taken := c.schemas[n]; !taken {
			return n
		}
	}
}

func (c *components) object(st *types.Struct) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	c.fill(schema, st)
	return schema
}

// fill adds the JSON-visible fields of st to schema, following the
// encoding/json rules for tags, omitempty and embedded structs.
func (c *components) fill(schema *openapi3.Schema, st *types.Struct) {
	for i := range st.NumFields() {
		f := st.Field(i)
		tag := reflect.StructTag(st.Tag(i)).Get("json")
		name, opts, _ := strings.Cut(tag, ",")
		if name == "-" && opts == "" {
			continue
		}

		if f.Embedded() && name == "" {
			if inner, ok := embeddedStruct(f.Type()); ok {
				c.fill(schema, inner)
				continue
			}
		}
		if !f.Exported() {
			continue
		}
		if name == "" {
			name = f.Name()
		}

		schema.Properties[name] = c.ref(f.Type())
		if !strings.Contains(opts, "omitempty") && !strings.Contains(opts, "omitzero") {
			schema.Required = append(schema.Required, name)
		}
	}
}

func embeddedStruct(t types.Type) (*types.Struct, bool) {
	if p, ok := types.Unalias(t).(*types.Pointer); ok {
		t = p.Elem()
	}
	st, ok := types.Unalias(t).Underlying().(*types.Struct)
	return st, ok
}

func basic(t *types.Basic) *openapi3.Schema {
	info := t.Info()
	switch {
	case info&types.IsBoolean != 0:
		return openapi3.NewBoolSchema()
	case info&types.IsInteger != 0:
		switch t.Kind() {
		case types.Int32, types.Uint32, types.Int16, types.Uint16, types.Int8, types.Uint8:
			return openapi3.NewInt32Schema()
		default:
			return openapi3.NewInt64Schema()
		}
	case info&types.IsFloat != 0:
		return openapi3.NewFloat64Schema()
	case info&types.IsString != 0:
		return openapi3.NewStringSchema()
	default:
		return openapi3.NewSchema()
	}
}

func isByte(t types.Type) bool {
	b, ok := types.Unalias(t).(*types.Basic)
	return ok && b.Kind() == types.Byte
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
