package ir

// RouteGroup is the set of accepted, composition-bearing units that share one
// exact route template.
type RouteGroup struct {
	// Route is the group key.
	Route string

	// Units are the contributing units in discovery order.
	Units []*HandlerUnit
}

// MergedSchema is the synthesized response model of one route group.
type MergedSchema struct {
	// Route is the route template of the group.
	Route string

	// Prefix is the identifier prefix derived from the group's first unit.
	Prefix string

	// ModelName is the generated model type name.
	ModelName string

	// HandlerName is the generated documentation handler type name.
	HandlerName string

	// Fields contains one entry per contributing unit, in discovery order.
	Fields []SchemaField

	// Default is the first default response declared by a contributing unit.
	Default *Response

	// Params contains the contributors' parameters, deduplicated by name and
	// source. The first declaration wins.
	Params []Param
}

// SchemaField is one member of a merged schema.
type SchemaField struct {
	// Name is the property name as declared.
	Name string

	// GoName is the exported Go field name emitted for Name.
	GoName string

	Type TypeRef

	// Origin is the ID of the contributing unit.
	Origin string
}

// Empty reports whether the schema has no fields.
func (s *MergedSchema) Empty() bool {
	return len(s.Fields) == 0
}
