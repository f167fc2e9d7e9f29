// Package ir defines the intermediate representation shared by the composegen
// pipeline stages: decoded handler units, route groups, merged schemas and
// diagnostics.
//
// Values in this package are created once per pass and never mutated after
// the stage that produced them returns.
package ir

import (
	"go/token"
	"go/types"
	"strings"
)

// HandlerUnit is one method contributing to a route's composed response.
type HandlerUnit struct {
	// Owner is the fully qualified owning type name (e.g., "example.com/app/orders.Handler").
	Owner string

	// Method is the method name.
	Method string

	// Pos is the source location of the method name.
	Pos token.Position

	// Routes contains the raw route templates, in declaration order.
	// Templates are compared verbatim; no normalization is applied.
	Routes []string

	// Field is the composition field contributed by this unit, or nil.
	Field *CompositionField

	// Responses contains explicit response declarations, in declaration order.
	Responses []Response

	// Params contains parameter descriptions, in declaration order.
	Params []Param
}

// ID returns "Owner.Method".
func (u *HandlerUnit) ID() string {
	return u.Owner + "." + u.Method
}

// Namespace returns the package path part of Owner.
func (u *HandlerUnit) Namespace() string {
	if i := strings.LastIndex(u.Owner, "."); i >= 0 {
		return u.Owner[:i]
	}
	return ""
}

// HasSuccessResponse reports whether the unit declares an explicit, non-default
// response whose status code text starts with '2'.
func (u *HandlerUnit) HasSuccessResponse() bool {
	for _, r := range u.Responses {
		if r.IsSuccess() {
			return true
		}
	}
	return false
}

// DefaultResponse returns the first default response declaration, or nil.
func (u *HandlerUnit) DefaultResponse() *Response {
	for i := range u.Responses {
		if u.Responses[i].IsDefault {
			return &u.Responses[i]
		}
	}
	return nil
}

// CompositionField is a named, typed fragment a unit contributes to the
// merged response of its routes.
type CompositionField struct {
	Name string
	Type TypeRef
}

// Response is an explicit response declaration.
type Response struct {
	// Status is the numeric status code. Zero for default responses.
	Status int

	// StatusText is the decimal text of Status as decoded.
	StatusText string

	// Type is the response body type. Zero if the response has no body.
	Type TypeRef

	// IsDefault marks a //compose:default-response declaration.
	IsDefault bool
}

// IsSuccess reports whether r is an explicit 2xx response.
func (r Response) IsSuccess() bool {
	return !r.IsDefault && strings.HasPrefix(r.StatusText, "2")
}

// Param describes one request parameter.
type Param struct {
	Name     string
	Required bool
	Type     TypeRef
	Source   ParamSource
}

// ParamSource is where a parameter is bound from.
type ParamSource int

const (
	SourcePath ParamSource = iota + 1
	SourceQuery
	SourceBody
	SourceHeader
)

// String returns the directive spelling of the source.
func (s ParamSource) String() string {
	switch s {
	case SourcePath:
		return "Path"
	case SourceQuery:
		return "Query"
	case SourceBody:
		return "Body"
	case SourceHeader:
		return "Header"
	default:
		return "Unknown"
	}
}

// ParseParamSource maps a directive source string onto a ParamSource.
// Matching is exact and case-sensitive.
func ParseParamSource(s string) (ParamSource, bool) {
	switch s {
	case "Path":
		return SourcePath, true
	case "Query":
		return SourceQuery, true
	case "Body":
		return SourceBody, true
	case "Header":
		return SourceHeader, true
	}
	return 0, false
}

// TypeRef is a type reference captured at extraction time.
type TypeRef struct {
	// Name is the decoded type text. Bare identifiers naming package-level
	// types are promoted to "pkgpath.Name"; other expressions are verbatim.
	Name string

	// Arity is the number of type arguments of an instantiated generic type.
	Arity int

	// Type is the resolved type. It is nil when the reference could not be
	// resolved and for zero TypeRefs.
	Type types.Type
}

// IsZero reports whether the reference is empty.
func (t TypeRef) IsZero() bool {
	return t.Name == "" && t.Type == nil
}

// String returns Name.
func (t TypeRef) String() string {
	return t.Name
}
