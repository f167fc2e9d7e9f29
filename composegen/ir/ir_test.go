package ir

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerUnit(t *testing.T) {
	u := HandlerUnit{
		Owner:  "example.com/app/orders.Handler",
		Method: "Handle",
		Responses: []Response{
			{Status: 404, StatusText: "404"},
			{IsDefault: true, Type: TypeRef{Name: "first"}},
			{IsDefault: true, Type: TypeRef{Name: "second"}},
		},
	}
	assert.Equal(t, "example.com/app/orders.Handler.Handle", u.ID())
	assert.Equal(t, "example.com/app/orders", u.Namespace())
	assert.False(t, u.HasSuccessResponse())
	assert.Equal(t, "first", u.DefaultResponse().Type.Name)

	u.Responses = append(u.Responses, Response{Status: 204, StatusText: "204"})
	assert.True(t, u.HasSuccessResponse())
}

func TestResponseIsSuccess(t *testing.T) {
	tests := []struct {
		r    Response
		want bool
	}{
		{Response{Status: 200, StatusText: "200"}, true},
		{Response{Status: 299, StatusText: "299"}, true},
		{Response{Status: 301, StatusText: "301"}, false},
		{Response{IsDefault: true}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.r.IsSuccess(), tt.r.StatusText)
	}
}

func TestParamSource(t *testing.T) {
	for _, s := range []ParamSource{SourcePath, SourceQuery, SourceBody, SourceHeader} {
		got, ok := ParseParamSource(s.String())
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseParamSource("path")
	assert.False(t, ok, "matching is case-sensitive")
	_, ok = ParseParamSource("Cookie")
	assert.False(t, ok)
	assert.Equal(t, "Unknown", ParamSource(0).String())
}

func TestDiagnostic(t *testing.T) {
	pos := token.Position{Filename: "h.go", Line: 3, Column: 6}
	d := InvalidCompositionUsage.New(pos, "a.H.Handle")
	assert.Equal(t, CodeInvalidCompositionUsage, d.Code)
	assert.Equal(t, "h.go:3:6: error SC0001: method a.H.Handle cannot declare a //compose:response for a 2XX HTTP status code alongside //compose:field; use //compose:field only", d.String())

	d = NameCollision.New(token.Position{}, "M", "/b", "/a")
	assert.Equal(t, "error SC0003: generated type M for route /b collides with the one generated for route /a; no model is generated for this route", d.String())

	assert.True(t, HasErrors([]Diagnostic{{Severity: SeverityWarning}, d}))
	assert.False(t, HasErrors([]Diagnostic{{Severity: SeverityWarning}}))
}

func TestTypeRef(t *testing.T) {
	assert.True(t, TypeRef{}.IsZero())
	assert.False(t, TypeRef{Name: "int"}.IsZero())
	assert.Equal(t, "int", TypeRef{Name: "int"}.String())
}
