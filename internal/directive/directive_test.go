package directive

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, src string) (*token.FileSet, *ast.CommentGroup) {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "handler.go", src, parser.ParseComments)
	require.NoError(t, err)
	for _, decl := range f.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			return fset, fn.Doc
		}
	}
	t.Fatal("no function declaration in source")
	return nil, nil
}

func TestScan(t *testing.T) {
	fset, doc := parseDoc(t, `package p

// Handle composes the order view.
//
//compose:get /orders/{id}
//compose:get "/v2/orders/{id}"
//compose:field "Shipping" map[string] int
//compose:response 404 ErrorBody
//compose:default-response
//compose:param name=id required type=int source=Path
//compose:bogus whatever
//compose:
func (h *H) Handle(r *Request) error { return nil }
`)

	got := Scan(fset, doc)
	require.Len(t, got, 7)

	tests := []struct {
		kind  Kind
		args  []string
		known bool
	}{
		{KindGet, []string{"/orders/{id}"}, true},
		{KindGet, []string{`"/v2/orders/{id}"`}, true},
		{KindField, []string{`"Shipping"`, "map[string] int"}, true},
		{KindResponse, []string{"404", "ErrorBody"}, true},
		{KindDefaultResponse, nil, true},
		{KindParam, []string{"name=id", "required", "type=int", "source=Path"}, true},
		{Kind("bogus"), []string{"whatever"}, false},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.kind, got[i].Kind, "directive %d", i)
		assert.Equal(t, tt.args, got[i].Args, "directive %d", i)
		assert.Equal(t, tt.known, got[i].Kind.Known(), "directive %d", i)
	}

	assert.Equal(t, 5, got[0].Pos.Line)
	assert.Equal(t, "handler.go", got[0].Pos.Filename)
	assert.Equal(t, `"Shipping" map[string] int`, got[2].Text)
}

func TestScanNilDoc(t *testing.T) {
	assert.Nil(t, Scan(token.NewFileSet(), nil))
}

func TestFilter(t *testing.T) {
	ds := []Directive{
		{Kind: KindGet, Text: "/a"},
		{Kind: KindField},
		{Kind: KindGet, Text: "/b"},
	}
	got := Filter(ds, KindGet)
	require.Len(t, got, 2)
	assert.Equal(t, "/a", got[0].Text)
	assert.Equal(t, "/b", got[1].Text)
	assert.Empty(t, Filter(ds, KindParam))
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"fields", "a  b\tc", []string{"a", "b", "c"}},
		{"quoted with space", `"a b" c`, []string{`"a b"`, "c"}},
		{"escaped quote", `"a \" b" c`, []string{`"a \" b"`, "c"}},
		{"raw string", "`a b` c", []string{"`a b`", "c"}},
		{"brackets", "x map[string] []int", []string{"x", "map[string] []int"}},
		{"func type", "func(a, b int) error", []string{"func(a, b int)", "error"}},
		{"unbalanced close", "a) b", []string{"a)", "b"}},
		{"map with spaced element", "map[string]  int", []string{"map[string] int"}},
		{"param type continues", "name=tags type=map[string] int source=Query", []string{"name=tags", "type=map[string] int", "source=Query"}},
		{"pointer element", "[] *User x", []string{"[] *User", "x"}},
		{"trailing bracket", "a] ", []string{"a]"}},
		{"quoted bracket does not continue", `"a]" b`, []string{`"a]"`, "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.in))
		})
	}
}
