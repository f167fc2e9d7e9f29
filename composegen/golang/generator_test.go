package golang

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/composedoc/composegen/ir"
	"github.com/broady/composedoc/composegen/sink"
)

func namedType(pkgPath, pkgName, name string) types.Type {
	pkg := types.NewPackage(pkgPath, pkgName)
	obj := types.NewTypeName(token.NoPos, pkg, name, nil)
	return types.NewNamed(obj, types.NewStruct(nil, nil), nil)
}

func ref(t types.Type) ir.TypeRef {
	return ir.TypeRef{Name: t.String(), Type: t}
}

func sampleSchema() ir.MergedSchema {
	myModel := namedType("example.com/app/handlers/serviceb", "serviceb", "MyModel")
	errorBody := namedType("example.com/app/handlers/serviceb", "serviceb", "ErrorBody")

	return ir.MergedSchema{
		Route:       "/sample/{id}",
		Prefix:      "HandlersServiceaSampleHandler",
		ModelName:   "HandlersServiceaSampleHandlerCompositionModel",
		HandlerName: "HandlersServiceaSampleHandlerDocumentationHandler",
		Fields: []ir.SchemaField{
			{Name: "AValue", GoName: "AValue", Type: ref(types.Typ[types.Int]), Origin: "example.com/app/handlers/servicea.SampleHandler.Handle"},
			{Name: "AnotherValue", GoName: "AnotherValue", Type: ref(myModel), Origin: "example.com/app/handlers/serviceb.SampleHandler.Handle"},
		},
		Default: &ir.Response{IsDefault: true, Type: ref(errorBody)},
		Params: []ir.Param{
			{Name: "id", Required: true, Type: ref(types.Typ[types.Int]), Source: ir.SourcePath},
		},
	}
}

func generate(t *testing.T, cfg Config, schemas ...ir.MergedSchema) (*sink.MemorySink, *GenerateResult) {
	t.Helper()
	mem := sink.NewMemorySink()
	result, err := (&Generator{}).Generate(context.Background(), schemas, GenerateOptions{Sink: mem, Config: cfg})
	require.NoError(t, err)
	return mem, result
}

func parse(t *testing.T, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.ParseComments)
	require.NoError(t, err, "generated source:\n%s", src)
	return f
}

func TestGenerate(t *testing.T) {
	mem, result := generate(t, Config{Package: "docs"}, sampleSchema())

	require.Len(t, result.Files, 1)
	assert.Equal(t, "handlers_servicea_sample_handler.compose.go", result.Files[0].Path)
	assert.Equal(t, 2, result.TypesGenerated)
	assert.Empty(t, result.Warnings)

	src := mem.Get(result.Files[0].Path)
	require.NotNil(t, src)
	assert.Equal(t, int64(len(src)), result.Files[0].Size)

	f := parse(t, src)
	assert.True(t, ast.IsGenerated(f))
	assert.Equal(t, "docs", f.Name.Name)

	code := string(src)
	assert.True(t, strings.HasPrefix(code, Header+"\n"))
	assert.Regexp(t, "AValue +int +`json:\"AValue\"`", code)
	assert.Regexp(t, "AnotherValue +serviceb.MyModel +`json:\"AnotherValue\"`", code)
	for _, want := range []string{
		`"net/http"`,
		`"example.com/app/handlers/serviceb"`,
		`"github.com/broady/composedoc"`,
		"type HandlersServiceaSampleHandlerCompositionModel struct {",
		"_ serviceb.ErrorBody",
		"//compose:get /sample/{id}\n",
		"//compose:response 200 HandlersServiceaSampleHandlerCompositionModel\n",
		"//compose:default-response serviceb.ErrorBody\n",
		"//compose:param name=id required type=int source=Path\n",
		"func (HandlersServiceaSampleHandlerDocumentationHandler) Handle(*http.Request) error {",
		"var _ composedoc.Handler = HandlersServiceaSampleHandlerDocumentationHandler{}",
	} {
		assert.Contains(t, code, want)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	first, _ := generate(t, Config{}, sampleSchema())
	second, _ := generate(t, Config{}, sampleSchema())
	assert.Equal(t, first.Files(), second.Files())
}

func TestGenerateEmpty(t *testing.T) {
	mem, result := generate(t, Config{})
	assert.Empty(t, result.Files)
	assert.Empty(t, mem.Files())
}

func TestGenerateSingleFile(t *testing.T) {
	other := sampleSchema()
	other.Route = "/other"
	other.Prefix = "Other"
	other.ModelName = "OtherCompositionModel"
	other.HandlerName = "OtherDocumentationHandler"

	mem, result := generate(t, Config{SingleFile: true, BaseName: "handlers_servicea"}, sampleSchema(), other)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "handlers_servicea.compose.go", result.Files[0].Path)
	assert.Equal(t, 4, result.TypesGenerated)

	code := string(mem.Get("handlers_servicea.compose.go"))
	parse(t, []byte(code))
	assert.Less(t, strings.Index(code, "HandlersServiceaSampleHandlerCompositionModel struct"), strings.Index(code, "OtherCompositionModel struct"))
	assert.Equal(t, 1, strings.Count(code, `"net/http"`))
}

func TestGenerateImportAliases(t *testing.T) {
	s := sampleSchema()
	s.Default = nil
	s.Params = nil
	s.Fields = []ir.SchemaField{
		{Name: "A", GoName: "A", Type: ref(namedType("example.com/a/models", "models", "User")), Origin: "a"},
		{Name: "B", GoName: "B", Type: ref(namedType("example.com/b/models", "models", "User")), Origin: "b"},
		{Name: "C", GoName: "C", Type: ref(namedType("gopkg.in/yaml.v3", "yaml", "Node")), Origin: "c"},
	}

	mem, result := generate(t, Config{}, s)
	code := string(mem.Get(result.Files[0].Path))
	parse(t, []byte(code))

	assert.Contains(t, code, "\t\"example.com/a/models\"\n")
	assert.Contains(t, code, "models2 \"example.com/b/models\"")
	assert.Contains(t, code, "yaml \"gopkg.in/yaml.v3\"")
	assert.Contains(t, code, "B models2.User")
	assert.Contains(t, code, "struct{}")
}

func TestGenerateInaccessibleTypes(t *testing.T) {
	s := sampleSchema()
	hidden := namedType("example.com/app/internalpkg", "internalpkg", "hidden")
	s.Fields[1].Type = ref(types.NewSlice(hidden))
	s.Default.Type = ref(hidden)
	s.Params = append(s.Params, ir.Param{Name: "h", Type: ref(hidden), Source: ir.SourceHeader})

	mem, result := generate(t, Config{}, s)
	code := string(mem.Get(result.Files[0].Path))
	parse(t, []byte(code))

	assert.Len(t, result.Warnings, 3)
	assert.Contains(t, code, "AnotherValue any")
	assert.Contains(t, code, "//compose:default-response\n")
	assert.NotContains(t, code, "name=h")
	assert.NotContains(t, code, "internalpkg")
}

func TestGenerateCustomRequest(t *testing.T) {
	mem, result := generate(t, Config{Request: "example.com/app/web.Request", Marker: "example.com/app/web.Handler"}, sampleSchema())
	code := string(mem.Get(result.Files[0].Path))
	parse(t, []byte(code))

	assert.Contains(t, code, "Handle(*web.Request) error")
	assert.NotContains(t, code, "net/http")
	assert.NotContains(t, code, "var _ ")
}

func TestGenerateQuotesArguments(t *testing.T) {
	s := sampleSchema()
	s.Route = "/with space"
	params := types.NewTuple(
		types.NewParam(token.NoPos, nil, "", types.Typ[types.Int]),
		types.NewParam(token.NoPos, nil, "", types.Typ[types.String]))
	pair := types.NewMap(types.Typ[types.String], types.NewSignatureType(nil, nil, nil, params, nil, false))
	s.Params = []ir.Param{{Name: "p", Type: ref(pair), Source: ir.SourceQuery}}

	mem, result := generate(t, Config{}, s)
	code := string(mem.Get(result.Files[0].Path))
	parse(t, []byte(code))

	assert.Contains(t, code, `//compose:get "/with space"`)
	assert.Contains(t, code, `type="map[string]func(int, string)"`)
}

func TestGenerateInvalidPackage(t *testing.T) {
	_, err := (&Generator{}).Generate(context.Background(), nil, GenerateOptions{
		Sink:   sink.NewMemorySink(),
		Config: Config{Package: "not-valid"},
	})
	assert.ErrorContains(t, err, "invalid package name")

	_, err = (&Generator{}).Generate(context.Background(), nil, GenerateOptions{})
	assert.ErrorContains(t, err, "sink is required")
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"HandlersServiceaSampleHandler": "handlers_servicea_sample_handler",
		"HTTPServer":                    "http_server",
		"V2Orders":                      "v2_orders",
		"Orders":                        "orders",
		"ApiV1UserHandler":              "api_v1_user_handler",
	}
	for in, want := range tests {
		assert.Equal(t, want, SnakeCase(in), in)
	}
}
