// Package testfixtures provides on-disk Go modules used by pipeline tests.
//
// Fixture modules import only the standard library so they load without a
// module cache. They declare their own marker interface, selected with
// Marker.
package testfixtures

import (
	"os"
	"path/filepath"
	"testing"
)

// ModulePath is the module path of every fixture module.
const ModulePath = "example.com/app"

// Marker is the marker interface declared by ComposeFiles.
const Marker = ModulePath + "/compose.Handler"

// ComposeFiles declares the fixture marker interface.
var ComposeFiles = map[string]string{
	"compose/compose.go": `package compose

import "net/http"

// Handler is implemented by composition handlers.
type Handler interface {
	Handle(r *http.Request) error
}
`,
}

// SampleFiles is the two-service scenario: both handlers contribute to
// /sample/{id}.
var SampleFiles = map[string]string{
	"handlers/servicea/handler.go": `package servicea

import (
	"net/http"

	"example.com/app/compose"
)

var _ compose.Handler = (*SampleHandler)(nil)

type SampleHandler struct{}

//compose:get /sample/{id}
//compose:field "AValue" int
//compose:param name=id required type=int source=Path
func (h *SampleHandler) Handle(r *http.Request) error {
	return nil
}
`,
	"handlers/serviceb/handler.go": `package serviceb

import (
	"net/http"

	"example.com/app/compose"
)

var _ compose.Handler = SampleHandler{}

// MyModel is contributed by service B.
type MyModel struct {
	MyProp int ` + "`json:\"myProp\"`" + `
}

type SampleHandler struct{}

//compose:get /sample/{id}
//compose:field "AnotherValue" MyModel
//compose:default-response ErrorBody
func (h SampleHandler) Handle(r *http.Request) error {
	return nil
}

// ErrorBody is the default error payload.
type ErrorBody struct {
	Message string ` + "`json:\"message\"`" + `
}
`,
}

// Merge combines file sets; later sets win on conflicting names.
func Merge(sets ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, set := range sets {
		for name, content := range set {
			out[name] = content
		}
	}
	return out
}

// WriteModule writes a module rooted at a temporary directory and returns
// the directory. A go.mod for ModulePath is added unless files provides one.
// GOWORK is disabled so the temporary module loads standalone.
func WriteModule(t testing.TB, files map[string]string) string {
	t.Helper()
	t.Setenv("GOWORK", "off")

	dir := t.TempDir()
	if _, ok := files["go.mod"]; !ok {
		files = Merge(map[string]string{"go.mod": "module " + ModulePath + "\n\ngo 1.22\n"}, files)
	}

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}
