package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/composedoc/composegen"
	"github.com/broady/composedoc/internal/testfixtures"
)

func testApp(t *testing.T) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	return &App{
		Stdout: &stdout,
		Stderr: &stderr,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, &stdout, &stderr
}

func TestParse(t *testing.T) {
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Name("composegen"))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"-v", "gen", "-o", "docs", "--single-file", "--openapi", "openapi.yaml", "./handlers/...", "./api"})
	require.NoError(t, err)

	assert.True(t, cli.Verbose)
	assert.Equal(t, []string{"./handlers/...", "./api"}, cli.Gen.Patterns)
	assert.True(t, filepath.IsAbs(cli.Gen.Out))
	assert.True(t, cli.Gen.SingleFile)
	assert.Equal(t, "openapi.yaml", cli.Gen.OpenAPI)
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "composegen.toml"), []byte(`
patterns = ["./handlers/..."]
package = "fromfile"
file_name = "fromfile"
marker = "example.com/app/compose.Handler"
`), 0644))
	t.Chdir(dir)
	t.Setenv("COMPOSEGEN_PACKAGE", "fromenv")
	t.Setenv("COMPOSEGEN_FILE_NAME", "fromenv")

	app, _, _ := testApp(t)
	cfg, err := app.loadConfig(composegen.Config{Package: "fromflag"})
	require.NoError(t, err)

	assert.Equal(t, "fromflag", cfg.Package)
	assert.Equal(t, "fromenv", cfg.FileName)
	assert.Equal(t, "example.com/app/compose.Handler", cfg.Marker)
	assert.Equal(t, []string{"./handlers/..."}, cfg.Patterns)
	assert.NotNil(t, cfg.Logger)
}

func TestLoadConfigDefaultPatterns(t *testing.T) {
	t.Chdir(t.TempDir())
	app, _, _ := testApp(t)
	cfg, err := app.loadConfig(composegen.Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{"./..."}, cfg.Patterns)
}

func TestGenCmd(t *testing.T) {
	dir := testfixtures.WriteModule(t, testfixtures.Merge(testfixtures.ComposeFiles, testfixtures.SampleFiles))
	t.Chdir(dir)
	out := filepath.Join(dir, "docs")

	app, _, stderr := testApp(t)
	cmd := &GenCmd{
		SourceFlags: SourceFlags{Marker: testfixtures.Marker},
		OutputFlags: OutputFlags{Package: "docs", OpenAPI: "openapi.json"},
		Out:         out,
	}
	require.NoError(t, cmd.Run(app))
	assert.Empty(t, stderr.String())

	src, err := os.ReadFile(filepath.Join(out, "handlers_servicea_sample_handler.compose.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package docs")
	assert.FileExists(t, filepath.Join(out, "openapi.json"))
}

func TestGenCmdRequiresOut(t *testing.T) {
	t.Chdir(t.TempDir())
	app, _, _ := testApp(t)
	err := (&GenCmd{}).Run(app)
	assert.ErrorContains(t, err, "no output directory")
}

func TestCheckCmd(t *testing.T) {
	dir := testfixtures.WriteModule(t, testfixtures.Merge(testfixtures.ComposeFiles, testfixtures.SampleFiles, map[string]string{
		"handlers/servicec/handler.go": `package servicec

import (
	"net/http"

	"example.com/app/compose"
)

var _ compose.Handler = Bad{}

type Bad struct{}

//compose:get /bad
//compose:field "Value" int
//compose:response 200 string
func (Bad) Handle(r *http.Request) error { return nil }
`,
	}))
	t.Chdir(dir)

	app, stdout, stderr := testApp(t)
	cmd := &CheckCmd{SourceFlags: SourceFlags{Marker: testfixtures.Marker}}
	err := cmd.Run(app)
	assert.ErrorIs(t, err, errDiagnostics)

	assert.Contains(t, stdout.String(), "3 handlers, 1 routes")
	assert.Contains(t, stdout.String(), "handlers_servicea_sample_handler.compose.go")
	assert.Contains(t, stderr.String(), "error SC0001")
	assert.Contains(t, stderr.String(), "servicec.Bad.Handle")

	_, err = os.Stat(filepath.Join(dir, "handlers_servicea_sample_handler.compose.go"))
	assert.True(t, os.IsNotExist(err))
}
