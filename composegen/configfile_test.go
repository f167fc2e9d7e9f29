package composegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFileConfigTOML(t *testing.T) {
	path := writeConfig(t, "composegen.toml", `
dir = "src"
patterns = ["./handlers/..."]
marker = "example.com/app/compose.Handler"
out = "/abs/docs"
package = "docs"
single_file = true

[openapi]
out = "openapi.json"
title = "Orders"
`)
	fc, err := LoadFileConfig(path)
	require.NoError(t, err)

	cfg := fc.Config()
	assert.Equal(t, filepath.Join(filepath.Dir(path), "src"), cfg.Dir)
	assert.Equal(t, []string{"./handlers/..."}, cfg.Patterns)
	assert.Equal(t, "example.com/app/compose.Handler", cfg.Marker)
	assert.Equal(t, "/abs/docs", cfg.OutDir)
	assert.Equal(t, "docs", cfg.Package)
	assert.True(t, cfg.SingleFile)
	assert.Equal(t, "openapi.json", cfg.OpenAPI)
	assert.Equal(t, "Orders", cfg.OpenAPITitle)
}

func TestLoadFileConfigYAML(t *testing.T) {
	path := writeConfig(t, "composegen.yaml", `
patterns:
  - ./...
out: docs
openapi:
  out: openapi.yaml
  version: 2.0.0
`)
	fc, err := LoadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"./..."}, fc.Patterns)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "docs"), fc.Out)
	assert.Empty(t, fc.Dir)
	assert.Equal(t, "2.0.0", fc.OpenAPI.Version)
}

func TestLoadFileConfigEmptyYAML(t *testing.T) {
	fc, err := LoadFileConfig(writeConfig(t, "composegen.yml", ""))
	require.NoError(t, err)
	assert.Empty(t, fc.Patterns)
}

func TestLoadFileConfigUnknownField(t *testing.T) {
	tests := map[string]string{
		"composegen.toml": "pattern = [\"./...\"]\n",
		"composegen.yaml": "pattern: [./...]\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFileConfig(writeConfig(t, name, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileConfigEnv(t *testing.T) {
	path := writeConfig(t, "composegen.toml", `
patterns = ["./a/..."]
package = "docs"
`)
	t.Setenv("COMPOSEGEN_PATTERNS", "./b/...,./c/...")
	t.Setenv("COMPOSEGEN_SINGLE_FILE", "true")
	t.Setenv("COMPOSEGEN_OPENAPI_OUT", "api.yaml")

	fc, err := LoadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"./b/...", "./c/..."}, fc.Patterns, "environment wins over file")
	assert.Equal(t, "docs", fc.Package)
	assert.True(t, fc.SingleFile)
	assert.Equal(t, "api.yaml", fc.OpenAPI.Out)
}

func TestLoadFileConfigEnvOnly(t *testing.T) {
	t.Setenv("COMPOSEGEN_MARKER", "example.com/app/compose.Handler")
	fc, err := LoadFileConfig("")
	require.NoError(t, err)
	assert.Equal(t, "example.com/app/compose.Handler", fc.Marker)
}

func TestLoadFileConfigBadEnv(t *testing.T) {
	t.Setenv("COMPOSEGEN_SINGLE_FILE", "sometimes")
	_, err := LoadFileConfig("")
	assert.Error(t, err)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, FindConfigFile(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "composegen.yaml"), nil, 0644))
	assert.Equal(t, filepath.Join(dir, "composegen.yaml"), FindConfigFile(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "composegen.toml"), nil, 0644))
	assert.Equal(t, filepath.Join(dir, "composegen.toml"), FindConfigFile(dir), "TOML is preferred")
}

func TestConfigMerge(t *testing.T) {
	base := Config{
		Dir:      "src",
		Patterns: []string{"./..."},
		Package:  "docs",
		OpenAPI:  "openapi.json",
	}
	got := base.Merge(Config{
		Package:    "api",
		SingleFile: true,
		Patterns:   []string{"./handlers/..."},
	})

	assert.Equal(t, "src", got.Dir)
	assert.Equal(t, "api", got.Package)
	assert.True(t, got.SingleFile)
	assert.Equal(t, []string{"./handlers/..."}, got.Patterns)
	assert.Equal(t, "openapi.json", got.OpenAPI)
	assert.Equal(t, "docs", base.Package, "receiver is not modified")
}
