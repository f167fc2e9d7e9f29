package composegen

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	env "github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes the environment variables read by LoadFileConfig.
const EnvPrefix = "COMPOSEGEN_"

// DefaultConfigFiles are tried, in order, by FindConfigFile.
var DefaultConfigFiles = []string{"composegen.toml", "composegen.yaml", "composegen.yml"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("goident", func(fl validator.FieldLevel) bool {
		return token.IsIdentifier(fl.Field().String())
	})
	_ = v.RegisterValidation("qualified", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		i := strings.LastIndex(s, ".")
		return i > 0 && token.IsIdentifier(s[i+1:]) && !strings.ContainsAny(s[:i], " \t")
	})
	return v
}

// FileConfig is the on-disk configuration. Every field can be overridden by
// an environment variable named EnvPrefix + its env tag.
type FileConfig struct {
	Dir                string        `toml:"dir" yaml:"dir" env:"DIR"`
	Patterns           []string      `toml:"patterns" yaml:"patterns" env:"PATTERNS" envSeparator:","`
	Marker             string        `toml:"marker" yaml:"marker" env:"MARKER"`
	Request            string        `toml:"request" yaml:"request" env:"REQUEST"`
	Out                string        `toml:"out" yaml:"out" env:"OUT"`
	Package            string        `toml:"package" yaml:"package" env:"PACKAGE"`
	SingleFile         bool          `toml:"single_file" yaml:"single_file" env:"SINGLE_FILE"`
	FileName           string        `toml:"file_name" yaml:"file_name" env:"FILE_NAME"`
	StripPackagePrefix string        `toml:"strip_package_prefix" yaml:"strip_package_prefix" env:"STRIP_PACKAGE_PREFIX"`
	OpenAPI            OpenAPIConfig `toml:"openapi" yaml:"openapi" envPrefix:"OPENAPI_"`
}

// OpenAPIConfig is the [openapi] section of FileConfig.
type OpenAPIConfig struct {
	Out     string `toml:"out" yaml:"out" env:"OUT"`
	Title   string `toml:"title" yaml:"title" env:"TITLE"`
	Version string `toml:"version" yaml:"version" env:"VERSION"`
}

// FindConfigFile returns the first of DefaultConfigFiles present in dir,
// or "" if there is none.
func FindConfigFile(dir string) string {
	for _, name := range DefaultConfigFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadFileConfig reads path (TOML, or YAML for .yaml/.yml) and applies
// environment overrides. An empty path loads the environment only. Relative
// Dir and Out values are resolved against the directory of path.
func LoadFileConfig(path string) (*FileConfig, error) {
	var fc FileConfig

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			// An empty document decodes as io.EOF.
			if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		default:
			dec := toml.NewDecoder(bytes.NewReader(data))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&fc); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}

		base := filepath.Dir(path)
		fc.Dir = resolve(base, fc.Dir)
		fc.Out = resolve(base, fc.Out)
	}

	if err := env.ParseWithOptions(&fc, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &fc, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Config converts fc to a generation Config.
func (fc *FileConfig) Config() Config {
	return Config{
		Dir:                fc.Dir,
		Patterns:           fc.Patterns,
		Marker:             fc.Marker,
		Request:            fc.Request,
		OutDir:             fc.Out,
		Package:            fc.Package,
		SingleFile:         fc.SingleFile,
		FileName:           fc.FileName,
		StripPackagePrefix: fc.StripPackagePrefix,
		OpenAPI:            fc.OpenAPI.Out,
		OpenAPITitle:       fc.OpenAPI.Title,
		OpenAPIVersion:     fc.OpenAPI.Version,
	}
}

// Merge overlays the non-zero fields of override onto cfg and returns the
// result. SingleFile is only ever turned on by an override.
func (cfg Config) Merge(override Config) Config {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Dir, override.Dir)
	set(&cfg.Marker, override.Marker)
	set(&cfg.Request, override.Request)
	set(&cfg.OutDir, override.OutDir)
	set(&cfg.Package, override.Package)
	set(&cfg.FileName, override.FileName)
	set(&cfg.StripPackagePrefix, override.StripPackagePrefix)
	set(&cfg.OpenAPI, override.OpenAPI)
	set(&cfg.OpenAPITitle, override.OpenAPITitle)
	set(&cfg.OpenAPIVersion, override.OpenAPIVersion)
	if len(override.Patterns) > 0 {
		cfg.Patterns = override.Patterns
	}
	if override.SingleFile {
		cfg.SingleFile = true
	}
	if override.Logger != nil {
		cfg.Logger = override.Logger
	}
	return cfg
}
