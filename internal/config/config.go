// Package config contains the loader and typed model for viewrender settings.
//
// Values are layered: built-in defaults, then a YAML or CUE file, then .env
// files listed by the file, then the process environment (VIEWRENDER_*).
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Engine names accepted by Config.Engine.
const (
	EnginePongo    = "pongo"
	EngineHTML     = "html"
	EngineStarlark = "starlark"
)

// Config describes how templates are found, evaluated and served.
type Config struct {
	// Engine selects the template evaluator.
	Engine string `yaml:"engine" json:"engine" env:"VIEWRENDER_ENGINE"`
	// TemplateDir is the template root. Empty uses the embedded demo set.
	TemplateDir string `yaml:"templateDir" json:"templateDir" env:"VIEWRENDER_TEMPLATES"`
	// Extension overrides the engine's default template extension.
	Extension string `yaml:"extension" json:"extension" env:"VIEWRENDER_EXTENSION"`
	// Reload re-reads templates on every render (pongo engine).
	Reload bool `yaml:"reload" json:"reload" env:"VIEWRENDER_RELOAD"`
	// CacheSize bounds the parsed template cache (html engine).
	CacheSize int `yaml:"cacheSize" json:"cacheSize" env:"VIEWRENDER_CACHE_SIZE"`
	// MaxSteps bounds script execution (starlark engine). Zero is unbounded.
	MaxSteps uint64 `yaml:"maxSteps" json:"maxSteps" env:"VIEWRENDER_MAX_STEPS"`
	// Aliases maps logical template names to paths.
	Aliases map[string]string `yaml:"aliases" json:"aliases" env:"VIEWRENDER_ALIASES"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel" json:"logLevel" env:"VIEWRENDER_LOG_LEVEL"`
	// Addr is the listen address used by serve.
	Addr string `yaml:"addr" json:"addr" env:"VIEWRENDER_ADDR"`
	// BaseURI is the root URI used when rendering outside a request.
	BaseURI string `yaml:"baseURI" json:"baseURI" env:"VIEWRENDER_BASE_URI"`
	// TrustForwarded honours X-Forwarded-* headers when building URIs.
	TrustForwarded bool `yaml:"trustForwarded" json:"trustForwarded" env:"VIEWRENDER_TRUST_FORWARDED"`

	// Theme configures the theme asset helper.
	Theme Theme `yaml:"theme" json:"theme" envPrefix:"VIEWRENDER_THEME_"`

	// EnvFiles lists .env files loaded before the environment is applied,
	// relative to the config file.
	EnvFiles []string `yaml:"envFiles" json:"envFiles"`
}

// Theme describes the asset helper's theme.
type Theme struct {
	Name        string            `yaml:"name" json:"name" env:"NAME"`
	Variant     string            `yaml:"variant" json:"variant" env:"VARIANT"`
	AssetPrefix string            `yaml:"assetPrefix" json:"assetPrefix" env:"ASSET_PREFIX"`
	Assets      map[string]string `yaml:"assets" json:"assets" env:"ASSETS"`
	Tokens      map[string]string `yaml:"tokens" json:"tokens" env:"TOKENS"`
	Partials    map[string]string `yaml:"partials" json:"partials" env:"PARTIALS"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine:    EnginePongo,
		CacheSize: 64,
		LogLevel:  "info",
		Addr:      ":8080",
		BaseURI:   "http://localhost:8080",
	}
}

// Load reads path (optional) and applies .env files and the process
// environment on top of the defaults.
func Load(path string) (Config, error) {
	return load(path, environ())
}

func load(path string, osEnv map[string]string) (Config, error) {
	cfg := Default()

	baseDir := "."
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
		baseDir = filepath.Dir(path)
	}

	vars := map[string]string{}
	if files := envFilePaths(baseDir, cfg.EnvFiles); len(files) > 0 {
		loaded, err := godotenv.Read(files...)
		if err != nil {
			return Config{}, fmt.Errorf("config: load env files: %w", err)
		}
		vars = loaded
	}
	for key, value := range osEnv {
		vars[key] = value
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}

	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings no engine can run with.
func (c Config) Validate() error {
	switch c.Engine {
	case EnginePongo, EngineHTML, EngineStarlark:
	default:
		return fmt.Errorf("config: unknown engine %q", c.Engine)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("config: cache size must not be negative, got %d", c.CacheSize)
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		value := cuecontext.New().CompileBytes(raw, cue.Filename(path))
		if err := value.Err(); err != nil {
			return fmt.Errorf("config: compile %q: %w", path, err)
		}
		if err := value.Decode(cfg); err != nil {
			return fmt.Errorf("config: decode %q: %w", path, err)
		}
	default:
		if len(bytes.TrimSpace(raw)) == 0 {
			return nil
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return fmt.Errorf("config: parse %q: %w", path, err)
		}
	}
	return nil
}

func envFilePaths(baseDir string, files []string) []string {
	var out []string
	for _, name := range files {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !filepath.IsAbs(name) {
			name = filepath.Join(baseDir, name)
		}
		out = append(out, name)
	}
	return out
}

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		out[key] = value
	}
	return out
}
