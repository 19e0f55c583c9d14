package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_YAMLThenEnvFilesThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "VIEWRENDER_ADDR=:9000\nVIEWRENDER_LOG_LEVEL=warn\n")
	path := writeFile(t, dir, "viewrender.yaml", `
engine: html
templateDir: ./views
cacheSize: 8
envFiles: [.env]
aliases:
  home: pages/home
theme:
  name: acme
  assetPrefix: /assets
  assets:
    stylesheet: theme.css
`)

	cfg, err := load(path, map[string]string{
		"VIEWRENDER_LOG_LEVEL":   "debug",
		"VIEWRENDER_THEME_TOKENS": "brand:#123456",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := Default()
	want.Engine = EngineHTML
	want.TemplateDir = "./views"
	want.CacheSize = 8
	want.EnvFiles = []string{".env"}
	want.Aliases = map[string]string{"home": "pages/home"}
	want.Addr = ":9000"
	want.LogLevel = "debug"
	want.Theme = Theme{
		Name:        "acme",
		AssetPrefix: "/assets",
		Assets:      map[string]string{"stylesheet": "theme.css"},
		Tokens:      map[string]string{"brand": "#123456"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_CUE(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "viewrender.cue", `
engine:   "starlark"
maxSteps: 5000
theme: {
	name:    "acme"
	variant: "dark"
}
`)

	cfg, err := load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine != EngineStarlark || cfg.MaxSteps != 5000 {
		t.Fatalf("unexpected engine settings: %+v", cfg)
	}
	if cfg.Theme.Name != "acme" || cfg.Theme.Variant != "dark" {
		t.Fatalf("unexpected theme: %+v", cfg.Theme)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := load(filepath.Join(dir, "missing.yaml"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}

	bad := writeFile(t, dir, "bad.cue", `engine: "pongo" & "html"`)
	if _, err := load(bad, nil); err == nil {
		t.Fatal("expected error for conflicting cue values")
	}

	if _, err := load("", map[string]string{"VIEWRENDER_ENGINE": "jinja"}); err == nil {
		t.Fatal("expected error for unknown engine")
	}

	if _, err := load("", map[string]string{"VIEWRENDER_CACHE_SIZE": "many"}); err == nil {
		t.Fatal("expected error for malformed integer")
	}
}
