package cli

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	viewrender "github.com/goliatone/go-viewrender"
	"github.com/goliatone/go-viewrender/internal/config"
	"github.com/goliatone/go-viewrender/pkg/helpers"
	"github.com/goliatone/go-viewrender/pkg/view"
)

const (
	defaultAssetPrefix = "/assets"
	defaultStylesheet  = "viewrender.css"
)

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(opts *Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Engine != "" {
		cfg.Engine = strings.ToLower(strings.TrimSpace(opts.Engine))
	}
	if opts.TemplateDir != "" {
		cfg.TemplateDir = opts.TemplateDir
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newRenderer builds a renderer for cfg. Request independent helpers are left
// to the caller.
func newRenderer(cfg config.Config, logger *slog.Logger) (*view.Renderer, error) {
	engine, err := viewrender.ParseEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}

	evalOpts := viewrender.EvaluatorOptions{
		Extension: cfg.Extension,
		Reload:    cfg.Reload,
		CacheSize: cfg.CacheSize,
		MaxSteps:  cfg.MaxSteps,
	}

	var fsys fs.FS
	if cfg.TemplateDir != "" {
		info, err := os.Stat(cfg.TemplateDir)
		if err != nil {
			return nil, fmt.Errorf("template directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("template directory %q is not a directory", cfg.TemplateDir)
		}
		fsys = os.DirFS(cfg.TemplateDir)
		if engine == viewrender.EnginePongo {
			evalOpts.Dir = cfg.TemplateDir
		}
	} else {
		fsys, err = viewrender.EmbeddedTemplates(engine)
		if err != nil {
			return nil, err
		}
	}

	return viewrender.NewRenderer(engine, fsys, evalOpts,
		view.WithTemplateAliases(templateAliases(cfg)),
		view.WithLogger(logger),
	)
}

// templateAliases merges the theme's partial overrides with the configured
// aliases. Configured aliases win.
func templateAliases(cfg config.Config) map[string]string {
	aliases := make(map[string]string, len(cfg.Theme.Partials)+len(cfg.Aliases))
	for name, target := range cfg.Theme.Partials {
		aliases[name] = target
	}
	for name, target := range cfg.Aliases {
		aliases[name] = target
	}
	return aliases
}

// registerContentHelpers adds the markdown and theme helpers to renderer.
func registerContentHelpers(renderer *view.Renderer, theme config.Theme) {
	renderer.RegisterHelper(helpers.MarkdownKey, helpers.NewMarkdownHelper())
	renderer.RegisterHelper(helpers.AssetKey, helpers.NewAssetHelper(helpers.NewRendererConfig(themeConfig(theme))))
}

// themeConfig fills the asset prefix and stylesheet the demo layout links.
func themeConfig(theme config.Theme) helpers.ThemeConfig {
	assets := make(map[string]string, len(theme.Assets)+1)
	for key, value := range theme.Assets {
		assets[key] = value
	}
	if _, ok := assets["stylesheet"]; !ok {
		assets["stylesheet"] = defaultStylesheet
	}

	prefix := theme.AssetPrefix
	if prefix == "" {
		prefix = defaultAssetPrefix
	}

	return helpers.ThemeConfig{
		Name:        theme.Name,
		Variant:     theme.Variant,
		AssetPrefix: prefix,
		Assets:      assets,
		Tokens:      theme.Tokens,
		Partials:    theme.Partials,
	}
}

// loadDataFile decodes a JSON or YAML mapping into render data.
func loadDataFile(path string) (view.Data, error) {
	data, err := config.LoadData(path)
	if err != nil {
		return nil, err
	}
	return view.Data(data), nil
}

// parseSetValues parses key=value assignments, one per value. Only the first
// '=' separates key from value. Later assignments win.
func parseSetValues(values []string) (view.Data, error) {
	out := view.Data{}
	for _, raw := range values {
		key, value, ok := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set value %q, expected key=value", raw)
		}
		out[key] = value
	}
	return out, nil
}
