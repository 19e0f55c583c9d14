package helpers

import (
	"errors"
	"fmt"
	"sync"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-viewrender/pkg/view"
)

// AssetKey is the key hosts conventionally register AssetHelper under.
const AssetKey = "theme"

var (
	// ErrNoSelection is returned when Render runs with neither an asset nor a
	// token selected.
	ErrNoSelection = errors.New("helpers: no asset or token selected")
	// ErrUnknownAsset is returned for asset keys the theme does not resolve.
	ErrUnknownAsset = errors.New("helpers: unknown theme asset")
	// ErrUnknownToken is returned for token names the theme does not define.
	ErrUnknownToken = errors.New("helpers: unknown theme token")
)

// AssetHelper resolves theme asset URLs and design tokens from a go-theme
// renderer configuration.
//
//	helper("theme").Asset("stylesheet").Render()
//	helper("theme").Token("brand").Render()
type AssetHelper struct {
	mu     sync.Mutex
	config *theme.RendererConfig
	asset  string
	token  string
}

var _ view.Helper = (*AssetHelper)(nil)

// NewAssetHelper builds a helper over cfg.
func NewAssetHelper(cfg *theme.RendererConfig) *AssetHelper {
	return &AssetHelper{config: cfg}
}

// Asset selects an asset key for the next Render call.
func (h *AssetHelper) Asset(key string) *AssetHelper {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.asset, h.token = key, ""
	return h
}

// Token selects a token name for the next Render call.
func (h *AssetHelper) Token(name string) *AssetHelper {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.token, h.asset = name, ""
	return h
}

// Theme returns the configured theme name.
func (h *AssetHelper) Theme() string {
	if h.config == nil {
		return ""
	}
	return h.config.Theme
}

// Render resolves the current selection and clears it.
func (h *AssetHelper) Render() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	asset, token := h.asset, h.token
	h.asset, h.token = "", ""

	switch {
	case asset != "":
		if h.config == nil || h.config.AssetURL == nil {
			return "", fmt.Errorf("%w: %q", ErrUnknownAsset, asset)
		}
		url := h.config.AssetURL(asset)
		if url == "" {
			return "", fmt.Errorf("%w: %q", ErrUnknownAsset, asset)
		}
		return url, nil
	case token != "":
		if h.config == nil {
			return "", fmt.Errorf("%w: %q", ErrUnknownToken, token)
		}
		value, ok := h.config.Tokens[token]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownToken, token)
		}
		return value, nil
	default:
		return "", ErrNoSelection
	}
}

// ThemeConfig describes a theme without a go-theme registry: a name and
// variant, an asset URL prefix with logical file names, and design tokens.
type ThemeConfig struct {
	Name        string
	Variant     string
	AssetPrefix string
	Assets      map[string]string
	Tokens      map[string]string
	Partials    map[string]string
}

// NewRendererConfig turns cfg into the go-theme renderer configuration
// consumed by AssetHelper. Tokens also populate CSS variables prefixed "--".
func NewRendererConfig(cfg ThemeConfig) *theme.RendererConfig {
	assets := copyStrings(cfg.Assets)
	prefix := cfg.AssetPrefix
	for len(prefix) > 0 && prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}

	cssVars := make(map[string]string, len(cfg.Tokens))
	for name, value := range cfg.Tokens {
		cssVars["--"+name] = value
	}

	return &theme.RendererConfig{
		Theme:    cfg.Name,
		Variant:  cfg.Variant,
		Partials: copyStrings(cfg.Partials),
		Tokens:   copyStrings(cfg.Tokens),
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := assets[key]
			if !ok || file == "" {
				return ""
			}
			if prefix == "" {
				return file
			}
			return prefix + "/" + file
		},
	}
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
