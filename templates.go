package viewrender

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed templates/pongo/*.tpl templates/html/*.tmpl templates/starlark/*.star
var embeddedTemplates embed.FS

// EmbeddedTemplates exposes the built-in demo templates for engine so the
// command can render and serve without a template directory.
func EmbeddedTemplates(engine Engine) (fs.FS, error) {
	if _, err := ParseEngine(string(engine)); err != nil {
		return nil, err
	}
	sub, err := fs.Sub(embeddedTemplates, "templates/"+string(engine))
	if err != nil {
		return nil, fmt.Errorf("viewrender: embedded templates for %q: %w", engine, err)
	}
	return sub, nil
}
