package helpers

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday"

	"github.com/goliatone/go-viewrender/pkg/view"
)

// MarkdownKey is the key hosts conventionally register MarkdownHelper under.
const MarkdownKey = "markdown"

const markdownExtensions = blackfriday.EXTENSION_NO_INTRA_EMPHASIS |
	blackfriday.EXTENSION_TABLES |
	blackfriday.EXTENSION_AUTOLINK |
	blackfriday.EXTENSION_FENCED_CODE |
	blackfriday.EXTENSION_HEADER_IDS |
	blackfriday.EXTENSION_LAX_HTML_BLOCKS

// MarkdownHelper converts markdown to sanitized HTML. Source sets the text for
// the next Render call only.
type MarkdownHelper struct {
	mu       sync.Mutex
	renderer blackfriday.Renderer
	policy   *bluemonday.Policy
	source   string
}

var _ view.Helper = (*MarkdownHelper)(nil)

// NewMarkdownHelper builds a helper using the UGC sanitation policy.
func NewMarkdownHelper() *MarkdownHelper {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("div", "i", "span", "code")
	return &MarkdownHelper{
		renderer: blackfriday.HtmlRenderer(blackfriday.HTML_SAFELINK|blackfriday.HTML_NOFOLLOW_LINKS, "", ""),
		policy:   policy,
	}
}

// Source sets the markdown to render and returns the helper.
func (h *MarkdownHelper) Source(text string) *MarkdownHelper {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.source = text
	return h
}

// Render converts the pending source and clears it.
func (h *MarkdownHelper) Render() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	source := h.source
	h.source = ""
	if source == "" {
		return "", nil
	}

	md := blackfriday.Markdown([]byte(source), h.renderer, markdownExtensions)
	return h.policy.Sanitize(string(md)), nil
}
