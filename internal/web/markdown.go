package web

import (
	"bytes"
	"html/template"
	"strings"
	"sync"

	"datewheel/internal/docs"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in the docs is not rendered (no html.WithUnsafe), which is what
// makes the output safe to mark as template.HTML.
var helpMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, emoji.Emoji),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// helpCache holds rendered doc topics; the sources are embedded and never
// change while the process runs.
type helpCache struct {
	mu    sync.Mutex
	pages map[string]template.HTML
}

func (c *helpCache) page(topic string) (template.HTML, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if body, ok := c.pages[topic]; ok {
		return body, true
	}
	src, ok := docs.Get(topic)
	if !ok {
		return "", false
	}
	body := renderMarkdownHTML(src)
	if c.pages == nil {
		c.pages = map[string]template.HTML{}
	}
	c.pages[topic] = body
	return body, true
}

func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var b bytes.Buffer
	if err := helpMarkdown.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(b.String())
}
