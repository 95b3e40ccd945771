// Package preview renders markdown for the live preview panes.
package preview

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

const defaultStyle = "github"

type Options struct {
	HighlightStyle string
	// Sanitize strips unsafe HTML from the output. Off by default since
	// content only ever comes from the authenticated admin.
	Sanitize bool
	// TerminalStyle is a glamour standard style ("dark", "light", "notty").
	TerminalStyle string
}

type Renderer struct {
	md        goldmark.Markdown
	policy    *bluemonday.Policy
	termStyle string

	termMu sync.Mutex
	term   map[int]*glamour.TermRenderer
}

func NewRenderer(opts Options) *Renderer {
	style := opts.HighlightStyle
	if style == "" {
		style = defaultStyle
	}

	r := &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle(style),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
		term:      make(map[int]*glamour.TermRenderer),
		termStyle: opts.TerminalStyle,
	}
	if r.termStyle == "" {
		r.termStyle = "dark"
	}

	if opts.Sanitize {
		r.policy = bluemonday.UGCPolicy()
		r.policy.AllowAttrs("class").Globally()
	}

	return r
}

// Render converts markdown to HTML. The result is inserted unescaped.
func (r *Renderer) Render(src string) (template.HTML, error) {
	const op = "preview.Renderer.Render"

	if strings.TrimSpace(src) == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	out := buf.String()
	if r.policy != nil {
		out = r.policy.Sanitize(out)
	}

	return template.HTML(out), nil
}

// MustRender falls back to an escaped <pre> block when conversion fails.
func (r *Renderer) MustRender(src string) template.HTML {
	out, err := r.Render(src)
	if err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}

	return out
}

// Terminal renders markdown for a terminal of the given width.
func (r *Renderer) Terminal(src string, width int) (string, error) {
	const op = "preview.Renderer.Terminal"

	if width <= 0 {
		width = 80
	}

	r.termMu.Lock()
	tr, ok := r.term[width]
	if !ok {
		var err error
		tr, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.termStyle),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			r.termMu.Unlock()
			return "", fmt.Errorf("%s: %w", op, err)
		}
		r.term[width] = tr
	}
	r.termMu.Unlock()

	out, err := tr.Render(src)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
