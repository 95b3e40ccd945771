package preview

import (
	"html/template"
	"sync"
)

// Binder ties one text field to one preview pane. Every Input re-renders;
// there is no debouncing.
type Binder struct {
	r *Renderer

	mu   sync.Mutex
	html template.HTML
}

// Bind renders initial right away so a pre-populated field shows its preview.
func Bind(r *Renderer, initial string) *Binder {
	b := &Binder{r: r}
	b.Input(initial)

	return b
}

func (b *Binder) Input(text string) template.HTML {
	out := b.r.MustRender(text)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.html = out

	return out
}

// Reset empties the pane, as opening a blank form does.
func (b *Binder) Reset() {
	b.Input("")
}

func (b *Binder) HTML() template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.html
}
