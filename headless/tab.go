package headless

import (
	"io"
	"sync"

	"github.com/vcrobe/spashell/runtime"
	"github.com/vcrobe/spashell/signals"
)

// DefaultWidth is the viewport width a Tab starts with.
const DefaultWidth = 1024

// History records the visible address. Replacements never grow a stack.
type History struct {
	mu       sync.Mutex
	location string
	replaced int
}

// NewHistory starts at location.
func NewHistory(location string) *History {
	return &History{location: location}
}

func (h *History) ReplaceState(url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.location = url
	h.replaced++
	return nil
}

func (h *History) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.location
}

// Replacements counts ReplaceState calls.
func (h *History) Replacements() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.replaced
}

// Viewport holds a width that tests and the CLI resize explicitly.
type Viewport struct {
	width *signals.Signal[int]
}

func NewViewport(width int) *Viewport {
	return &Viewport{width: signals.New(width)}
}

func (v *Viewport) Width() int { return v.width.Get() }

func (v *Viewport) OnResize(fn func(width int)) func() {
	return v.width.Subscribe(fn)
}

// Resize changes the width and fires resize listeners.
func (v *Viewport) Resize(width int) {
	v.width.Set(width)
}

// Tab is a headless stand-in for one browser tab. The concrete fields stay
// exported so callers can drive clicks and resizes.
type Tab struct {
	Document *Document
	History  *History
	Viewport *Viewport
	Storage  runtime.Storage
	HTTP     runtime.Doer
}

// NewTab parses the shell document and assembles a tab around it.
func NewTab(shell io.Reader, storage runtime.Storage, client runtime.Doer) (*Tab, error) {
	doc, err := Parse(shell)
	if err != nil {
		return nil, err
	}
	return &Tab{
		Document: doc,
		History:  NewHistory("/"),
		Viewport: NewViewport(DefaultWidth),
		Storage:  storage,
		HTTP:     client,
	}, nil
}

// Env exposes the tab as runtime primitives.
func (t *Tab) Env() runtime.Env {
	return runtime.Env{
		Document: t.Document,
		History:  t.History,
		Viewport: t.Viewport,
		Storage:  t.Storage,
		HTTP:     t.HTTP,
	}
}
