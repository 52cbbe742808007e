package runtime

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoElement is returned by Document implementations when a selector matches nothing.
var ErrNoElement = errors.New("no element matches selector")

// NoElement wraps ErrNoElement with the offending selector.
func NoElement(selector string) error {
	return fmt.Errorf("%w: %s", ErrNoElement, selector)
}

// Link describes the anchor a click landed on.
// HasHref distinguishes an absent href attribute from an empty one.
type Link struct {
	Href    string
	HasHref bool
	Target  string
}

// Decision tells the host whether the browser default for a click proceeds.
type Decision int

const (
	// Suppress cancels the default navigation.
	Suppress Decision = iota
	// Allow lets the default navigation happen.
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "suppress"
}

// ClickHandler is installed on anchors by the router.
type ClickHandler func(Link) Decision

// Document defines the element tree operations the shell needs.
// This interface has NO build tags; the browser adapter implements it with
// syscall/js and the headless adapter with an in-memory HTML tree.
type Document interface {
	// SetInnerHTML replaces the children of the first element matching selector.
	// For raw text elements (style, title) the markup is stored as text.
	SetInnerHTML(selector, markup string) error
	InnerHTML(selector string) (string, error)

	SetAttribute(selector, name, value string) error
	Attribute(selector, name string) (value string, ok bool, err error)

	AddClass(selector, class string) error
	RemoveClass(selector, class string) error
	HasClass(selector, class string) (bool, error)

	// Value and SetValue access form control values.
	Value(selector string) (string, error)
	SetValue(selector, value string) error
	SetHidden(selector string, hidden bool) error

	Exists(selector string) bool

	// BindClicks installs handler on every element currently matching selector,
	// replacing any previous handler on those elements. It returns how many
	// elements were bound. Elements inserted later are not covered.
	BindClicks(selector string, handler ClickHandler) (int, error)

	// BindSubmit installs handler as the submit action of the first matching form.
	// The default form submission is always suppressed.
	BindSubmit(selector string, handler func()) error
}

// History rewrites the visible address without adding an entry.
type History interface {
	ReplaceState(url string) error
	Location() string
}

// Viewport reports the layout width and its changes.
type Viewport interface {
	Width() int
	// OnResize registers fn for width changes and returns a func that removes it.
	OnResize(fn func(width int)) (unsubscribe func())
}

// Storage is a string key-value store that survives a full reload.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// Doer issues HTTP requests. *http.Client satisfies it; on js/wasm the
// standard client is backed by the browser fetch API.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Env bundles the host primitives handed to every component at construction.
type Env struct {
	Document Document
	History  History
	Viewport Viewport
	Storage  Storage
	HTTP     Doer
}

// Validate reports which primitives are missing.
func (e Env) Validate() error {
	var missing []string
	if e.Document == nil {
		missing = append(missing, "document")
	}
	if e.History == nil {
		missing = append(missing, "history")
	}
	if e.Viewport == nil {
		missing = append(missing, "viewport")
	}
	if e.Storage == nil {
		missing = append(missing, "storage")
	}
	if e.HTTP == nil {
		missing = append(missing, "http")
	}
	if len(missing) > 0 {
		return fmt.Errorf("runtime env incomplete: missing %v", missing)
	}
	return nil
}
