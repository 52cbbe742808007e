// Package headless implements the runtime environment without a browser:
// the shell document is an in-memory HTML tree, history and viewport are
// plain values, and link activations are simulated with Click.
package headless

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vcrobe/spashell/events"
	"github.com/vcrobe/spashell/runtime"
)

// Compile-time assertion to ensure Document implements runtime.Document.
var _ runtime.Document = (*Document)(nil)

// Document is a parsed shell page. All methods are safe for concurrent use;
// handlers are always invoked without the tree lock held so they may call
// back into the document.
type Document struct {
	mu      sync.Mutex
	doc     *goquery.Document
	clicks  map[*html.Node]runtime.ClickHandler
	submits map[*html.Node]func()
}

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse shell document: %w", err)
	}
	return &Document{
		doc:     doc,
		clicks:  make(map[*html.Node]runtime.ClickHandler),
		submits: make(map[*html.Node]func()),
	}, nil
}

// ParseString is Parse for an in-memory string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// find must be called with mu held.
func (d *Document) find(selector string) (*goquery.Selection, error) {
	sel := d.doc.Find(selector)
	if sel.Length() == 0 {
		return nil, runtime.NoElement(selector)
	}
	return sel.First(), nil
}

// SetInnerHTML replaces the children of the first match. Handlers bound to
// the removed subtree are dropped with it.
func (d *Document) SetInnerHTML(selector, markup string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return err
	}
	n := sel.Get(0)

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		d.forget(c)
		n.RemoveChild(c)
		c = next
	}

	if isRawText(n) {
		if markup != "" {
			n.AppendChild(&html.Node{Type: html.TextNode, Data: markup})
		}
		return nil
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("parse markup for %s: %w", selector, err)
	}
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// InnerHTML serialises the children of the first match.
func (d *Document) InnerHTML(selector string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return "", err
	}
	n := sel.Get(0)
	if isRawText(n) {
		return textOf(n), nil
	}

	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", fmt.Errorf("render %s: %w", selector, err)
		}
	}
	return b.String(), nil
}

// Text returns the text content of the first match.
func (d *Document) Text(selector string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return "", err
	}
	return sel.Text(), nil
}

func (d *Document) SetAttribute(selector, name, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return err
	}
	sel.SetAttr(name, value)
	return nil
}

func (d *Document) Attribute(selector, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return "", false, err
	}
	v, ok := sel.Attr(name)
	return v, ok, nil
}

func (d *Document) AddClass(selector, class string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return err
	}
	sel.AddClass(class)
	return nil
}

func (d *Document) RemoveClass(selector, class string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return err
	}
	sel.RemoveClass(class)
	return nil
}

func (d *Document) HasClass(selector, class string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return false, err
	}
	return sel.HasClass(class), nil
}

// Value reads an input's value attribute or a textarea's text.
func (d *Document) Value(selector string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return "", err
	}
	if sel.Get(0).DataAtom == atom.Textarea {
		return textOf(sel.Get(0)), nil
	}
	v, _ := sel.Attr("value")
	return v, nil
}

func (d *Document) SetValue(selector, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return err
	}
	n := sel.Get(0)
	if n.DataAtom == atom.Textarea {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		if value != "" {
			n.AppendChild(&html.Node{Type: html.TextNode, Data: value})
		}
		return nil
	}
	sel.SetAttr("value", value)
	return nil
}

// SetHidden toggles the hidden attribute.
func (d *Document) SetHidden(selector string, hidden bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return err
	}
	if hidden {
		sel.SetAttr("hidden", "")
	} else {
		sel.RemoveAttr("hidden")
	}
	return nil
}

func (d *Document) Exists(selector string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(selector).Length() > 0
}

func (d *Document) BindClicks(selector string, handler runtime.ClickHandler) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	nodes := d.doc.Find(selector).Nodes
	for _, n := range nodes {
		d.clicks[n] = handler
	}
	return len(nodes), nil
}

func (d *Document) BindSubmit(selector string, handler func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.find(selector)
	if err != nil {
		return err
	}
	d.submits[sel.Get(0)] = handler
	return nil
}

// Click activates the first element matching selector. The event bubbles to
// the nearest ancestor carrying a click handler; with no handler the default
// action is allowed.
func (d *Document) Click(selector string) (runtime.Decision, error) {
	d.mu.Lock()
	sel, err := d.find(selector)
	if err != nil {
		d.mu.Unlock()
		return runtime.Suppress, err
	}

	var (
		handler runtime.ClickHandler
		link    runtime.Link
	)
	for n := sel.Get(0); n != nil; n = n.Parent {
		if h, ok := d.clicks[n]; ok {
			handler = h
			link = linkOf(n)
			break
		}
	}
	d.mu.Unlock()

	return events.Dispatch(handler, link, nil), nil
}

// Submit fires the submit handler bound to the first matching form.
func (d *Document) Submit(selector string) error {
	d.mu.Lock()
	sel, err := d.find(selector)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	handler, ok := d.submits[sel.Get(0)]
	d.mu.Unlock()

	if !ok {
		return fmt.Errorf("no submit handler bound to %s", selector)
	}
	events.Submit(handler, nil)
	return nil
}

// HTML serialises the whole document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return goquery.OuterHtml(d.doc.Selection)
}

// forget must be called with mu held.
func (d *Document) forget(n *html.Node) {
	delete(d.clicks, n)
	delete(d.submits, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.forget(c)
	}
}

func linkOf(n *html.Node) runtime.Link {
	return events.LinkFrom(func(name string) (string, bool) {
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == name {
				return a.Val, true
			}
		}
		return "", false
	})
}

func isRawText(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Style, atom.Script, atom.Title, atom.Textarea:
		return true
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
