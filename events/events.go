// Package events turns a DOM click on an anchor into the router's terms: a
// runtime.Link in, a runtime.Decision out, and the browser default cancelled
// when the decision says so.
package events

import "github.com/vcrobe/spashell/runtime"

// AttrFunc looks an attribute up on the clicked element.
type AttrFunc func(name string) (value string, ok bool)

// LinkFrom reads the attributes the router classifies on.
func LinkFrom(attr AttrFunc) runtime.Link {
	var l runtime.Link
	l.Href, l.HasHref = attr("href")
	l.Target, _ = attr("target")
	return l
}

// Dispatch runs handler for link. When the handler suppresses the click,
// preventDefault is called if it is not nil. A nil handler allows the click.
func Dispatch(handler runtime.ClickHandler, link runtime.Link, preventDefault func()) runtime.Decision {
	if handler == nil {
		return runtime.Allow
	}
	d := handler(link)
	if d == runtime.Suppress && preventDefault != nil {
		preventDefault()
	}
	return d
}

// Submit runs handler for a form submission. The default submission is
// always cancelled; the page must not unload.
func Submit(handler func(), preventDefault func()) {
	if preventDefault != nil {
		preventDefault()
	}
	if handler != nil {
		handler()
	}
}
