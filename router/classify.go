package router

import (
	"net/url"
	"strings"

	"github.com/vcrobe/spashell/runtime"
)

// MenuToken is the href of the menu toggle button.
const MenuToken = "#menu"

// Kind is what a click on a link means to the shell.
type Kind int

const (
	// KindInert links do nothing and suppress the default.
	KindInert Kind = iota
	// KindMenuToggle links flip the menu.
	KindMenuToggle
	// KindPassthrough links are left to the browser.
	KindPassthrough
	// KindInternal links are route identifiers loaded in place.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInert:
		return "inert"
	case KindMenuToggle:
		return "menu-toggle"
	case KindPassthrough:
		return "passthrough"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Classify decides what activating l does. The rules are checked in order:
// menu token, empty or missing href, new-window target, anchor, scheme
// qualified or protocol relative URL; anything else is a route.
func Classify(l runtime.Link) Kind {
	switch {
	case l.HasHref && l.Href == MenuToken:
		return KindMenuToggle
	case !l.HasHref || l.Href == "":
		return KindInert
	case l.Target == "_blank":
		return KindPassthrough
	case strings.HasPrefix(l.Href, "#"), strings.HasPrefix(l.Href, "//"):
		return KindPassthrough
	case hasScheme(l.Href):
		return KindPassthrough
	default:
		return KindInternal
	}
}

func hasScheme(href string) bool {
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return true
	}
	u, err := url.Parse(href)
	return err == nil && u.Scheme != ""
}
