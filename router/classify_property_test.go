package router

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/vcrobe/spashell/runtime"
)

func TestClassifyProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: anchors other than the menu token are left to the browser
	properties.Property("anchors pass through", prop.ForAll(
		func(frag string) bool {
			href := "#" + frag
			if href == MenuToken {
				return Classify(link(href)) == KindMenuToggle
			}
			return Classify(link(href)) == KindPassthrough
		},
		gen.AlphaString(),
	))

	// Property: absolute http(s) URLs always pass through
	properties.Property("absolute URLs pass through", prop.ForAll(
		func(secure bool, host, path string) bool {
			scheme := "http://"
			if secure {
				scheme = "https://"
			}
			return Classify(link(scheme+host+"/"+path)) == KindPassthrough
		},
		gen.Bool(),
		gen.RegexMatch(`^[a-z0-9.-]{1,20}$`),
		gen.RegexMatch(`^[a-zA-Z0-9_/-]{0,20}$`),
	))

	// Property: a new-window target forces passthrough for any non-empty href but the menu token
	properties.Property("blank target passes through", prop.ForAll(
		func(href string) bool {
			l := runtime.Link{Href: href, HasHref: true, Target: "_blank"}
			switch href {
			case "":
				return Classify(l) == KindInert
			case MenuToken:
				return Classify(l) == KindMenuToggle
			default:
				return Classify(l) == KindPassthrough
			}
		},
		gen.AnyString(),
	))

	// Property: plain relative names are routes
	properties.Property("relative names are internal", prop.ForAll(
		func(route string) bool {
			return Classify(link(route)) == KindInternal
		},
		gen.RegexMatch(`^[a-z][a-z0-9_-]{0,15}(/[a-z0-9_-]{1,10})?$`),
	))

	// Property: activation suppresses exactly when the link is not a passthrough,
	// and loads exactly the internal ones
	properties.Property("activation decision follows kind", prop.ForAll(
		func(href string, hasHref, blank bool) bool {
			l := runtime.Link{Href: href, HasHref: hasHref}
			if !hasHref {
				l.Href = ""
			}
			if blank {
				l.Target = "_blank"
			}
			nav := &recordingNav{}
			r := New(context.Background(), nil, nav, &countingMenu{}, nil)
			decision := r.Activate(l)
			r.Wait()

			kind := Classify(l)
			if (decision == runtime.Allow) != (kind == KindPassthrough) {
				return false
			}
			loads := nav.Routes()
			if kind == KindInternal {
				return len(loads) == 1 && loads[0] == l.Href
			}
			return len(loads) == 0
		},
		gen.OneGenOf(
			gen.AlphaString(),
			gen.Const(MenuToken),
			gen.AlphaString().Map(func(s string) string { return "#" + s }),
			gen.AlphaString().Map(func(s string) string { return "https://" + strings.ToLower(s) }),
		),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
