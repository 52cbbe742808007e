// Package views holds the markup the shell generates itself, as templ
// components. Route fragments come from the pages directory; everything
// here is small and static.
package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
)

// SocialEntry is one rendered social network link.
type SocialEntry struct {
	Href string
	Name string
	Icon string
}

// ErrorView is placed in the content mount when the site configuration
// cannot be loaded.
func ErrorView() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<article>`+
			`<h3 class="red">Ooooops!</h3>`+
			`<p class="red">Something went really wrong!</p>`+
			`<p class="red">Please try again later...</p>`+
			`</article>`)
		return err
	})
}

// SocialList renders entries as external links, one per network.
func SocialList(entries []SocialEntry) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, e := range entries {
			name := templ.EscapeString(e.Name)
			if _, err := io.WriteString(w, `<a href="`+templ.EscapeString(e.Href)+
				`" target="_blank" title="My `+name+`">`+
				`<i class="`+templ.EscapeString(e.Icon)+`"></i>`+
				`<span>`+name+`</span></a>`); err != nil {
				return err
			}
		}
		return nil
	})
}

// ContactSuccess greets the sender by first name.
func ContactSuccess(firstName string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<h3>Hello `+templ.EscapeString(firstName)+`!</h3>`+
			`<p>Your message was sent successfully.</p>`+
			`<p><em>Thank you...</em></p>`)
		return err
	})
}

// ContactFailure asks the sender to retry later.
func ContactFailure() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<h2>Hello!</h2>`+
			`<p class="red">Something went wrong and your message could not be sent.</p>`+
			`<p class="red">Please try again later.</p>`+
			`<p><em>Thank you!</em></p>`)
		return err
	})
}

// License is the footer copyright line.
func License(copyright string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<i class="fab fa-creative-commons fa-fw"></i> `+templ.EscapeString(copyright))
		return err
	})
}

// Render renders c into a string for Document.SetInnerHTML.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
