package headless

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/spashell/runtime"
)

const shellHTML = `<!DOCTYPE html>
<html><head><title>boot</title><style id="pageCSS"></style></head>
<body>
<nav id="mainMenu" class="menu-closed"><a href="#menu" title="Show the menu">=</a><a id="about" href="about"><span>About</span></a></nav>
<main id="content"><p>loading</p></main>
<form id="contact"><input id="contactName" value=""><textarea id="contactMessage"></textarea></form>
</body></html>`

func newDoc(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseString(shellHTML)
	require.NoError(t, err)
	return doc
}

func TestDocument_SetInnerHTMLMarkup(t *testing.T) {
	doc := newDoc(t)

	require.NoError(t, doc.SetInnerHTML("#content", `<h1>About</h1><p class="lead">Hi</p>`))

	got, err := doc.InnerHTML("#content")
	require.NoError(t, err)
	assert.Equal(t, `<h1>About</h1><p class="lead">Hi</p>`, got)
}

// Stylesheet text must survive verbatim, including characters HTML would escape.
func TestDocument_SetInnerHTMLRawText(t *testing.T) {
	doc := newDoc(t)
	css := `main > p { content: "a & b"; }`

	require.NoError(t, doc.SetInnerHTML("#pageCSS", css))
	got, err := doc.InnerHTML("#pageCSS")
	require.NoError(t, err)
	assert.Equal(t, css, got)

	require.NoError(t, doc.SetInnerHTML("#pageCSS", ""))
	got, err = doc.InnerHTML("#pageCSS")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDocument_MissingSelector(t *testing.T) {
	doc := newDoc(t)

	err := doc.SetInnerHTML("#nope", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, runtime.ErrNoElement))
	assert.False(t, doc.Exists("#nope"))
}

func TestDocument_ClassesAndAttributes(t *testing.T) {
	doc := newDoc(t)

	require.NoError(t, doc.RemoveClass("#mainMenu", "menu-closed"))
	require.NoError(t, doc.AddClass("#mainMenu", "menu-opened"))

	opened, err := doc.HasClass("#mainMenu", "menu-opened")
	require.NoError(t, err)
	assert.True(t, opened)

	require.NoError(t, doc.SetAttribute(`a[href="#menu"]`, "title", "Hide the menu"))
	title, ok, err := doc.Attribute(`a[href="#menu"]`, "title")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Hide the menu", title)
}

func TestDocument_FormValues(t *testing.T) {
	doc := newDoc(t)

	require.NoError(t, doc.SetValue("#contactName", "Ada"))
	require.NoError(t, doc.SetValue("#contactMessage", "line one"))

	name, err := doc.Value("#contactName")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	msg, err := doc.Value("#contactMessage")
	require.NoError(t, err)
	assert.Equal(t, "line one", msg)

	require.NoError(t, doc.SetHidden("#contact", true))
	_, hidden, err := doc.Attribute("#contact", "hidden")
	require.NoError(t, err)
	assert.True(t, hidden)
}

func TestDocument_ClickBubblesToBoundAnchor(t *testing.T) {
	doc := newDoc(t)

	var got []runtime.Link
	n, err := doc.BindClicks("a", func(l runtime.Link) runtime.Decision {
		got = append(got, l)
		return runtime.Suppress
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	d, err := doc.Click("#about span")
	require.NoError(t, err)
	assert.Equal(t, runtime.Suppress, d)
	require.Len(t, got, 1)
	assert.Equal(t, runtime.Link{Href: "about", HasHref: true}, got[0])
}

// Anchors inserted after binding carry no interceptor until bound again.
func TestDocument_NewMarkupIsUnbound(t *testing.T) {
	doc := newDoc(t)
	calls := 0
	_, err := doc.BindClicks("a", func(runtime.Link) runtime.Decision {
		calls++
		return runtime.Suppress
	})
	require.NoError(t, err)

	require.NoError(t, doc.SetInnerHTML("#content", `<a id="inner" href="home">Home</a>`))
	d, err := doc.Click("#inner")
	require.NoError(t, err)
	assert.Equal(t, runtime.Allow, d)
	assert.Zero(t, calls)
}

func TestDocument_Submit(t *testing.T) {
	doc := newDoc(t)

	require.Error(t, doc.Submit("#contact"))

	fired := false
	require.NoError(t, doc.BindSubmit("#contact", func() { fired = true }))
	require.NoError(t, doc.Submit("#contact"))
	assert.True(t, fired)
}

func TestViewport_ResizeNotifies(t *testing.T) {
	v := NewViewport(500)
	var widths []int
	unsub := v.OnResize(func(w int) { widths = append(widths, w) })

	v.Resize(800)
	unsub()
	v.Resize(900)

	assert.Equal(t, []int{800}, widths)
	assert.Equal(t, 900, v.Width())
}
