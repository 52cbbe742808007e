package menu

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/spashell/headless"
	"github.com/vcrobe/spashell/runtime/runtimetest"
)

func newMenu(t *testing.T, breakpoint int) (*Menu, *headless.Tab) {
	t.Helper()
	tab := runtimetest.NewTab(t, nil)
	return New(tab.Document, breakpoint, nil), tab
}

// assertMirrored checks the document agrees with want.
func assertMirrored(t *testing.T, doc *headless.Document, want State) bool {
	t.Helper()
	opened, err := doc.HasClass(MenuSelector, OpenedClass)
	require.NoError(t, err)
	closed, err := doc.HasClass(MenuSelector, ClosedClass)
	require.NoError(t, err)
	rotated, err := doc.HasClass(ButtonSelector, RotatedClass)
	require.NoError(t, err)
	title, _, err := doc.Attribute(ButtonSelector, "title")
	require.NoError(t, err)

	if want == Open {
		return opened && !closed && rotated && title == HideTitle
	}
	return !opened && closed && !rotated && title == ShowTitle
}

func TestMenu_ToggleAndClose(t *testing.T) {
	m, tab := newMenu(t, 0)
	assert.Equal(t, Closed, m.State())
	assert.Equal(t, DefaultBreakpoint, m.Breakpoint())

	m.Toggle()
	assert.Equal(t, Open, m.State())
	assert.True(t, assertMirrored(t, tab.Document, Open))

	m.Toggle()
	assert.Equal(t, Closed, m.State())
	assert.True(t, assertMirrored(t, tab.Document, Closed))

	m.Open()
	m.Close()
	m.Close()
	assert.Equal(t, Closed, m.State())
	assert.True(t, assertMirrored(t, tab.Document, Closed))
}

func TestMenu_ResizeOverridesManualState(t *testing.T) {
	m, tab := newMenu(t, 800)

	m.Toggle()
	m.Resize(799)
	assert.Equal(t, Closed, m.State())

	m.Resize(800)
	assert.Equal(t, Open, m.State(), "breakpoint itself opens")
	assert.True(t, assertMirrored(t, tab.Document, Open))

	m.Toggle()
	m.Resize(1200)
	assert.Equal(t, Open, m.State())
}

func TestMenu_WatchViewport(t *testing.T) {
	m, tab := newMenu(t, 768)
	stop := m.Watch(tab.Viewport)

	tab.Viewport.Resize(1024)
	assert.Equal(t, Open, m.State())
	tab.Viewport.Resize(320)
	assert.Equal(t, Closed, m.State())

	stop()
	tab.Viewport.Resize(1024)
	assert.Equal(t, Closed, m.State(), "no resize handling after stop")
}

func TestMenu_SubscribeAndDetach(t *testing.T) {
	m, tab := newMenu(t, 0)
	var seen []State
	unsubscribe := m.Subscribe(func(s State) { seen = append(seen, s) })

	m.Toggle()
	m.Detach()
	m.Toggle()
	unsubscribe()
	m.Toggle()

	assert.Equal(t, []State{Open, Closed}, seen)
	assert.True(t, assertMirrored(t, tab.Document, Open), "document frozen at last mirrored state")
}

func TestMenu_MissingElementsAreLogged(t *testing.T) {
	tab := runtimetest.NewTabWith(t, `<html><body></body></html>`, nil, nil)
	m := New(tab.Document, 0, nil)
	assert.NotPanics(t, m.Toggle)
	assert.Equal(t, Open, m.State())
}

func TestMenuProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: after any sequence of operations the document mirrors the state,
	// and a resize alone determines the state
	properties.Property("resize decides, document mirrors", prop.ForAll(
		func(ops []int, width, breakpoint int) bool {
			m, tab := newMenu(t, breakpoint)
			for _, op := range ops {
				switch op % 3 {
				case 0:
					m.Toggle()
				case 1:
					m.Close()
				default:
					m.Open()
				}
			}
			if !assertMirrored(t, tab.Document, m.State()) {
				return false
			}
			m.Resize(width)
			want := Closed
			if width >= breakpoint {
				want = Open
			}
			return m.State() == want && assertMirrored(t, tab.Document, want)
		},
		gen.SliceOf(gen.IntRange(0, 2)),
		gen.IntRange(0, 4000),
		gen.IntRange(1, 4000),
	))

	properties.TestingRun(t)
}
