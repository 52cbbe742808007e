// Package menu is the two-state responsive menu. The state lives in a
// signal; every change is mirrored into the shell document.
package menu

import (
	"sync"

	"go.uber.org/zap"

	"github.com/vcrobe/spashell/console"
	"github.com/vcrobe/spashell/runtime"
	"github.com/vcrobe/spashell/signals"
)

// DefaultBreakpoint is used when the site configuration has no clientWidth.
const DefaultBreakpoint = 768

// Shell elements and classes the state is mirrored into.
const (
	MenuSelector   = "#mainMenu"
	ButtonSelector = `a[href="#menu"]`

	OpenedClass  = "menu-opened"
	ClosedClass  = "menu-closed"
	RotatedClass = "fa-rotate-90"

	HideTitle = "Hide the menu"
	ShowTitle = "Show the menu"
)

type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Menu starts Closed and mirrored. It is safe for concurrent use.
type Menu struct {
	state      *signals.Signal[State]
	doc        runtime.Document
	breakpoint int
	logger     *zap.Logger

	mirrorMu sync.Mutex
	unmirror func()
}

// New returns a Menu mirrored into doc. A breakpoint of zero or less selects
// DefaultBreakpoint.
func New(doc runtime.Document, breakpoint int, logger *zap.Logger) *Menu {
	if breakpoint <= 0 {
		breakpoint = DefaultBreakpoint
	}
	logger = console.OrNop(logger)
	m := &Menu{
		state:      signals.New(Closed),
		doc:        doc,
		breakpoint: breakpoint,
		logger:     logger.Named("menu"),
	}
	m.unmirror = m.state.Subscribe(func(State) { m.mirror() })
	m.mirror()
	return m
}

// State returns the current state.
func (m *Menu) State() State { return m.state.Get() }

// Breakpoint returns the width at and above which Resize opens the menu.
func (m *Menu) Breakpoint() int { return m.breakpoint }

// Toggle flips the state.
func (m *Menu) Toggle() {
	m.state.Update(func(s State) State {
		if s == Open {
			return Closed
		}
		return Open
	})
}

func (m *Menu) Open()  { m.state.Set(Open) }
func (m *Menu) Close() { m.state.Set(Closed) }

// Resize applies the viewport rule, overriding any manual state.
func (m *Menu) Resize(width int) {
	if width >= m.breakpoint {
		m.Open()
		return
	}
	m.Close()
}

// Watch calls Resize on every width change of v. The returned func stops it.
func (m *Menu) Watch(v runtime.Viewport) (stop func()) {
	return v.OnResize(m.Resize)
}

// Subscribe observes state changes.
func (m *Menu) Subscribe(fn func(State)) (unsubscribe func()) {
	return m.state.Subscribe(fn)
}

// Detach stops mirroring into the document.
func (m *Menu) Detach() {
	if m.unmirror != nil {
		m.unmirror()
	}
}

// mirror writes the current state, not the notified one, so concurrent
// changes cannot leave the document behind the state.
func (m *Menu) mirror() {
	m.mirrorMu.Lock()
	defer m.mirrorMu.Unlock()

	add, remove, title := ClosedClass, OpenedClass, ShowTitle
	open := m.state.Get() == Open
	if open {
		add, remove, title = OpenedClass, ClosedClass, HideTitle
	}

	if err := m.doc.RemoveClass(MenuSelector, remove); err != nil {
		m.logger.Warn("mirror menu state", zap.Error(err))
		return
	}
	if err := m.doc.AddClass(MenuSelector, add); err != nil {
		m.logger.Warn("mirror menu state", zap.Error(err))
		return
	}

	var err error
	if open {
		err = m.doc.AddClass(ButtonSelector, RotatedClass)
	} else {
		err = m.doc.RemoveClass(ButtonSelector, RotatedClass)
	}
	if err == nil {
		err = m.doc.SetAttribute(ButtonSelector, "title", title)
	}
	if err != nil {
		m.logger.Warn("mirror menu button", zap.Error(err))
	}
}
