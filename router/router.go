// Package router intercepts link activations in the shell and turns
// internal ones into fragment loads.
package router

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/vcrobe/spashell/console"
	"github.com/vcrobe/spashell/runtime"
)

// Navigator loads a route. *loader.Loader satisfies it.
type Navigator interface {
	Load(ctx context.Context, route string) error
}

// Menu is the part of the menu machine the router drives.
type Menu interface {
	Toggle()
	Close()
}

// Router manages link interception. Internal activations start a load and
// return immediately; overlapping loads are allowed and resolved by the
// navigator.
type Router struct {
	mu      sync.Mutex
	ctx     context.Context
	doc     runtime.Document
	nav     Navigator
	menu    Menu
	logger  *zap.Logger
	current string

	// pending counts loads started by Go; idle is signalled when it drops to zero.
	pending int
	idle    *sync.Cond
}

// New returns a Router. Loads started by clicks run under ctx; menu may be nil.
func New(ctx context.Context, doc runtime.Document, nav Navigator, menu Menu, logger *zap.Logger) *Router {
	logger = console.OrNop(logger)
	r := &Router{
		ctx:    ctx,
		doc:    doc,
		nav:    nav,
		menu:   menu,
		logger: logger.Named("router"),
	}
	r.idle = sync.NewCond(&r.mu)
	return r
}

// Install binds the router to every anchor currently in the document and
// returns how many were bound. Anchors inserted later need another Install.
func (r *Router) Install() (int, error) {
	n, err := r.doc.BindClicks("a", r.Activate)
	if err != nil {
		return 0, err
	}
	r.logger.Debug("link interceptors installed", zap.Int("links", n))
	return n, nil
}

// Activate handles one click on link and tells the host whether the
// browser default should proceed.
func (r *Router) Activate(link runtime.Link) runtime.Decision {
	kind := Classify(link)
	r.logger.Debug("link activated", zap.String("href", link.Href), zap.Stringer("kind", kind))

	if kind == KindMenuToggle {
		if r.menu != nil {
			r.menu.Toggle()
		}
		return runtime.Suppress
	}

	if r.menu != nil {
		r.menu.Close()
	}

	switch kind {
	case KindPassthrough:
		return runtime.Allow
	case KindInternal:
		r.Go(link.Href)
		return runtime.Suppress
	default:
		return runtime.Suppress
	}
}

// Go starts loading route in the background.
func (r *Router) Go(route string) {
	r.mu.Lock()
	r.current = route
	r.pending++
	r.mu.Unlock()

	go func() {
		defer r.finished()
		// Failures are logged by the navigator.
		_ = r.nav.Load(r.ctx, route)
	}()
}

func (r *Router) finished() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending--
	if r.pending == 0 {
		r.idle.Broadcast()
	}
}

// Navigate loads route and waits for it.
func (r *Router) Navigate(ctx context.Context, route string) error {
	r.setCurrent(route)
	return r.nav.Load(ctx, route)
}

// Current returns the most recently requested route.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Wait blocks until no load started with Go is running. Go may be called
// while Wait blocks; Wait then also waits for the new load.
func (r *Router) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.pending > 0 {
		r.idle.Wait()
	}
}

func (r *Router) setCurrent(route string) {
	r.mu.Lock()
	r.current = route
	r.mu.Unlock()
}
