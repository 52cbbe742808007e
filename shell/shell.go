// Package shell holds AppShell, the session context of one tab: it owns the
// persistent shell document and every component working on it, and swaps
// only the page mounts when navigation occurs.
package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vcrobe/spashell/bootstrap"
	"github.com/vcrobe/spashell/console"
	"github.com/vcrobe/spashell/continuity"
	"github.com/vcrobe/spashell/loader"
	"github.com/vcrobe/spashell/menu"
	"github.com/vcrobe/spashell/router"
	"github.com/vcrobe/spashell/runtime"
	"github.com/vcrobe/spashell/social"
	"github.com/vcrobe/spashell/views"
)

// Shell elements written at startup.
const (
	TitleSelector    = "head>title"
	LogoSelector     = "#logo"
	SiteNameSelector = "#siteName"
	LicenseSelector  = ".license"
	SocialSelector   = ".social"
)

// DefaultRoute is loaded when no pending route was stored.
const DefaultRoute = "home"

// ErrNotStarted is returned by hooks that need a started shell.
var ErrNotStarted = errors.New("shell: not started")

// Compile-time assertion to ensure AppShell implements runtime.Host.
var _ runtime.Host = (*AppShell)(nil)

// Config locates the backend.
type Config struct {
	// APIBase is the root of config, social and contacts. Empty means relative.
	APIBase string
	// PagesBase is the root of route fragments. Default "pages".
	PagesBase string
	// DefaultRoute defaults to DefaultRoute.
	DefaultRoute string
	Mounts       loader.Mounts
}

func (c Config) withDefaults() Config {
	if c.PagesBase == "" {
		c.PagesBase = "pages"
	}
	if c.DefaultRoute == "" {
		c.DefaultRoute = DefaultRoute
	}
	if c.Mounts == (loader.Mounts{}) {
		c.Mounts = loader.DefaultMounts
	}
	return c
}

// AppShell is created once per tab. Start bootstraps it; every other
// component reaches the shell through runtime.Host.
type AppShell struct {
	env    runtime.Env
	cfg    Config
	logger *zap.Logger

	boot    *bootstrap.Bootstrapper
	pending *continuity.Store
	loader  *loader.Loader

	mu         sync.Mutex
	site       bootstrap.Site
	menu       *menu.Menu
	router     *router.Router
	stopResize func()

	background errgroup.Group
}

// New validates env and assembles a shell. registry may be nil.
func New(env runtime.Env, cfg Config, registry *loader.Registry, logger *zap.Logger) (*AppShell, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	logger = console.OrNop(logger)
	cfg = cfg.withDefaults()

	a := &AppShell{
		env:     env,
		cfg:     cfg,
		logger:  logger.Named("shell"),
		pending: continuity.New(env.Storage),
	}
	a.boot = bootstrap.New(a.APIURL("config"), env.Document, env.HTTP, logger)
	a.loader = loader.New(env, a, registry,
		loader.WithPagesBase(cfg.PagesBase),
		loader.WithMounts(cfg.Mounts),
		loader.WithLogger(logger),
	)
	return a, nil
}

// Start fetches the site configuration and, on success, runs the startup
// sequence. The initial page load runs in the background; Wait blocks on it.
func (a *AppShell) Start(ctx context.Context) error {
	return a.boot.Run(ctx, a.main)
}

func (a *AppShell) main(ctx context.Context, site bootstrap.Site) error {
	doc := a.env.Document

	m := menu.New(doc, site.ClientWidth, a.logger)
	r := router.New(ctx, doc, a.loader, m, a.logger)
	a.mu.Lock()
	a.site = site
	a.menu = m
	a.router = r
	a.mu.Unlock()

	route, err := a.pending.InitialRoute(a.cfg.DefaultRoute)
	if err != nil {
		a.logger.Warn("pending route unreadable", zap.Error(err))
	}

	a.background.Go(func() error {
		return social.Show(ctx, a.env.HTTP, a.APIURL("social"), doc, SocialSelector, false, a.logger)
	})

	a.logger.Info("starting", zap.String("route", route))
	r.Go(route)

	m.Close()
	stop := m.Watch(a.env.Viewport)
	a.mu.Lock()
	a.stopResize = stop
	a.mu.Unlock()

	if _, err := r.Install(); err != nil {
		a.logger.Warn("install link interceptors", zap.Error(err))
	}

	a.brand(ctx, site)
	return nil
}

// brand writes the logo, site name and license line. Missing elements are
// logged and skipped.
func (a *AppShell) brand(ctx context.Context, site bootstrap.Site) {
	doc := a.env.Document
	if err := doc.SetAttribute(LogoSelector, "src", site.AppLogo); err != nil {
		a.logger.Warn("set logo", zap.Error(err))
	}
	if err := doc.SetInnerHTML(SiteNameSelector, site.AppName); err != nil {
		a.logger.Warn("set site name", zap.Error(err))
	}
	license, err := views.Render(ctx, views.License(site.Copyright))
	if err == nil {
		err = doc.SetInnerHTML(LicenseSelector, license)
	}
	if err != nil {
		a.logger.Warn("set license", zap.Error(err))
	}
}

// Wait blocks until in-flight navigations and startup tasks have finished.
func (a *AppShell) Wait() {
	_ = a.background.Wait()
	if r := a.Router(); r != nil {
		r.Wait()
	}
}

// Close stops watching the viewport.
func (a *AppShell) Close() {
	a.mu.Lock()
	stop, m := a.stopResize, a.menu
	a.stopResize = nil
	a.mu.Unlock()
	if stop != nil {
		stop()
	}
	if m != nil {
		m.Detach()
	}
}

// Site returns the configuration once Start succeeded.
func (a *AppShell) Site() (bootstrap.Site, bool) {
	return a.boot.Site()
}

// Router is nil until Start succeeded.
func (a *AppShell) Router() *router.Router {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.router
}

// Menu is nil until Start succeeded.
func (a *AppShell) Menu() *menu.Menu {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.menu
}

// Loader exposes the fragment loader.
func (a *AppShell) Loader() *loader.Loader { return a.loader }

// Env returns the primitives the shell was built with.
func (a *AppShell) Env() runtime.Env { return a.env }

// SetTitle writes "<name> <separator> <title>", with the slogan standing in
// for an empty title.
func (a *AppShell) SetTitle(title string) error {
	a.mu.Lock()
	site := a.site
	a.mu.Unlock()
	if err := a.env.Document.SetInnerHTML(TitleSelector, site.Title(title)); err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	return nil
}

func (a *AppShell) SetPending(route string) error {
	return a.pending.SetPending(route)
}

func (a *AppShell) InstallLinks() (int, error) {
	r := a.Router()
	if r == nil {
		return 0, ErrNotStarted
	}
	return r.Install()
}

func (a *AppShell) Navigate(ctx context.Context, route string) error {
	r := a.Router()
	if r == nil {
		return ErrNotStarted
	}
	return r.Navigate(ctx, route)
}

func (a *AppShell) APIURL(path string) string {
	return runtime.JoinURL(a.cfg.APIBase, path)
}
