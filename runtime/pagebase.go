package runtime

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vcrobe/spashell/console"
)

// errNoHost is returned by PageBase hooks when the page was built without a shell.
var errNoHost = errors.New("page hook called, but host is nil (page not mounted?)")

// Host is the part of the shell a route behavior may call back into.
type Host interface {
	SetTitle(title string) error
	SetPending(route string) error
	InstallLinks() (int, error)
	Navigate(ctx context.Context, route string) error
	APIURL(path string) string
}

// PageBase is handed to a route behavior when its markup has been committed.
// It carries the environment and the shell hooks; behaviors never reach for
// globals.
type PageBase struct {
	route  string
	env    Env
	host   Host
	logger *zap.Logger
}

// NewPageBase is called by the loader for every committed navigation.
func NewPageBase(route string, env Env, host Host, logger *zap.Logger) *PageBase {
	logger = console.OrNop(logger)
	return &PageBase{route: route, env: env, host: host, logger: logger}
}

// Route returns the route identifier this page was loaded for.
func (p *PageBase) Route() string { return p.route }

// Document returns the shell document.
func (p *PageBase) Document() Document { return p.env.Document }

// HTTP returns the client used for API calls.
func (p *PageBase) HTTP() Doer { return p.env.HTTP }

// Logger returns a logger scoped to the route.
func (p *PageBase) Logger() *zap.Logger {
	return p.logger.With(zap.String("route", p.route))
}

// SetTitle sets the document title. An empty title shows the site slogan.
func (p *PageBase) SetTitle(title string) error {
	if p.host == nil {
		return errNoHost
	}
	return p.host.SetTitle(title)
}

// SetPending declares the route to come back to after a hard reload.
//
// Example usage in a behavior:
//
//	func (about) Init(ctx context.Context, page *runtime.PageBase) error {
//	    return page.SetPending("about")
//	}
func (p *PageBase) SetPending(route string) error {
	if p.host == nil {
		return errNoHost
	}
	return p.host.SetPending(route)
}

// InstallLinks binds the router to anchors inserted by this page's markup.
func (p *PageBase) InstallLinks() (int, error) {
	if p.host == nil {
		return 0, errNoHost
	}
	return p.host.InstallLinks()
}

// Navigate requests a client-side navigation to route.
func (p *PageBase) Navigate(ctx context.Context, route string) error {
	if p.host == nil {
		return errNoHost
	}
	return p.host.Navigate(ctx, route)
}

// APIURL resolves path against the configured API base.
func (p *PageBase) APIURL(path string) string {
	if p.host == nil {
		return path
	}
	return p.host.APIURL(path)
}
