// Package bootstrap fetches the site configuration exactly once and gates
// the rest of the shell on it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/vcrobe/spashell/console"
	"github.com/vcrobe/spashell/runtime"
	"github.com/vcrobe/spashell/views"
)

var (
	// ErrAlreadyRan is returned by a second Run on the same Bootstrapper.
	ErrAlreadyRan = errors.New("bootstrap: already ran")
	// ErrBootFailed matches every *Error via errors.Is.
	ErrBootFailed = errors.New("bootstrap: site configuration unavailable")
)

// ContentSelector is where the error view lands on failure.
const ContentSelector = "#content"

// Error describes why the configuration could not be obtained.
// Status is zero when the request never got a response.
type Error struct {
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("bootstrap %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("bootstrap %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrBootFailed }

// Continuation runs once the configuration is known.
type Continuation func(ctx context.Context, site Site) error

// Bootstrapper issues one GET for the configuration document.
type Bootstrapper struct {
	url    string
	doc    runtime.Document
	client runtime.Doer
	logger *zap.Logger

	mu     sync.Mutex
	ran    bool
	loaded bool
	site   Site
}

// New returns a Bootstrapper fetching configURL with client. The error view
// is rendered into doc.
func New(configURL string, doc runtime.Document, client runtime.Doer, logger *zap.Logger) *Bootstrapper {
	logger = console.OrNop(logger)
	return &Bootstrapper{
		url:    configURL,
		doc:    doc,
		client: client,
		logger: logger.Named("bootstrap"),
	}
}

// Run fetches the configuration and, on success, calls next with it. On any
// failure the error view replaces the content mount, next is not called and
// an *Error is returned. Run does its work at most once.
func (b *Bootstrapper) Run(ctx context.Context, next Continuation) error {
	b.mu.Lock()
	if b.ran {
		b.mu.Unlock()
		return ErrAlreadyRan
	}
	b.ran = true
	b.mu.Unlock()

	site, err := b.fetch(ctx)
	if err != nil {
		b.fail(ctx, err)
		return err
	}

	b.mu.Lock()
	b.site = site
	b.loaded = true
	b.mu.Unlock()

	b.logger.Info("site configuration loaded", zap.String("app", site.AppName))
	if next == nil {
		return nil
	}
	return next(ctx, site)
}

// Site returns the configuration and whether Run succeeded.
func (b *Bootstrapper) Site() (Site, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.site, b.loaded
}

func (b *Bootstrapper) fetch(ctx context.Context) (Site, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return Site{}, &Error{URL: b.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return Site{}, &Error{URL: b.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Site{}, &Error{URL: b.url, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Site{}, &Error{URL: b.url, Err: fmt.Errorf("read body: %w", err)}
	}
	site, invalid, err := DecodeSite(body)
	if err != nil {
		return Site{}, &Error{URL: b.url, Err: err}
	}
	for _, key := range invalid {
		b.logger.Warn("ignoring site setting with unexpected type", zap.String("key", key))
	}
	return site, nil
}

func (b *Bootstrapper) fail(ctx context.Context, cause error) {
	b.logger.Error("site configuration unavailable", zap.String("url", b.url), zap.Error(cause))

	markup, err := views.Render(ctx, views.ErrorView())
	if err != nil {
		b.logger.Error("render error view", zap.Error(err))
		return
	}
	if err := b.doc.SetInnerHTML(ContentSelector, markup); err != nil {
		b.logger.Error("show error view", zap.Error(err))
	}
}
