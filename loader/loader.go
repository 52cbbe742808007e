// Package loader turns a route identifier into a committed page: style
// fragment, then markup fragment plus address rewrite, then the route's
// behavior. Each stage runs only if the previous one succeeded.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/vcrobe/spashell/runtime"
)

// ErrSuperseded is returned by a load that a newer load overtook before it
// could commit.
var ErrSuperseded = errors.New("loader: superseded by a newer navigation")

// Stage identifies a step of the pipeline.
type Stage int

const (
	StageStyle Stage = iota
	StageMarkup
	StageBehavior
)

func (s Stage) String() string {
	switch s {
	case StageStyle:
		return "style"
	case StageMarkup:
		return "markup"
	case StageBehavior:
		return "behavior"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageError reports the stage a load stopped at. Status is set when the
// fragment request got a non-2xx answer.
type StageError struct {
	Route  string
	Stage  Stage
	URL    string
	Status int
	Err    error
}

func (e *StageError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("load %q: %s stage: %s: status %d", e.Route, e.Stage, e.URL, e.Status)
	}
	return fmt.Sprintf("load %q: %s stage: %v", e.Route, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Mounts names the shell elements fragments are written into.
type Mounts struct {
	Style   string
	Content string
}

// DefaultMounts are the mounts of the stock shell document.
var DefaultMounts = Mounts{Style: "#pageCSS", Content: "#content"}

// Fragment holds the three fragment locations of a route.
type Fragment struct {
	Style    string
	Markup   string
	Behavior string
}

// Paths derives the fragment locations of route under base.
func Paths(base, route string) Fragment {
	dir := runtime.JoinURL(base, route)
	return Fragment{
		Style:    dir + "/index.css",
		Markup:   dir + "/index.html",
		Behavior: dir + "/index.js",
	}
}

// Option configures a Loader.
type Option func(*Loader)

// WithPagesBase sets the root fragments are fetched from. Default "pages".
func WithPagesBase(base string) Option {
	return func(l *Loader) { l.pagesBase = base }
}

// WithMounts overrides DefaultMounts.
func WithMounts(m Mounts) Option {
	return func(l *Loader) { l.mounts = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader runs the fragment pipeline against one environment.
type Loader struct {
	env       runtime.Env
	host      runtime.Host
	registry  *Registry
	pagesBase string
	mounts    Mounts
	logger    *zap.Logger

	seq      atomic.Uint64
	commitMu sync.Mutex
}

// New returns a Loader. host is handed to behaviors through their PageBase
// and may be nil for shells without hooks.
func New(env runtime.Env, host runtime.Host, registry *Registry, opts ...Option) *Loader {
	l := &Loader{
		env:       env,
		host:      host,
		registry:  registry,
		pagesBase: "pages",
		mounts:    DefaultMounts,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.Named("loader")
	return l
}

// Load fetches and commits route. The returned error is a *StageError
// (wrapping the context error on cancellation) or ErrSuperseded. Behavior
// failures are logged and do not fail the load.
func (l *Loader) Load(ctx context.Context, route string) error {
	seq := l.seq.Add(1)
	paths := Paths(l.pagesBase, route)
	log := l.logger.With(zap.String("route", route), zap.Uint64("seq", seq))

	err := l.load(ctx, seq, route, paths, log)
	switch {
	case err == nil:
		log.Debug("page loaded")
	case errors.Is(err, ErrSuperseded):
		log.Debug("navigation superseded")
	default:
		log.Error("page load failed", zap.Error(err))
	}
	return err
}

func (l *Loader) load(ctx context.Context, seq uint64, route string, paths Fragment, log *zap.Logger) error {
	css, err := l.fetch(ctx, route, StageStyle, paths.Style)
	if err != nil {
		return err
	}
	err = l.commit(seq, func() error {
		return l.env.Document.SetInnerHTML(l.mounts.Style, css)
	})
	if err != nil {
		return l.stageErr(route, StageStyle, paths.Style, err)
	}

	markup, err := l.fetch(ctx, route, StageMarkup, paths.Markup)
	if err != nil {
		return err
	}
	err = l.commit(seq, func() error {
		if err := l.env.Document.SetInnerHTML(l.mounts.Content, markup); err != nil {
			return err
		}
		return l.env.History.ReplaceState(route)
	})
	if err != nil {
		return l.stageErr(route, StageMarkup, paths.Markup, err)
	}

	if !l.latest(seq) {
		return ErrSuperseded
	}
	b, ok := l.registry.Lookup(route)
	if !ok {
		log.Debug("no behavior registered")
		return nil
	}
	page := runtime.NewPageBase(route, l.env, l.host, l.logger)
	if err := l.callInit(ctx, b, page); err != nil {
		log.Error("behavior failed", zap.Error(&StageError{Route: route, Stage: StageBehavior, URL: paths.Behavior, Err: err}))
	}
	return nil
}

// Latest reports the sequence number of the most recently started load.
func (l *Loader) Latest() uint64 { return l.seq.Load() }

func (l *Loader) latest(seq uint64) bool { return l.seq.Load() == seq }

// commit applies fn only if seq is still the newest load. Commits of all
// loads are serialised.
func (l *Loader) commit(seq uint64, fn func() error) error {
	l.commitMu.Lock()
	defer l.commitMu.Unlock()
	if !l.latest(seq) {
		return ErrSuperseded
	}
	return fn()
}

func (l *Loader) stageErr(route string, stage Stage, url string, err error) error {
	if errors.Is(err, ErrSuperseded) {
		return err
	}
	return &StageError{Route: route, Stage: stage, URL: url, Err: err}
}

func (l *Loader) fetch(ctx context.Context, route string, stage Stage, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &StageError{Route: route, Stage: stage, URL: url, Err: err}
	}
	resp, err := l.env.HTTP.Do(req)
	if err != nil {
		return "", &StageError{Route: route, Stage: stage, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StageError{Route: route, Stage: stage, URL: url, Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &StageError{Route: route, Stage: stage, URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	return string(body), nil
}
