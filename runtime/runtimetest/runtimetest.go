// Package runtimetest is an in-memory harness for native tests: a headless
// tab over a fixed shell document and a fake backend serving fragments and
// API documents.
package runtimetest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vcrobe/spashell/headless"
	"github.com/vcrobe/spashell/runtime"
	"github.com/vcrobe/spashell/store"
)

// Shell is a minimal shell document carrying every mount the shell writes to.
const Shell = `<!DOCTYPE html>
<html>
<head><title></title><style id="pageCSS"></style></head>
<body>
<header>
  <a href="#menu" title=""><img id="logo" src=""></a>
  <h1 id="siteName"></h1>
</header>
<nav id="mainMenu">
  <a id="nav-home" href="home">Home</a>
  <a id="nav-about" href="about">About</a>
  <a id="nav-contacts" href="contacts">Contacts</a>
  <a id="nav-external" href="https://example.com/">Elsewhere</a>
  <a id="nav-blank" href="docs" target="_blank">Docs</a>
  <a id="nav-anchor" href="#top">Top</a>
  <a id="nav-empty" href="">Nothing</a>
  <a id="nav-nohref">No href</a>
</nav>
<div id="content"></div>
<footer><div class="social"></div><div class="license"></div></footer>
</body>
</html>`

// NewTab returns a headless tab over Shell with an in-memory store.
func NewTab(t testing.TB, client runtime.Doer) *headless.Tab {
	t.Helper()
	return NewTabWith(t, Shell, store.NewMemory(), client)
}

// NewTabWith is NewTab with an explicit shell document and storage.
func NewTabWith(t testing.TB, shell string, storage runtime.Storage, client runtime.Doer) *headless.Tab {
	t.Helper()
	if client == nil {
		client = http.DefaultClient
	}
	tab, err := headless.NewTab(strings.NewReader(shell), storage, client)
	require.NoError(t, err)
	return tab
}

type response struct {
	status int
	body   string
}

// Backend is a fake origin. Unknown paths answer 404.
type Backend struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]response
	gates     map[string]chan struct{}
	requests  []string
	bodies    map[string][]string
}

// NewBackend starts a Backend closed at test cleanup.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		responses: make(map[string]response),
		gates:     make(map[string]chan struct{}),
		bodies:    make(map[string][]string),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(func() {
		b.ReleaseAll()
		b.Server.Close()
	})
	return b
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.requests = append(b.requests, key)
	if r.Method != http.MethodGet {
		b.bodies[r.URL.Path] = append(b.bodies[r.URL.Path], string(body))
	}
	gate := b.gates[r.URL.Path]
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	b.mu.Lock()
	resp, ok := b.responses[key]
	b.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

// Handle answers method requests on path with status and body.
func (b *Backend) Handle(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[method+" "+path] = response{status: status, body: body}
}

// Serve answers GET path with 200 and body.
func (b *Backend) Serve(path, body string) {
	b.Handle(http.MethodGet, path, http.StatusOK, body)
}

// Page serves the style and markup fragments of route under /pages.
func (b *Backend) Page(route, css, markup string) {
	b.Serve("/pages/"+route+"/index.css", css)
	b.Serve("/pages/"+route+"/index.html", markup)
}

// Config serves the site configuration at /api/config.
func (b *Backend) Config(body string) {
	b.Serve("/api/config", body)
}

// Gate holds every request for path until the returned func is called.
func (b *Backend) Gate(path string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.gates[path] = ch
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			owned := b.gates[path] == ch
			if owned {
				delete(b.gates, path)
			}
			b.mu.Unlock()
			// ReleaseAll may already have closed it.
			if owned {
				close(ch)
			}
		})
	}
}

// ReleaseAll opens every gate.
func (b *Backend) ReleaseAll() {
	b.mu.Lock()
	gates := b.gates
	b.gates = make(map[string]chan struct{})
	b.mu.Unlock()
	for _, ch := range gates {
		close(ch)
	}
}

// Requests lists "METHOD /path" for every request received, in order.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// Count reports how many requests hit path with any method.
func (b *Backend) Count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if _, p, _ := strings.Cut(r, " "); p == path {
			n++
		}
	}
	return n
}

// Bodies returns the request bodies posted to path.
func (b *Backend) Bodies(path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.bodies[path]...)
}

// APIBase is the API root of the backend.
func (b *Backend) APIBase() string { return b.URL + "/api" }

// PagesBase is the fragment root of the backend.
func (b *Backend) PagesBase() string { return b.URL + "/pages" }
