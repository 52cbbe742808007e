package shell

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vcrobe/spashell/bootstrap"
	"github.com/vcrobe/spashell/continuity"
	"github.com/vcrobe/spashell/headless"
	"github.com/vcrobe/spashell/loader"
	"github.com/vcrobe/spashell/menu"
	"github.com/vcrobe/spashell/runtime"
	"github.com/vcrobe/spashell/runtime/runtimetest"
	"github.com/vcrobe/spashell/store"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

const siteJSON = `{"appName":"Luferat","appSlogan":"Pure JS","appLogo":"/img/logo.png","copyright":"2024 Luferat","separator":"-","clientWidth":800}`

const socialJSON = `[
	{"href":"https://github.com/luferat","name":"GitHub","icon":"fab fa-github"},
	{"href":"mailto:me@example.com","name":"E-mail","icon":"fas fa-envelope","nofooter":true}
]`

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func newBackend(t *testing.T) *runtimetest.Backend {
	t.Helper()
	b := runtimetest.NewBackend(t)
	b.Config(siteJSON)
	b.Serve("/api/social", socialJSON)
	b.Page("home", "home{}", `<h2>Home</h2><a id="to-about" href="about">about</a>`)
	b.Page("about", "about{}", `<h2>About</h2>`)
	b.Page("contacts", "contacts{}", `<h2>Contacts</h2>`)
	return b
}

func startShell(t *testing.T, b *runtimetest.Backend, tab *headless.Tab, reg *loader.Registry) *AppShell {
	t.Helper()
	a, err := New(tab.Env(), Config{APIBase: b.APIBase(), PagesBase: b.PagesBase()}, reg, nil)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	a.Wait()
	t.Cleanup(a.Close)
	return a
}

func inner(t *testing.T, doc *headless.Document, sel string) string {
	t.Helper()
	s, err := doc.InnerHTML(sel)
	require.NoError(t, err)
	return s
}

func TestStart_DefaultRoute(t *testing.T) {
	b := newBackend(t)
	tab := runtimetest.NewTab(t, b.Client())
	a := startShell(t, b, tab, nil)

	doc := tab.Document
	assert.Contains(t, inner(t, doc, "#content"), "<h2>Home</h2>")
	assert.Equal(t, "home{}", inner(t, doc, "#pageCSS"))
	assert.Equal(t, "home", tab.History.Location())

	logo, _, err := doc.Attribute("#logo", "src")
	require.NoError(t, err)
	assert.Equal(t, "/img/logo.png", logo)
	assert.Equal(t, "Luferat", inner(t, doc, "#siteName"))
	assert.Contains(t, inner(t, doc, ".license"), "2024 Luferat")

	footer := inner(t, doc, ".social")
	assert.Contains(t, footer, "github.com/luferat")
	assert.NotContains(t, footer, "mailto:", "nofooter entries stay out of the footer")

	assert.Equal(t, menu.Closed, a.Menu().State())
	assert.Equal(t, 800, a.Menu().Breakpoint())
	closed, err := doc.HasClass("#mainMenu", menu.ClosedClass)
	require.NoError(t, err)
	assert.True(t, closed)

	site, ok := a.Site()
	require.True(t, ok)
	assert.Equal(t, "Luferat", site.AppName)
}

func TestStart_PendingRouteIsConsumed(t *testing.T) {
	b := newBackend(t)
	storage := store.NewMemory()
	require.NoError(t, continuity.New(storage).SetPending("about"))
	tab := runtimetest.NewTabWith(t, runtimetest.Shell, storage, b.Client())

	startShell(t, b, tab, nil)

	assert.Contains(t, inner(t, tab.Document, "#content"), "<h2>About</h2>")
	assert.Equal(t, "about", tab.History.Location())
	_, found, err := storage.Get(continuity.Key)
	require.NoError(t, err)
	assert.False(t, found, "pending route cleared before the first load")
	assert.Zero(t, b.Count("/pages/home/index.html"))
}

func TestStart_BootFailureShowsErrorView(t *testing.T) {
	b := runtimetest.NewBackend(t)
	b.Handle(http.MethodGet, "/api/config", http.StatusInternalServerError, "")
	tab := runtimetest.NewTab(t, b.Client())

	a, err := New(tab.Env(), Config{APIBase: b.APIBase(), PagesBase: b.PagesBase()}, nil, nil)
	require.NoError(t, err)
	err = a.Start(context.Background())
	assert.True(t, errors.Is(err, bootstrap.ErrBootFailed))
	a.Wait()

	assert.Contains(t, inner(t, tab.Document, "#content"), "Ooooops!")
	assert.Equal(t, []string{"GET /api/config"}, b.Requests(), "nothing else is fetched")
	assert.Nil(t, a.Router())
	assert.ErrorIs(t, a.Navigate(context.Background(), "home"), ErrNotStarted)
	_, err = a.InstallLinks()
	assert.ErrorIs(t, err, ErrNotStarted)

	assert.ErrorIs(t, a.Start(context.Background()), bootstrap.ErrAlreadyRan)
}

func TestClicksAndMenu(t *testing.T) {
	b := newBackend(t)
	tab := runtimetest.NewTab(t, b.Client())
	a := startShell(t, b, tab, nil)
	doc := tab.Document

	decision, err := doc.Click(`a[href="#menu"]`)
	require.NoError(t, err)
	assert.Equal(t, runtime.Suppress, decision)
	assert.Equal(t, menu.Open, a.Menu().State())

	decision, err = doc.Click("#nav-contacts")
	require.NoError(t, err)
	assert.Equal(t, runtime.Suppress, decision)
	a.Wait()
	assert.Equal(t, menu.Closed, a.Menu().State(), "following a link closes the menu")
	assert.Equal(t, "contacts", tab.History.Location())

	decision, err = doc.Click("#nav-external")
	require.NoError(t, err)
	assert.Equal(t, runtime.Allow, decision)

	tab.Viewport.Resize(1280)
	assert.Equal(t, menu.Open, a.Menu().State())
	tab.Viewport.Resize(500)
	assert.Equal(t, menu.Closed, a.Menu().State())
}

func TestBehaviorsReachTheShell(t *testing.T) {
	b := newBackend(t)
	reg := loader.NewRegistry()
	reg.Register("home", loader.BehaviorFunc(func(ctx context.Context, page *runtime.PageBase) error {
		if err := page.SetTitle(""); err != nil {
			return err
		}
		_, err := page.InstallLinks()
		return err
	}))
	reg.Register("about", loader.BehaviorFunc(func(ctx context.Context, page *runtime.PageBase) error {
		if err := page.SetPending("about"); err != nil {
			return err
		}
		return page.SetTitle("About us")
	}))

	tab := runtimetest.NewTab(t, b.Client())
	a := startShell(t, b, tab, reg)
	doc := tab.Document
	assert.Equal(t, "Luferat - Pure JS", inner(t, doc, "head>title"))

	// The home behavior bound the anchor its markup brought in.
	decision, err := doc.Click("#to-about")
	require.NoError(t, err)
	assert.Equal(t, runtime.Suppress, decision)
	a.Wait()

	assert.Equal(t, "Luferat - About us", inner(t, doc, "head>title"))
	pending, ok, err := tab.Storage.Get(continuity.Key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "about", pending)
}

// A hard reload is a new shell over the same durable store.
func TestHardReloadResumesRoute(t *testing.T) {
	b := newBackend(t)
	reg := loader.NewRegistry()
	reg.Register("contacts", loader.BehaviorFunc(func(ctx context.Context, page *runtime.PageBase) error {
		return page.SetPending("contacts")
	}))

	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "tab.db"))
	require.NoError(t, err)
	defer db.Close()

	first := runtimetest.NewTabWith(t, runtimetest.Shell, db, b.Client())
	a := startShell(t, b, first, reg)
	_, err = first.Document.Click("#nav-contacts")
	require.NoError(t, err)
	a.Wait()
	a.Close()

	second := runtimetest.NewTabWith(t, runtimetest.Shell, db, b.Client())
	startShell(t, b, second, reg)
	assert.Equal(t, "contacts", second.History.Location())
	assert.Contains(t, inner(t, second.Document, "#content"), "<h2>Contacts</h2>")
}

func TestNew_IncompleteEnv(t *testing.T) {
	_, err := New(runtime.Env{}, Config{}, nil, nil)
	assert.ErrorContains(t, err, "missing")
}

func TestLiveReload(t *testing.T) {
	b := newBackend(t)
	tab := runtimetest.NewTab(t, b.Client())
	a := startShell(t, b, tab, nil)
	require.Equal(t, 1, b.Count("/pages/home/index.html"))

	sent := make(chan struct{})
	ws := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		ctx := r.Context()
		_ = wsjson.Write(ctx, conn, Change{Route: "about"})
		_ = wsjson.Write(ctx, conn, Change{Route: "home"})
		close(sent)
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer ws.Close()

	url := "ws" + strings.TrimPrefix(ws.URL, "http")
	require.NoError(t, a.LiveReload(context.Background(), url))
	<-sent
	a.Wait()

	assert.Equal(t, 2, b.Count("/pages/home/index.html"), "only the current route reloads")
	assert.Zero(t, b.Count("/pages/about/index.html"))
}

func TestLiveReload_DialFailure(t *testing.T) {
	b := newBackend(t)
	tab := runtimetest.NewTab(t, b.Client())
	a := startShell(t, b, tab, nil)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	assert.Error(t, a.LiveReload(ctx, "ws://127.0.0.1:1/ws/reload"))
}
