package server

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/spashell/contact"
	"github.com/vcrobe/spashell/continuity"
	"github.com/vcrobe/spashell/headless"
	"github.com/vcrobe/spashell/runtime"
	"github.com/vcrobe/spashell/settings"
	"github.com/vcrobe/spashell/shell"
	"github.com/vcrobe/spashell/site"
	"github.com/vcrobe/spashell/store"
)

func openTab(t *testing.T, srv *httptest.Server, storage runtime.Storage) *headless.Tab {
	t.Helper()
	doc, err := site.Shell()
	require.NoError(t, err)
	tab, err := headless.NewTab(bytes.NewReader(doc), storage, srv.Client())
	require.NoError(t, err)
	return tab
}

func boot(t *testing.T, srv *httptest.Server, tab *headless.Tab) *shell.AppShell {
	t.Helper()
	a, err := shell.New(tab.Env(), shell.Config{
		APIBase:   srv.URL + "/api",
		PagesBase: srv.URL + "/pages",
	}, site.Registry(), nil)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	a.Wait()
	t.Cleanup(a.Close)
	return a
}

func text(t *testing.T, doc *headless.Document, sel string) string {
	t.Helper()
	s, err := doc.InnerHTML(sel)
	require.NoError(t, err)
	return s
}

func TestShellAgainstServer(t *testing.T) {
	s, inbox := newServer(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	storage, err := store.OpenSQLite(filepath.Join(t.TempDir(), "tab.db"))
	require.NoError(t, err)
	defer storage.Close()

	tab := openTab(t, srv, storage)
	a := boot(t, srv, tab)
	doc := tab.Document

	assert.Equal(t, "home", tab.History.Location())
	assert.Contains(t, text(t, doc, "#content"), "Welcome")
	assert.Equal(t, "spashell - Pages in place", text(t, doc, "head>title"))
	assert.Equal(t, "spashell", text(t, doc, "#siteName"))
	assert.Contains(t, text(t, doc, ".social"), "github.com/vcrobe/spashell")

	// The about page is markdown rendered by the server.
	_, err = doc.Click(`#mainMenu a[href="about"]`)
	require.NoError(t, err)
	a.Wait()
	assert.Contains(t, text(t, doc, "#content"), `<h2 id="about">About</h2>`)
	assert.Equal(t, "spashell - About", text(t, doc, "head>title"))

	// Its markup links home; the page behavior intercepted it.
	decision, err := doc.Click(`#content a[href="home"]`)
	require.NoError(t, err)
	assert.Equal(t, runtime.Suppress, decision)
	a.Wait()
	assert.Equal(t, "home", tab.History.Location())

	_, err = doc.Click(`#content a[href="contacts"]`)
	require.NoError(t, err)
	a.Wait()
	assert.Equal(t, "contacts", tab.History.Location())
	assert.Equal(t, "spashell - "+contact.Title, text(t, doc, "head>title"))
	assert.Contains(t, text(t, doc, contact.ListSelector), "mailto:hello@example.com")

	require.NoError(t, doc.SetValue(contact.NameSelector, "Ana Maria"))
	require.NoError(t, doc.SetValue(contact.EmailSelector, "ana@example.com"))
	require.NoError(t, doc.SetValue(contact.SubjectSelector, "Hello"))
	require.NoError(t, doc.SetValue(contact.MessageSelector, "first line\nsecond line"))
	require.NoError(t, doc.Submit(contact.FormSelector))

	feedback, err := doc.Text(contact.FeedbackSelector)
	require.NoError(t, err)
	assert.Contains(t, feedback, "Hello Ana!")

	stored, err := inbox.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Ana Maria", stored[0].Name)
	assert.Equal(t, "first line<br>second line", stored[0].Message)

	pending, ok, err := storage.Get(continuity.Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "contacts", pending)
	a.Close()

	// A hard reload lands on the page the visitor was reading.
	again := openTab(t, srv, storage)
	boot(t, srv, again)
	assert.Equal(t, "contacts", again.History.Location())
	assert.Contains(t, text(t, again.Document, "#content"), `id="contact"`)
}

func TestLiveReloadEndToEnd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "home"), 0o755))
	markup := filepath.Join(dir, "home", "index.html")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home", "index.css"), []byte("h2{}"), 0o644))
	require.NoError(t, os.WriteFile(markup, []byte("<h2>v1</h2>"), 0o644))

	s, _ := newServer(t, func(cfg *settings.Settings) {
		cfg.PagesDir = dir
		cfg.LiveReload = true
	})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	watchDone := make(chan error, 1)
	go func() {
		watchDone <- Watch(ctx, dir, 0, func(route string) {
			s.Hub().Broadcast(shell.Change{Route: route})
		}, nil)
	}()

	tab := openTab(t, srv, store.NewMemory())
	a := boot(t, srv, tab)
	require.Contains(t, text(t, tab.Document, "#content"), "v1")

	reloadDone := make(chan error, 1)
	go func() { reloadDone <- a.LiveReload(ctx, wsURL(srv)) }()
	require.Eventually(t, func() bool { return s.Hub().Clients() == 1 }, waitFor, tick)

	require.Eventually(t, func() bool {
		_ = os.WriteFile(markup, []byte("<h2>v2</h2>"), 0o644)
		content, err := tab.Document.InnerHTML("#content")
		return err == nil && content == "<h2>v2</h2>"
	}, waitFor, 5*DefaultQuiet)

	cancel()
	assert.NoError(t, <-reloadDone)
	assert.NoError(t, <-watchDone)
	a.Wait()
}
