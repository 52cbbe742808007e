package server

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/vcrobe/spashell/console"
	"github.com/vcrobe/spashell/shell"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 16
)

// DefaultQuiet is how long Watch waits for a burst of writes to settle.
const DefaultQuiet = 100 * time.Millisecond

type client struct {
	send chan shell.Change
}

// Hub fans change notices out to every connected shell.
type Hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(logger *zap.Logger) *Hub {
	logger = console.OrNop(logger)
	return &Hub{
		logger:  logger.Named("reload"),
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and writes every broadcast change until
// the peer leaves or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	c := &client{send: make(chan shell.Change, sendBuffer)}
	if !h.add(c) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.remove(c)

	// The shell never writes; CloseRead handles control frames.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-c.send:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := wsjson.Write(wctx, conn, change)
			cancel()
			if err != nil {
				h.logger.Debug("reload write", zap.Error(err))
				return
			}
		}
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.logger.Debug("client connected", zap.Int("clients", len(h.clients)))
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues change for every client. A client whose queue is full
// misses it.
func (h *Hub) Broadcast(change shell.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- change:
		default:
			h.logger.Warn("reload client lagging, change dropped", zap.String("route", change.Route))
		}
	}
}

// Clients reports the connected shells.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Watch reports, through notify, the routes whose files change under dir,
// including routes nested in subdirectories.
// Changes within quiet of each other are reported together, each route
// once. It returns when ctx is done.
func Watch(ctx context.Context, dir string, quiet time.Duration, notify func(route string), logger *zap.Logger) error {
	logger = console.OrNop(logger)
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	defer w.Close()

	if err := watchTree(w, root); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching pages", zap.String("dir", root))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			route := routeOf(root, ev.Name)
			if route == "" {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := watchTree(w, ev.Name); err != nil {
						logger.Warn("watch new route", zap.String("route", route), zap.Error(err))
					}
				}
			}
			pending[route] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(quiet)
			} else {
				timer.Reset(quiet)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			routes := make([]string, 0, len(pending))
			for route := range pending {
				routes = append(routes, route)
			}
			clear(pending)
			slices.Sort(routes)
			for _, route := range routes {
				logger.Debug("fragments changed", zap.String("route", route))
				notify(route)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// watchTree adds dir and every directory below it; fsnotify watches are
// not recursive.
func watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.Add(p)
	})
}

// routeOf maps a path under root to its route: a fragment file belongs to
// the directory holding it, and a directory is a route itself. Fragment
// files are told apart by their extension, since deleted paths cannot be
// inspected.
func routeOf(root, name string) string {
	rel, err := filepath.Rel(root, name)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	if filepath.Ext(rel) != "" {
		rel = filepath.Dir(rel)
	}
	if rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}
