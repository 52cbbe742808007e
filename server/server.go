// Package server is the development backend of a spashell site: it serves
// the shell document, the per-route fragments and the small JSON API the
// shell talks to, and pushes fragment changes to connected shells.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"go.uber.org/zap"

	"github.com/vcrobe/spashell/console"
	"github.com/vcrobe/spashell/contact"
	"github.com/vcrobe/spashell/settings"
	"github.com/vcrobe/spashell/shell"
	"github.com/vcrobe/spashell/site"
	"github.com/vcrobe/spashell/social"
)

// ReloadPath is the live reload socket.
const ReloadPath = shell.ReloadPath

const maxContactBody = 64 << 10

var lineBreaksOnly = bluemonday.NewPolicy().AllowElements("br")

// Server serves one site.
type Server struct {
	cfg    *settings.Settings
	logger *zap.Logger
	inbox  *Inbox
	hub    *Hub

	shellDoc []byte
	pages    fs.FS
	static   []fs.FS
	md       goldmark.Markdown

	router     chi.Router
	httpServer *http.Server
	now        func() time.Time
}

// New reads the shell document and assembles the router. Fragments come
// from cfg.PagesDir, or the embedded pages when it is empty.
func New(cfg *settings.Settings, inbox *Inbox, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		cfg = settings.Default()
	}
	if inbox == nil {
		return nil, errors.New("server: inbox is required")
	}
	logger = console.OrNop(logger)

	s := &Server{
		cfg:    cfg,
		logger: logger.Named("server"),
		inbox:  inbox,
		hub:    NewHub(logger),
		pages:  site.Pages(),
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		now: time.Now,
	}

	var err error
	if cfg.ShellPath != "" {
		s.shellDoc, err = os.ReadFile(cfg.ShellPath)
	} else {
		s.shellDoc, err = site.Shell()
	}
	if err != nil {
		return nil, fmt.Errorf("reading shell document: %w", err)
	}
	if cfg.PagesDir != "" {
		s.pages = os.DirFS(cfg.PagesDir)
	}
	if cfg.StaticDir != "" {
		s.static = append(s.static, os.DirFS(cfg.StaticDir))
	}
	s.static = append(s.static, site.FS())

	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if len(s.cfg.CORSOrigins) > 0 {
		corsOpts.AllowedOrigins = s.cfg.CORSOrigins
	}
	r.Use(cors.Handler(corsOpts))

	if s.cfg.LiveReload {
		r.Get(ReloadPath, s.hub.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/config", s.handleConfig)
			r.Get("/social", s.handleSocial)
			r.Get("/contacts", s.handleListContacts)
			r.Post("/contacts", s.handleContact)
		})

		r.Get("/pages/*", s.handleFragment)
		r.Get("/*", s.handleStatic)
	})

	return r
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Hub is the live reload broadcaster.
func (s *Server) Hub() *Hub { return s.hub }

// Start listens on cfg.ListenAddr until Shutdown. It returns nil once shut
// down, even when Shutdown ran first.
func (s *Server) Start() error {
	s.logger.Info("listening", zap.String("addr", s.cfg.ListenAddr),
		zap.Bool("live_reload", s.cfg.LiveReload))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown disconnects live reload clients and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Site)
}

func (s *Server) handleSocial(w http.ResponseWriter, r *http.Request) {
	links := s.cfg.Social
	if links == nil {
		links = []social.Link{}
	}
	writeJSON(w, http.StatusOK, links)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var sub contact.Submission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContactBody))
	if err := dec.Decode(&sub); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", "request body is not a contact submission", nil)
		return
	}

	// Submissions arrive sanitized; only the <br> line breaks survive here.
	clean := func(v string) string { return strings.TrimSpace(lineBreaksOnly.Sanitize(v)) }
	form := contact.Form{
		Name:    clean(sub.Name),
		Email:   clean(sub.Email),
		Subject: clean(sub.Subject),
		Message: clean(sub.Message),
	}
	if err := contact.Validate(form); err != nil {
		var verr *contact.ValidationError
		if errors.As(err, &verr) {
			writeError(w, r, http.StatusUnprocessableEntity, "invalid_contact", err.Error(),
				map[string]any{"fields": verr.Fields})
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid_contact", err.Error(), nil)
		return
	}

	sub.Name, sub.Email, sub.Subject, sub.Message = form.Name, form.Email, form.Subject, form.Message
	if sub.Date == "" {
		sub.Date = contact.SystemDate(s.now())
	}
	if sub.Status == "" {
		sub.Status = contact.StatusReceived
	}

	msg, err := s.inbox.Add(r.Context(), sub)
	if err != nil {
		s.logger.Error("store contact", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "storage_failed", "contact could not be stored", nil)
		return
	}
	s.logger.Info("contact received", zap.String("id", msg.ID), zap.String("subject", msg.Subject))
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.inbox.List(r.Context())
	if err != nil {
		s.logger.Error("list contacts", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "storage_failed", "contacts could not be listed", nil)
		return
	}
	if msgs == nil {
		msgs = []Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// handleStatic serves build artifacts and shared assets, and the shell
// document for every other address so a deep link boots the shell.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := path.Clean(chi.URLParam(r, "*"))
	if name != "." && name != site.ShellFile && fs.ValidPath(name) {
		for _, fsys := range s.static {
			if info, err := fs.Stat(fsys, name); err == nil && !info.IsDir() {
				http.ServeFileFS(w, r, fsys, name)
				return
			}
		}
		if path.Ext(name) != "" {
			http.NotFound(w, r)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(s.shellDoc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	payload := map[string]any{
		"error":   code,
		"message": message,
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	if len(details) > 0 {
		payload["details"] = details
	}
	writeJSON(w, status, payload)
}
