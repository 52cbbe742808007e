package server

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Fragment files a route directory may hold.
const (
	StyleFile    = "index.css"
	MarkupFile   = "index.html"
	BehaviorFile = "index.js"
	MarkdownFile = "index.md"
)

var fragmentTypes = map[string]string{
	StyleFile:    "text/css; charset=utf-8",
	MarkupFile:   "text/html; charset=utf-8",
	BehaviorFile: "text/javascript; charset=utf-8",
}

// handleFragment serves <pages>/<route>/<file>. Routes may nest, so
// blog/post-1 is served from the blog/post-1 directory. A route without
// index.html but with index.md gets the rendered markdown as its markup.
func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	route, file := path.Split(chi.URLParam(r, "*"))
	route = strings.TrimSuffix(route, "/")
	contentType, ok := fragmentTypes[file]
	if !ok || !validRoute(route) {
		http.NotFound(w, r)
		return
	}

	data, err := s.fragment(route, file)
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("read fragment", zap.String("route", route), zap.String("file", file), zap.Error(err))
		http.Error(w, "fragment unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

func (s *Server) fragment(route, file string) ([]byte, error) {
	data, err := fs.ReadFile(s.pages, path.Join(route, file))
	if err == nil || file != MarkupFile || !errors.Is(err, fs.ErrNotExist) {
		return data, err
	}

	source, mdErr := fs.ReadFile(s.pages, path.Join(route, MarkdownFile))
	if mdErr != nil {
		// Report the missing index.html rather than the markdown.
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.md.Convert(source, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// validRoute accepts slash separated names without empty, dot or dot-dot
// segments.
func validRoute(route string) bool {
	return route != "" && route != "." && !strings.ContainsRune(route, '\\') && fs.ValidPath(route)
}
