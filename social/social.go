// Package social loads the site's list of social network links and renders
// it into the shell.
package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/vcrobe/spashell/console"
	"github.com/vcrobe/spashell/runtime"
	"github.com/vcrobe/spashell/views"
)

// Link is one entry of the <api>/social document. NoFooter entries are
// contact channels rather than networks and stay out of the footer.
type Link struct {
	Href     string `json:"href" yaml:"href" koanf:"href"`
	Name     string `json:"name" yaml:"name" koanf:"name"`
	Icon     string `json:"icon" yaml:"icon" koanf:"icon"`
	NoFooter bool   `json:"nofooter" yaml:"nofooter" koanf:"nofooter"`
}

// Fetch downloads the list from url.
func Fetch(ctx context.Context, client runtime.Doer, url string) ([]Link, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("social list: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("social list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("social list: unexpected status %s", resp.Status)
	}

	var links []Link
	if err := json.NewDecoder(resp.Body).Decode(&links); err != nil {
		return nil, fmt.Errorf("social list: decode: %w", err)
	}
	return links, nil
}

// Filter drops NoFooter entries unless full is set. The input is not modified.
func Filter(links []Link, full bool) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if l.NoFooter && !full {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Render replaces the children of selector with links.
func Render(ctx context.Context, doc runtime.Document, selector string, links []Link) error {
	entries := make([]views.SocialEntry, len(links))
	for i, l := range links {
		entries[i] = views.SocialEntry{Href: l.Href, Name: l.Name, Icon: l.Icon}
	}
	markup, err := views.Render(ctx, views.SocialList(entries))
	if err != nil {
		return err
	}
	return doc.SetInnerHTML(selector, markup)
}

// Show fetches, filters and renders in one go. Failures leave selector
// untouched and are logged.
func Show(ctx context.Context, client runtime.Doer, url string, doc runtime.Document, selector string, full bool, logger *zap.Logger) error {
	logger = console.OrNop(logger)
	links, err := Fetch(ctx, client, url)
	if err != nil {
		logger.Warn("social list unavailable", zap.String("selector", selector), zap.Error(err))
		return err
	}
	if err := Render(ctx, doc, selector, Filter(links, full)); err != nil {
		logger.Warn("render social list", zap.String("selector", selector), zap.Error(err))
		return err
	}
	return nil
}
