package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vcrobe/spashell/headless"
	"github.com/vcrobe/spashell/loader"
	"github.com/vcrobe/spashell/runtime"
	"github.com/vcrobe/spashell/settings"
	"github.com/vcrobe/spashell/shell"
	"github.com/vcrobe/spashell/site"
	"github.com/vcrobe/spashell/store"
)

var (
	runOrigin  string
	runClicks  []string
	runReload  bool
	runTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive the shell headlessly against a running backend",
	Long: `Starts the shell in a headless tab: the configuration is fetched, the
stored route (or the default one) is loaded, and every --click selector is
activated in order. The tab's storage is a SQLite file, so a route stored by
one run is resumed by the next, like a browser reload.

Example:
  spashell run --origin http://localhost:8080 --click '#mainMenu a[href="contacts"]' --reload`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if runTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, runTimeout)
			defer cancel()
		}

		storage, err := store.OpenSQLite(cfg.StoragePath)
		if err != nil {
			return err
		}
		defer storage.Close()

		shellDoc, err := shellDocument(cfg)
		if err != nil {
			return err
		}

		return runSession(ctx, session{
			cfg:      cfg,
			origin:   runOrigin,
			shellDoc: shellDoc,
			storage:  storage,
			client:   &http.Client{Timeout: 30 * time.Second},
			registry: site.Registry(),
			clicks:   runClicks,
			reload:   runReload,
			logger:   logger,
		}, cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().StringVar(&runOrigin, "origin", "http://localhost:8080", "backend origin for relative api_base and pages_base")
	runCmd.Flags().StringArrayVar(&runClicks, "click", nil, "selector to click after startup (repeatable)")
	runCmd.Flags().BoolVar(&runReload, "reload", false, "restart the shell over the same storage before reporting")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", time.Minute, "overall deadline")
}

func shellDocument(cfg *settings.Settings) ([]byte, error) {
	if cfg.ShellPath != "" {
		data, err := os.ReadFile(cfg.ShellPath)
		if err != nil {
			return nil, fmt.Errorf("reading shell document: %w", err)
		}
		return data, nil
	}
	return site.Shell()
}

// session is one headless run.
type session struct {
	cfg      *settings.Settings
	origin   string
	shellDoc []byte
	storage  runtime.Storage
	client   runtime.Doer
	registry *loader.Registry
	clicks   []string
	reload   bool
	logger   *zap.Logger
}

func runSession(ctx context.Context, s session, out io.Writer) error {
	a, tab, err := s.start(ctx)
	if err != nil {
		if tab != nil {
			_ = report(tab, out)
		}
		return err
	}

	for _, sel := range s.clicks {
		decision, err := tab.Document.Click(sel)
		if err != nil {
			a.Close()
			return fmt.Errorf("click %s: %w", sel, err)
		}
		a.Wait()
		s.logger.Info("clicked", zap.String("selector", sel), zap.Stringer("decision", decision))
	}

	if s.reload {
		a.Close()
		if a, tab, err = s.start(ctx); err != nil {
			if tab != nil {
				_ = report(tab, out)
			}
			return err
		}
	}
	defer a.Close()
	return report(tab, out)
}

func (s session) start(ctx context.Context) (*shell.AppShell, *headless.Tab, error) {
	tab, err := headless.NewTab(bytes.NewReader(s.shellDoc), s.storage, s.client)
	if err != nil {
		return nil, nil, err
	}
	a, err := shell.New(tab.Env(), shell.Config{
		APIBase:      resolve(s.origin, s.cfg.APIBase),
		PagesBase:    resolve(s.origin, s.cfg.PagesBase),
		DefaultRoute: s.cfg.DefaultRoute,
	}, s.registry, s.logger)
	if err != nil {
		return nil, nil, err
	}
	err = a.Start(ctx)
	a.Wait()
	if err != nil {
		// The tab holds the error view.
		a.Close()
		return nil, tab, err
	}
	return a, tab, nil
}

func report(tab *headless.Tab, out io.Writer) error {
	doc := tab.Document
	title, err := doc.Text(shell.TitleSelector)
	if err != nil {
		return err
	}
	content, err := doc.Text(loader.DefaultMounts.Content)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "route: %s\ntitle: %s\n\n%s\n",
		tab.History.Location(), strings.TrimSpace(title), collapse(content))
	return err
}

// collapse drops blank lines and indentation from rendered text.
func collapse(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// resolve makes a relative base absolute against origin.
func resolve(origin, base string) string {
	if u, err := url.Parse(base); err == nil && u.IsAbs() {
		return base
	}
	if origin == "" {
		return base
	}
	return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(base, "/")
}
