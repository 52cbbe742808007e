package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vcrobe/spashell/server"
	"github.com/vcrobe/spashell/shell"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr   string
	servePages  string
	serveStatic string
	serveReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the development backend",
	Long: `Serves the shell document, the route fragments under /pages and the
/api documents the shell reads. Contact submissions are stored in SQLite.

With --live-reload and a pages directory, edits to a route's files are
pushed to connected shells, which reload the route if it is on screen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.ListenAddr = serveAddr
		}
		if cmd.Flags().Changed("pages") {
			cfg.PagesDir = servePages
		}
		if cmd.Flags().Changed("static") {
			cfg.StaticDir = serveStatic
		}
		if cmd.Flags().Changed("live-reload") {
			cfg.LiveReload = serveReload
		}

		inbox, err := server.OpenInbox(cfg.ContactsDB)
		if err != nil {
			return err
		}
		defer inbox.Close()

		srv, err := server.New(cfg, inbox, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, srv)
	},
}

// serve runs the HTTP server, and the pages watcher when live reload is on,
// until ctx is done or one of them fails.
func serve(ctx context.Context, srv *server.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	if cfg.LiveReload {
		if cfg.PagesDir == "" {
			logger.Warn("live reload needs a pages directory; embedded pages never change")
		} else {
			g.Go(func() error {
				return server.Watch(gctx, cfg.PagesDir, server.DefaultQuiet, func(route string) {
					srv.Hub().Broadcast(shell.Change{Route: route})
				}, logger)
			})
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
	return err
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
	serveCmd.Flags().StringVar(&servePages, "pages", "", "pages directory (overrides pages_dir)")
	serveCmd.Flags().StringVar(&serveStatic, "static", "", "build artifacts directory (overrides static_dir)")
	serveCmd.Flags().BoolVar(&serveReload, "live-reload", false, "push fragment changes to connected shells")
}
