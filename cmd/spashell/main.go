// Command spashell serves a spashell site and drives its shell headlessly.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vcrobe/spashell/console"
	"github.com/vcrobe/spashell/settings"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	cfg    *settings.Settings
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spashell",
	Short: "Single-page application shell: dev server and headless runner",
	Long: `spashell loads the pages of a site in place: a persistent shell document
fetches its configuration once, then swaps each route's style, markup and
behavior into the page when a link is followed.

The serve command runs the development backend. The run command drives the
shell headlessly against a running backend. The probe command checks the
same flow in a real browser.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = settings.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err = console.NewLogger(level)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", settings.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(serveCmd, runCmd, probeCmd, configCmd, inboxCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
