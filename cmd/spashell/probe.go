package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vcrobe/spashell/loader"
)

var (
	probeURL      string
	probeClick    string
	probeBin      string
	probeHeadless bool
	probeTimeout  time.Duration
	probeDebugURL string
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check a running site in a real browser",
	Long: `Opens the site in Chrome, waits for the first page to be mounted,
optionally clicks a selector, and prints the address, the title and the
text of the content mount.

Example:
  spashell probe --url http://localhost:8080/ --click '#mainMenu a[href="about"]'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
		defer cancel()

		controlURL := probeDebugURL
		if controlURL == "" {
			launch := launcher.New().Headless(probeHeadless)
			if probeBin != "" {
				launch = launch.Bin(probeBin)
			}
			url, err := launch.Launch()
			if err != nil {
				return fmt.Errorf("launch chrome: %w", err)
			}
			defer launch.Cleanup()
			controlURL = url
		}

		browser := rod.New().ControlURL(controlURL).Context(ctx)
		if err := browser.Connect(); err != nil {
			return fmt.Errorf("connect to chrome: %w", err)
		}
		defer browser.Close()

		return probe(browser, probeURL, probeClick, cmd.OutOrStdout())
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeURL, "url", "http://localhost:8080/", "site address")
	probeCmd.Flags().StringVar(&probeClick, "click", "", "selector to click once the first page is mounted")
	probeCmd.Flags().StringVar(&probeBin, "bin", "", "browser binary (default: downloaded or system Chrome)")
	probeCmd.Flags().BoolVar(&probeHeadless, "headless", true, "run the browser without a window")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 30*time.Second, "overall deadline")
	probeCmd.Flags().StringVar(&probeDebugURL, "debugger-url", "", "attach to a running browser instead of launching one")
}

// mountedChild matches once the loader has put markup into the content mount.
var mountedChild = loader.DefaultMounts.Content + " > *"

func probe(browser *rod.Browser, url, click string, out io.Writer) error {
	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("load %s: %w", url, err)
	}
	if _, err := page.Element(mountedChild); err != nil {
		return fmt.Errorf("waiting for the first page: %w", err)
	}

	if click != "" {
		el, err := page.Element(click)
		if err != nil {
			return fmt.Errorf("element not found: %w", err)
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("click %s: %w", click, err)
		}
		if err := page.WaitStable(300 * time.Millisecond); err != nil {
			return fmt.Errorf("waiting for navigation: %w", err)
		}
		logger.Info("clicked", zap.String("selector", click))
	}

	info, err := page.Info()
	if err != nil {
		return fmt.Errorf("page info: %w", err)
	}
	content, err := page.Element(loader.DefaultMounts.Content)
	if err != nil {
		return fmt.Errorf("content mount: %w", err)
	}
	text, err := content.Text()
	if err != nil {
		return fmt.Errorf("content text: %w", err)
	}

	_, err = fmt.Fprintf(out, "address: %s\ntitle: %s\n\n%s\n", info.URL, info.Title, collapse(strings.TrimSpace(text)))
	return err
}
