//go:build js && wasm

// Command spashell-wasm is the shell compiled for the browser. The page
// loads it with wasm_exec.js; it bootstraps against the origin that
// served it and then lives as long as the tab.
package main

import (
	"context"
	"strings"
	"syscall/js"

	"go.uber.org/zap"

	"github.com/vcrobe/spashell/browser"
	"github.com/vcrobe/spashell/console"
	"github.com/vcrobe/spashell/shell"
	"github.com/vcrobe/spashell/site"
)

func main() {
	location := js.Global().Get("location")
	origin := location.Get("origin").String()

	logger, err := console.NewLogger(logLevel())
	if err != nil {
		panic("creating logger: " + err.Error())
	}

	// 1. Wire the shell to the live page
	app, err := shell.New(browser.Env(), shell.Config{
		APIBase:   origin + "/api",
		PagesBase: origin + "/pages",
	}, site.Registry(), logger)
	if err != nil {
		panic("creating shell: " + err.Error())
	}

	// 2. Boot. A failure already shows the error view, so only log it.
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		logger.Error("boot failed", zap.Error(err))
	}

	// 3. Follow fragment changes when the dev server offers a reload socket
	go func() {
		if err := app.LiveReload(ctx, reloadURL(location)); err != nil {
			logger.Debug("live reload unavailable", zap.Error(err))
		}
	}()

	// Keep the Go program running
	select {}
}

// logLevel reads data-log-level from the html element, "info" by default.
func logLevel() string {
	root := js.Global().Get("document").Get("documentElement")
	if v := root.Call("getAttribute", "data-log-level"); !v.IsNull() {
		return v.String()
	}
	return "info"
}

func reloadURL(location js.Value) string {
	scheme := "ws://"
	if strings.HasPrefix(location.Get("protocol").String(), "https") {
		scheme = "wss://"
	}
	return scheme + location.Get("host").String() + shell.ReloadPath
}
