package shell

import (
	"context"
	"errors"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

const (
	// ReloadAll in a change notice matches every route.
	ReloadAll = "*"
	// ReloadPath is where the dev server accepts live reload sockets.
	ReloadPath = "/ws/reload"
)

// Change is the notice the dev server sends when a route's fragments change.
type Change struct {
	Route string `json:"route"`
}

// LiveReload listens on the dev server's reload socket at url and reloads
// the current route whenever its fragments change. It returns when ctx is
// done or the server closes the socket.
func (a *AppShell) LiveReload(ctx context.Context, url string) error {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("live reload: dial %s: %w", url, err)
	}
	defer conn.CloseNow()

	a.logger.Info("live reload connected", zap.String("url", url))
	for {
		var change Change
		if err := wsjson.Read(ctx, conn, &change); err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("live reload: %w", err)
		}
		a.reloadIfCurrent(change.Route)
	}
}

func (a *AppShell) reloadIfCurrent(changed string) {
	r := a.Router()
	if r == nil {
		return
	}
	current := r.Current()
	if current == "" || (changed != ReloadAll && changed != current) {
		return
	}
	a.logger.Info("fragments changed, reloading", zap.String("route", current))
	r.Go(current)
}
