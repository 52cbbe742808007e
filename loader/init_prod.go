//go:build !dev

package loader

import (
	"context"
	"fmt"

	"github.com/vcrobe/spashell/runtime"
)

// callInit runs a behavior in production mode.
// Panics are recovered and reported as errors so one broken page cannot take
// the shell down.
func (l *Loader) callInit(ctx context.Context, b Behavior, page *runtime.PageBase) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("behavior for %q panicked: %v", page.Route(), rec)
		}
	}()
	return b.Init(ctx, page)
}
