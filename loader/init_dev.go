//go:build dev

package loader

import (
	"context"

	"github.com/vcrobe/spashell/runtime"
)

// callInit runs a behavior in development mode.
// Panics propagate to aid debugging and fast failure.
func (l *Loader) callInit(ctx context.Context, b Behavior, page *runtime.PageBase) error {
	return b.Init(ctx, page)
}
