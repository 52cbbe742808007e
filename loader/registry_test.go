package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vcrobe/spashell/runtime"
)

func noop(context.Context, *runtime.PageBase) error { return nil }

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("home", BehaviorFunc(noop))
	reg.Register("about", BehaviorFunc(noop))

	_, ok := reg.Lookup("home")
	assert.True(t, ok)
	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"about", "home"}, reg.Routes())

	assert.Panics(t, func() { reg.Register("home", BehaviorFunc(noop)) })
	assert.Panics(t, func() { reg.Register("nil", nil) })
}

func TestRegistry_NilLookup(t *testing.T) {
	var reg *Registry
	_, ok := reg.Lookup("home")
	assert.False(t, ok)
}
