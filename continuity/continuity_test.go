package continuity

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcrobe/spashell/runtime"
	"github.com/vcrobe/spashell/store"
)

// plainStorage hides store.Memory's Take so the Get+Remove path is used.
type plainStorage struct{ m *store.Memory }

func (p plainStorage) Get(k string) (string, bool, error) { return p.m.Get(k) }
func (p plainStorage) Set(k, v string) error              { return p.m.Set(k, v) }
func (p plainStorage) Remove(k string) error              { return p.m.Remove(k) }

func TestConsumePending_Once(t *testing.T) {
	cases := map[string]runtime.Storage{
		"taker": store.NewMemory(),
		"plain": plainStorage{m: store.NewMemory()},
	}
	for name, storage := range cases {
		t.Run(name, func(t *testing.T) {
			s := New(storage)
			require.NoError(t, s.SetPending("about"))
			require.NoError(t, s.SetPending("contacts"))

			route, ok, err := s.ConsumePending()
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "contacts", route)

			_, ok, err = s.ConsumePending()
			require.NoError(t, err)
			assert.False(t, ok, "second consume without SetPending yields empty")

			_, found, err := storage.Get(Key)
			require.NoError(t, err)
			assert.False(t, found, "slot is cleared")
		})
	}
}

// SetPending, process restart, ConsumePending yields the route exactly once.
func TestConsumePending_AcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shell.db")

	before, err := store.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, New(before).SetPending("contacts"))
	require.NoError(t, before.Close())

	after, err := store.OpenSQLite(path)
	require.NoError(t, err)
	defer after.Close()
	s := New(after)

	route, ok, err := s.ConsumePending()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "contacts", route)

	_, ok, err = s.ConsumePending()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInitialRoute(t *testing.T) {
	s := New(store.NewMemory())

	route, err := s.InitialRoute("home")
	require.NoError(t, err)
	assert.Equal(t, "home", route)

	require.NoError(t, s.SetPending("about"))
	route, err = s.InitialRoute("home")
	require.NoError(t, err)
	assert.Equal(t, "about", route)

	route, err = s.InitialRoute("home")
	require.NoError(t, err)
	assert.Equal(t, "home", route, "pending route is not replayed")
}

func TestConsumePending_EmptyValue(t *testing.T) {
	storage := store.NewMemory()
	require.NoError(t, storage.Set(Key, ""))

	_, ok, err := New(storage).ConsumePending()
	require.NoError(t, err)
	assert.False(t, ok)
}
