// Package store provides the key-value backends behind runtime.Storage.
package store

import (
	"errors"
	"sync"

	"github.com/vcrobe/spashell/runtime"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("store: closed")

// Taker is implemented by backends that can read and delete a key atomically.
type Taker interface {
	Take(key string) (value string, ok bool, err error)
}

var (
	_ runtime.Storage = (*Memory)(nil)
	_ Taker           = (*Memory)(nil)
)

// Memory is a process-local store. It does not survive a restart and is
// meant for tests and one-shot CLI runs.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Take(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	delete(m.data, key)
	return v, ok, nil
}
