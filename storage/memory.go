package storage

import (
	"context"
	"sync"
)

// Memory keeps the value in process. It can be switched unavailable and made
// to fail writes, which is how tests exercise the store's failure paths.
type Memory struct {
	mu          sync.Mutex
	data        []byte
	unavailable bool
	writeErr    error
	writes      int
}

func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryWith starts the medium with data already stored.
func NewMemoryWith(data []byte) *Memory {
	return &Memory{data: append([]byte(nil), data...)}
}

func (m *Memory) SetAvailable(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = !ok
}

// FailWrites makes every subsequent Write return err. Pass nil to recover.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Data returns a copy of the stored value.
func (m *Memory) Data() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil
	}
	return append([]byte(nil), m.data...)
}

// Writes counts successful writes.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Available(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return ErrUnavailable
	}
	return nil
}

func (m *Memory) Read(_ context.Context) ([]byte, error) {
	return m.Data(), nil
}

func (m *Memory) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data = append([]byte(nil), data...)
	m.writes++
	return nil
}
