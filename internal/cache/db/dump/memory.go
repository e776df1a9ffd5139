package dump

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is a Storage kept in process memory. It round-trips through JSON
// so it observes exactly what File would persist.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Location() string { return "memory" }

func (m *Memory) Write(s Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode cache snapshot: %w", err)
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Read() (Snapshot, error) {
	m.mu.Lock()
	data := m.data
	m.mu.Unlock()

	if data == nil {
		return Snapshot{}, ErrNoDump
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode cache snapshot: %w", err)
	}
	return s, nil
}

func (m *Memory) Remove() error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}

// Raw exposes the last written document.
func (m *Memory) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data
}

// SetRaw replaces the stored document, e.g. to simulate corruption.
func (m *Memory) SetRaw(data []byte) {
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
}
