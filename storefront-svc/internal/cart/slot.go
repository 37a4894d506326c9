package cart

import (
	"context"
	"fmt"
	"sync"
)

// SlotKey is the fixed name of the persistence slot holding the active cart.
const SlotKey = "qsr_cart"

// Slot is a single key-value entry scoped to one browsing session. Read
// reports ok=false when nothing is stored.
type Slot interface {
	Read(ctx context.Context) (payload []byte, ok bool, err error)
	Write(ctx context.Context, payload []byte) error
	Delete(ctx context.Context) error
}

// PersistenceReadFailure wraps a slot that could not be read or decoded.
type PersistenceReadFailure struct {
	Err error
}

func (e *PersistenceReadFailure) Error() string {
	return fmt.Sprintf("read persisted cart: %v", e.Err)
}

func (e *PersistenceReadFailure) Unwrap() error {
	return e.Err
}

// MemorySlot keeps the payload in process memory.
type MemorySlot struct {
	mu      sync.Mutex
	payload []byte
	ok      bool
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Read(ctx context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ok {
		return nil, false, nil
	}
	out := make([]byte, len(m.payload))
	copy(out, m.payload)
	return out, true, nil
}

func (m *MemorySlot) Write(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = make([]byte, len(payload))
	copy(m.payload, payload)
	m.ok = true
	return nil
}

func (m *MemorySlot) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = nil
	m.ok = false
	return nil
}

var _ Slot = (*MemorySlot)(nil)
