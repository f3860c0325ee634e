package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dreamware/widgetboard/internal/widget"
)

// ErrNotFound is returned when a widget id doesn't exist in the store
var ErrNotFound = errors.New("widget not found")

// MutateFunc computes the replacement for an existing record.
// Returning an error leaves the stored record untouched.
type MutateFunc func(current widget.Widget) (widget.Widget, error)

// Store defines the interface for widget record storage
// All implementations must be thread-safe for concurrent access
type Store interface {
	// Get retrieves a widget by id
	// Returns ErrNotFound if the id doesn't exist
	Get(id uuid.UUID) (widget.Widget, error)

	// CreateIfAbsent stores the record built by factory only if id is absent
	// Returns the stored record and whether it was created by this call
	CreateIfAbsent(id uuid.UUID, factory func() widget.Widget) (widget.Widget, bool, error)

	// MutateIfPresent atomically replaces the record with fn's result
	// Returns ErrNotFound if the id doesn't exist
	MutateIfPresent(id uuid.UUID, fn MutateFunc) (widget.Widget, error)

	// Put stores the record under its own id, overwriting any existing one
	Put(w widget.Widget) error

	// Remove deletes a record and returns it
	// Returns ErrNotFound if the id doesn't exist
	Remove(id uuid.UUID) (widget.Widget, error)

	// List returns all ids in the store
	// Order is not guaranteed
	List() []uuid.UUID

	// Stats returns storage statistics
	Stats() StoreStats
}

// StoreStats contains statistics about the store
type StoreStats struct {
	Widgets int `json:"widgets"` // Number of stored records
}

// MemoryStore implements Store interface with in-memory storage
// Uses sync.RWMutex for thread-safe concurrent access
type MemoryStore struct {
	mu   sync.RWMutex                // Protects concurrent access
	data map[uuid.UUID]widget.Widget // Records by id, held by value
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[uuid.UUID]widget.Widget),
	}
}

// Get retrieves a widget by id
// Records are values, so the caller gets its own copy
func (m *MemoryStore) Get(id uuid.UUID) (widget.Widget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, exists := m.data[id]
	if !exists {
		return widget.Widget{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return w, nil
}

// CreateIfAbsent stores factory's record under id unless one already exists
// The factory runs under the write lock and only when id is absent
func (m *MemoryStore) CreateIfAbsent(id uuid.UUID, factory func() widget.Widget) (widget.Widget, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.data[id]; exists {
		return existing, false, nil
	}

	w := factory()
	if w.ID != id {
		return widget.Widget{}, false, fmt.Errorf("storage: factory built %s for id %s", w.ID, id)
	}
	m.data[id] = w
	return w, true, nil
}

// MutateIfPresent computes a new record from the current one and replaces it
// The read, compute and write happen under one write lock
func (m *MemoryStore) MutateIfPresent(id uuid.UUID, fn MutateFunc) (widget.Widget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.data[id]
	if !exists {
		return widget.Widget{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next, err := fn(current)
	if err != nil {
		return widget.Widget{}, err
	}
	if next.ID != id {
		return widget.Widget{}, fmt.Errorf("storage: mutation changed id %s to %s", id, next.ID)
	}
	m.data[id] = next
	return next, nil
}

// Put stores the record under its own id
func (m *MemoryStore) Put(w widget.Widget) error {
	if w.ID == uuid.Nil {
		return fmt.Errorf("storage: refusing to store widget with nil id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[w.ID] = w
	return nil
}

// Remove deletes the record for id and returns it
func (m *MemoryStore) Remove(id uuid.UUID) (widget.Widget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, exists := m.data[id]
	if !exists {
		return widget.Widget{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.data, id)
	return w, nil
}

// List returns all ids in the store
func (m *MemoryStore) List() []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids
}

// Stats returns storage statistics
func (m *MemoryStore) Stats() StoreStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return StoreStats{
		Widgets: len(m.data),
	}
}
