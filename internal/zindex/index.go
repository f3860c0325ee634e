// Package zindex keeps the ordered, unique binding between stacking keys
// (z-keys) and widget ids.
package zindex

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/btree"
	"github.com/google/uuid"
)

var (
	// ErrKeyConflict is returned when binding a z-key that is already bound
	ErrKeyConflict = errors.New("z-key already bound")

	// ErrKeyNotFound is returned when unbinding a z-key that is not bound
	ErrKeyNotFound = errors.New("z-key not bound")

	// ErrKeyOverflow is returned when a key would have to move above math.MaxInt
	ErrKeyOverflow = errors.New("z-key out of range")
)

// degree of the backing B-tree; the index is small and mostly walked in order
const degree = 16

// Entry is a single z-key binding
type Entry struct {
	Key int
	ID  uuid.UUID
}

func lessEntry(a, b Entry) bool {
	return a.Key < b.Key
}

// Index is an ordered, unique-key map from z-key to widget id.
//
// Concurrency Model:
//   - Read operations use RLock for parallel access
//   - Write operations use Lock for exclusive access
//   - Returned slices are fresh copies
//
// Index only guarantees atomicity of each single call. Callers that rewrite
// several bindings as one unit (the shift) must serialise those sequences
// themselves.
type Index struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[Entry]
}

// New creates an empty index
func New() *Index {
	return &Index{
		tree: btree.NewG[Entry](degree, lessEntry),
	}
}

// AllocateForeground binds id one above the current maximum key (0 when the
// index is empty) and returns that key. Allocation and binding happen under
// one lock, so concurrent callers never receive the same key. Returns
// ErrKeyOverflow when the maximum is already math.MaxInt.
func (x *Index) AllocateForeground(id uuid.UUID) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	key := 0
	if top, ok := x.tree.Max(); ok {
		if top.Key == math.MaxInt {
			return 0, fmt.Errorf("%w: no key above %d", ErrKeyOverflow, top.Key)
		}
		key = top.Key + 1
	}
	x.tree.ReplaceOrInsert(Entry{Key: key, ID: id})
	return key, nil
}

// Insert binds key to id. Returns ErrKeyConflict if key is already bound.
func (x *Index) Insert(key int, id uuid.UUID) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if existing, ok := x.tree.Get(Entry{Key: key}); ok {
		return fmt.Errorf("%w: key %d held by %s", ErrKeyConflict, key, existing.ID)
	}
	x.tree.ReplaceOrInsert(Entry{Key: key, ID: id})
	return nil
}

// Remove unbinds key and returns the id it was bound to.
// Returns ErrKeyNotFound if key is not bound.
func (x *Index) Remove(key int) (uuid.UUID, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	removed, ok := x.tree.Delete(Entry{Key: key})
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: key %d", ErrKeyNotFound, key)
	}
	return removed.ID, nil
}

// TailDescending returns the ids bound at key and above, highest key first.
// The result is empty when key itself is not bound: nothing needs to move
// to make room at a free key. Returns ErrKeyOverflow when the tail reaches
// math.MaxInt, since its top widget could not move up.
func (x *Index) TailDescending(key int) ([]uuid.UUID, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if !x.tree.Has(Entry{Key: key}) {
		return nil, nil
	}
	if top, _ := x.tree.Max(); top.Key == math.MaxInt {
		return nil, fmt.Errorf("%w: key %d cannot shift up", ErrKeyOverflow, top.Key)
	}

	var ids []uuid.UUID
	x.tree.Descend(func(e Entry) bool {
		if e.Key < key {
			return false
		}
		ids = append(ids, e.ID)
		return true
	})
	return ids, nil
}

// Ascending returns every bound id in increasing key order
func (x *Index) Ascending() []uuid.UUID {
	x.mu.RLock()
	defer x.mu.RUnlock()

	ids := make([]uuid.UUID, 0, x.tree.Len())
	x.tree.Ascend(func(e Entry) bool {
		ids = append(ids, e.ID)
		return true
	})
	return ids
}

// Entries returns every binding in increasing key order
func (x *Index) Entries() []Entry {
	x.mu.RLock()
	defer x.mu.RUnlock()

	entries := make([]Entry, 0, x.tree.Len())
	x.tree.Ascend(func(e Entry) bool {
		entries = append(entries, e)
		return true
	})
	return entries
}

// Len returns the number of bound keys
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.tree.Len()
}
