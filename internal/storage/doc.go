// Package storage holds the widget records of the board, keyed by widget id,
// and provides the atomic create-if-absent and read-modify-write primitives
// the board builds its multi-step writes on.
//
// # Overview
//
// The storage package is the entity table half of the board. It knows
// nothing about stacking order: z-keys are plain fields on the records it
// stores. Keeping the z-key field and the order index in agreement is the
// board's job (see internal/board).
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│            Board                     │
//	│   (shift, insert, update, delete)    │
//	└─────────────────────────────────────┘
//	         │                    │
//	         ▼                    ▼
//	┌─────────────────┐  ┌─────────────────┐
//	│  storage.Store  │  │  zindex.Index   │
//	│  id → Widget    │  │  z-key → id     │
//	└─────────────────┘  └─────────────────┘
//
// # Core Interface
//
// Store: widget record operations
//   - Get(id) - Retrieve a record
//   - CreateIfAbsent(id, factory) - Create only when id is new
//   - MutateIfPresent(id, fn) - Compute and atomically replace a record
//   - Put(w) - Unconditional replace, used by the shift and by rollback
//   - Remove(id) - Delete and return a record
//   - List() - All ids, unordered
//   - Stats() - Record count
//
// # Value Semantics
//
// Records are stored and returned by value. A caller never holds a pointer
// into the table, so a record cannot change underneath a reader. Updates
// compute a new value from the current one and replace it whole:
//
//	updated, err := store.MutateIfPresent(id, func(cur widget.Widget) (widget.Widget, error) {
//	    return cur.Apply(attrs, time.Now()), nil
//	})
//
// If fn returns an error the stored record is left as it was.
//
// # Concurrency and Thread Safety
//
// Locking Strategy:
//   - Read operations use shared locks (RLock)
//   - Write operations use exclusive locks (Lock)
//   - CreateIfAbsent and MutateIfPresent run their callback under the write
//     lock; callbacks must not call back into the store
//
// Consistency Guarantees:
//   - Each call is atomic for its single record
//   - No guarantees across several records; the board serialises
//     multi-record writes with its own lock
//
// # Error Handling
//
// ErrNotFound: the id doesn't exist
//   - Returned by Get, MutateIfPresent and Remove
//   - Wrapped with the id; match with errors.Is
//
// # Memory Management
//
// All records live on the heap with no eviction. State is volatile and lost
// when the process exits.
package storage
