// Package board implements the ordered widget store behind the widgetboard
// service.
//
// # Overview
//
// A board is a shared plane of rectangular widgets. Each widget carries a
// unique integer z-key that defines its stacking position: lower keys are
// farther back, the highest key is the foreground. The board composes two
// structures and keeps them in lock-step:
//
//	┌─────────────────────────────────────────┐
//	│                Board                     │
//	├─────────────────────────────────────────┤
//	│  storage.Store   id → Widget (by value)  │
//	│  zindex.Index    z-key → id (B-tree)     │
//	├─────────────────────────────────────────┤
//	│  mu: RWMutex, exclusive for all writes   │
//	└─────────────────────────────────────────┘
//
// Invariant, before and after every operation:
//   - the ids in the store and the ids in the index are the same set
//   - for every widget, the Z field of its record equals the key it is
//     bound to in the index
//
// # Placement
//
// Create without a z-key places the widget in the foreground (max+1, or 0 on
// an empty board). No other widget moves.
//
// Create with z-key k shifts first: every widget at k and above moves up by
// one, highest key first, then the new widget is bound at k. Given widgets
// {2:A, 3:B, 4:C}, creating D at 2 yields {2:D, 3:A, 4:B, 5:C}. If k is free
// nothing moves.
//
// Update with a new z-key k releases the widget's own key, shifts the tail at
// k, and binds the widget at k. Other widgets end up exactly where a delete
// followed by a create at k would leave them; the moved widget keeps its id.
//
// Delete frees the widget's key. Freed keys are not compacted: gaps stay
// until a later explicit placement reuses them.
//
// # Concurrency
//
// All writes hold the board's write lock for their full sequence, so a shift
// is never observed half done and two foreground creates never receive the
// same key. Reads hold the read lock and see a consistent board. Operations
// never block on anything but the lock and run in time proportional to the
// number of widgets shifted.
//
// # Errors
//
//   - ErrNotFound: unknown widget id (Get, Update, Delete)
//   - ErrInvalidArgument: negative position or size, bad page parameters
//   - ErrKeyOverflow: a key would move past math.MaxInt; also matches
//     ErrInvalidArgument and leaves the board unchanged
//   - ErrKeyConflict, ErrInconsistent: the store and index disagreed; the
//     write is rolled back before the lock is released and the breach is
//     logged at error level. These indicate a bug, not a user error.
//   - ErrDuplicateID: the injected id factory repeated an id
//
// # Usage
//
//	b := board.New(board.WithLogger(logger))
//	back, _ := b.Create(widget.Attrs{Width: widget.Int(100), Height: widget.Int(50)})
//	front, _ := b.Create(widget.Attrs{})
//	_, _ = b.Update(front.ID, widget.Attrs{Z: widget.Int(back.Z)}) // front takes back's key, back moves up one
//	page, _ := b.ListPage(0, 10)
package board
