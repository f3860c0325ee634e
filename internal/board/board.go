// Package board implements the ordered widget store: a record table and a
// z-key index kept in lock-step, with shift-on-conflict placement.
// See doc.go for complete package documentation.
package board

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dreamware/widgetboard/internal/logging"
	"github.com/dreamware/widgetboard/internal/storage"
	"github.com/dreamware/widgetboard/internal/widget"
	"github.com/dreamware/widgetboard/internal/zindex"
)

var (
	// ErrNotFound is returned when an operation targets an unknown widget id
	ErrNotFound = storage.ErrNotFound

	// ErrKeyConflict signals two widgets competing for one z-key.
	// Under the board's write lock it is unreachable; seeing it is a bug.
	ErrKeyConflict = zindex.ErrKeyConflict

	// ErrInvalidArgument is returned for malformed attributes or page parameters
	ErrInvalidArgument = widget.ErrInvalidArgument

	// ErrKeyOverflow is returned when a write would push a z-key past
	// math.MaxInt. It always also matches ErrInvalidArgument.
	ErrKeyOverflow = zindex.ErrKeyOverflow

	// ErrDuplicateID is returned when the id factory repeats an identifier
	ErrDuplicateID = errors.New("widget id already exists")

	// ErrInconsistent is returned when the record table and the z-key index disagree
	ErrInconsistent = errors.New("board invariant violated")
)

// Board is the ordered widget store.
//
// Every live widget has exactly one z-key, unique across the board, and the
// record table and the z-key index always describe the same set of widgets
// with the same keys.
//
// Concurrency Model:
//   - Writes (Create, Update, Delete) hold mu exclusively for their whole
//     sequence, including any shift, so no other caller sees partial state
//   - Reads (Get, List, ListPage, Verify) hold mu shared and observe a
//     consistent state; they run concurrently with each other
//   - Multi-step writes record undo steps and roll back on internal errors
//     before releasing the lock
type Board struct {
	mu    sync.RWMutex
	store storage.Store
	index *zindex.Index

	newID widget.IDFunc
	now   func() time.Time
	log   *slog.Logger

	stats counters
}

// Option configures a Board
type Option func(*Board)

// WithIDFunc sets the identifier factory, called exactly once per create
func WithIDFunc(fn widget.IDFunc) Option {
	return func(b *Board) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// WithClock sets the time source used for LastModified
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger sets the structured logger. Pass nil to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Board) {
		if logger == nil {
			logger = logging.Nop()
		}
		b.log = logger
	}
}

// WithStore replaces the default in-memory record table
func WithStore(s storage.Store) Option {
	return func(b *Board) {
		if s != nil {
			b.store = s
		}
	}
}

// New creates an empty board
func New(opts ...Option) *Board {
	b := &Board{
		store: storage.NewMemoryStore(),
		index: zindex.New(),
		newID: widget.NewID,
		now:   time.Now,
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Create adds a widget. With attrs.Z set, the widget is placed at that key
// and every widget at or above it moves up by one; otherwise it is placed in
// the foreground, one above the current top.
func (b *Board) Create(attrs widget.Attrs) (widget.Widget, error) {
	if err := attrs.Validate(); err != nil {
		return widget.Widget{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.newID()
	now := b.now()

	var (
		j       journal
		w       widget.Widget
		shifted int
		err     error
	)
	if attrs.HasZ() {
		w, shifted, err = b.insertAtKey(&j, id, attrs, now)
	} else {
		w, err = b.insertForeground(&j, id, attrs, now)
	}
	if err != nil {
		b.abort(&j, "create", id, err)
		return widget.Widget{}, err
	}

	b.stats.creates.Add(1)
	b.stats.shifted.Add(uint64(shifted))
	b.log.Debug("widget created", "id", w.ID, "z", w.Z, "shifted", shifted)
	return w, nil
}

// insertForeground allocates max+1 and stores the widget there. No other
// widget ever moves: the allocated key is above every bound key.
func (b *Board) insertForeground(j *journal, id uuid.UUID, attrs widget.Attrs, now time.Time) (widget.Widget, error) {
	key, err := b.index.AllocateForeground(id)
	if err != nil {
		return widget.Widget{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	j.record(func() { _, _ = b.index.Remove(key) })

	w := widget.New(id, attrs, now).WithZ(key)
	if err := b.create(j, w); err != nil {
		return widget.Widget{}, err
	}
	return w, nil
}

// insertAtKey frees attrs.Z by shifting the tail up, then stores the widget there
func (b *Board) insertAtKey(j *journal, id uuid.UUID, attrs widget.Attrs, now time.Time) (widget.Widget, int, error) {
	key := *attrs.Z

	shifted, err := b.shiftFrom(j, key)
	if err != nil {
		return widget.Widget{}, shifted, err
	}

	w := widget.New(id, attrs, now)
	if err := b.create(j, w); err != nil {
		return widget.Widget{}, shifted, err
	}
	if err := b.bind(j, key, id); err != nil {
		return widget.Widget{}, shifted, err
	}
	return w, shifted, nil
}

func (b *Board) create(j *journal, w widget.Widget) error {
	_, created, err := b.store.CreateIfAbsent(w.ID, func() widget.Widget { return w })
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("%w: %s", ErrDuplicateID, w.ID)
	}
	j.record(func() { _, _ = b.store.Remove(w.ID) })
	return nil
}

// shiftFrom moves every widget at key and above up by one, highest first.
// The top widget's destination (max+1) is free before the walk starts, and
// each move frees the slot the next widget down moves into.
// It returns the number of widgets moved.
func (b *Board) shiftFrom(j *journal, key int) (int, error) {
	ids, err := b.index.TailDescending(key)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	for n, id := range ids {
		cur, err := b.store.Get(id)
		if err != nil {
			return n, fmt.Errorf("%w: indexed widget missing: %v", ErrInconsistent, err)
		}
		if err := b.unbind(j, cur.Z, id); err != nil {
			return n, err
		}
		moved := cur.WithZ(cur.Z + 1)
		if err := b.bind(j, moved.Z, id); err != nil {
			return n, err
		}
		if err := b.replace(j, cur, moved); err != nil {
			return n, err
		}
	}
	if len(ids) > 0 {
		b.log.Debug("widgets shifted", "from", key, "count", len(ids))
	}
	return len(ids), nil
}

func (b *Board) bind(j *journal, key int, id uuid.UUID) error {
	if err := b.index.Insert(key, id); err != nil {
		return err
	}
	j.record(func() { _, _ = b.index.Remove(key) })
	return nil
}

func (b *Board) unbind(j *journal, key int, id uuid.UUID) error {
	if _, err := b.index.Remove(key); err != nil {
		return fmt.Errorf("%w: %v", ErrInconsistent, err)
	}
	j.record(func() { _ = b.index.Insert(key, id) })
	return nil
}

func (b *Board) replace(j *journal, prev, next widget.Widget) error {
	if err := b.store.Put(next); err != nil {
		return err
	}
	j.record(func() { _ = b.store.Put(prev) })
	return nil
}

// Update applies the supplied attributes to widget id. A z-key different
// from the current one moves the widget: its own key is released, the tail
// at the new key shifts up, and the widget is bound there. The other
// widgets end up exactly where a delete followed by an insert at the new key
// would have put them.
func (b *Board) Update(id uuid.UUID, attrs widget.Attrs) (widget.Widget, error) {
	if err := attrs.Validate(); err != nil {
		return widget.Widget{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cur, err := b.store.Get(id)
	if err != nil {
		return widget.Widget{}, err
	}
	now := b.now()

	if !attrs.HasZ() || *attrs.Z == cur.Z {
		updated, err := b.store.MutateIfPresent(id, func(c widget.Widget) (widget.Widget, error) {
			return c.Apply(attrs, now), nil
		})
		if err != nil {
			return widget.Widget{}, err
		}
		b.stats.updates.Add(1)
		b.log.Debug("widget updated", "id", id, "z", updated.Z)
		return updated, nil
	}

	var j journal
	updated, shifted, err := b.move(&j, cur, attrs, now)
	if err != nil {
		b.abort(&j, "update", id, err)
		return widget.Widget{}, err
	}

	b.stats.updates.Add(1)
	b.stats.shifted.Add(uint64(shifted))
	b.log.Debug("widget moved", "id", id, "from", cur.Z, "to", updated.Z, "shifted", shifted)
	return updated, nil
}

func (b *Board) move(j *journal, cur widget.Widget, attrs widget.Attrs, now time.Time) (widget.Widget, int, error) {
	key := *attrs.Z

	if err := b.unbind(j, cur.Z, cur.ID); err != nil {
		return widget.Widget{}, 0, err
	}
	shifted, err := b.shiftFrom(j, key)
	if err != nil {
		return widget.Widget{}, shifted, err
	}
	if err := b.bind(j, key, cur.ID); err != nil {
		return widget.Widget{}, shifted, err
	}

	updated := cur.Apply(attrs, now)
	if err := b.replace(j, cur, updated); err != nil {
		return widget.Widget{}, shifted, err
	}
	return updated, shifted, nil
}

// Delete removes widget id and frees its z-key
func (b *Board) Delete(id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	w, err := b.store.Remove(id)
	if err != nil {
		return err
	}

	var j journal
	j.record(func() { _ = b.store.Put(w) })
	if _, err := b.index.Remove(w.Z); err != nil {
		err = fmt.Errorf("%w: %v", ErrInconsistent, err)
		b.abort(&j, "delete", id, err)
		return err
	}

	b.stats.deletes.Add(1)
	b.log.Debug("widget deleted", "id", id, "z", w.Z)
	return nil
}

// Get returns widget id
func (b *Board) Get(id uuid.UUID) (widget.Widget, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.stats.gets.Add(1)
	return b.store.Get(id)
}

// List returns every widget in increasing z-key order
func (b *Board) List() []widget.Widget {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.ordered()
}

// ordered walks the index and resolves each id. Caller holds mu.
func (b *Board) ordered() []widget.Widget {
	ids := b.index.Ascending()
	widgets := make([]widget.Widget, 0, len(ids))
	for _, id := range ids {
		w, err := b.store.Get(id)
		if err != nil {
			b.log.Error("indexed widget missing from store", "id", id, "error", err)
			continue
		}
		widgets = append(widgets, w)
	}
	return widgets
}

// abort rolls back a failed write and reports it. Errors other than
// validation and lookup failures mean the two structures disagreed.
func (b *Board) abort(j *journal, op string, id uuid.UUID, err error) {
	undone := j.rollback()
	if errors.Is(err, ErrKeyConflict) || errors.Is(err, ErrInconsistent) {
		b.log.Error("invariant breach, write rolled back",
			"op", op,
			"id", id,
			"undone", undone,
			"error", err,
		)
		return
	}
	b.log.Warn("write rolled back", "op", op, "id", id, "undone", undone, "error", err)
}

// Verify checks that the record table and the z-key index describe the same
// widgets with the same keys. It returns the first disagreement found.
func (b *Board) Verify() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries := b.index.Entries()
	indexed := make(map[uuid.UUID]int, len(entries))
	for _, e := range entries {
		w, err := b.store.Get(e.ID)
		if err != nil {
			return fmt.Errorf("%w: key %d points at missing widget %s", ErrInconsistent, e.Key, e.ID)
		}
		if w.Z != e.Key {
			return fmt.Errorf("%w: widget %s stored at z=%d, indexed at %d", ErrInconsistent, e.ID, w.Z, e.Key)
		}
		indexed[e.ID] = e.Key
	}
	for _, id := range b.store.List() {
		if _, ok := indexed[id]; !ok {
			return fmt.Errorf("%w: widget %s has no z-key", ErrInconsistent, id)
		}
	}
	if n := b.index.Len(); n != len(indexed) {
		return fmt.Errorf("%w: %d keys bound to %d widgets", ErrInconsistent, n, len(indexed))
	}
	return nil
}
