package widget

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidArgument is returned when attributes or paging parameters are malformed
var ErrInvalidArgument = errors.New("invalid argument")

// IDFunc produces the identifier for a new widget.
// It is invoked exactly once per create.
type IDFunc func() uuid.UUID

// NewID is the default IDFunc backed by random (v4) UUIDs
func NewID() uuid.UUID {
	return uuid.New()
}

// ParseID parses the textual form of a widget identifier
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: widget id %q", ErrInvalidArgument, s)
	}
	return id, nil
}

// Widget is a rectangle placed on the shared plane.
// Widgets are values: the store hands out copies and replaces records whole.
type Widget struct {
	ID           uuid.UUID `json:"id"`
	X            int       `json:"x-index"`
	Y            int       `json:"y-index"`
	Z            int       `json:"z-index"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	LastModified time.Time `json:"lastUpdatedAt"`
}

// Attrs is a presence-aware set of widget attributes.
// A nil field means "not supplied": it is left untouched on update and
// defaulted to zero on create.
type Attrs struct {
	X      *int `json:"x-index,omitempty"`
	Y      *int `json:"y-index,omitempty"`
	Z      *int `json:"z-index,omitempty"`
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
}

// Int returns a pointer to v, for building Attrs literals
func Int(v int) *int {
	return &v
}

// HasZ reports whether the attributes carry an explicit z-key
func (a Attrs) HasZ() bool {
	return a.Z != nil
}

// Validate checks the supplied fields.
// Position and size must not be negative; the z-key may be any integer.
func (a Attrs) Validate() error {
	if a.X != nil && *a.X < 0 {
		return fmt.Errorf("%w: x %d is negative", ErrInvalidArgument, *a.X)
	}
	if a.Y != nil && *a.Y < 0 {
		return fmt.Errorf("%w: y %d is negative", ErrInvalidArgument, *a.Y)
	}
	if a.Width != nil && *a.Width < 0 {
		return fmt.Errorf("%w: width %d is negative", ErrInvalidArgument, *a.Width)
	}
	if a.Height != nil && *a.Height < 0 {
		return fmt.Errorf("%w: height %d is negative", ErrInvalidArgument, *a.Height)
	}
	return nil
}

// New builds a widget record from attrs. Absent fields default to zero.
// The caller decides the z-key separately when attrs carries none.
func New(id uuid.UUID, attrs Attrs, now time.Time) Widget {
	w := Widget{ID: id, LastModified: now}
	return w.merge(attrs)
}

// Apply returns a copy of w with every supplied field of attrs assigned and
// LastModified set to now. The receiver is not modified.
func (w Widget) Apply(attrs Attrs, now time.Time) Widget {
	out := w.merge(attrs)
	out.LastModified = now
	return out
}

// WithZ returns a copy of w stacked at z
func (w Widget) WithZ(z int) Widget {
	w.Z = z
	return w
}

func (w Widget) merge(attrs Attrs) Widget {
	if attrs.X != nil {
		w.X = *attrs.X
	}
	if attrs.Y != nil {
		w.Y = *attrs.Y
	}
	if attrs.Z != nil {
		w.Z = *attrs.Z
	}
	if attrs.Width != nil {
		w.Width = *attrs.Width
	}
	if attrs.Height != nil {
		w.Height = *attrs.Height
	}
	return w
}
