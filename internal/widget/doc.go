// Package widget defines the widget record placed on the board and the
// presence-aware attribute set used to create and update it.
//
// # Records
//
// A Widget is a plain value. Its ID is assigned once at creation and never
// changes; position (X, Y), size (Width, Height), stacking key (Z) and
// LastModified may change over its lifetime.
//
// # Attributes
//
// Attrs carries optional fields as pointers. Merging is a field-by-field
// conditional copy:
//
//	w := widget.New(id, widget.Attrs{Width: widget.Int(10)}, now)
//	w = w.Apply(widget.Attrs{X: widget.Int(5)}, now) // only X changes
//
// Validate rejects negative position and size; the z-key may be any integer.
//
// The JSON names follow the public API ("x-index", "y-index", "z-index",
// "width", "height", "lastUpdatedAt").
package widget
