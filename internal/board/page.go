package board

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/dreamware/widgetboard/internal/widget"
)

// Page is one slice of the z-ordered listing
type Page struct {
	Items      []widget.Widget // Widgets on this page, in z-order
	Number     int             // Zero-based page index
	Size       int             // Requested page size
	Total      int             // Live widgets when the page was taken
	TotalPages int             // ceil(Total / Size)
}

// ListPage returns page number page of the z-ordered listing, size widgets
// per page. A page past the end has no items but still reports Total.
func (b *Board) ListPage(page, size int) (Page, error) {
	if size <= 0 {
		return Page{}, fmt.Errorf("%w: page size %d must be positive", ErrInvalidArgument, size)
	}
	if page < 0 {
		return Page{}, fmt.Errorf("%w: page %d must not be negative", ErrInvalidArgument, page)
	}

	b.mu.RLock()
	all := b.ordered()
	b.mu.RUnlock()

	return Page{
		Items:      paginate(all, page, size),
		Number:     page,
		Size:       size,
		Total:      len(all),
		TotalPages: pageCount(len(all), size),
	}, nil
}

func pageCount(total, size int) int {
	if total == 0 {
		return 0
	}
	return (total-1)/size + 1
}

// paginate returns a copy of the page-th run of size items.
// page and size must be validated by the caller.
func paginate[T any](items []T, page, size int) []T {
	if page >= pageCount(len(items), size) {
		return []T{}
	}
	start := page * size
	end := min(start+size, len(items))
	return slices.Clone(items[start:end])
}
