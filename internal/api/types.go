// Package api defines the JSON wire types of the widgetd HTTP API and a
// small client for it.
package api

import (
	"fmt"
	"time"

	"github.com/dreamware/widgetboard/internal/board"
	"github.com/dreamware/widgetboard/internal/widget"
)

// Widget is the wire form of a widget; its JSON tags live on widget.Widget
type Widget = widget.Widget

// WidgetAttrs is the body of create and update requests
type WidgetAttrs = widget.Attrs

// PageResponse is the body of GET /api/widgets/page
type PageResponse struct {
	Content       []Widget `json:"content"`
	TotalElements int      `json:"totalElements"`
	TotalPages    int      `json:"totalPages"`
	Number        int      `json:"number"`
	Size          int      `json:"size"`
}

// NewPageResponse converts a board page to its wire form
func NewPageResponse(p board.Page) PageResponse {
	content := p.Items
	if content == nil {
		content = []Widget{}
	}
	return PageResponse{
		Content:       content,
		TotalElements: p.Total,
		TotalPages:    p.TotalPages,
		Number:        p.Number,
		Size:          p.Size,
	}
}

// InfoResponse is the body of GET /info
type InfoResponse struct {
	Stats      board.Stats `json:"stats"`
	Consistent bool        `json:"consistent"`
	Problem    string      `json:"problem,omitempty"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Details   string    `json:"details"`
}

// StatusError is returned by the client for non-2xx responses
type StatusError struct {
	Method string
	URL    string
	Status int
	Body   ErrorResponse
}

func (e *StatusError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("http %s %s: %d: %s", e.Method, e.URL, e.Status, e.Body.Message)
	}
	return fmt.Sprintf("http %s %s: %d", e.Method, e.URL, e.Status)
}
