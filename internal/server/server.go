// Package server exposes a board over HTTP/JSON.
//
// Endpoints:
//
//	POST   /api/widgets          create (201)
//	GET    /api/widgets          list in z-order
//	GET    /api/widgets/page     one page: ?page=0&size=10
//	GET    /api/widgets/{id}     fetch
//	PUT    /api/widgets/{id}     update supplied attributes
//	DELETE /api/widgets/{id}     delete (204)
//	GET    /health               liveness
//	GET    /info                 board statistics
//
// Errors are JSON bodies of api.ErrorResponse. Unknown ids map to 404,
// malformed input to 400, anything else to 500.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/dreamware/widgetboard/internal/api"
	"github.com/dreamware/widgetboard/internal/board"
	"github.com/dreamware/widgetboard/internal/logging"
	"github.com/dreamware/widgetboard/internal/widget"
)

// maxBodyBytes caps request bodies; attribute payloads are tiny
const maxBodyBytes = 1 << 20

// Options tunes the HTTP layer
type Options struct {
	DefaultPageSize int     // page size when ?size is absent
	MaxPageSize     int     // larger ?size is rejected with 400
	RateLimit       float64 // requests per second across all clients; 0 disables
	RateBurst       int     // token bucket depth when RateLimit is set
}

// DefaultOptions matches the public API defaults
func DefaultOptions() Options {
	return Options{DefaultPageSize: 10, MaxPageSize: 500}
}

// Server serves the widget API for one board
type Server struct {
	board   *board.Board
	opts    Options
	log     *slog.Logger
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates a server for b. A nil logger disables logging.
func New(b *board.Board, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = DefaultOptions().DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = DefaultOptions().MaxPageSize
	}

	s := &Server{board: b, opts: opts, log: logger, now: time.Now}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(opts.RateBurst, 1))
	}
	return s
}

// Handler returns the routed, instrumented handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /info", s.handleInfo)

	mux.HandleFunc("POST /api/widgets", s.handleCreate)
	mux.HandleFunc("GET /api/widgets", s.handleList)
	mux.HandleFunc("GET /api/widgets/page", s.handlePage)
	mux.HandleFunc("GET /api/widgets/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/widgets/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/widgets/{id}", s.handleDelete)

	var h http.Handler = mux
	if s.limiter != nil {
		h = s.rateLimit(h)
	}
	return s.logRequests(h)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	attrs, err := decodeAttrs(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.board.Create(attrs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := widget.ParseID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	attrs, err := decodeAttrs(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.board.Update(id, attrs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := widget.ParseID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	found, err := s.board.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, found)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := widget.ParseID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.board.Delete(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.board.List())
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	size, err := queryInt(r, "size", s.opts.DefaultPageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if size > s.opts.MaxPageSize {
		s.writeError(w, r, fmt.Errorf("%w: page size %d exceeds %d", widget.ErrInvalidArgument, size, s.opts.MaxPageSize))
		return
	}

	p, err := s.board.ListPage(page, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.NewPageResponse(p))
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	info := api.InfoResponse{Stats: s.board.Stats(), Consistent: true}
	if err := s.board.Verify(); err != nil {
		info.Consistent = false
		info.Problem = err.Error()
	}
	s.writeJSON(w, http.StatusOK, info)
}

// decodeAttrs reads a partial attribute body. An empty body means no attributes.
func decodeAttrs(w http.ResponseWriter, r *http.Request) (widget.Attrs, error) {
	var attrs widget.Attrs
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&attrs)
	if err != nil && !errors.Is(err, io.EOF) {
		return widget.Attrs{}, fmt.Errorf("%w: malformed body: %v", widget.ErrInvalidArgument, err)
	}
	return attrs, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", widget.ErrInvalidArgument, name, v)
	}
	return n, nil
}

// statusFor maps board errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, board.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, api.ErrorResponse{
		Timestamp: s.now(),
		Message:   err.Error(),
		Details:   "uri=" + r.URL.RequestURI(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("error writing response", "error", err)
	}
}
