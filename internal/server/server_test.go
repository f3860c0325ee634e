package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dreamware/widgetboard/internal/api"
	"github.com/dreamware/widgetboard/internal/board"
	"github.com/dreamware/widgetboard/internal/widget"
)

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *board.Board) {
	t.Helper()
	b := board.New()
	ts := httptest.NewServer(New(b, opts, nil).Handler())
	t.Cleanup(ts.Close)
	return ts, b
}

func request(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// TestCreateAndGet tests POST then GET of one widget
func TestCreateAndGet(t *testing.T) {
	ts, _ := newTestServer(t, DefaultOptions())

	resp := request(t, http.MethodPost, ts.URL+"/api/widgets", `{"x-index":1,"y-index":2,"width":3,"height":4}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	created := decode[widget.Widget](t, resp)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, 1, created.X)
	assert.Equal(t, 2, created.Y)
	assert.Equal(t, 0, created.Z)

	resp = request(t, http.MethodGet, ts.URL+"/api/widgets/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, decode[widget.Widget](t, resp).ID)
}

// TestCreateEmptyBody tests that a missing body creates a default widget
func TestCreateEmptyBody(t *testing.T) {
	ts, _ := newTestServer(t, DefaultOptions())

	resp := request(t, http.MethodPost, ts.URL+"/api/widgets", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	w := decode[widget.Widget](t, resp)
	assert.Equal(t, 0, w.Z)
	assert.Equal(t, 0, w.Width)
}

// TestErrorMapping tests status codes and error bodies
func TestErrorMapping(t *testing.T) {
	ts, _ := newTestServer(t, DefaultOptions())
	missing := uuid.New().String()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "get unknown", method: http.MethodGet, path: "/api/widgets/" + missing, status: http.StatusNotFound},
		{name: "update unknown", method: http.MethodPut, path: "/api/widgets/" + missing, body: `{"width":1}`, status: http.StatusNotFound},
		{name: "delete unknown", method: http.MethodDelete, path: "/api/widgets/" + missing, status: http.StatusNotFound},
		{name: "bad id", method: http.MethodGet, path: "/api/widgets/not-a-uuid", status: http.StatusBadRequest},
		{name: "bad json", method: http.MethodPost, path: "/api/widgets", body: `{"width":`, status: http.StatusBadRequest},
		{name: "wrong type", method: http.MethodPost, path: "/api/widgets", body: `{"width":"wide"}`, status: http.StatusBadRequest},
		{name: "negative size", method: http.MethodPost, path: "/api/widgets", body: `{"height":-1}`, status: http.StatusBadRequest},
		{name: "negative position", method: http.MethodPost, path: "/api/widgets", body: `{"x-index":-5}`, status: http.StatusBadRequest},
		{name: "page size too large", method: http.MethodGet, path: "/api/widgets/page?size=501", status: http.StatusBadRequest},
		{name: "page size zero", method: http.MethodGet, path: "/api/widgets/page?size=0", status: http.StatusBadRequest},
		{name: "negative page", method: http.MethodGet, path: "/api/widgets/page?page=-1", status: http.StatusBadRequest},
		{name: "page not a number", method: http.MethodGet, path: "/api/widgets/page?page=two", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := request(t, tt.method, ts.URL+tt.path, tt.body)
			require.Equal(t, tt.status, resp.StatusCode)

			body := decode[api.ErrorResponse](t, resp)
			assert.NotEmpty(t, body.Message)
			assert.False(t, body.Timestamp.IsZero())
			assert.True(t, strings.HasPrefix(body.Details, "uri=/"), body.Details)
		})
	}
}

// TestKeyOverflowIsBadRequest tests that a write past the largest z-key is rejected
func TestKeyOverflowIsBadRequest(t *testing.T) {
	ts, b := newTestServer(t, DefaultOptions())

	resp := request(t, http.MethodPost, ts.URL+"/api/widgets", fmt.Sprintf(`{"z-index":%d}`, math.MaxInt))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = request(t, http.MethodPost, ts.URL+"/api/widgets", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = request(t, http.MethodPost, ts.URL+"/api/widgets", fmt.Sprintf(`{"z-index":%d}`, math.MaxInt))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Len(t, b.List(), 1)
	assert.NoError(t, b.Verify())
}

// TestStatusFor tests the error to status mapping directly
func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("wrap: %w", board.ErrNotFound)))
	assert.Equal(t, http.StatusBadRequest, statusFor(board.ErrInvalidArgument))
	assert.Equal(t, http.StatusInternalServerError, statusFor(board.ErrKeyConflict))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("%w: %w", board.ErrInvalidArgument, board.ErrKeyOverflow)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

// TestUpdateShiftsOverHTTP tests that moving a widget onto an occupied key
// pushes the occupant up
func TestUpdateShiftsOverHTTP(t *testing.T) {
	ts, b := newTestServer(t, DefaultOptions())

	first, err := b.Create(widget.Attrs{})
	require.NoError(t, err)
	second, err := b.Create(widget.Attrs{})
	require.NoError(t, err)
	require.Equal(t, 1, second.Z)

	resp := request(t, http.MethodPut, ts.URL+"/api/widgets/"+second.ID.String(), `{"z-index":0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decode[widget.Widget](t, resp).Z)

	got, err := b.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Z)
}

// TestDelete tests 204 then 404
func TestDelete(t *testing.T) {
	ts, b := newTestServer(t, DefaultOptions())
	w, err := b.Create(widget.Attrs{})
	require.NoError(t, err)

	resp := request(t, http.MethodDelete, ts.URL+"/api/widgets/"+w.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = request(t, http.MethodGet, ts.URL+"/api/widgets/"+w.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestListAndPage tests ordering and page envelopes
func TestListAndPage(t *testing.T) {
	ts, b := newTestServer(t, Options{DefaultPageSize: 2, MaxPageSize: 10})
	for z := 4; z >= 0; z-- {
		_, err := b.Create(widget.Attrs{Z: widget.Int(z * 10)})
		require.NoError(t, err)
	}

	resp := request(t, http.MethodGet, ts.URL+"/api/widgets", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[[]widget.Widget](t, resp)
	require.Len(t, all, 5)
	for i, w := range all {
		assert.Equal(t, i*10, w.Z)
	}

	tests := []struct {
		query     string
		number    int
		size      int
		wantZ     []int
		wantPages int
	}{
		{query: "", number: 0, size: 2, wantZ: []int{0, 10}, wantPages: 3},
		{query: "?page=2", number: 2, size: 2, wantZ: []int{40}, wantPages: 3},
		{query: "?page=1&size=3", number: 1, size: 3, wantZ: []int{30, 40}, wantPages: 2},
		{query: "?page=9&size=10", number: 9, size: 10, wantZ: []int{}, wantPages: 1},
	}

	for _, tt := range tests {
		t.Run("page"+tt.query, func(t *testing.T) {
			resp := request(t, http.MethodGet, ts.URL+"/api/widgets/page"+tt.query, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			page := decode[api.PageResponse](t, resp)

			assert.Equal(t, tt.number, page.Number)
			assert.Equal(t, tt.size, page.Size)
			assert.Equal(t, 5, page.TotalElements)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			require.NotNil(t, page.Content)

			zs := make([]int, 0, len(page.Content))
			for _, w := range page.Content {
				zs = append(zs, w.Z)
			}
			assert.Equal(t, tt.wantZ, zs)
		})
	}
}

// TestHealthAndInfo tests the service endpoints
func TestHealthAndInfo(t *testing.T) {
	ts, b := newTestServer(t, DefaultOptions())
	_, err := b.Create(widget.Attrs{})
	require.NoError(t, err)

	resp := request(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, http.MethodGet, ts.URL+"/info", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[api.InfoResponse](t, resp)
	assert.True(t, info.Consistent)
	assert.Empty(t, info.Problem)
	assert.Equal(t, 1, info.Stats.Widgets)
	assert.Equal(t, uint64(1), info.Stats.Creates)
}

// TestMethodNotAllowed tests that the mux rejects unrouted methods
func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, DefaultOptions())
	resp := request(t, http.MethodPatch, ts.URL+"/api/widgets", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// TestRateLimit tests that requests beyond the burst get 429
func TestRateLimit(t *testing.T) {
	ts, _ := newTestServer(t, Options{RateLimit: 0.001, RateBurst: 2})

	assert.Equal(t, http.StatusOK, request(t, http.MethodGet, ts.URL+"/health", "").StatusCode)
	assert.Equal(t, http.StatusOK, request(t, http.MethodGet, ts.URL+"/health", "").StatusCode)

	resp := request(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

// TestConcurrentCreates tests that parallel HTTP creates get distinct keys
func TestConcurrentCreates(t *testing.T) {
	ts, b := newTestServer(t, DefaultOptions())
	const n = 64

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			body := bytes.NewBufferString(`{"width":1,"height":1}`)
			resp, err := http.Post(ts.URL+"/api/widgets", "application/json", body)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("status %d", resp.StatusCode)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	list := b.List()
	require.Len(t, list, n)
	for i, w := range list {
		assert.Equal(t, i, w.Z)
	}
	assert.NoError(t, b.Verify())
}
