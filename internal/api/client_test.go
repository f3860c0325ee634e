package api_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/widgetboard/internal/api"
	"github.com/dreamware/widgetboard/internal/board"
	"github.com/dreamware/widgetboard/internal/server"
	"github.com/dreamware/widgetboard/internal/widget"
)

func newClient(t *testing.T) *api.Client {
	t.Helper()
	ts := httptest.NewServer(server.New(board.New(), server.DefaultOptions(), nil).Handler())
	t.Cleanup(ts.Close)
	return api.NewClient(ts.URL+"/", nil)
}

// TestClientRoundTrip tests every client call against a live handler
func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	a, err := c.Create(ctx, api.WidgetAttrs{Width: widget.Int(10), Height: widget.Int(20)})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Z)
	assert.Equal(t, 10, a.Width)

	b, err := c.Create(ctx, api.WidgetAttrs{Z: widget.Int(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, b.Z)

	got, err := c.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Z, "a was pushed up by b")

	updated, err := c.Update(ctx, a.ID, api.WidgetAttrs{X: widget.Int(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.X)
	assert.Equal(t, 1, updated.Z)
	assert.Equal(t, 20, updated.Height)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)

	page, err := c.ListPage(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Content, 1)
	assert.Equal(t, a.ID, page.Content[0].ID)

	info, err := c.Info(ctx)
	require.NoError(t, err)
	assert.True(t, info.Consistent)
	assert.Equal(t, 2, info.Stats.Widgets)
	assert.Equal(t, uint64(1), info.Stats.Shifted)

	require.NoError(t, c.Delete(ctx, b.ID))
	_, err = c.Get(ctx, b.ID)
	assert.True(t, api.IsNotFound(err))
}

// TestClientErrors tests StatusError decoding
func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	err := c.Delete(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	assert.False(t, api.IsBadRequest(err))

	var serr *api.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 404, serr.Status)
	assert.NotEmpty(t, serr.Body.Message)
	assert.Contains(t, serr.Error(), "404")

	_, err = c.Create(ctx, api.WidgetAttrs{Width: widget.Int(-1)})
	assert.True(t, api.IsBadRequest(err))

	_, err = c.ListPage(ctx, 0, 501)
	assert.True(t, api.IsBadRequest(err))
}

// TestClientContext tests that a cancelled context aborts the call
func TestClientContext(t *testing.T) {
	c := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.List(ctx)
	require.Error(t, err)
	assert.False(t, api.IsNotFound(err))
}

// TestNewPageResponse tests conversion of board pages
func TestNewPageResponse(t *testing.T) {
	t.Run("empty page has non-nil content", func(t *testing.T) {
		resp := api.NewPageResponse(board.Page{Number: 3, Size: 10})
		assert.NotNil(t, resp.Content)
		assert.Empty(t, resp.Content)
		assert.Equal(t, 3, resp.Number)
	})

	t.Run("fields carried over", func(t *testing.T) {
		w := widget.New(uuid.New(), widget.Attrs{Z: widget.Int(4)}, time.Unix(0, 0))
		resp := api.NewPageResponse(board.Page{
			Items:      []widget.Widget{w},
			Number:     0,
			Size:       1,
			Total:      7,
			TotalPages: 7,
		})
		assert.Equal(t, []api.Widget{w}, resp.Content)
		assert.Equal(t, 7, resp.TotalElements)
		assert.Equal(t, 7, resp.TotalPages)
		assert.Equal(t, 1, resp.Size)
	})
}
