package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client talks to a widgetd server
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the server at baseURL (e.g. "http://127.0.0.1:8080").
// If hc is nil a client with a 5 second timeout is used.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

// Create adds a widget
func (c *Client) Create(ctx context.Context, attrs WidgetAttrs) (Widget, error) {
	var out Widget
	err := c.do(ctx, http.MethodPost, "/api/widgets", attrs, &out)
	return out, err
}

// Update changes the supplied attributes of widget id
func (c *Client) Update(ctx context.Context, id uuid.UUID, attrs WidgetAttrs) (Widget, error) {
	var out Widget
	err := c.do(ctx, http.MethodPut, "/api/widgets/"+id.String(), attrs, &out)
	return out, err
}

// Get fetches widget id
func (c *Client) Get(ctx context.Context, id uuid.UUID) (Widget, error) {
	var out Widget
	err := c.do(ctx, http.MethodGet, "/api/widgets/"+id.String(), nil, &out)
	return out, err
}

// Delete removes widget id
func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/widgets/"+id.String(), nil, nil)
}

// List fetches every widget in z-order
func (c *Client) List(ctx context.Context) ([]Widget, error) {
	var out []Widget
	err := c.do(ctx, http.MethodGet, "/api/widgets", nil, &out)
	return out, err
}

// ListPage fetches one page of the z-ordered listing
func (c *Client) ListPage(ctx context.Context, page, size int) (PageResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var out PageResponse
	err := c.do(ctx, http.MethodGet, "/api/widgets/page?"+q.Encode(), nil, &out)
	return out, err
}

// Info fetches board statistics
func (c *Client) Info(ctx context.Context) (InfoResponse, error) {
	var out InfoResponse
	err := c.do(ctx, http.MethodGet, "/info", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	u := c.base + path
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		serr := &StatusError{Method: method, URL: u, Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(&serr.Body)
		return serr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IsNotFound reports whether err is a 404 from the server
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsBadRequest reports whether err is a 400 from the server
func IsBadRequest(err error) bool {
	return hasStatus(err, http.StatusBadRequest)
}

func hasStatus(err error, status int) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.Status == status
}
