// Package client calls the location search and layout endpoints over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexivanou/sportslocations/internal/model"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Client is an API client. It satisfies widget.Fetcher.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the API rooted at baseURL
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Search fetches one page of location choices
func (c *Client) Search(ctx context.Context, q model.QueryParams) (*model.SearchResponse, error) {
	values := url.Values{}
	for k, v := range q.Filters {
		values.Set(k, v)
	}
	values.Set("search", q.Search)
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}

	var resp model.SearchResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/locations/search?"+values.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLayout loads a stored layout
func (c *Client) GetLayout(ctx context.Context, id string) (*model.Layout, error) {
	var layout model.Layout
	if err := c.do(ctx, http.MethodGet, "/api/v1/layouts/"+url.PathEscape(id), nil, &layout); err != nil {
		return nil, err
	}
	return &layout, nil
}

// SaveLayout stores a layout and returns the saved version
func (c *Client) SaveLayout(ctx context.Context, layout *model.Layout) (*model.Layout, error) {
	body, err := json.Marshal(layout)
	if err != nil {
		return nil, fmt.Errorf("failed to encode layout: %w", err)
	}

	var saved model.Layout
	if err := c.do(ctx, http.MethodPut, "/api/v1/layouts/"+url.PathEscape(layout.ID), body, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
