// Package upstream talks to the graph-search backend that owns venue data.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alexivanou/sportslocations/internal/config"
)

var (
	// ErrUnavailable is returned when the backend cannot be reached or answers with a non-2xx status.
	ErrUnavailable = errors.New("upstream search unavailable")
	// ErrMalformedResponse is returned when a payload is not valid JSON.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

const maxResponseBytes = 8 << 20

// Searcher fetches the raw response body for a search text
type Searcher interface {
	Search(ctx context.Context, text string) ([]byte, error)
}

// Client is a graph-search client
type Client struct {
	url            string
	rootField      string
	ontologyTreeID int
	resultLimit    int
	languages      []string
	httpClient     *http.Client
}

// NewClient creates a client from configuration
func NewClient(cfg config.UpstreamConfig, languages []string) *Client {
	return &Client{
		url:            cfg.URL,
		rootField:      cfg.RootField,
		ontologyTreeID: cfg.OntologyTreeID,
		resultLimit:    cfg.ResultLimit,
		languages:      languages,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// graphRequest is the POST body of a graph query
type graphRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// BuildQuery renders the location search query. The search text and
// page size travel as variables, the category filter is fixed.
func (c *Client) BuildQuery() string {
	langs := c.languages
	if len(langs) == 0 {
		langs = []string{"fi", "sv", "en"}
	}
	return fmt.Sprintf(
		`query ($text: String, $first: Int) { %s(index: location, ontologyTreeIdOrSets: [%d], text: $text, first: $first) { edges { node { venue { meta { id } name { %s } } } } } }`,
		c.rootField, c.ontologyTreeID, strings.Join(langs, " "),
	)
}

// Search posts the query and returns the raw response body
func (c *Client) Search(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(graphRequest{
		Query: c.BuildQuery(),
		Variables: map[string]any{
			"text":  text,
			"first": c.resultLimit,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status=%d", ErrUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUnavailable, err)
	}
	return raw, nil
}

// RootField returns the name of the query root field
func (c *Client) RootField() string {
	return c.rootField
}
