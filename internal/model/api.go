package model

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// ResultsGroupLabel is the label of the single group wrapping search results
const ResultsGroupLabel = "Results"

// Search cache key prefixes. Query entries hold a composed request
// (search, page, filters), raw entries the upstream payload of one search text.
const (
	QueryCachePrefix = "locations_selected_fetch_"
	RawCachePrefix   = "locations_search_do_query_"
)

// QueryParams represents the request parameters for a location search.
// Filters are opaque key/value pairs collected from sibling form fields.
type QueryParams struct {
	Search  string            `json:"search"`
	Page    int               `json:"page"`
	Filters map[string]string `json:"filters,omitempty"`
}

// Normalize returns a copy with page defaulted to 1, filter keys trimmed
// and empty filter values dropped.
func (q QueryParams) Normalize() QueryParams {
	out := QueryParams{Search: q.Search, Page: q.Page}
	if out.Page < 1 {
		out.Page = 1
	}
	for k, v := range q.Filters {
		k = strings.TrimSpace(k)
		if k == "" || v == "" {
			continue
		}
		if out.Filters == nil {
			out.Filters = make(map[string]string, len(q.Filters))
		}
		out.Filters[k] = v
	}
	return out
}

// Filter returns a filter value or "".
func (q QueryParams) Filter(key string) string {
	if q.Filters == nil {
		return ""
	}
	return q.Filters[key]
}

// CacheKey hashes the normalized parameters. encoding/json sorts map keys,
// so the key does not depend on filter insertion order.
func (q QueryParams) CacheKey() string {
	b, _ := json.Marshal(q.Normalize())
	return HashKey(string(b))
}

// HashKey returns the hex md5 of s
func HashKey(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ResultNode is either a group (Children != nil) or a leaf choice
type ResultNode struct {
	ID       int          `json:"id,omitempty"`
	Text     string       `json:"text"`
	Children []ResultNode `json:"children,omitempty"`
}

// IsGroup reports whether the node is a labeled group
func (n ResultNode) IsGroup() bool {
	return n.Children != nil
}

// SearchResponse is the envelope returned to the selection widget
type SearchResponse struct {
	Results []ResultNode `json:"results"`
	Count   int          `json:"count"`
	Limit   int          `json:"limit"`
	More    bool         `json:"more"`
}

// SearchResult is the deduplicated, paginated list of locations
type SearchResult struct {
	Locations []Location
	HasMore   bool
}
