package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexivanou/sportslocations/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/locations/search", r.URL.Path)
		assert.Equal(t, "arena", r.URL.Query().Get("search"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"text":"Results","children":[{"id":10,"text":"Arena A (id: 10)"}]}],"count":1,"limit":100,"more":false}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	resp, err := c.Search(context.Background(), model.QueryParams{
		Search:  "arena",
		Page:    2,
		Filters: map[string]string{"language": "en"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 10, resp.Results[0].Children[0].ID)
	assert.Equal(t, 1, resp.Count)
}

func TestClient_SearchBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "search backend unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Search(context.Background(), model.QueryParams{Search: "x"})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_Layouts(t *testing.T) {
	var stored []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/layouts/page-1":
			stored, _ = io.ReadAll(r.Body)
			w.Write(stored)
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/layouts/page-1":
			w.Write(stored)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	ctx := context.Background()

	saved, err := c.SaveLayout(ctx, &model.Layout{
		ID:       "page-1",
		Module:   model.ModuleLocationsSelected,
		Selected: model.Selection{{ID: 11, Text: "B"}, {ID: 10, Text: "A"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{11, 10}, saved.Selected.IDs())

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(stored, &raw))
	assert.JSONEq(t, `{"11":"B","10":"A"}`, string(raw["selected_locations"]))

	layout, err := c.GetLayout(ctx, "page-1")
	require.NoError(t, err)
	assert.Equal(t, []int{11, 10}, layout.Selected.IDs())

	_, err = c.GetLayout(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
