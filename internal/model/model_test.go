package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizedName_Resolve(t *testing.T) {
	name := LocalizedName{"fi": "Areena A", "en": "Arena A", "sv": ""}

	tests := []struct {
		name     string
		current  string
		def      string
		expected string
		found    bool
	}{
		{name: "current language", current: "en", def: "fi", expected: "Arena A", found: true},
		{name: "fallback to default", current: "de", def: "fi", expected: "Areena A", found: true},
		{name: "empty value falls back", current: "sv", def: "fi", expected: "Areena A", found: true},
		{name: "nothing resolves", current: "de", def: "ru", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := name.Resolve(tt.current, tt.def)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLocation_DisplayText(t *testing.T) {
	loc := Location{ID: 11, Name: LocalizedName{"fi": "Areena B"}}
	assert.Equal(t, "Areena B (id: 11)", loc.DisplayText("en", "fi"))
	assert.Equal(t, "(id: 11)", loc.DisplayText("en", "sv"))
}

func TestQueryParams_CacheKey(t *testing.T) {
	a := QueryParams{Search: "arena", Filters: map[string]string{"title": "x", "language": "fi"}}
	b := QueryParams{Search: "arena", Page: 1, Filters: map[string]string{"language": "fi", "title": "x", "empty": ""}}
	c := QueryParams{Search: "anera", Filters: map[string]string{"title": "x", "language": "fi"}}

	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
	assert.Len(t, a.CacheKey(), 32)
}

func TestSelection_JSONKeepsOrder(t *testing.T) {
	raw := `{"30":"Halli (id: 30)","10":"Arena A (id: 10)","20":"Kenttä (id: 20)"}`

	var s Selection
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.Equal(t, []int{30, 10, 20}, s.IDs())
	assert.True(t, s.Contains(10))
	assert.False(t, s.Contains(11))

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
	assert.Equal(t, raw, string(out))
}

func TestSelection_UnmarshalLooseForms(t *testing.T) {
	var s Selection
	require.NoError(t, json.Unmarshal([]byte(`""`), &s))
	assert.Empty(t, s)

	require.NoError(t, json.Unmarshal([]byte(`[5, 3]`), &s))
	assert.Equal(t, []int{5, 3}, s.IDs())

	assert.Error(t, json.Unmarshal([]byte(`{"abc":"x"}`), &s))
}

func TestSelection_Dedupe(t *testing.T) {
	s := Selection{{ID: 1, Text: "first"}, {ID: 2}, {ID: 1, Text: "second"}}
	d := s.Dedupe()
	require.Len(t, d, 2)
	assert.Equal(t, "first", d[0].Text)
}
