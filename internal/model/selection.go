package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SelectionEntry is one chosen location. Text is cached display data, ID is authoritative.
type SelectionEntry struct {
	ID   int    `db:"location_id"`
	Text string `db:"text"`
}

// Selection is the ordered list of chosen locations of one layout.
// It is encoded as a JSON object {"<id>": "<text>"} in insertion order.
type Selection []SelectionEntry

// IDs returns the location ids in order
func (s Selection) IDs() []int {
	ids := make([]int, 0, len(s))
	for _, e := range s {
		ids = append(ids, e.ID)
	}
	return ids
}

// Contains reports whether id is selected
func (s Selection) Contains(id int) bool {
	for _, e := range s {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Dedupe drops repeated ids, keeping the first occurrence
func (s Selection) Dedupe() Selection {
	seen := make(map[int]bool, len(s))
	out := make(Selection, 0, len(s))
	for _, e := range s {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}

// MarshalJSON writes the selection as an ordered object
func (s Selection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(e.ID)))
		buf.WriteByte(':')
		text, err := json.Marshal(e.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(text)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping key order. A JSON array of ids
// or an empty string/false (what an empty form field posts) are accepted too.
func (s *Selection) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")),
		bytes.Equal(trimmed, []byte(`""`)), bytes.Equal(trimmed, []byte("false")):
		*s = Selection{}
		return nil
	case trimmed[0] == '[':
		var ids []int
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return fmt.Errorf("selection: %w", err)
		}
		out := make(Selection, 0, len(ids))
		for _, id := range ids {
			out = append(out, SelectionEntry{ID: id})
		}
		*s = out
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("selection: expected object, got %v", tok)
	}

	out := Selection{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("selection: %w", err)
		}
		key, _ := keyTok.(string)
		id, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("selection: invalid location id %q", key)
		}
		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("selection: text of %d: %w", id, err)
		}
		out = append(out, SelectionEntry{ID: id, Text: text})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("selection: %w", err)
	}

	*s = out
	return nil
}
