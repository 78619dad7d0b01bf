package model

import (
	"fmt"
	"strings"
)

// LocalizedName maps a language code to a display string
type LocalizedName map[string]string

// Resolve picks the name in the current language, falling back to the default language.
func (n LocalizedName) Resolve(current, def string) (string, bool) {
	if current != "" {
		if v, ok := n[current]; ok && v != "" {
			return v, true
		}
	}
	if def != "" {
		if v, ok := n[def]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Location is a venue returned by the upstream search backend
type Location struct {
	ID   int           `json:"id"`
	Name LocalizedName `json:"name"`
}

// DisplayText formats the location as "{name} (id: {id})".
// An unresolved name is omitted.
func (l Location) DisplayText(current, def string) string {
	name, _ := l.Name.Resolve(current, def)
	return strings.TrimSpace(fmt.Sprintf("%s (id: %d)", name, l.ID))
}

// Choice converts the location into a leaf result node.
func (l Location) Choice(current, def string) ResultNode {
	return ResultNode{ID: l.ID, Text: l.DisplayText(current, def)}
}
