package fixtures

import (
	"strings"

	"github.com/alexivanou/sportslocations/internal/model"
)

// Index answers text searches over a fixed venue list
type Index struct {
	locations []model.Location
	folded    [][]string
}

// NewIndex builds an index keeping the given order
func NewIndex(locations []model.Location) *Index {
	folded := make([][]string, len(locations))
	for i, loc := range locations {
		for _, name := range loc.Name {
			folded[i] = append(folded[i], strings.ToLower(name))
		}
	}
	return &Index{locations: locations, folded: folded}
}

// Search returns up to n venues with a name containing text, case-insensitively.
// An empty text matches everything; n <= 0 means no limit.
func (x *Index) Search(text string, n int) []model.Location {
	needle := strings.ToLower(strings.TrimSpace(text))

	out := make([]model.Location, 0)
	for i, loc := range x.locations {
		if n > 0 && len(out) >= n {
			break
		}
		if needle == "" || matches(x.folded[i], needle) {
			out = append(out, loc)
		}
	}
	return out
}

// Len returns the number of indexed venues
func (x *Index) Len() int {
	return len(x.locations)
}

func matches(names []string, needle string) bool {
	for _, name := range names {
		if strings.Contains(name, needle) {
			return true
		}
	}
	return false
}
