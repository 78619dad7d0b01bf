package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/alexivanou/sportslocations/internal/model"
)

type searchPayload struct {
	Data map[string]struct {
		Edges []struct {
			Node struct {
				Venue *struct {
					Meta struct {
						ID flexibleID `json:"id"`
					} `json:"meta"`
					Name map[string]*string `json:"name"`
				} `json:"venue"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"data"`
}

// flexibleID accepts the venue id as a JSON number or a numeric string
type flexibleID int

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		// non-numeric ids are skipped by the caller
		*f = 0
		return nil
	}
	*f = flexibleID(n)
	return nil
}

// ParseLocations extracts venues from a raw search response in upstream order.
// Missing tree levels yield an empty list; only invalid JSON is an error.
func ParseLocations(raw []byte, rootField string) ([]model.Location, error) {
	var payload searchPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	root, ok := payload.Data[rootField]
	if !ok {
		return nil, nil
	}

	locations := make([]model.Location, 0, len(root.Edges))
	for _, edge := range root.Edges {
		venue := edge.Node.Venue
		if venue == nil || venue.Meta.ID <= 0 {
			continue
		}
		name := make(model.LocalizedName, len(venue.Name))
		for lang, v := range venue.Name {
			if v != nil {
				name[lang] = *v
			}
		}
		locations = append(locations, model.Location{ID: int(venue.Meta.ID), Name: name})
	}
	return locations, nil
}
