package model

import "time"

// Layout modules that carry a location selection
const (
	ModuleLocationsSelected         = "locations_selected"
	ModuleLocationsSelectedCarousel = "locations_selected_carousel"
)

// ValidModule reports whether m is a known layout module
func ValidModule(m string) bool {
	return m == ModuleLocationsSelected || m == ModuleLocationsSelectedCarousel
}

// Layout is a content module holding a location selection
type Layout struct {
	ID        string    `json:"id" db:"id"`
	Module    string    `json:"module" db:"module"`
	Title     string    `json:"title" db:"title"`
	Language  string    `json:"language" db:"language"`
	Search    string    `json:"search" db:"search"`
	Selected  Selection `json:"selected_locations" db:"-"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// LayoutOutput is the layout as exposed to downstream content consumers
type LayoutOutput struct {
	Title     string `json:"title"`
	Locations []int  `json:"locations"`
	Module    string `json:"module"`
}
