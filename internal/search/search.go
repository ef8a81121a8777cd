// Package search provides the web-search capability used by competitor
// discovery. Searches run in one of four modes and return ranked result
// URLs with optional rating and price metadata.
package search

import "context"

// Mode selects the search vertical.
type Mode string

// Search modes.
const (
	ModeShopping Mode = "shopping"
	ModeMaps     Mode = "maps"
	ModeLocal    Mode = "local"
	ModeOrganic  Mode = "organic"
)

// Result is one ranked search result.
type Result struct {
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	PriceRange  string   `json:"price_range,omitempty"`
}

// Searcher executes a query in the given mode.
type Searcher interface {
	Search(ctx context.Context, query string, mode Mode) ([]Result, error)
}
