package domain

import "time"

// MatchedProduct links one user product to a competitor offering with a
// similarity score and optional price difference.
type MatchedProduct struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	// MatchScore is the name-similarity score in [0, 100].
	MatchScore int `json:"match_score"`
	// PriceDiff is the competitor price relative to the user price, in
	// percent, rounded to one decimal. Nil when either price is unknown
	// or the user price is zero.
	PriceDiff *float64 `json:"price_diff,omitempty"`
}

// ProductMatch is produced per competitor offering that has at least one
// user-product match above the acceptance floor.
type ProductMatch struct {
	Name            string           `json:"name"`
	URL             string           `json:"url,omitempty"`
	Price           *float64         `json:"price,omitempty"`
	Currency        string           `json:"currency,omitempty"`
	MatchedProducts []MatchedProduct `json:"matched_products"`
	LastUpdated     time.Time        `json:"last_updated"`
}

// ListingPlatform records a competitor's presence on a third-party
// marketplace or review aggregator.
type ListingPlatform struct {
	Platform    string   `json:"platform"`
	URL         string   `json:"url"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	PriceRange  string   `json:"price_range,omitempty"`
}

// CompetitorInsight is the final per-competitor analysis record.
// DataGaps is an append-only diagnostic list populated by whichever
// completeness checks fail during analysis.
type CompetitorInsight struct {
	Domain            string            `json:"domain"`
	MatchScore        int               `json:"match_score"`
	MatchReasons      []string          `json:"match_reasons,omitempty"`
	SuggestedApproach string            `json:"suggested_approach,omitempty"`
	DataGaps          []string          `json:"data_gaps,omitempty"`
	ListingPlatforms  []ListingPlatform `json:"listing_platforms,omitempty"`
	Products          []ProductMatch    `json:"products"`
}

// BusinessContext is caller-supplied context for a competitor analysis.
type BusinessContext struct {
	BusinessType string `json:"business_type,omitempty"`
	Location     string `json:"location,omitempty"`
}

// SearchMetadata carries rating and pricing hints from a search result
// into competitor analysis.
type SearchMetadata struct {
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	PriceRange  string   `json:"price_range,omitempty"`
}

// DiscoveryStats summarizes one discovery run.
type DiscoveryStats struct {
	TotalDiscovered     int `json:"total_discovered"`
	NewCompetitors      int `json:"new_competitors"`
	ExistingCompetitors int `json:"existing_competitors"`
	FailedAnalyses      int `json:"failed_analyses"`
	// DroppedCandidates counts candidates past the per-run analysis cap
	// that were found but not analyzed.
	DroppedCandidates int `json:"dropped_candidates,omitempty"`
}

// DiscoveryResult is the terminal output of one discovery run. It is never
// mutated after construction.
type DiscoveryResult struct {
	Competitors        []CompetitorInsight `json:"competitors"`
	RecommendedSources []string            `json:"recommended_sources,omitempty"`
	SearchStrategy     string              `json:"search_strategy"`
	Stats              DiscoveryStats      `json:"stats"`
}
