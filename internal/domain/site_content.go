// Package domain provides the shared data model for the competitor
// discovery, crawl and match pipeline.
package domain

// SiteContent is the merged structured representation of everything
// discovered while crawling one domain. It is produced per-page by the
// content fetcher and merged across pages by the crawler. Once returned
// from a crawl it must be treated as read-only.
type SiteContent struct {
	URL         string       `json:"url"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Products    []string     `json:"products"`
	Services    []string     `json:"services"`
	Categories  []string     `json:"categories"`
	Keywords    []string     `json:"keywords"`
	MainContent string       `json:"main_content"`
	Metadata    SiteMetadata `json:"metadata"`
}

// SiteMetadata carries auxiliary signals extracted alongside page content.
type SiteMetadata struct {
	StructuredData []string     `json:"structured_data,omitempty"`
	ContactInfo    *ContactInfo `json:"contact_info,omitempty"`
	Prices         []PricePoint `json:"prices,omitempty"`
	HasPricing     bool         `json:"has_pricing"`
	HasProducts    bool         `json:"has_products"`
}

// ContactInfo holds contact details extracted from a page.
type ContactInfo struct {
	Emails []string `json:"emails,omitempty"`
	Phones []string `json:"phones,omitempty"`
}

// PricePoint is a single piece of pricing evidence extracted from a page.
// Raw keeps the source text the price was matched in, for diagnostics.
type PricePoint struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
	Unit     string  `json:"unit,omitempty"`
	Raw      string  `json:"raw,omitempty"`
}
