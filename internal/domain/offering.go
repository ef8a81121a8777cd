package domain

// Offering type constants.
const (
	OfferingTypeProduct = "product"
	OfferingTypeService = "service"
)

// Offering is a normalized product or service record extracted from a text
// chunk of a competitor page.
type Offering struct {
	Type      string   `json:"type"`
	Category  string   `json:"category"`
	Name      string   `json:"name"`
	Features  []string `json:"features,omitempty"`
	Pricing   *Pricing `json:"pricing,omitempty"`
	SourceURL string   `json:"source_url"`
}

// Pricing describes the price attached to an offering.
type Pricing struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
	Unit     string  `json:"unit,omitempty"`
}

// UserProduct is one entry of the caller's own product catalog. It is a
// read-only input to matching; the catalog itself lives with an external
// collaborator.
type UserProduct struct {
	Name     string   `json:"name"`
	URL      string   `json:"url,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Currency string   `json:"currency,omitempty"`
}
