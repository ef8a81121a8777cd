package crawler

import (
	"strings"

	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/fetcher"
)

// mergePages folds per-page contents into one SiteContent. The first page
// provides the canonical url/title/description and the contact info; list
// fields are unioned with duplicate removal; main content, structured data
// and prices are concatenated in page order.
func mergePages(pages []*fetcher.PageContent) *domain.SiteContent {
	if len(pages) == 0 {
		return &domain.SiteContent{}
	}

	first := pages[0]
	merged := &domain.SiteContent{
		URL:         first.URL,
		Title:       first.Title,
		Description: first.Description,
	}
	merged.Metadata.ContactInfo = first.Contact

	var textParts []string
	for _, page := range pages {
		merged.Products = unionInto(merged.Products, page.Products)
		merged.Services = unionInto(merged.Services, page.Services)
		merged.Categories = unionInto(merged.Categories, page.Categories)
		merged.Keywords = unionInto(merged.Keywords, page.Keywords)
		merged.Metadata.StructuredData = append(merged.Metadata.StructuredData, page.StructuredData...)
		merged.Metadata.Prices = append(merged.Metadata.Prices, page.Prices...)

		if page.BodyText != "" {
			textParts = append(textParts, page.BodyText)
		}
	}

	merged.MainContent = strings.Join(textParts, "\n\n")
	merged.Metadata.HasPricing = len(merged.Metadata.Prices) > 0
	merged.Metadata.HasProducts = len(merged.Products) > 0

	return merged
}

// unionInto appends values not already present, preserving order.
func unionInto(dst, src []string) []string {
	if len(src) == 0 {
		return dst
	}

	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[strings.ToLower(v)] = struct{}{}
	}

	for _, v := range src {
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, v)
	}

	return dst
}
