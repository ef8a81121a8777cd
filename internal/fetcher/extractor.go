package fetcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rivalscan/rivalscan/internal/domain"
)

// PageContent is everything extracted from one fetched page. The crawler
// merges PageContents across a domain into a single domain.SiteContent.
type PageContent struct {
	URL            string
	Title          string
	Description    string
	Keywords       []string
	BodyText       string
	MetaTags       map[string]string
	StructuredData []string
	Products       []string
	Services       []string
	Categories     []string
	// Links are same-domain absolute URLs found on the page.
	Links []string
	// ProductLinks and ServiceLinks are the subsets of Links whose path
	// suggests product or service pages; the crawler feeds them into the
	// next depth's frontier first.
	ProductLinks []string
	ServiceLinks []string
	// StructuredLinks are same-domain URLs referenced by JSON-LD entities.
	StructuredLinks []string
	Prices          []domain.PricePoint
	Contact         *domain.ContactInfo
}

// nonContentSelectors lists elements stripped before extracting body text.
const nonContentSelectors = "script, style, noscript, nav, header, footer, iframe"

// maxLinksPerPage caps how many same-domain links are collected per page.
const maxLinksPerPage = 100

// maxNameLen caps product/service names taken from link text.
const maxNameLen = 80

// Extractor parses fetched HTML into PageContent using goquery.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses the page and pulls out text, meta tags, structured data,
// links, prices and contact info.
func (e *Extractor) Extract(pageURL string, body []byte) (*PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	content := &PageContent{
		URL:      pageURL,
		MetaTags: extractMetaTags(doc),
	}

	content.Title = extractTitle(doc, content.MetaTags)
	content.Description = extractDescription(content.MetaTags)
	content.Keywords = splitKeywords(content.MetaTags["keywords"])
	content.BodyText = extractBodyText(doc)
	content.StructuredData = extractStructuredData(doc)
	content.Prices = ExtractPrices(content.BodyText, "")
	content.Contact = extractContactInfo(content.BodyText)

	collectLinks(doc, base, content)
	collectStructuredNames(base, content)

	return content, nil
}

// extractTitle prefers <title>, falling back to og:title.
func extractTitle(doc *goquery.Document, meta map[string]string) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return meta["og:title"]
}

// extractDescription prefers the description meta tag, then og:description.
func extractDescription(meta map[string]string) string {
	if desc := meta["description"]; desc != "" {
		return desc
	}
	return meta["og:description"]
}

// extractMetaTags collects name/property meta tags into a map.
func extractMetaTags(doc *goquery.Document) map[string]string {
	tags := make(map[string]string)

	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		key, ok := sel.Attr("name")
		if !ok {
			key, ok = sel.Attr("property")
		}
		if !ok || key == "" {
			return
		}

		value, ok := sel.Attr("content")
		if !ok {
			return
		}

		value = strings.TrimSpace(value)
		if value == "" {
			return
		}

		if _, exists := tags[strings.ToLower(key)]; !exists {
			tags[strings.ToLower(key)] = value
		}
	})

	return tags
}

// extractBodyText extracts readable page text, preferring <main> and
// <article> regions with non-content elements stripped.
func extractBodyText(doc *goquery.Document) string {
	for _, selector := range []string{"main", "article", "body"} {
		region := doc.Find(selector).First()
		if region.Length() == 0 {
			continue
		}

		region.Find(nonContentSelectors).Remove()
		text := strings.Join(strings.Fields(region.Text()), " ")
		if text != "" {
			return text
		}
	}

	return ""
}

// extractStructuredData collects raw JSON-LD blobs. Malformed blobs are
// skipped rather than failing the page.
func extractStructuredData(doc *goquery.Document) []string {
	var blobs []string

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" || !json.Valid([]byte(raw)) {
			return
		}
		blobs = append(blobs, raw)
	})

	return blobs
}

// splitKeywords splits a comma-separated keywords meta value.
func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if kw := strings.TrimSpace(part); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	return keywords
}

// productPathHints and servicePathHints classify link paths.
var (
	productPathHints = []string{"/product", "/shop", "/store", "/item", "/collections", "/pricing", "/price", "/plans"}
	servicePathHints = []string{"/service", "/services", "/solutions", "/offerings", "/treatments", "/menu"}
)

// collectLinks gathers same-domain absolute links and classifies product
// and service link buckets.
func collectLinks(doc *goquery.Document, base *url.URL, content *PageContent) {
	seen := make(map[string]struct{})

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		resolved := resolveSameDomain(base, href)
		if resolved == "" {
			return true
		}

		if _, dup := seen[resolved]; dup {
			return true
		}
		seen[resolved] = struct{}{}
		content.Links = append(content.Links, resolved)

		lowerPath := strings.ToLower(resolved)
		text := strings.TrimSpace(sel.Text())
		switch {
		case hasAnyHint(lowerPath, productPathHints):
			content.ProductLinks = append(content.ProductLinks, resolved)
			if name := linkName(text); name != "" {
				content.Products = append(content.Products, name)
			}
		case hasAnyHint(lowerPath, servicePathHints):
			content.ServiceLinks = append(content.ServiceLinks, resolved)
			if name := linkName(text); name != "" {
				content.Services = append(content.Services, name)
			}
		}

		return len(content.Links) < maxLinksPerPage
	})
}

// resolveSameDomain resolves href against base and returns the absolute
// URL if it stays on the same host, otherwise "".
func resolveSameDomain(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(ref)
	if !strings.EqualFold(resolved.Host, base.Host) {
		return ""
	}

	resolved.Fragment = ""
	return resolved.String()
}

// hasAnyHint reports whether the path contains any of the hints.
func hasAnyHint(path string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(path, hint) {
			return true
		}
	}
	return false
}

// linkName normalizes link text into a product/service name candidate.
func linkName(text string) string {
	name := strings.Join(strings.Fields(text), " ")
	if len(name) < 3 || len(name) > maxNameLen {
		return ""
	}
	return name
}

// structuredEntity is the subset of schema.org fields the extractor reads.
type structuredEntity struct {
	Type     any               `json:"@type"`
	Name     string            `json:"name"`
	Category string            `json:"category"`
	URL      string            `json:"url"`
	Graph    []json.RawMessage `json:"@graph"`
}

// collectStructuredNames pulls product/service/category names and
// same-domain entity URLs out of the page's JSON-LD blobs.
func collectStructuredNames(base *url.URL, content *PageContent) {
	for _, blob := range content.StructuredData {
		for _, entity := range decodeEntities([]byte(blob)) {
			name := strings.TrimSpace(entity.Name)

			switch entityType(entity.Type) {
			case "product", "offer", "productgroup":
				if name != "" {
					content.Products = append(content.Products, name)
				}
			case "service":
				if name != "" {
					content.Services = append(content.Services, name)
				}
			}

			if cat := strings.TrimSpace(entity.Category); cat != "" {
				content.Categories = append(content.Categories, cat)
			}

			if link := resolveSameDomain(base, entity.URL); link != "" {
				content.StructuredLinks = append(content.StructuredLinks, link)
			}
		}
	}
}

// decodeEntities decodes a JSON-LD blob that may be a single entity, an
// array of entities, or an @graph wrapper.
func decodeEntities(blob []byte) []structuredEntity {
	var single structuredEntity
	if err := json.Unmarshal(blob, &single); err == nil {
		if len(single.Graph) > 0 {
			var entities []structuredEntity
			for _, raw := range single.Graph {
				entities = append(entities, decodeEntities(raw)...)
			}
			return entities
		}
		if single.Type != nil || single.Name != "" {
			return []structuredEntity{single}
		}
	}

	var list []structuredEntity
	if err := json.Unmarshal(blob, &list); err == nil {
		return list
	}

	return nil
}

// entityType lowers a JSON-LD @type that may be a string or string list.
func entityType(t any) string {
	switch v := t.(type) {
	case string:
		return strings.ToLower(v)
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return strings.ToLower(s)
			}
		}
	}
	return ""
}
