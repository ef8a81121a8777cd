package robots

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"
)

// sitemapPath is the conventional sitemap location.
const sitemapPath = "/sitemap.xml"

// maxSitemapBodyBytes limits the size of sitemap responses.
const maxSitemapBodyBytes = 5 * 1024 * 1024 // 5 MB

// maxSitemapEntries caps how many URLs are taken from one domain's sitemaps.
const maxSitemapEntries = 200

// maxNestedSitemaps caps how many child sitemaps of an index are followed.
const maxNestedSitemaps = 5

// urlSet is the <urlset> document shape.
type urlSet struct {
	URLs []sitemapEntry `xml:"url"`
}

// sitemapIndex is the <sitemapindex> document shape.
type sitemapIndex struct {
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

// ReadSitemap fetches the domain's sitemap and returns its URLs. Sitemap
// indexes are followed one level deep. Malformed entries are skipped; a
// missing sitemap returns an empty slice and no error.
func (r *Reader) ReadSitemap(ctx context.Context, domain string) ([]string, error) {
	base, err := BaseURL(domain)
	if err != nil {
		return nil, err
	}

	entries, children := r.readOneSitemap(ctx, base+sitemapPath)

	for i, child := range children {
		if i >= maxNestedSitemaps || len(entries) >= maxSitemapEntries {
			break
		}
		childEntries, _ := r.readOneSitemap(ctx, child)
		entries = append(entries, childEntries...)
	}

	if len(entries) > maxSitemapEntries {
		entries = entries[:maxSitemapEntries]
	}

	return entries, nil
}

// readOneSitemap fetches and parses a single sitemap document, returning
// page URLs and child sitemap URLs.
func (r *Reader) readOneSitemap(ctx context.Context, sitemapURL string) (entries, children []string) {
	body, statusCode, err := r.fetch(ctx, sitemapURL, maxSitemapBodyBytes)
	if err != nil || statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, nil
	}

	var set urlSet
	if err := xml.Unmarshal(body, &set); err == nil && len(set.URLs) > 0 {
		for _, entry := range set.URLs {
			if loc := validLoc(entry.Loc); loc != "" {
				entries = append(entries, loc)
			}
		}
		return entries, nil
	}

	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil {
		for _, entry := range index.Sitemaps {
			if loc := validLoc(entry.Loc); loc != "" {
				children = append(children, loc)
			}
		}
	}

	return nil, children
}

// validLoc trims and validates a <loc> value, returning "" for malformed
// entries so they are skipped rather than fatal.
func validLoc(loc string) string {
	parsed, err := url.Parse(strings.TrimSpace(loc))
	if err != nil || parsed.Host == "" || parsed.Scheme == "" {
		return ""
	}
	return parsed.String()
}
