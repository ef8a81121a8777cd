package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/rivalscan/rivalscan/internal/fetcher"
	"github.com/rivalscan/rivalscan/internal/llm"
)

// Query generation bounds.
const (
	minQueries = 2
	maxQueries = 4
)

// generateQueries asks the completion capability for diverse search
// queries; any failure falls back to the deterministic templates, which
// always yield at least one query.
func (o *Orchestrator) generateQueries(
	ctx context.Context,
	in Input,
	ownSite *fetcher.PageContent,
) []string {
	if o.completer == nil {
		return fallbackQueries(in)
	}

	features := describeOwnSite(ownSite)
	prompt := fmt.Sprintf(
		"Generate between %d and %d diverse web search queries for finding "+
			"direct competitors of this business. Combine the business type, "+
			"its locality, and its top products. Respond with a JSON array "+
			"of query strings and nothing else.\n\nDomain: %s\nBusiness type: %s\n%s",
		minQueries, maxQueries, in.Domain, in.BusinessType, features)

	text, err := o.completer.Complete(ctx, prompt)
	if err != nil {
		o.log.Warn("Query generation failed, using fallback templates", "error", err)
		return fallbackQueries(in)
	}

	parsed := llm.Decode[[]string](text)
	if parsed.Malformed {
		o.log.Warn("Query generation returned malformed JSON, using fallback templates")
		return fallbackQueries(in)
	}

	queries := make([]string, 0, maxQueries)
	for _, q := range parsed.Value {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		queries = append(queries, q)
		if len(queries) == maxQueries {
			break
		}
	}

	if len(queries) == 0 {
		return fallbackQueries(in)
	}
	return queries
}

// fallbackQueries builds the deterministic templated queries used when the
// completion capability is unavailable or returns garbage.
func fallbackQueries(in Input) []string {
	name := domainLabel(in.Domain)

	queries := []string{
		fmt.Sprintf("%s near %s area", in.BusinessType, name),
		fmt.Sprintf("similar services to %s", name),
	}

	if len(in.UserProducts) > 0 && strings.TrimSpace(in.UserProducts[0].Name) != "" {
		queries = append(queries,
			strings.TrimSpace(in.BusinessType+" "+in.UserProducts[0].Name))
	}

	return queries
}

// describeOwnSite summarizes the user's own site for the query prompt.
func describeOwnSite(site *fetcher.PageContent) string {
	if site == nil {
		return ""
	}

	var b strings.Builder
	if site.Title != "" {
		fmt.Fprintf(&b, "Site title: %s\n", site.Title)
	}
	if site.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", site.Description)
	}
	if len(site.Products) > 0 {
		limit := len(site.Products)
		if limit > 5 {
			limit = 5
		}
		fmt.Fprintf(&b, "Products: %s\n", strings.Join(site.Products[:limit], ", "))
	}
	return b.String()
}

// domainLabel returns the leading label of a domain name, e.g. "shop" for
// "shop.example".
func domainLabel(domainName string) string {
	domainName = strings.TrimPrefix(strings.ToLower(domainName), "www.")
	if i := strings.IndexByte(domainName, '.'); i > 0 {
		return domainName[:i]
	}
	return domainName
}
