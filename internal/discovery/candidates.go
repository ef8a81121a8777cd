package discovery

import (
	"net/url"
	"sort"
	"strings"

	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/search"
)

// aggregatorDenylist holds marketplace and review aggregators that are
// never direct competitors; their appearance in results is surfaced as a
// recommended listing source instead.
var aggregatorDenylist = map[string]struct{}{
	"booking.com":     {},
	"tripadvisor.com": {},
	"yelp.com":        {},
	"amazon.com":      {},
	"expedia.com":     {},
	"airbnb.com":      {},
	"etsy.com":        {},
	"ebay.com":        {},
	"trivago.com":     {},
	"kayak.com":       {},
	"hotels.com":      {},
	"agoda.com":       {},
}

// candidate is one domain surviving the filters, with the search metadata
// that accompanied its first sighting.
type candidate struct {
	domain string
	meta   *domain.SearchMetadata
}

// candidateSet accumulates unique candidate domains plus the aggregator
// hosts seen along the way.
type candidateSet struct {
	ownDomain   string
	seen        map[string]int
	candidates  []candidate
	aggregators map[string]struct{}
}

func newCandidateSet(ownDomain string) *candidateSet {
	return &candidateSet{
		ownDomain:   normalizeHost(ownDomain),
		seen:        make(map[string]int),
		aggregators: make(map[string]struct{}),
	}
}

// add filters one search result into the set. Malformed URLs are dropped
// silently.
func (c *candidateSet) add(result search.Result) {
	host := hostOf(result.URL)
	if host == "" || host == c.ownDomain {
		return
	}

	if platform, denied := deniedAggregator(host); denied {
		c.aggregators[platform] = struct{}{}
		return
	}

	if _, dup := c.seen[host]; dup {
		return
	}

	c.seen[host] = len(c.candidates)
	c.candidates = append(c.candidates, candidate{
		domain: host,
		meta:   metadataOf(result),
	})
}

// size returns how many candidates survived filtering.
func (c *candidateSet) size() int {
	return len(c.candidates)
}

// take returns up to limit candidates in first-seen order.
func (c *candidateSet) take(limit int) []candidate {
	if limit <= 0 || limit >= len(c.candidates) {
		return c.candidates
	}
	return c.candidates[:limit]
}

// sources returns the observed aggregator hosts, sorted for stable output.
func (c *candidateSet) sources() []string {
	if len(c.aggregators) == 0 {
		return nil
	}

	out := make([]string, 0, len(c.aggregators))
	for host := range c.aggregators {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}

// deniedAggregator reports whether host is, or is a subdomain of, a
// denylisted aggregator, returning the aggregator's apex name.
func deniedAggregator(host string) (string, bool) {
	if _, denied := aggregatorDenylist[host]; denied {
		return host, true
	}
	for apex := range aggregatorDenylist {
		if strings.HasSuffix(host, "."+apex) {
			return apex, true
		}
	}
	return "", false
}

// metadataOf lifts rating and pricing hints off a search result.
func metadataOf(result search.Result) *domain.SearchMetadata {
	if result.Rating == nil && result.ReviewCount == nil && result.PriceRange == "" {
		return nil
	}
	return &domain.SearchMetadata{
		Rating:      result.Rating,
		ReviewCount: result.ReviewCount,
		PriceRange:  result.PriceRange,
	}
}

// hostOf extracts the normalized registrable host of a result URL.
// Anything unparseable yields "".
func hostOf(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return ""
	}
	return normalizeHost(parsed.Host)
}

// normalizeHost lowercases a host and strips a www. prefix and port.
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.IndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return strings.TrimPrefix(host, "www.")
}
