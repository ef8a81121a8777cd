// Package crawler implements the smart crawler: a depth-bounded,
// robots-compliant breadth-first traversal of one domain with adaptive
// URL prioritization and politeness delays.
package crawler

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rivalscan/rivalscan/internal/config"
	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/fetcher"
	"github.com/rivalscan/rivalscan/internal/llm"
	"github.com/rivalscan/rivalscan/internal/logger"
	"github.com/rivalscan/rivalscan/internal/robots"
)

// fetchConcurrency bounds concurrent page fetches within one depth level.
const fetchConcurrency = 4

// maxCrawlDelay clamps excessive robots.txt crawl-delay requests.
const maxCrawlDelay = 10 * time.Second

// PageFetcher fetches and extracts a single page.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*fetcher.PageContent, error)
}

// Crawler performs bounded breadth-first crawls of a domain and merges the
// visited pages into one SiteContent.
type Crawler struct {
	pages            PageFetcher
	completer        llm.Client
	log              logger.Interface
	maxDepth         int
	maxPagesPerDepth int
	llmURLThreshold  int
}

// New creates a Crawler. completer may be nil, in which case URL
// prioritization always uses the deterministic keyword fallback.
func New(pages PageFetcher, completer llm.Client, cfg config.CrawlerConfig, log logger.Interface) *Crawler {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = config.DefaultMaxDepth
	}
	maxPages := cfg.MaxPagesPerDepth
	if maxPages <= 0 {
		maxPages = config.DefaultMaxPagesPerDepth
	}
	threshold := cfg.LLMURLThreshold
	if threshold <= 0 {
		threshold = config.DefaultLLMURLThreshold
	}

	return &Crawler{
		pages:            pages,
		completer:        completer,
		log:              log,
		maxDepth:         maxDepth,
		maxPagesPerDepth: maxPages,
		llmURLThreshold:  threshold,
	}
}

// Crawl walks the domain breadth-first up to the configured depth and
// returns the merged site content. rules may be nil (no robots data);
// sitemapURLs seed the depth-1 frontier. Individual page failures are
// logged and skipped; an empty crawl yields an all-empty SiteContent.
func (c *Crawler) Crawl(
	ctx context.Context,
	domainName string,
	rules *robots.Rules,
	sitemapURLs []string,
) (*domain.SiteContent, error) {
	base, err := robots.BaseURL(domainName)
	if err != nil {
		return nil, err
	}

	frontier := make(map[int][]string, c.maxDepth+1)
	frontier[0] = []string{base + "/"}
	frontier[1] = c.seedFromSitemap(ctx, sitemapURLs)

	visited := make(map[string]struct{})
	var allPages []*fetcher.PageContent

	for depth := 0; depth <= c.maxDepth; depth++ {
		urls := c.reduceFrontier(ctx, depth, frontier[depth])
		if len(urls) == 0 {
			continue
		}

		pages := c.fetchLevel(ctx, urls, rules, visited)
		allPages = append(allPages, pages...)

		if depth == c.maxDepth {
			continue
		}

		for _, page := range pages {
			frontier[depth+1] = append(frontier[depth+1], nextFrontierURLs(page)...)
		}
	}

	return mergePages(allPages), nil
}

// seedFromSitemap returns the sitemap entries, reduced by prioritization
// when the sitemap is larger than the LLM URL threshold.
func (c *Crawler) seedFromSitemap(ctx context.Context, sitemapURLs []string) []string {
	if len(sitemapURLs) <= c.llmURLThreshold {
		return sitemapURLs
	}

	c.log.Debug("Sitemap exceeds threshold, prioritizing",
		"entries", len(sitemapURLs), "threshold", c.llmURLThreshold)

	return c.prioritize(ctx, sitemapURLs, c.maxPagesPerDepth)
}

// reduceFrontier trims an oversized frontier level. Depth 0 keeps only the
// homepage; deeper levels are prioritized.
func (c *Crawler) reduceFrontier(ctx context.Context, depth int, urls []string) []string {
	if len(urls) <= c.maxPagesPerDepth {
		return urls
	}

	if depth == 0 {
		return urls[:1]
	}

	return c.prioritize(ctx, urls, c.maxPagesPerDepth)
}

// fetchLevel fetches all URLs of one depth level, concurrently but
// politely. Results keep frontier order; failed or skipped URLs are
// simply absent.
func (c *Crawler) fetchLevel(
	ctx context.Context,
	urls []string,
	rules *robots.Rules,
	visited map[string]struct{},
) []*fetcher.PageContent {
	// Visited bookkeeping happens before fan-out so each URL is claimed
	// exactly once per crawl.
	var claimed []string
	for _, rawURL := range urls {
		if _, seen := visited[rawURL]; seen {
			continue
		}
		visited[rawURL] = struct{}{}

		if !c.allowedByRobots(rawURL, rules) {
			continue
		}
		claimed = append(claimed, rawURL)
	}

	results := make([]*fetcher.PageContent, len(claimed))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(fetchConcurrency)

	for i, rawURL := range claimed {
		group.Go(func() error {
			page, err := c.pages.FetchPage(groupCtx, rawURL)
			if err != nil {
				// Per-URL failures never abort the crawl.
				c.log.Warn("Page fetch failed", "url", rawURL, "error", err)
				return nil
			}

			mu.Lock()
			results[i] = page
			mu.Unlock()

			c.politenessSleep(groupCtx, rules)
			return nil
		})
	}
	_ = group.Wait()

	pages := make([]*fetcher.PageContent, 0, len(claimed))
	for _, page := range results {
		if page != nil {
			pages = append(pages, page)
		}
	}

	return pages
}

// allowedByRobots checks the URL path against the disallowed-path
// prefixes. Malformed URLs are skipped and logged, not fatal.
func (c *Crawler) allowedByRobots(rawURL string, rules *robots.Rules) bool {
	if rules == nil {
		return true
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		c.log.Warn("Skipping malformed URL", "url", rawURL, "error", err)
		return false
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}

	for _, prefix := range rules.DisallowedPaths() {
		if strings.HasPrefix(path, prefix) {
			c.log.Debug("Robots disallow", "url", rawURL, "prefix", prefix)
			return false
		}
	}

	return true
}

// politenessSleep pauses after a successful fetch when the site requests
// a crawl delay.
func (c *Crawler) politenessSleep(ctx context.Context, rules *robots.Rules) {
	if rules == nil {
		return
	}

	delay := rules.CrawlDelay()
	if delay <= 0 {
		return
	}
	if delay > maxCrawlDelay {
		delay = maxCrawlDelay
	}

	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}

// nextFrontierURLs collects the URLs a page contributes to the next depth:
// structured-data entity URLs and product/service links.
func nextFrontierURLs(page *fetcher.PageContent) []string {
	capacity := len(page.StructuredLinks) + len(page.ProductLinks) + len(page.ServiceLinks)
	if capacity == 0 {
		return nil
	}

	next := make([]string, 0, capacity)
	next = append(next, page.StructuredLinks...)
	next = append(next, page.ProductLinks...)
	next = append(next, page.ServiceLinks...)
	return next
}
