// Package robots reads robots.txt rules and sitemaps for a domain.
// Missing or errored robots.txt degrades to allow-all, standard crawling
// practice; the crawler treats the returned rules as advisory input.
package robots

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsTxtPath is the well-known path for robots.txt files.
const robotsTxtPath = "/robots.txt"

// maxRobotsBodyBytes limits the size of robots.txt responses we will read.
const maxRobotsBodyBytes = 512 * 1024 // 512 KB

// defaultReadTimeout bounds robots and sitemap fetches when the caller
// supplies no HTTP client.
const defaultReadTimeout = 15 * time.Second

// Rules holds the parsed robots.txt outcome for one domain.
type Rules struct {
	data       *robotstxt.RobotsData
	disallowed []string
	crawlDelay time.Duration
	userAgent  string
	allowAll   bool
}

// AllowAll returns rules that permit everything, used when robots.txt is
// missing or unreadable.
func AllowAll() *Rules {
	return &Rules{allowAll: true}
}

// NewRules builds rules from explicit disallowed prefixes and a crawl
// delay, without fetching anything.
func NewRules(disallowed []string, crawlDelay time.Duration) *Rules {
	return &Rules{disallowed: disallowed, crawlDelay: crawlDelay}
}

// Allowed reports whether the given URL path may be fetched.
func (r *Rules) Allowed(path string) bool {
	if r.allowAll {
		return true
	}
	if r.data != nil {
		return r.data.TestAgent(path, r.userAgent)
	}

	for _, prefix := range r.disallowed {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// DisallowedPaths returns the disallowed path prefixes that apply to the
// crawler's user agent.
func (r *Rules) DisallowedPaths() []string {
	return r.disallowed
}

// CrawlDelay returns the politeness delay requested by the site, or 0.
func (r *Rules) CrawlDelay() time.Duration {
	return r.crawlDelay
}

// Reader fetches and parses robots.txt and sitemap files.
type Reader struct {
	httpClient *http.Client
	userAgent  string
}

// NewReader creates a Reader. The client's timeout bounds each fetch; a
// nil client gets a default with defaultReadTimeout.
func NewReader(httpClient *http.Client, userAgent string) *Reader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultReadTimeout}
	}
	return &Reader{httpClient: httpClient, userAgent: userAgent}
}

// Read fetches and parses robots.txt for the domain. Fetch failures and
// non-2xx statuses yield allow-all rules rather than an error.
func (r *Reader) Read(ctx context.Context, domain string) (*Rules, error) {
	base, err := BaseURL(domain)
	if err != nil {
		return nil, err
	}

	body, statusCode, err := r.fetch(ctx, base+robotsTxtPath, maxRobotsBodyBytes)
	if err != nil || statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return AllowAll(), nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return AllowAll(), nil
	}

	rules := &Rules{
		data:       data,
		disallowed: parseDisallowedPaths(body, r.userAgent),
		userAgent:  r.userAgent,
	}
	if group := data.FindGroup(r.userAgent); group != nil {
		rules.crawlDelay = group.CrawlDelay
	}

	return rules, nil
}

// fetch performs a single GET with the reader's user agent.
func (r *Reader) fetch(ctx context.Context, rawURL string, limit int64) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("robots: create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("robots: fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("robots: read body: %w", err)
	}

	return body, resp.StatusCode, nil
}

// parseDisallowedPaths collects Disallow prefixes from the groups matching
// the user agent (or the wildcard group).
func parseDisallowedPaths(body []byte, userAgent string) []string {
	var paths []string

	agentLower := strings.ToLower(userAgent)
	applies := false

	scanner := bufio.NewScanner(strings.NewReader(string(body)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			agent := strings.ToLower(value)
			applies = agent == "*" || strings.Contains(agentLower, agent)
		case "disallow":
			if applies && value != "" {
				paths = append(paths, value)
			}
		}
	}

	return paths
}

// BaseURL normalizes a bare domain or URL into "scheme://host".
func BaseURL(domain string) (string, error) {
	raw := domain
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("robots: parse domain %q: %w", domain, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("robots: empty host in domain %q", domain)
	}

	return parsed.Scheme + "://" + parsed.Host, nil
}
