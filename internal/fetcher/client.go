package fetcher

import (
	"context"

	"github.com/rivalscan/rivalscan/internal/config"
	"github.com/rivalscan/rivalscan/internal/logger"
)

// Client bundles fetching and extraction into the content-fetcher
// collaborator consumed by the crawler and the analysis engine.
type Client struct {
	fetcher   *Fetcher
	extractor *Extractor
}

// NewClient creates a content-fetcher client from configuration.
func NewClient(cfg config.CrawlerConfig, log logger.Interface) *Client {
	return &Client{
		fetcher:   New(cfg, log),
		extractor: NewExtractor(),
	}
}

// FetchPage fetches a URL and extracts its content in one step.
func (c *Client) FetchPage(ctx context.Context, rawURL string) (*PageContent, error) {
	body, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	return c.extractor.Extract(rawURL, body)
}
