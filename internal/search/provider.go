package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rivalscan/rivalscan/internal/config"
)

// modePaths maps a search mode to its API endpoint path.
var modePaths = map[Mode]string{
	ModeShopping: "/shopping",
	ModeMaps:     "/maps",
	ModeLocal:    "/places",
	ModeOrganic:  "/search",
}

// maxErrorBodyBytes caps how much of an error response body is read.
const maxErrorBodyBytes = 1 << 20 // 1 MB

// HTTPSearcher talks to a Serper-style JSON search API.
type HTTPSearcher struct {
	client *http.Client
	apiURL string
	apiKey string
}

// NewHTTPSearcher creates a search client from configuration.
func NewHTTPSearcher(cfg config.SearchConfig) *HTTPSearcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	return &HTTPSearcher{
		client: &http.Client{Timeout: timeout},
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		apiKey: cfg.APIKey,
	}
}

type searchRequest struct {
	Query string `json:"q"`
}

// searchResponse covers the result arrays returned across verticals.
type searchResponse struct {
	Organic  []rawResult `json:"organic"`
	Shopping []rawResult `json:"shopping"`
	Places   []rawResult `json:"places"`
}

type rawResult struct {
	Link        string   `json:"link"`
	Website     string   `json:"website"`
	Title       string   `json:"title"`
	Rating      *float64 `json:"rating"`
	RatingCount *int     `json:"ratingCount"`
	PriceRange  string   `json:"priceRange"`
	Price       string   `json:"price"`
}

// Search posts the query to the endpoint for the given mode.
func (s *HTTPSearcher) Search(ctx context.Context, query string, mode Mode) ([]Result, error) {
	path, ok := modePaths[mode]
	if !ok {
		return nil, fmt.Errorf("search: unknown mode %q", mode)
	}

	payload, err := json.Marshal(searchRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("search: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, s.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("search: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("search: unexpected status %s: %s",
			resp.Status, strings.TrimSpace(string(body)))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	return collectResults(decoded), nil
}

// collectResults flattens whichever vertical array the response carried.
func collectResults(resp searchResponse) []Result {
	raw := resp.Organic
	if len(raw) == 0 {
		raw = resp.Shopping
	}
	if len(raw) == 0 {
		raw = resp.Places
	}

	results := make([]Result, 0, len(raw))
	for _, r := range raw {
		url := r.Link
		if url == "" {
			url = r.Website
		}
		if url == "" {
			continue
		}

		priceRange := r.PriceRange
		if priceRange == "" {
			priceRange = r.Price
		}

		results = append(results, Result{
			URL:         url,
			Title:       r.Title,
			Rating:      r.Rating,
			ReviewCount: r.RatingCount,
			PriceRange:  priceRange,
		})
	}

	return results
}
