// Package monitor re-checks competitor prices on a schedule. It uses a
// deliberately cheap containment matcher for periodic runs and falls back
// to the full analysis engine only when the cheap pass finds nothing.
package monitor

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rivalscan/rivalscan/internal/analysis"
	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/fetcher"
	"github.com/rivalscan/rivalscan/internal/logger"
	"github.com/rivalscan/rivalscan/internal/robots"
	"github.com/rivalscan/rivalscan/internal/storage"
)

// maxMonitorPages bounds how many sub-pages a lightweight pass fetches.
const maxMonitorPages = 3

// Containment match tiers for the lightweight matcher.
const (
	scoreExactName     = 100
	scoreContainedName = 90
)

// PageFetcher fetches and extracts a single page.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*fetcher.PageContent, error)
}

// Analyzer runs the full offering extraction and matching pass.
type Analyzer interface {
	AnalyzeCompetitor(
		ctx context.Context,
		domainName string,
		businessCtx *domain.BusinessContext,
		searchMeta *domain.SearchMetadata,
		userProducts []domain.UserProduct,
	) (*domain.CompetitorInsight, error)
}

// Monitor performs price re-checks and records price history.
type Monitor struct {
	pages   PageFetcher
	engine  Analyzer
	history storage.PriceHistoryStore
	log     logger.Interface
}

// New creates a price monitor. engine may be nil; the lightweight matcher
// then runs without a fallback.
func New(pages PageFetcher, engine Analyzer, history storage.PriceHistoryStore, log logger.Interface) *Monitor {
	return &Monitor{
		pages:   pages,
		engine:  engine,
		history: history,
		log:     log,
	}
}

// RunTask executes one scheduled run of a monitoring task: it resolves
// the task's tracked product URLs into named products, re-checks the
// competitor's prices against them, and records every observed price
// under the tracked URL it matched.
func (m *Monitor) RunTask(ctx context.Context, task *domain.MonitoringTask) error {
	products := m.resolveTrackedProducts(ctx, task.ProductURLs)

	matches, err := m.MonitorPrices(ctx, task.CompetitorDomain, products)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, match := range matches {
		if match.Price == nil {
			continue
		}

		// Key history by the tracked URL when the match carries one, so
		// lookups by the URL the user registered find it.
		historyURL := match.URL
		if len(match.MatchedProducts) > 0 && match.MatchedProducts[0].URL != "" {
			historyURL = match.MatchedProducts[0].URL
		}

		if err := m.RecordPrice(ctx, task.UserID, historyURL,
			*match.Price, match.Currency, now); err != nil {
			m.log.Warn("Failed to record price",
				"url", historyURL, "error", err)
		}
	}
	return nil
}

// resolveTrackedProducts fetches each tracked URL and names the product
// after its page title, so name-based matching has something to match on.
// An unreachable page degrades to a URL-only entry.
func (m *Monitor) resolveTrackedProducts(ctx context.Context, urls []string) []domain.UserProduct {
	products := make([]domain.UserProduct, 0, len(urls))
	for _, u := range urls {
		product := domain.UserProduct{URL: u}

		page, err := m.pages.FetchPage(ctx, u)
		if err != nil {
			m.log.Warn("Tracked product fetch failed", "url", u, "error", err)
			products = append(products, product)
			continue
		}

		product.Name = strings.TrimSpace(page.Title)
		if product.Name == "" && len(page.Products) > 0 {
			product.Name = page.Products[0]
		}
		if len(page.Prices) > 0 {
			price := page.Prices[0].Value
			product.Price = &price
			product.Currency = page.Prices[0].Currency
		}

		products = append(products, product)
	}
	return products
}

// MonitorPrices re-fetches the competitor domain and matches its offering
// names against userProducts by case-insensitive containment. Zero matches
// with an engine available triggers a full analysis pass.
func (m *Monitor) MonitorPrices(
	ctx context.Context,
	domainName string,
	userProducts []domain.UserProduct,
) ([]domain.ProductMatch, error) {
	base, err := robots.BaseURL(domainName)
	if err != nil {
		return nil, err
	}

	root, err := m.pages.FetchPage(ctx, base+"/")
	if err != nil {
		return nil, fmt.Errorf("monitor %s: fetch root: %w", domainName, err)
	}

	pages := []*fetcher.PageContent{root}
	links := append(append([]string(nil), root.ProductLinks...), root.ServiceLinks...)
	for _, link := range links {
		if len(pages) > maxMonitorPages {
			break
		}
		page, err := m.pages.FetchPage(ctx, link)
		if err != nil {
			m.log.Debug("Monitor page fetch failed", "url", link, "error", err)
			continue
		}
		pages = append(pages, page)
	}

	matches := containmentMatches(pages, userProducts)
	if len(matches) > 0 || m.engine == nil {
		return matches, nil
	}

	m.log.Info("Lightweight match found nothing, running full analysis",
		"domain", domainName)

	insight, err := m.engine.AnalyzeCompetitor(ctx, domainName, nil, nil, userProducts)
	if err != nil {
		return nil, fmt.Errorf("monitor %s: full analysis: %w", domainName, err)
	}
	return insight.Products, nil
}

// containmentMatches pairs offering names found on the pages with user
// products whose names contain, or are contained in, the offering name.
func containmentMatches(pages []*fetcher.PageContent, userProducts []domain.UserProduct) []domain.ProductMatch {
	now := time.Now().UTC()
	seen := make(map[string]struct{})

	var matches []domain.ProductMatch
	for _, page := range pages {
		names := append(append([]string(nil), page.Products...), page.Services...)

		var pagePrice *float64
		currency := ""
		if len(page.Prices) > 0 {
			pagePrice = &page.Prices[0].Value
			currency = page.Prices[0].Currency
		}

		for _, name := range names {
			lowered := strings.ToLower(strings.TrimSpace(name))
			if lowered == "" {
				continue
			}
			if _, dup := seen[lowered]; dup {
				continue
			}

			for _, product := range userProducts {
				productName := strings.ToLower(strings.TrimSpace(product.Name))
				if productName == "" {
					continue
				}
				if !strings.Contains(lowered, productName) && !strings.Contains(productName, lowered) {
					continue
				}

				score := scoreContainedName
				if lowered == productName {
					score = scoreExactName
				}

				seen[lowered] = struct{}{}
				matches = append(matches, domain.ProductMatch{
					Name:        strings.TrimSpace(name),
					URL:         page.URL,
					Price:       pagePrice,
					Currency:    currency,
					LastUpdated: now,
					MatchedProducts: []domain.MatchedProduct{{
						Name:       product.Name,
						URL:        product.URL,
						MatchScore: score,
						PriceDiff:  analysis.PriceDiff(product.Price, pagePrice),
					}},
				})
				break
			}
		}
	}

	return matches
}

// RecordPrice appends a price observation, computing the percent change
// against the previous one.
func (m *Monitor) RecordPrice(
	ctx context.Context,
	userID, productURL string,
	price float64,
	currency string,
	observedAt time.Time,
) error {
	obs := domain.PriceObservation{
		Price:      price,
		Currency:   currency,
		ObservedAt: observedAt.UTC(),
	}

	previous, err := m.history.GetHistory(ctx, userID, productURL)
	if err == nil && previous.Current != nil && previous.Current.Price != 0 {
		pct := math.Round((price-previous.Current.Price)/previous.Current.Price*1000) / 10
		obs.ChangePct = &pct
	}

	return m.history.AppendObservation(ctx, userID, productURL, obs)
}

// TrackPriceHistory returns the most recent observation for productURL
// plus the time-ordered list of prior ones.
func (m *Monitor) TrackPriceHistory(
	ctx context.Context,
	userID, productURL string,
) (*domain.PriceHistory, error) {
	history, err := m.history.GetHistory(ctx, userID, productURL)
	if err != nil {
		return nil, fmt.Errorf("price history for %s: %w", productURL, err)
	}
	return history, nil
}
