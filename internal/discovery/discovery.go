// Package discovery orchestrates competitor discovery: it profiles the
// user's own site, generates search queries, fans out over the search
// modes, filters the resulting domains, and analyzes every surviving
// candidate concurrently.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rivalscan/rivalscan/internal/config"
	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/fetcher"
	"github.com/rivalscan/rivalscan/internal/llm"
	"github.com/rivalscan/rivalscan/internal/logger"
	"github.com/rivalscan/rivalscan/internal/robots"
	"github.com/rivalscan/rivalscan/internal/search"
	"github.com/rivalscan/rivalscan/internal/storage"
)

// Defaults applied when the discovery config leaves bounds unset.
const (
	defaultMaxConcurrentAnalyses = 4
	defaultMaxCandidates         = 12
	searchModeCount              = 3
)

// PageFetcher fetches and extracts a single page.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*fetcher.PageContent, error)
}

// Analyzer runs the full offering extraction and matching pass for one
// candidate domain.
type Analyzer interface {
	AnalyzeCompetitor(
		ctx context.Context,
		domainName string,
		businessCtx *domain.BusinessContext,
		searchMeta *domain.SearchMetadata,
		userProducts []domain.UserProduct,
	) (*domain.CompetitorInsight, error)
}

// Input is one discovery request.
type Input struct {
	Domain            string
	UserID            string
	BusinessType      string
	KnownCompetitors  []string
	ProductCatalogURL string
	UserProducts      []domain.UserProduct
}

// Orchestrator wires the discovery pipeline together.
type Orchestrator struct {
	pages       PageFetcher
	completer   llm.Client
	searcher    search.Searcher
	engine      Analyzer
	competitors storage.CompetitorStore
	cfg         config.DiscoveryConfig
	log         logger.Interface
}

// New creates a discovery orchestrator. completer may be nil; query
// generation then uses the deterministic templates.
func New(
	pages PageFetcher,
	completer llm.Client,
	searcher search.Searcher,
	engine Analyzer,
	competitors storage.CompetitorStore,
	cfg config.DiscoveryConfig,
	log logger.Interface,
) *Orchestrator {
	if cfg.MaxConcurrentAnalyses <= 0 {
		cfg.MaxConcurrentAnalyses = defaultMaxConcurrentAnalyses
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = defaultMaxCandidates
	}

	return &Orchestrator{
		pages:       pages,
		completer:   completer,
		searcher:    searcher,
		engine:      engine,
		competitors: competitors,
		cfg:         cfg,
		log:         log,
	}
}

// Discover runs the full discovery pipeline for in.Domain.
func (o *Orchestrator) Discover(ctx context.Context, in Input) (*domain.DiscoveryResult, error) {
	if strings.TrimSpace(in.Domain) == "" {
		return nil, fmt.Errorf("discover: domain is required")
	}

	ownSite := o.fetchOwnSite(ctx, in.Domain)
	products := o.resolveUserProducts(ctx, in, ownSite)
	in.UserProducts = products

	queries := o.generateQueries(ctx, in, ownSite)
	o.log.Info("Discovery queries generated",
		"domain", in.Domain, "queries", len(queries))

	candidates := o.searchCandidates(ctx, in, queries)
	picked := candidates.take(o.cfg.MaxCandidates)
	if dropped := candidates.size() - len(picked); dropped > 0 {
		o.log.Info("Candidate cap reached",
			"cap", o.cfg.MaxCandidates, "dropped", dropped)
	}

	insights, failed := o.analyzeCandidates(ctx, in, picked)

	stats := domain.DiscoveryStats{
		TotalDiscovered:   len(insights),
		FailedAnalyses:    failed,
		DroppedCandidates: candidates.size() - len(picked),
	}
	o.recordCompetitors(ctx, in, insights, &stats)

	return &domain.DiscoveryResult{
		Competitors:        insights,
		RecommendedSources: candidates.sources(),
		SearchStrategy: fmt.Sprintf("%d queries across %d search modes",
			len(queries), searchModeCount),
		Stats: stats,
	}, nil
}

// fetchOwnSite profiles the user's own domain; failure degrades to an
// empty profile rather than aborting the run.
func (o *Orchestrator) fetchOwnSite(ctx context.Context, domainName string) *fetcher.PageContent {
	base, err := robots.BaseURL(domainName)
	if err != nil {
		o.log.Warn("Own domain is malformed", "domain", domainName, "error", err)
		return nil
	}

	page, err := o.pages.FetchPage(ctx, base+"/")
	if err != nil {
		o.log.Warn("Own site fetch failed, continuing without profile",
			"domain", domainName, "error", err)
		return nil
	}
	return page
}

// resolveUserProducts returns the caller's products, falling back to names
// scraped from the product catalog URL or the user's own site.
func (o *Orchestrator) resolveUserProducts(
	ctx context.Context,
	in Input,
	ownSite *fetcher.PageContent,
) []domain.UserProduct {
	if len(in.UserProducts) > 0 {
		return in.UserProducts
	}

	names := []string{}
	if in.ProductCatalogURL != "" {
		if catalog, err := o.pages.FetchPage(ctx, in.ProductCatalogURL); err != nil {
			o.log.Warn("Product catalog fetch failed",
				"url", in.ProductCatalogURL, "error", err)
		} else {
			names = catalog.Products
		}
	}
	if len(names) == 0 && ownSite != nil {
		names = ownSite.Products
	}

	products := make([]domain.UserProduct, 0, len(names))
	for _, name := range names {
		products = append(products, domain.UserProduct{Name: name})
	}
	return products
}

// searchCandidates fans out every query over the three search modes in
// parallel and folds the results into a candidate set. A failed search
// branch is logged and its siblings carry on.
func (o *Orchestrator) searchCandidates(
	ctx context.Context,
	in Input,
	queries []string,
) *candidateSet {
	modes := []search.Mode{search.ModeShopping, search.ModeOrganic, localityMode(in.BusinessType)}

	candidates := newCandidateSet(in.Domain)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, query := range queries {
		for _, mode := range modes {
			g.Go(func() error {
				results, err := o.searcher.Search(gctx, query, mode)
				if err != nil {
					o.log.Warn("Search branch failed",
						"query", query, "mode", string(mode), "error", err)
					return nil
				}

				mu.Lock()
				for _, result := range results {
					candidates.add(result)
				}
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	return candidates
}

// localityMode picks the third search mode from the business type.
func localityMode(businessType string) search.Mode {
	if strings.Contains(strings.ToLower(businessType), "local") {
		return search.ModeLocal
	}
	return search.ModeMaps
}

// analyzeCandidates runs the analysis engine over every candidate with
// bounded concurrency. A failed branch is counted, never fatal.
func (o *Orchestrator) analyzeCandidates(
	ctx context.Context,
	in Input,
	picked []candidate,
) ([]domain.CompetitorInsight, int) {
	businessCtx := &domain.BusinessContext{BusinessType: in.BusinessType}

	var mu sync.Mutex
	var insights []domain.CompetitorInsight
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxConcurrentAnalyses)

	for _, cand := range picked {
		g.Go(func() error {
			insight, err := o.engine.AnalyzeCompetitor(
				gctx, cand.domain, businessCtx, cand.meta, in.UserProducts)
			if err != nil {
				o.log.Warn("Candidate analysis failed",
					"domain", cand.domain, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			if cand.meta != nil {
				insight.ListingPlatforms = append(insight.ListingPlatforms,
					listingFromMetadata(cand.domain, cand.meta))
			}

			mu.Lock()
			insights = append(insights, *insight)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return insights, failed
}

// listingFromMetadata records the search listing a candidate was found
// through.
func listingFromMetadata(domainName string, meta *domain.SearchMetadata) domain.ListingPlatform {
	return domain.ListingPlatform{
		Platform:    "search",
		URL:         "https://" + domainName,
		Rating:      meta.Rating,
		ReviewCount: meta.ReviewCount,
		PriceRange:  meta.PriceRange,
	}
}

// recordCompetitors persists the insights and fills the new/existing
// competitor counters.
func (o *Orchestrator) recordCompetitors(
	ctx context.Context,
	in Input,
	insights []domain.CompetitorInsight,
	stats *domain.DiscoveryStats,
) {
	knownList := make(map[string]struct{}, len(in.KnownCompetitors))
	for _, known := range in.KnownCompetitors {
		knownList[normalizeHost(known)] = struct{}{}
	}

	for i := range insights {
		insight := &insights[i]

		_, known := knownList[insight.Domain]
		if !known && o.competitors != nil {
			stored, err := o.competitors.HasCompetitor(ctx, in.UserID, insight.Domain)
			if err != nil {
				o.log.Warn("Competitor lookup failed", "domain", insight.Domain, "error", err)
			}
			known = stored
		}

		if known {
			stats.ExistingCompetitors++
		} else {
			stats.NewCompetitors++
		}

		if o.competitors == nil {
			continue
		}
		if err := o.competitors.SaveInsight(ctx, in.UserID, insight); err != nil {
			o.log.Warn("Competitor save failed", "domain", insight.Domain, "error", err)
		}
	}
}
