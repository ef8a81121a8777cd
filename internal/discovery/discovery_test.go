package discovery_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivalscan/rivalscan/internal/config"
	"github.com/rivalscan/rivalscan/internal/discovery"
	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/fetcher"
	"github.com/rivalscan/rivalscan/internal/logger"
	"github.com/rivalscan/rivalscan/internal/search"
	"github.com/rivalscan/rivalscan/internal/storage/memory"
)

type fakePages struct {
	pages map[string]*fetcher.PageContent
}

func (f *fakePages) FetchPage(_ context.Context, rawURL string) (*fetcher.PageContent, error) {
	page, ok := f.pages[rawURL]
	if !ok {
		return nil, errors.New("page not found: " + rawURL)
	}
	return page, nil
}

type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, _ string) (string, error) {
	return f.response, f.err
}

type fakeSearcher struct {
	mu      sync.Mutex
	results []search.Result
	queries []string
	modes   []search.Mode
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, query string, mode search.Mode) ([]search.Result, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.modes = append(f.modes, mode)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeAnalyzer struct {
	mu       sync.Mutex
	insights map[string]*domain.CompetitorInsight
	failing  map[string]bool
	analyzed []string
}

func (f *fakeAnalyzer) AnalyzeCompetitor(
	_ context.Context,
	domainName string,
	_ *domain.BusinessContext,
	_ *domain.SearchMetadata,
	_ []domain.UserProduct,
) (*domain.CompetitorInsight, error) {
	f.mu.Lock()
	f.analyzed = append(f.analyzed, domainName)
	f.mu.Unlock()

	if f.failing[domainName] {
		return nil, errors.New("analysis blew up")
	}
	if insight, ok := f.insights[domainName]; ok {
		clone := *insight
		return &clone, nil
	}
	return &domain.CompetitorInsight{Domain: domainName, MatchScore: 60}, nil
}

func ownSitePages() map[string]*fetcher.PageContent {
	return map[string]*fetcher.PageContent{
		"https://shop.example/": {
			URL:         "https://shop.example/",
			Title:       "Shop Example",
			Description: "Premium widgets",
			Products:    []string{"Widget Pro"},
		},
	}
}

func TestDiscoverEndToEnd(t *testing.T) {
	t.Parallel()

	priceDiff := 10.0
	searcher := &fakeSearcher{results: []search.Result{
		{URL: "https://rival.example/widgets", Rating: floatPtr(4.5), PriceRange: "$50 - $150"},
		{URL: "https://www.booking.com/hotel/123"},
		{URL: "https://shop.example/about"},
		{URL: "://not a url"},
	}}

	analyzer := &fakeAnalyzer{insights: map[string]*domain.CompetitorInsight{
		"rival.example": {
			Domain:     "rival.example",
			MatchScore: 85,
			Products: []domain.ProductMatch{{
				Name: "Widget Pro Max",
				MatchedProducts: []domain.MatchedProduct{{
					Name: "Widget Pro", MatchScore: 90, PriceDiff: &priceDiff,
				}},
			}},
		},
	}}

	store := memory.NewCompetitorStore()
	orch := discovery.New(
		&fakePages{pages: ownSitePages()},
		&fakeCompleter{response: `["premium widget store", "widget shops nearby"]`},
		searcher,
		analyzer,
		store,
		config.DiscoveryConfig{},
		logger.NewNoop(),
	)

	result, err := orch.Discover(context.Background(), discovery.Input{
		Domain:       "shop.example",
		UserID:       "user-1",
		BusinessType: "electronics store",
	})
	require.NoError(t, err)

	require.Len(t, result.Competitors, 1, "own domain, aggregator, and malformed URL are filtered")
	insight := result.Competitors[0]
	assert.Equal(t, "rival.example", insight.Domain)
	assert.Equal(t, 85, insight.MatchScore)
	require.Len(t, insight.Products, 1)
	require.NotNil(t, insight.Products[0].MatchedProducts[0].PriceDiff)
	assert.InDelta(t, 10.0, *insight.Products[0].MatchedProducts[0].PriceDiff, 0.001)

	assert.Equal(t, []string{"booking.com"}, result.RecommendedSources)
	assert.Equal(t, 1, result.Stats.TotalDiscovered)
	assert.Equal(t, 1, result.Stats.NewCompetitors)
	assert.Equal(t, 0, result.Stats.FailedAnalyses)
	assert.Contains(t, result.SearchStrategy, "2 queries")

	// The insight was persisted for the user.
	saved, err := store.GetInsight(context.Background(), "user-1", "rival.example")
	require.NoError(t, err)
	assert.Equal(t, 85, saved.MatchScore)
}

func TestDiscoverFallbackQueriesOnMalformedLLM(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{}
	orch := discovery.New(
		&fakePages{pages: ownSitePages()},
		&fakeCompleter{response: "I could not think of any queries, sorry!"},
		searcher,
		&fakeAnalyzer{},
		memory.NewCompetitorStore(),
		config.DiscoveryConfig{},
		logger.NewNoop(),
	)

	userPrice := 100.0
	_, err := orch.Discover(context.Background(), discovery.Input{
		Domain:       "shop.example",
		UserID:       "user-1",
		BusinessType: "electronics store",
		UserProducts: []domain.UserProduct{{Name: "Widget Pro", Price: &userPrice}},
	})
	require.NoError(t, err)

	assert.Contains(t, searcher.queries, "electronics store near shop area")
	assert.Contains(t, searcher.queries, "similar services to shop")
	assert.Contains(t, searcher.queries, "electronics store Widget Pro")
}

func TestDiscoverSearchModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		businessType string
		expected     search.Mode
	}{
		{name: "local business uses local mode", businessType: "local bakery", expected: search.ModeLocal},
		{name: "other businesses use maps mode", businessType: "saas platform", expected: search.ModeMaps},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			searcher := &fakeSearcher{}
			orch := discovery.New(
				&fakePages{pages: ownSitePages()},
				nil,
				searcher,
				&fakeAnalyzer{},
				memory.NewCompetitorStore(),
				config.DiscoveryConfig{},
				logger.NewNoop(),
			)

			_, err := orch.Discover(context.Background(), discovery.Input{
				Domain:       "shop.example",
				UserID:       "user-1",
				BusinessType: tt.businessType,
			})
			require.NoError(t, err)

			assert.Contains(t, searcher.modes, search.ModeShopping)
			assert.Contains(t, searcher.modes, search.ModeOrganic)
			assert.Contains(t, searcher.modes, tt.expected)
		})
	}
}

func TestDiscoverFailedAnalysisIsIsolated(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []search.Result{
		{URL: "https://rival.example/"},
		{URL: "https://broken.example/"},
	}}

	analyzer := &fakeAnalyzer{failing: map[string]bool{"broken.example": true}}

	orch := discovery.New(
		&fakePages{pages: ownSitePages()},
		nil,
		searcher,
		analyzer,
		memory.NewCompetitorStore(),
		config.DiscoveryConfig{},
		logger.NewNoop(),
	)

	result, err := orch.Discover(context.Background(), discovery.Input{
		Domain: "shop.example",
		UserID: "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.FailedAnalyses)
	require.Len(t, result.Competitors, 1)
	assert.Equal(t, "rival.example", result.Competitors[0].Domain)
}

func TestDiscoverCandidateCapReportsDropped(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []search.Result{
		{URL: "https://rival.example/"},
		{URL: "https://other.example/"},
		{URL: "https://third.example/"},
	}}

	analyzer := &fakeAnalyzer{}
	orch := discovery.New(
		&fakePages{pages: ownSitePages()},
		nil,
		searcher,
		analyzer,
		memory.NewCompetitorStore(),
		config.DiscoveryConfig{MaxCandidates: 1},
		logger.NewNoop(),
	)

	result, err := orch.Discover(context.Background(), discovery.Input{
		Domain: "shop.example",
		UserID: "user-1",
	})
	require.NoError(t, err)

	require.Len(t, result.Competitors, 1)
	assert.Len(t, analyzer.analyzed, 1)
	assert.Equal(t, 2, result.Stats.DroppedCandidates)
}

func TestDiscoverKnownCompetitorsCountAsExisting(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []search.Result{
		{URL: "https://rival.example/"},
		{URL: "https://fresh.example/"},
	}}

	orch := discovery.New(
		&fakePages{pages: ownSitePages()},
		nil,
		searcher,
		&fakeAnalyzer{},
		memory.NewCompetitorStore(),
		config.DiscoveryConfig{},
		logger.NewNoop(),
	)

	result, err := orch.Discover(context.Background(), discovery.Input{
		Domain:           "shop.example",
		UserID:           "user-1",
		KnownCompetitors: []string{"rival.example"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.ExistingCompetitors)
	assert.Equal(t, 1, result.Stats.NewCompetitors)
}

func TestDiscoverSearchFailureDegradesToEmptyResult(t *testing.T) {
	t.Parallel()

	orch := discovery.New(
		&fakePages{pages: ownSitePages()},
		nil,
		&fakeSearcher{err: errors.New("search api down")},
		&fakeAnalyzer{},
		memory.NewCompetitorStore(),
		config.DiscoveryConfig{},
		logger.NewNoop(),
	)

	result, err := orch.Discover(context.Background(), discovery.Input{
		Domain: "shop.example",
		UserID: "user-1",
	})
	require.NoError(t, err)

	assert.Empty(t, result.Competitors)
	assert.Equal(t, 0, result.Stats.TotalDiscovered)
}

func TestDiscoverRequiresDomain(t *testing.T) {
	t.Parallel()

	orch := discovery.New(
		&fakePages{},
		nil,
		&fakeSearcher{},
		&fakeAnalyzer{},
		memory.NewCompetitorStore(),
		config.DiscoveryConfig{},
		logger.NewNoop(),
	)

	_, err := orch.Discover(context.Background(), discovery.Input{UserID: "user-1"})
	assert.Error(t, err)
}

func floatPtr(v float64) *float64 {
	return &v
}
