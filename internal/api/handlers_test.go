package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivalscan/rivalscan/internal/api"
	"github.com/rivalscan/rivalscan/internal/discovery"
	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/logger"
	"github.com/rivalscan/rivalscan/internal/storage"
	"github.com/rivalscan/rivalscan/internal/storage/memory"
	"github.com/rivalscan/rivalscan/internal/tasks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDiscoverer struct {
	result *domain.DiscoveryResult
	err    error
}

func (f *fakeDiscoverer) Discover(_ context.Context, _ discovery.Input) (*domain.DiscoveryResult, error) {
	return f.result, f.err
}

type fakeAnalyzer struct {
	insight *domain.CompetitorInsight
	err     error
}

func (f *fakeAnalyzer) AnalyzeCompetitor(
	_ context.Context,
	_ string,
	_ *domain.BusinessContext,
	_ *domain.SearchMetadata,
	_ []domain.UserProduct,
) (*domain.CompetitorInsight, error) {
	return f.insight, f.err
}

type fakeMonitor struct {
	matches []domain.ProductMatch
	history *domain.PriceHistory
	err     error
}

func (f *fakeMonitor) MonitorPrices(_ context.Context, _ string, _ []domain.UserProduct) ([]domain.ProductMatch, error) {
	return f.matches, f.err
}

func (f *fakeMonitor) TrackPriceHistory(_ context.Context, _, _ string) (*domain.PriceHistory, error) {
	if f.history == nil && f.err == nil {
		return nil, storage.ErrNotFound
	}
	return f.history, f.err
}

func newTestRouter(t *testing.T, disc api.Discoverer, analyzer api.Analyzer, monitor api.PriceMonitor) *gin.Engine {
	t.Helper()

	log := logger.NewNoop()
	service := tasks.NewService(memory.NewTaskStore(), log)

	return api.NewRouter(api.Handlers{
		Discovery: api.NewDiscoveryHandler(disc, analyzer, log),
		Monitor:   api.NewMonitorHandler(monitor, log),
		Tasks:     api.NewTasksHandler(service, nil, log),
	}, log)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeDiscoverer{}, &fakeAnalyzer{}, &fakeMonitor{})

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDiscoverEndpoint(t *testing.T) {
	t.Parallel()

	disc := &fakeDiscoverer{result: &domain.DiscoveryResult{
		Competitors:    []domain.CompetitorInsight{{Domain: "rival.example", MatchScore: 85}},
		SearchStrategy: "2 queries across 3 search modes",
		Stats:          domain.DiscoveryStats{TotalDiscovered: 1, NewCompetitors: 1},
	}}
	router := newTestRouter(t, disc, &fakeAnalyzer{}, &fakeMonitor{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/discover", gin.H{
		"domain":  "shop.example",
		"user_id": "user-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.DiscoveryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Competitors, 1)
	assert.Equal(t, 85, result.Competitors[0].MatchScore)
}

func TestDiscoverEndpointValidation(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeDiscoverer{}, &fakeAnalyzer{}, &fakeMonitor{})

	tests := []struct {
		name string
		body gin.H
	}{
		{name: "missing domain", body: gin.H{"user_id": "user-1"}},
		{name: "missing user_id", body: gin.H{"domain": "shop.example"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := doJSON(t, router, http.MethodPost, "/api/v1/discover", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDiscoverEndpointFailure(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t,
		&fakeDiscoverer{err: errors.New("everything is down")},
		&fakeAnalyzer{}, &fakeMonitor{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/discover", gin.H{
		"domain": "shop.example", "user_id": "user-1",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAnalyzeEndpoint(t *testing.T) {
	t.Parallel()

	analyzer := &fakeAnalyzer{insight: &domain.CompetitorInsight{Domain: "rival.example", MatchScore: 75}}
	router := newTestRouter(t, &fakeDiscoverer{}, analyzer, &fakeMonitor{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analyze", gin.H{
		"competitor_domain": "rival.example",
		"business_context":  gin.H{"business_type": "hotel"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var insight domain.CompetitorInsight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &insight))
	assert.Equal(t, 75, insight.MatchScore)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/analyze", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMonitorPricesEndpoint(t *testing.T) {
	t.Parallel()

	monitor := &fakeMonitor{matches: []domain.ProductMatch{{Name: "Widget Pro Max"}}}
	router := newTestRouter(t, &fakeDiscoverer{}, &fakeAnalyzer{}, monitor)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/monitor/prices", gin.H{
		"competitor_domain": "rival.example",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Widget Pro Max")

	rec = doJSON(t, router, http.MethodPost, "/api/v1/monitor/prices", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPriceHistoryEndpoint(t *testing.T) {
	t.Parallel()

	price := domain.PriceObservation{Price: 110, Currency: "USD"}
	monitor := &fakeMonitor{history: &domain.PriceHistory{
		ProductURL: "https://rival.example/widget",
		Current:    &price,
		History:    []domain.PriceObservation{price},
	}}
	router := newTestRouter(t, &fakeDiscoverer{}, &fakeAnalyzer{}, monitor)

	rec := doJSON(t, router, http.MethodGet,
		"/api/v1/monitor/history?product_url=https%3A%2F%2Frival.example%2Fwidget&user_id=user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history domain.PriceHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.NotNil(t, history.Current)
	assert.InDelta(t, 110.0, history.Current.Price, 0.001)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/monitor/history", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing product_url")

	rec = doJSON(t, router, http.MethodGet,
		"/api/v1/monitor/history?product_url=https%3A%2F%2Frival.example%2Fwidget", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing user_id")
}

func TestPriceHistoryNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeDiscoverer{}, &fakeAnalyzer{}, &fakeMonitor{})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/monitor/history?product_url=x&user_id=user-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasksCRUDEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeDiscoverer{}, &fakeAnalyzer{}, &fakeMonitor{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/tasks", gin.H{
		"user_id":           "user-1",
		"competitor_domain": "rival.example",
		"frequency":         "daily",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.MonitoringTask
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/tasks?user_id=user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)

	rec = doJSON(t, router, http.MethodPatch, "/api/v1/tasks/"+created.ID, gin.H{
		"frequency": "weekly",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "@weekly")

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasksValidationEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeDiscoverer{}, &fakeAnalyzer{}, &fakeMonitor{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/tasks", gin.H{
		"user_id":           "user-1",
		"competitor_domain": "rival.example",
		"frequency":         "whenever",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/tasks", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "listing requires user_id")

	rec = doJSON(t, router, http.MethodPatch, "/api/v1/tasks/unknown", gin.H{"frequency": "daily"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
