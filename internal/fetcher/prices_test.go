package fetcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivalscan/rivalscan/internal/fetcher"
)

func TestExtractPrices_SymbolForms(t *testing.T) {
	t.Parallel()

	prices := fetcher.ExtractPrices("Rooms from $129.99 per night, suites €1,250", "")

	require.Len(t, prices, 2)
	assert.InDelta(t, 129.99, prices[0].Value, 0.001)
	assert.Equal(t, "USD", prices[0].Currency)
	assert.Equal(t, "night", prices[0].Unit)
	assert.InDelta(t, 1250.0, prices[1].Value, 0.001)
	assert.Equal(t, "EUR", prices[1].Currency)
}

func TestExtractPrices_CodeForms(t *testing.T) {
	t.Parallel()

	prices := fetcher.ExtractPrices("Membership 45 USD per month or GBP 39", "")

	require.Len(t, prices, 2)
	assert.Equal(t, "USD", prices[0].Currency)
	assert.Equal(t, "month", prices[0].Unit)
	assert.InDelta(t, 39.0, prices[1].Value, 0.001)
	assert.Equal(t, "GBP", prices[1].Currency)
}

func TestExtractPrices_BusinessTypeUnitFallback(t *testing.T) {
	t.Parallel()

	prices := fetcher.ExtractPrices("Standard room $89", "hotel")

	require.Len(t, prices, 1)
	assert.Equal(t, "night", prices[0].Unit)
}

func TestExtractPrices_NoPrices(t *testing.T) {
	t.Parallel()

	assert.Empty(t, fetcher.ExtractPrices("A page with no pricing at all", "hotel"))
}
