package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivalscan/rivalscan/internal/analysis"
	"github.com/rivalscan/rivalscan/internal/domain"
)

func TestDedupeOfferings(t *testing.T) {
	t.Parallel()

	input := []domain.Offering{
		{
			Name:     "Deluxe Room",
			Category: "rooms",
			Features: []string{"balcony"},
		},
		{
			Name:     "deluxe room",
			Category: "suites",
			Features: []string{"Balcony", "minibar"},
			Pricing:  &domain.Pricing{Value: 120, Currency: "EUR", Unit: "night"},
		},
		{
			Name: "Airport Shuttle",
			Type: domain.OfferingTypeService,
		},
	}

	got := analysis.DedupeOfferings(input)
	require.Len(t, got, 2)

	deluxe := got[0]
	assert.Equal(t, "Deluxe Room", deluxe.Name, "first occurrence keeps its name")
	assert.Equal(t, "rooms", deluxe.Category, "first occurrence keeps its category")
	assert.Equal(t, []string{"balcony", "minibar"}, deluxe.Features, "features are unioned")
	require.NotNil(t, deluxe.Pricing, "later pricing fills the gap")
	assert.InDelta(t, 120.0, deluxe.Pricing.Value, 0.001)

	assert.Equal(t, "Airport Shuttle", got[1].Name)
}

func TestDedupeOfferingsIdempotent(t *testing.T) {
	t.Parallel()

	input := []domain.Offering{
		{Name: "Widget", Features: []string{"red"}},
		{Name: "widget", Features: []string{"blue"}},
		{Name: "Gadget"},
	}

	once := analysis.DedupeOfferings(input)
	twice := analysis.DedupeOfferings(once)

	assert.Equal(t, once, twice)
}

func TestDedupeOfferingsSkipsEmptyNames(t *testing.T) {
	t.Parallel()

	input := []domain.Offering{
		{Name: "", Category: "noise"},
		{Name: "   "},
		{Name: "Real Product"},
	}

	got := analysis.DedupeOfferings(input)
	require.Len(t, got, 1)
	assert.Equal(t, "Real Product", got[0].Name)
}
