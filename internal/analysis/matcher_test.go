package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivalscan/rivalscan/internal/analysis"
)

func TestScoreNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{
			name:     "exact match after normalization",
			a:        "  Deluxe King Room ",
			b:        "deluxe king room",
			expected: 100,
		},
		{
			name:     "substring match",
			a:        "Deluxe Room",
			b:        "Deluxe Room with Sea View",
			expected: 90,
		},
		{
			name:     "substring match reversed",
			a:        "Deluxe Room with Sea View",
			b:        "Deluxe Room",
			expected: 90,
		},
		{
			name:     "no overlap",
			a:        "Standard Twin",
			b:        "Conference Package",
			expected: 0,
		},
		{
			name:     "stop words ignored",
			a:        "Breakfast per person",
			b:        "Breakfast",
			expected: 90,
		},
		{
			name:     "empty name",
			a:        "",
			b:        "Deluxe Room",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, analysis.ScoreNames(tt.a, tt.b))
		})
	}
}

func TestScoreNamesTokenOverlap(t *testing.T) {
	t.Parallel()

	// "deluxe garden suite" vs "deluxe mountain suite": 2 of 3 tokens of the
	// smaller set overlap.
	score := analysis.ScoreNames("Deluxe Garden Suite", "Deluxe Mountain Suite")
	assert.Equal(t, 67, score)

	// Full token overlap in different order caps below the substring tier.
	score = analysis.ScoreNames("Suite Deluxe Garden", "Garden Deluxe Suite")
	assert.Equal(t, 95, score)
}

func TestScoreNamesSymmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"Deluxe Room", "Deluxe Room with Sea View"},
		{"Widget Pro", "Widget Pro Max"},
		{"Deluxe Garden Suite", "Deluxe Mountain Suite"},
	}

	for _, pair := range pairs {
		assert.Equal(t,
			analysis.ScoreNames(pair[0], pair[1]),
			analysis.ScoreNames(pair[1], pair[0]),
			"score should be symmetric for %q / %q", pair[0], pair[1])
	}
}

func TestPriceDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		user       *float64
		competitor *float64
		expected   *float64
	}{
		{
			name:       "competitor more expensive",
			user:       floatPtr(100),
			competitor: floatPtr(110),
			expected:   floatPtr(10.0),
		},
		{
			name:       "competitor cheaper",
			user:       floatPtr(100),
			competitor: floatPtr(90),
			expected:   floatPtr(-10.0),
		},
		{
			name:       "rounds to one decimal",
			user:       floatPtr(3),
			competitor: floatPtr(4),
			expected:   floatPtr(33.3),
		},
		{
			name:       "nil user price",
			user:       nil,
			competitor: floatPtr(50),
			expected:   nil,
		},
		{
			name:       "nil competitor price",
			user:       floatPtr(50),
			competitor: nil,
			expected:   nil,
		},
		{
			name:       "zero user price",
			user:       floatPtr(0),
			competitor: floatPtr(50),
			expected:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := analysis.PriceDiff(tt.user, tt.competitor)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 0.001)
		})
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
