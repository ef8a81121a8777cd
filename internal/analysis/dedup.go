package analysis

import (
	"strings"

	"github.com/rivalscan/rivalscan/internal/domain"
)

// DedupeOfferings merges offerings that share a normalized name. The first
// occurrence keeps its name and category; a later duplicate only fills in
// missing pricing and contributes new features. The operation is
// idempotent: deduplicating an already-deduplicated list is a no-op.
func DedupeOfferings(offerings []domain.Offering) []domain.Offering {
	if len(offerings) == 0 {
		return nil
	}

	index := make(map[string]int, len(offerings))
	deduped := make([]domain.Offering, 0, len(offerings))

	for _, offering := range offerings {
		key := normalizeName(offering.Name)
		if key == "" {
			continue
		}

		at, seen := index[key]
		if !seen {
			index[key] = len(deduped)
			deduped = append(deduped, offering)
			continue
		}

		existing := &deduped[at]
		if existing.Pricing == nil && offering.Pricing != nil {
			existing.Pricing = offering.Pricing
		}
		existing.Features = unionFeatures(existing.Features, offering.Features)
		if existing.Category == "" {
			existing.Category = offering.Category
		}
	}

	return deduped
}

// unionFeatures appends features not already present, case-insensitively,
// preserving first-seen order.
func unionFeatures(dst, src []string) []string {
	if len(src) == 0 {
		return dst
	}

	seen := make(map[string]struct{}, len(dst))
	for _, f := range dst {
		seen[strings.ToLower(f)] = struct{}{}
	}

	for _, f := range src {
		key := strings.ToLower(f)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, f)
	}

	return dst
}
