package fetcher

import (
	"regexp"

	"github.com/rivalscan/rivalscan/internal/domain"
)

// maxContactEntries caps extracted emails and phone numbers.
const maxContactEntries = 5

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{7,14}\d`)
)

// extractContactInfo pulls emails and phone numbers out of page text.
// Returns nil when nothing is found.
func extractContactInfo(text string) *domain.ContactInfo {
	emails := dedupeStrings(emailPattern.FindAllString(text, maxContactEntries))
	phones := dedupeStrings(phonePattern.FindAllString(text, maxContactEntries))

	if len(emails) == 0 && len(phones) == 0 {
		return nil
	}

	return &domain.ContactInfo{Emails: emails, Phones: phones}
}

// dedupeStrings removes duplicates preserving first-seen order.
func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
