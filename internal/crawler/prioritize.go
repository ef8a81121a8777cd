package crawler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rivalscan/rivalscan/internal/llm"
)

// priorityKeywords is the fixed keyword list used by the deterministic
// prioritization fallback.
var priorityKeywords = []string{
	"product", "service", "pricing", "price", "about", "contact", "location", "store",
}

// prioritize reduces a URL list to the top limit entries, asking the
// completion capability to rank them and falling back to keyword scoring
// on any failure.
func (c *Crawler) prioritize(ctx context.Context, urls []string, limit int) []string {
	if c.completer == nil {
		return PrioritizeByKeywords(urls, limit)
	}

	ranked, err := c.rankWithLLM(ctx, urls, limit)
	if err != nil {
		c.log.Debug("LLM prioritization failed, using keyword fallback", "error", err)
		return PrioritizeByKeywords(urls, limit)
	}

	return ranked
}

// rankWithLLM asks the completion capability to rank URLs by likelihood of
// containing product, pricing or company information.
func (c *Crawler) rankWithLLM(ctx context.Context, urls []string, limit int) ([]string, error) {
	prompt := fmt.Sprintf(
		"Rank the following URLs by how likely they are to contain product, "+
			"pricing or company information. Respond with a JSON array of the "+
			"top %d URLs, most relevant first, and nothing else.\n\n%s",
		limit, strings.Join(urls, "\n"))

	text, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	parsed := llm.Decode[[]string](text)
	if parsed.Malformed {
		return nil, fmt.Errorf("malformed ranking response")
	}

	known := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		known[u] = struct{}{}
	}

	ranked := make([]string, 0, limit)
	for _, u := range parsed.Value {
		u = strings.TrimSpace(u)
		if _, ok := known[u]; !ok {
			continue
		}
		ranked = append(ranked, u)
		if len(ranked) == limit {
			break
		}
	}

	if len(ranked) == 0 {
		return nil, fmt.Errorf("ranking response contained no known URLs")
	}

	return ranked, nil
}

// PrioritizeByKeywords scores each URL by counting hits from the fixed
// keyword list and returns the top limit URLs by descending score, ties
// broken by original order. The ordering is deterministic for a given
// input list.
func PrioritizeByKeywords(urls []string, limit int) []string {
	if len(urls) <= limit {
		return urls
	}

	type scored struct {
		url   string
		score int
		index int
	}

	entries := make([]scored, len(urls))
	for i, u := range urls {
		lower := strings.ToLower(u)
		score := 0
		for _, kw := range priorityKeywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		entries[i] = scored{url: u, score: score, index: i}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].score != entries[b].score {
			return entries[a].score > entries[b].score
		}
		return entries[a].index < entries[b].index
	})

	top := make([]string, limit)
	for i := range top {
		top[i] = entries[i].url
	}

	return top
}
