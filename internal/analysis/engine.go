package analysis

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rivalscan/rivalscan/internal/config"
	"github.com/rivalscan/rivalscan/internal/crawler"
	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/fetcher"
	"github.com/rivalscan/rivalscan/internal/llm"
	"github.com/rivalscan/rivalscan/internal/logger"
	"github.com/rivalscan/rivalscan/internal/robots"
)

// Data-gap diagnostics appended to CompetitorInsight.DataGaps.
const (
	GapMissingDescription = "missing_meta_description"
	GapNoStructuredData   = "no_structured_data"
	GapNoPricing          = "no_extracted_prices"
	GapNoOfferings        = "no_named_offerings"
)

// Analysis bounds.
const (
	// maxRelevantPages is how many sub-pages beyond the root are inspected.
	maxRelevantPages = 3
	// maxChunksPerPage bounds classification calls per page.
	maxChunksPerPage = 8
)

// maxCompositeScore caps the composite competitor match score.
const maxCompositeScore = 100

// PageFetcher fetches and extracts a single page.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*fetcher.PageContent, error)
}

// RulesReader reads robots.txt rules for a domain.
type RulesReader interface {
	Read(ctx context.Context, domainName string) (*robots.Rules, error)
}

// Engine extracts offerings from a competitor domain and matches them
// against the user's catalog.
type Engine struct {
	pages     PageFetcher
	completer llm.Client
	rules     RulesReader
	cfg       config.MatchingConfig
	log       logger.Interface
}

// NewEngine creates an analysis engine. Zero-valued matching constants are
// replaced with the defaults.
func NewEngine(
	pages PageFetcher,
	completer llm.Client,
	rules RulesReader,
	cfg config.MatchingConfig,
	log logger.Interface,
) *Engine {
	if cfg.BaseScore == 0 {
		cfg.BaseScore = config.DefaultBaseScore
	}
	if cfg.BusinessTypeBonus == 0 {
		cfg.BusinessTypeBonus = config.DefaultBusinessTypeBonus
	}
	if cfg.PerMatchBonus == 0 {
		cfg.PerMatchBonus = config.DefaultPerMatchBonus
	}
	if cfg.MaxMatchBonus == 0 {
		cfg.MaxMatchBonus = config.DefaultMaxMatchBonus
	}
	if cfg.AcceptFloor == 0 {
		cfg.AcceptFloor = config.DefaultAcceptFloor
	}

	return &Engine{
		pages:     pages,
		completer: completer,
		rules:     rules,
		cfg:       cfg,
		log:       log,
	}
}

// AnalyzeCompetitor fetches the competitor's site, extracts and dedupes
// offerings, matches them against userProducts, and assembles the insight.
func (e *Engine) AnalyzeCompetitor(
	ctx context.Context,
	domainName string,
	businessCtx *domain.BusinessContext,
	searchMeta *domain.SearchMetadata,
	userProducts []domain.UserProduct,
) (*domain.CompetitorInsight, error) {
	base, err := robots.BaseURL(domainName)
	if err != nil {
		return nil, err
	}

	root, err := e.pages.FetchPage(ctx, base+"/")
	if err != nil {
		return nil, fmt.Errorf("analyze %s: fetch root: %w", domainName, err)
	}

	detectedType := e.detectBusinessType(ctx, root)
	effectiveType := detectedType
	declaredType := ""
	if businessCtx != nil && businessCtx.BusinessType != "" {
		declaredType = businessCtx.BusinessType
		effectiveType = declaredType
	}

	prices := fetcher.ExtractPrices(root.BodyText, effectiveType)
	if len(prices) == 0 && searchMeta != nil {
		if midpoint, ok := priceRangeMidpoint(searchMeta.PriceRange); ok {
			prices = []domain.PricePoint{midpoint}
		}
	}

	pages := e.collectRelevantPages(ctx, domainName, root)

	offerings := e.extractOfferings(ctx, pages)
	offerings = DedupeOfferings(offerings)

	products := e.matchOfferings(offerings, userProducts)

	insight := &domain.CompetitorInsight{
		Domain:   domainName,
		Products: products,
	}

	insight.MatchScore = e.compositeScore(detectedType, declaredType, len(products))
	insight.MatchReasons = matchReasons(detectedType, declaredType, len(products))
	insight.SuggestedApproach = suggestedApproach(len(products), len(offerings))
	insight.DataGaps = collectDataGaps(root, prices, offerings)

	return insight, nil
}

// detectBusinessType asks the completion capability to name the business
// type from the root page text. Failures yield an empty type.
func (e *Engine) detectBusinessType(ctx context.Context, root *fetcher.PageContent) string {
	if e.completer == nil || root.BodyText == "" {
		return ""
	}

	excerpt := root.BodyText
	if len(excerpt) > 2000 {
		excerpt = excerpt[:2000]
	}

	prompt := fmt.Sprintf(
		"In at most three words, name the type of business this website "+
			"belongs to (for example: hotel, dental clinic, online electronics "+
			"store). Respond with the business type only.\n\nTitle: %s\n\n%s",
		root.Title, excerpt)

	text, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		e.log.Debug("Business type detection failed", "error", err)
		return ""
	}

	return strings.ToLower(strings.Trim(strings.TrimSpace(text), `."'`))
}

// collectRelevantPages returns the root page plus up to maxRelevantPages
// sub-pages likely to describe offerings, honoring robots rules.
func (e *Engine) collectRelevantPages(
	ctx context.Context,
	domainName string,
	root *fetcher.PageContent,
) []*fetcher.PageContent {
	pages := []*fetcher.PageContent{root}

	candidates := e.relevantLinks(ctx, root)
	if len(candidates) == 0 {
		return pages
	}

	rules := e.readRules(ctx, domainName)

	for _, link := range candidates {
		if len(pages) > maxRelevantPages {
			break
		}
		if link == root.URL {
			continue
		}

		if parsed, err := url.Parse(link); err != nil || !rules.Allowed(parsed.Path) {
			continue
		}

		page, err := e.pages.FetchPage(ctx, link)
		if err != nil {
			e.log.Warn("Relevant page fetch failed", "url", link, "error", err)
			continue
		}
		pages = append(pages, page)
	}

	return pages
}

// readRules loads robots rules, degrading to allow-all.
func (e *Engine) readRules(ctx context.Context, domainName string) *robots.Rules {
	if e.rules == nil {
		return robots.AllowAll()
	}

	rules, err := e.rules.Read(ctx, domainName)
	if err != nil || rules == nil {
		return robots.AllowAll()
	}
	return rules
}

// relevantLinks selects links likely to lead to offering pages, preferring
// an LLM ranking and falling back to keyword prioritization.
func (e *Engine) relevantLinks(ctx context.Context, root *fetcher.PageContent) []string {
	candidates := make([]string, 0, len(root.ProductLinks)+len(root.ServiceLinks)+len(root.Links))
	candidates = append(candidates, root.ProductLinks...)
	candidates = append(candidates, root.ServiceLinks...)
	candidates = append(candidates, root.Links...)
	candidates = dedupePreservingOrder(candidates)

	if len(candidates) <= maxRelevantPages {
		return candidates
	}

	if e.completer != nil {
		prompt := fmt.Sprintf(
			"Which of these URLs most likely describe the products, services "+
				"or prices offered by the business? Respond with a JSON array "+
				"of the best %d URLs and nothing else.\n\n%s",
			maxRelevantPages, strings.Join(candidates, "\n"))

		if text, err := e.completer.Complete(ctx, prompt); err == nil {
			parsed := llm.Decode[[]string](text)
			if !parsed.Malformed {
				if picked := intersectKnown(parsed.Value, candidates, maxRelevantPages); len(picked) > 0 {
					return picked
				}
			}
		}
	}

	return crawler.PrioritizeByKeywords(candidates, maxRelevantPages)
}

// extractOfferings chunks each page's text and classifies every chunk.
func (e *Engine) extractOfferings(ctx context.Context, pages []*fetcher.PageContent) []domain.Offering {
	var offerings []domain.Offering

	for _, page := range pages {
		chunks := splitChunks(page.BodyText)
		if len(chunks) > maxChunksPerPage {
			chunks = chunks[:maxChunksPerPage]
		}

		for _, chunk := range chunks {
			offering, ok := e.classifyChunk(ctx, chunk)
			if !ok {
				continue
			}
			offering.SourceURL = page.URL
			offerings = append(offerings, offering)
		}
	}

	return offerings
}

// offeringPayload is the JSON shape expected from chunk classification.
type offeringPayload struct {
	Type     string   `json:"type"`
	Category string   `json:"category"`
	Name     string   `json:"name"`
	Features []string `json:"features"`
	Pricing  *struct {
		Value    float64 `json:"value"`
		Currency string  `json:"currency"`
		Unit     string  `json:"unit"`
	} `json:"pricing"`
}

// classifyChunk asks the completion capability to turn one text chunk into
// an offering. Malformed responses and nameless results are discarded.
func (e *Engine) classifyChunk(ctx context.Context, chunk string) (domain.Offering, bool) {
	if e.completer == nil {
		return domain.Offering{}, false
	}

	prompt := fmt.Sprintf(
		"Extract the product or service described in this text, if any. "+
			"Respond with JSON only: {\"type\":\"product|service\","+
			"\"category\":string,\"name\":string,\"features\":[string],"+
			"\"pricing\":{\"value\":number,\"currency\":string,\"unit\":string}|null}. "+
			"If the text describes no offering, respond with {\"name\":\"\"}.\n\n%s",
		chunk)

	text, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		e.log.Debug("Chunk classification failed", "error", err)
		return domain.Offering{}, false
	}

	parsed := llm.Decode[offeringPayload](text)
	if parsed.Malformed || strings.TrimSpace(parsed.Value.Name) == "" {
		return domain.Offering{}, false
	}

	offering := domain.Offering{
		Type:     parsed.Value.Type,
		Category: parsed.Value.Category,
		Name:     strings.TrimSpace(parsed.Value.Name),
		Features: parsed.Value.Features,
	}
	if offering.Type == "" {
		offering.Type = domain.OfferingTypeProduct
	}
	if p := parsed.Value.Pricing; p != nil && p.Value > 0 {
		offering.Pricing = &domain.Pricing{
			Value:    p.Value,
			Currency: p.Currency,
			Unit:     p.Unit,
		}
	}

	return offering, true
}

// matchOfferings pairs each offering with its single best user product at
// or above the acceptance floor.
func (e *Engine) matchOfferings(
	offerings []domain.Offering,
	userProducts []domain.UserProduct,
) []domain.ProductMatch {
	if len(userProducts) == 0 {
		return nil
	}

	now := time.Now().UTC()

	var matches []domain.ProductMatch
	for _, offering := range offerings {
		best := -1
		bestScore := 0
		for i, product := range userProducts {
			score := ScoreNames(offering.Name, product.Name)
			if score > bestScore {
				bestScore = score
				best = i
			}
		}

		if best < 0 || bestScore < e.cfg.AcceptFloor {
			continue
		}

		match := domain.ProductMatch{
			Name:        offering.Name,
			URL:         offering.SourceURL,
			LastUpdated: now,
		}

		var competitorPrice *float64
		if offering.Pricing != nil {
			competitorPrice = &offering.Pricing.Value
			match.Price = &offering.Pricing.Value
			match.Currency = offering.Pricing.Currency
		}

		product := userProducts[best]
		match.MatchedProducts = []domain.MatchedProduct{{
			Name:       product.Name,
			URL:        product.URL,
			MatchScore: bestScore,
			PriceDiff:  PriceDiff(product.Price, competitorPrice),
		}}

		matches = append(matches, match)
	}

	return matches
}

// compositeScore computes the overall competitor match score from the
// configured constants.
func (e *Engine) compositeScore(detectedType, declaredType string, matchCount int) int {
	score := e.cfg.BaseScore

	if detectedType != "" && declaredType != "" && strings.EqualFold(detectedType, declaredType) {
		score += e.cfg.BusinessTypeBonus
	}

	bonus := e.cfg.PerMatchBonus * matchCount
	if bonus > e.cfg.MaxMatchBonus {
		bonus = e.cfg.MaxMatchBonus
	}
	score += bonus

	if score > maxCompositeScore {
		score = maxCompositeScore
	}

	return score
}

// matchReasons explains the score components that applied.
func matchReasons(detectedType, declaredType string, matchCount int) []string {
	var reasons []string

	if detectedType != "" && declaredType != "" && strings.EqualFold(detectedType, declaredType) {
		reasons = append(reasons, "same business type: "+detectedType)
	}
	if matchCount > 0 {
		reasons = append(reasons, fmt.Sprintf("%d overlapping catalog products", matchCount))
	}

	return reasons
}

// suggestedApproach gives a short next step based on what was found.
func suggestedApproach(matchCount, offeringCount int) string {
	switch {
	case matchCount > 0:
		return "Compare pricing on overlapping products and differentiate on features"
	case offeringCount > 0:
		return "No direct catalog overlap; track this competitor's offerings for drift"
	default:
		return "Insufficient offering data; re-run analysis after the site is crawled more deeply"
	}
}

// collectDataGaps records which completeness checks failed.
func collectDataGaps(
	root *fetcher.PageContent,
	prices []domain.PricePoint,
	offerings []domain.Offering,
) []string {
	var gaps []string

	if root.Description == "" {
		gaps = append(gaps, GapMissingDescription)
	}
	if len(root.StructuredData) == 0 {
		gaps = append(gaps, GapNoStructuredData)
	}
	if len(prices) == 0 {
		gaps = append(gaps, GapNoPricing)
	}

	named := 0
	for _, o := range offerings {
		if o.Name != "" && o.Category != "" {
			named++
		}
	}
	if named == 0 {
		gaps = append(gaps, GapNoOfferings)
	}

	return gaps
}

// priceRangePattern extracts numbers from a search-result price range such
// as "$50 - $120".
var priceRangePattern = regexp.MustCompile(`(\d+(?:\.\d{1,2})?)`)

// priceRangeMidpoint derives a fallback price point from search metadata.
func priceRangeMidpoint(priceRange string) (domain.PricePoint, bool) {
	if priceRange == "" {
		return domain.PricePoint{}, false
	}

	matches := priceRangePattern.FindAllString(priceRange, 2)
	if len(matches) == 0 {
		return domain.PricePoint{}, false
	}

	lo, err := strconv.ParseFloat(matches[0], 64)
	if err != nil {
		return domain.PricePoint{}, false
	}

	value := lo
	if len(matches) == 2 {
		if hi, err := strconv.ParseFloat(matches[1], 64); err == nil && hi > lo {
			value = (lo + hi) / 2
		}
	}

	currency := ""
	switch {
	case strings.Contains(priceRange, "$"):
		currency = "USD"
	case strings.Contains(priceRange, "€"):
		currency = "EUR"
	case strings.Contains(priceRange, "£"):
		currency = "GBP"
	}

	return domain.PricePoint{Value: value, Currency: currency, Raw: priceRange}, true
}

// dedupePreservingOrder removes duplicate strings keeping first-seen order.
func dedupePreservingOrder(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// intersectKnown filters picked URLs down to known candidates, capped.
func intersectKnown(picked, known []string, limit int) []string {
	knownSet := make(map[string]struct{}, len(known))
	for _, k := range known {
		knownSet[k] = struct{}{}
	}

	out := make([]string, 0, limit)
	for _, p := range picked {
		p = strings.TrimSpace(p)
		if _, ok := knownSet[p]; !ok {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}

	return out
}
