package search

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	catalogx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/catalog"
	contractx "github.com/tanpawarit/Cartmate-Conversational-Shopping-Assistant/assistant/contract"
)

const defaultTopN = 2

// Scoring weights. The gender penalty dominates every other signal by
// construction: no combination of the remaining boosts can rescue a product
// penalized for the opposite gender.
const (
	genderPenalty      = -100
	genderBoost        = 15
	titleMatch         = 10
	descriptionMatch   = 5
	productTypeMatch   = 3
	titleWordMatch     = 2
	descriptionWord    = 1
	giftHomeBonus      = 5
	giftPracticalBonus = 3
)

var (
	maleKeywords   = []string{"dad", "father", "padre", "men", "man", "boy", "boys", "male", "him", "his"}
	femaleKeywords = []string{"mom", "mother", "madre", "women", "woman", "girl", "girls", "female", "her"}

	// Keywords that mark a product as gender-exclusive. Matched on word
	// boundaries so that "women" never counts as a mention of "men".
	maleExclusive   = []string{"men", "man", "boy", "boys"}
	femaleExclusive = []string{"women", "woman", "girl", "girls"}

	giftKeywords          = []string{"present", "gift", "regalo"}
	practicalGiftKeywords = []string{"safely", "detergent"}
)

// queryProfile is the normalized query plus the intent flags detected once
// per search and consumed by every rule.
type queryProfile struct {
	raw    string
	words  []string
	male   bool
	female bool
	gift   bool
}

// productText is the lowercased product text each rule matches against.
type productText struct {
	title       string
	description string
	productType string
}

// rule contributes a score delta for one (query, product) pair. Rules are
// applied in order; the total is the sum of all deltas.
type rule struct {
	name  string
	score func(q queryProfile, p productText) int
}

// Scorer ranks catalog products against a free-text query with a fixed
// ordered pipeline of weighted rules.
type Scorer struct {
	store *catalogx.Store
	topN  int
	rules []rule
}

type Option func(*Scorer)

// WithTopN overrides the number of results returned.
func WithTopN(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.topN = n
		}
	}
}

func NewScorer(store *catalogx.Store, opts ...Option) *Scorer {
	s := &Scorer{
		store: store,
		topN:  defaultTopN,
		rules: scoringRules(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Search scores every catalog product against the query and returns the topN
// best matches in descending score order, catalog order breaking ties. Only
// strictly positive scores survive; a query matching nothing returns an
// empty result, never an error.
func (s *Scorer) Search(query string) []contractx.Product {
	profile := profileQuery(query)
	if profile.raw == "" {
		return nil
	}

	products := s.store.Products()

	type candidate struct {
		product contractx.Product
		score   int
	}
	scored := make([]candidate, 0, len(products))
	for _, product := range products {
		text := productText{
			title:       strings.ToLower(product.DisplayTitle),
			description: strings.ToLower(product.EmbeddingText),
			productType: strings.ToLower(product.ProductType),
		}

		total := 0
		for _, r := range s.rules {
			total += r.score(profile, text)
		}
		if total > 0 {
			scored = append(scored, candidate{product: product, score: total})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > s.topN {
		scored = scored[:s.topN]
	}

	result := make([]contractx.Product, 0, len(scored))
	for _, c := range scored {
		result = append(result, c.product)
	}

	log.Debug().Str("query", query).Int("matches", len(result)).Msg("product search scored")
	return result
}

func scoringRules() []rule {
	return []rule{
		{name: "gender_intent", score: scoreGenderIntent},
		{name: "exact_title", score: func(q queryProfile, p productText) int {
			if strings.Contains(p.title, q.raw) {
				return titleMatch
			}
			return 0
		}},
		{name: "exact_description", score: func(q queryProfile, p productText) int {
			if strings.Contains(p.description, q.raw) {
				return descriptionMatch
			}
			return 0
		}},
		{name: "exact_product_type", score: func(q queryProfile, p productText) int {
			if strings.Contains(p.productType, q.raw) {
				return productTypeMatch
			}
			return 0
		}},
		{name: "word_matches", score: scoreWordMatches},
		{name: "gift_intent", score: scoreGiftIntent},
	}
}

// scoreGenderIntent is the hard exclusion mechanism: a detected gender
// intent penalizes products mentioning the opposite gender far below the
// positive-score threshold and mildly boosts explicit matches.
func scoreGenderIntent(q queryProfile, p productText) int {
	score := 0
	if q.male {
		if mentionsAny(p.title, femaleExclusive) || mentionsAny(p.description, femaleExclusive) {
			score += genderPenalty
		}
		if mentionsAny(p.title, maleExclusive) {
			score += genderBoost
		}
	}
	if q.female {
		if mentionsAny(p.title, maleExclusive) || mentionsAny(p.description, maleExclusive) {
			score += genderPenalty
		}
		if mentionsAny(p.title, femaleExclusive) {
			score += genderBoost
		}
	}
	return score
}

// scoreWordMatches boosts per-word hits. Words of one or two characters are
// noise, and gender keywords are already handled by the gender rule, so both
// are skipped.
func scoreWordMatches(q queryProfile, p productText) int {
	score := 0
	for _, word := range q.words {
		if len(word) <= 2 || isGenderKeyword(word) {
			continue
		}
		if strings.Contains(p.title, word) {
			score += titleWordMatch
		}
		if strings.Contains(p.description, word) {
			score += descriptionWord
		}
	}
	return score
}

// scoreGiftIntent models a "safe generic gift" heuristic: home-category
// items and a fixed set of practical goods make acceptable presents.
func scoreGiftIntent(q queryProfile, p productText) int {
	if !q.gift {
		return 0
	}
	score := 0
	if strings.Contains(p.productType, "home") {
		score += giftHomeBonus
	}
	for _, kw := range practicalGiftKeywords {
		if strings.Contains(p.title, kw) {
			score += giftPracticalBonus
			break
		}
	}
	return score
}

func profileQuery(query string) queryProfile {
	raw := strings.ToLower(strings.TrimSpace(query))
	return queryProfile{
		raw:   raw,
		words: strings.Fields(raw),
		// Intent detection is word-boundary based: "women" must not read
		// as a mention of "men".
		male:   mentionsAny(raw, maleKeywords),
		female: mentionsAny(raw, femaleKeywords),
		gift:   containsAny(raw, giftKeywords),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// mentionsAny reports whether any keyword occurs in s as a whole word.
func mentionsAny(s string, keywords []string) bool {
	for _, word := range tokenize(s) {
		for _, kw := range keywords {
			if word == kw {
				return true
			}
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}

func isGenderKeyword(word string) bool {
	for _, kw := range maleKeywords {
		if word == kw {
			return true
		}
	}
	for _, kw := range femaleKeywords {
		if word == kw {
			return true
		}
	}
	return false
}
