package matching

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/campuslf/lostfound-api/internal/domain/item"
)

// Reason explains which signal contributed to a score
type Reason string

const (
	ReasonCategory     Reason = "CATEGORY_MATCH"
	ReasonPlaceExact   Reason = "PLACE_EXACT"
	ReasonPlacePartial Reason = "PLACE_PARTIAL"
	ReasonDateWithin   Reason = "DATE_WITHIN_24H"
	ReasonDateNear     Reason = "DATE_NEAR"
	ReasonKeyword      Reason = "KEYWORD_OVERLAP"
)

// Weights of every signal. They add up to 100.
const (
	WeightCategory     = 40.0
	WeightPlaceExact   = 25.0
	WeightPlacePartial = 15.0
	WeightDate         = 20.0
	WeightKeyword      = 15.0
)

const (
	fullDateWindow = 24 * time.Hour
	maxDateWindow  = 14 * 24 * time.Hour
)

// Result is the score of one lost/found pairing
type Result struct {
	Score   int
	Reasons []Reason
}

// Score compares a lost report with a found item. It is pure and symmetric in
// time, so the same function ranks both directions.
func Score(lost *item.LostItem, found *item.FoundItem) Result {
	var total float64
	reasons := []Reason{}

	if lost.Category == found.Category {
		total += WeightCategory
		reasons = append(reasons, ReasonCategory)
	}

	switch placeMatch(lost.LostPlace, found.FoundPlace) {
	case ReasonPlaceExact:
		total += WeightPlaceExact
		reasons = append(reasons, ReasonPlaceExact)
	case ReasonPlacePartial:
		total += WeightPlacePartial
		reasons = append(reasons, ReasonPlacePartial)
	}

	if points, reason := dateProximity(lost.LostAt, found.FoundAt); points > 0 {
		total += points
		reasons = append(reasons, reason)
	}

	if ratio := keywordOverlap(lost.Title+" "+lost.Description, found.Title+" "+found.Description); ratio > 0 {
		total += WeightKeyword * ratio
		reasons = append(reasons, ReasonKeyword)
	}

	score := int(math.Round(total))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return Result{Score: score, Reasons: reasons}
}

func normalizePlace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func placeMatch(a, b string) Reason {
	a, b = normalizePlace(a), normalizePlace(b)
	if a == "" || b == "" {
		return ""
	}
	if a == b {
		return ReasonPlaceExact
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return ReasonPlacePartial
	}
	return ""
}

// dateProximity gives full credit within a day and decays linearly to zero at two weeks
func dateProximity(a, b time.Time) (float64, Reason) {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	if diff <= fullDateWindow {
		return WeightDate, ReasonDateWithin
	}
	if diff >= maxDateWindow {
		return 0, ""
	}
	left := float64(maxDateWindow-diff) / float64(maxDateWindow-fullDateWindow)
	return WeightDate * left, ReasonDateNear
}

func tokenize(s string) map[string]struct{} {
	tokens := map[string]struct{}{}
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		tokens[f] = struct{}{}
	}
	return tokens
}

// keywordOverlap is the share of lost tokens that also appear on the found item
func keywordOverlap(lostText, foundText string) float64 {
	lostTokens := tokenize(lostText)
	if len(lostTokens) == 0 {
		return 0
	}
	foundTokens := tokenize(foundText)
	shared := 0
	for t := range lostTokens {
		if _, ok := foundTokens[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(lostTokens))
}
