// Package matching computes compatibility scores between startup and
// investor profiles and produces ranked candidate lists in both directions.
// The engine is stateless: every call re-reads live data from the store, so
// results always reflect the latest persisted state at call time.
package matching

import (
	"math"
	"strings"
	"unicode"

	"github.com/swotlink/backend/storage"
)

// Dimension weights. The denominator is the constant sum of all four
// weights regardless of data presence, so a dimension with missing data
// scores an outright zero rather than being excluded from the average.
const (
	weightIndustry = 40
	weightStage    = 30
	weightBudget   = 30
	weightLocation = 10

	totalWeight = weightIndustry + weightStage + weightBudget + weightLocation
)

// Score returns a 0-100 compatibility score between a startup and an
// investor given the investor's preferred industry and funding-stage id
// sets. It is a pure function of its inputs.
func Score(startup, investor storage.Record, industries, stages []int) int {
	score := 0

	// 1. Industry match
	if id := startup.Int("industry_id"); id != 0 && containsID(industries, id) {
		score += weightIndustry
	}

	// 2. Funding stage match
	if id := startup.Int("funding_stage_id"); id != 0 && containsID(stages, id) {
		score += weightStage
	}

	// 3. Budget match
	goal := startup.Float("funding_goal")
	budgetMin := investor.Float("budget_min")
	budgetMax := investor.Float("budget_max")
	if goal > 0 && budgetMin > 0 && budgetMax > 0 {
		switch {
		case goal >= budgetMin && goal <= budgetMax:
			score += weightBudget
		case goal < budgetMin:
			// Below the range: partial credit by proximity to the floor.
			score += clamp(int(math.Floor(weightBudget*goal/budgetMin)), 0, weightBudget)
		default:
			// Above the range: penalized more harshly, capped at half credit.
			score += clamp(int(math.Floor(weightBudget/2*budgetMax/goal)), 0, weightBudget/2)
		}
	}

	// 4. Location proximity: token overlap between the free-text locations.
	if locationOverlap(startup.String("location"), investor.String("location")) {
		score += weightLocation
	}

	return int(math.Round(float64(score) / totalWeight * 100))
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// locationOverlap tokenizes both strings on commas and whitespace,
// case-insensitively, and reports whether any token is shared. Either side
// being empty yields false.
func locationOverlap(a, b string) bool {
	aTokens := locationTokens(a)
	if len(aTokens) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(aTokens))
	for _, t := range aTokens {
		set[t] = struct{}{}
	}
	for _, t := range locationTokens(b) {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

func locationTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
