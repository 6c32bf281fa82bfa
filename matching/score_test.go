package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swotlink/backend/storage"
)

func TestScoreBounds(t *testing.T) {
	cases := []struct {
		name       string
		startup    storage.Record
		investor   storage.Record
		industries []int
		stages     []int
	}{
		{"empty records", storage.Record{}, storage.Record{}, nil, nil},
		{"full match", storage.Record{
			"industry_id": 1, "funding_stage_id": 2, "funding_goal": 50000.0, "location": "Austin",
		}, storage.Record{
			"budget_min": 10000.0, "budget_max": 100000.0, "location": "Austin, TX",
		}, []int{1}, []int{2}},
		{"hostile values", storage.Record{
			"industry_id": -5, "funding_goal": 1e18, "location": ",,,   ",
		}, storage.Record{
			"budget_min": 1.0, "budget_max": 2.0, "location": "",
		}, []int{-5}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.startup, tc.investor, tc.industries, tc.stages)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	startup := storage.Record{"industry_id": 3, "funding_stage_id": 1, "funding_goal": 25000.0, "location": "Berlin"}
	investor := storage.Record{"budget_min": 20000.0, "budget_max": 30000.0, "location": "Berlin, Germany"}

	first := Score(startup, investor, []int{3, 4}, []int{1})
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(startup, investor, []int{3, 4}, []int{1}))
	}
}

func TestScoreIndustryDimension(t *testing.T) {
	startup := storage.Record{"industry_id": 1}
	investor := storage.Record{}

	// Industry dimension alone: 40 earned over a constant 110 denominator.
	assert.Equal(t, 36, Score(startup, investor, []int{1}, nil)) // round(100*40/110)
	assert.Equal(t, 0, Score(startup, investor, []int{2}, nil))
	assert.Equal(t, 0, Score(startup, investor, nil, nil))
}

func TestScoreStageDimension(t *testing.T) {
	startup := storage.Record{"funding_stage_id": 2}
	investor := storage.Record{}

	assert.Equal(t, 27, Score(startup, investor, nil, []int{2})) // round(100*30/110)
	assert.Equal(t, 0, Score(startup, investor, nil, []int{3}))
}

func TestScoreBudgetDimension(t *testing.T) {
	investor := storage.Record{"budget_min": 1000.0, "budget_max": 5000.0}
	at := func(goal float64) int {
		return Score(storage.Record{"funding_goal": goal}, investor, nil, nil)
	}

	full := at(1000) // both boundaries earn the full 30 points
	assert.Equal(t, 27, full)
	assert.Equal(t, full, at(5000))
	assert.Equal(t, full, at(2500))

	// Below the floor: floor(30*500/1000)=15 points -> round(100*15/110)=14.
	assert.Equal(t, 14, at(500))
	// Above the ceiling: floor(15*5000/10000)=7 points -> round(100*7/110)=6.
	assert.Equal(t, 6, at(10000))
	// Missing data contributes nothing but stays in the denominator.
	assert.Equal(t, 0, at(0))
}

func TestScoreLocationDimension(t *testing.T) {
	investor := storage.Record{"location": "Austin, TX"}
	at := func(loc string) int {
		return Score(storage.Record{"location": loc}, investor, nil, nil)
	}

	assert.Equal(t, 9, at("Austin")) // round(100*10/110)
	assert.Equal(t, 9, at("austin tx"))
	assert.Equal(t, 0, at("Dallas"))
	assert.Equal(t, 0, at(""))
	assert.Equal(t, 0, Score(storage.Record{"location": "Austin"}, storage.Record{}, nil, nil))
}

func TestScoreScenarioHighCompatibility(t *testing.T) {
	startup := storage.Record{
		"industry_id":      1,
		"funding_stage_id": 2,
		"funding_goal":     50000.0,
		"location":         "Austin",
	}
	investor := storage.Record{
		"budget_min": 10000.0,
		"budget_max": 100000.0,
		"location":   "Austin, TX",
	}

	// Industry, stage, budget and location all earn full credit: 110/110.
	score := Score(startup, investor, []int{1}, []int{2})
	assert.GreaterOrEqual(t, score, 90)
	assert.Equal(t, 100, score)
}

func TestScoreScenarioLowCompatibility(t *testing.T) {
	startup := storage.Record{
		"industry_id":      2,
		"funding_stage_id": 4,
		"funding_goal":     500000.0,
	}
	investor := storage.Record{
		"budget_min": 10000.0,
		"budget_max": 100000.0,
		"location":   "Austin, TX",
	}

	// Wrong industry and stage, over budget: floor(15*100000/500000)=3
	// points out of 110.
	assert.Less(t, Score(startup, investor, []int{1}, []int{2}), 30)
}
