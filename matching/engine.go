package matching

import (
	"encoding/json"
	"errors"
	"log"
	"sort"
	"strings"

	"github.com/swotlink/backend/storage"
)

var (
	// ErrStartupProfileNotFound is returned when the acting startup user
	// has no profile yet.
	ErrStartupProfileNotFound = errors.New("startup profile not found")
	// ErrInvestorProfileNotFound is returned when the acting investor user
	// has no profile yet.
	ErrInvestorProfileNotFound = errors.New("investor profile not found")
)

// Engine joins profiles, users and reference data in memory and ranks
// candidates by compatibility. It holds no state beyond the store handle.
type Engine struct {
	store *storage.Store
}

func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store}
}

// StartupFilters narrows the candidate startups an investor sees. Zero
// values mean "not set". All filters are hard excludes; IgnoreIndustry and
// IgnoreStage lift the investor's own preference-set excludes.
type StartupFilters struct {
	IndustryID     int
	StageID        int
	MinFunding     float64
	MaxFunding     float64
	Location       string
	MinTeamSize    int
	Search         string
	IgnoreIndustry bool
	IgnoreStage    bool
	Limit          int
}

// InvestorFilters narrows the candidate investors a startup sees. ShowAll
// keeps investors that fail the preference match, tagged isMatch=false,
// instead of dropping them.
type InvestorFilters struct {
	InvestorType   string
	MinBudget      float64
	MaxBudget      float64
	Location       string
	Search         string
	IgnoreIndustry bool
	IgnoreStage    bool
	ShowAll        bool
	Limit          int
}

// parsePreferenceIDs extracts a preference id set from however it happens
// to be stored: a JSON-serialized list, an already-structured list, or
// absent. Elements may be bare ids or objects carrying the id under
// idField. Malformed data degrades to "no preference".
func parsePreferenceIDs(v any, idField string) []int {
	if v == nil {
		return nil
	}
	var items []any
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(val), &items); err != nil {
			log.Printf("matching: malformed preference list %q: %v", val, err)
			return nil
		}
	case []any:
		items = val
	default:
		log.Printf("matching: unexpected preference value %T", v)
		return nil
	}
	ids := make([]int, 0, len(items))
	for _, item := range items {
		switch e := item.(type) {
		case float64:
			ids = append(ids, int(e))
		case int:
			ids = append(ids, e)
		case map[string]any:
			if id := storage.Record(e).Int(idField); id != 0 {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// PreferenceIDs exposes the tolerant preference-list parser for callers
// outside the engine, such as single-profile detail views.
func PreferenceIDs(v any, idField string) []int {
	return parsePreferenceIDs(v, idField)
}

// ScoreFor computes the compatibility score between one startup profile
// and one investor profile, honoring the investor's stored preferences.
func (e *Engine) ScoreFor(startup, investor storage.Record) int {
	industries := parsePreferenceIDs(investor["preferred_industries"], "industry_id")
	stages := parsePreferenceIDs(investor["preferred_stages"], "stage_id")
	return Score(startup, investor, industries, stages)
}

func recordsByID(records []storage.Record, idField string) map[int]storage.Record {
	m := make(map[int]storage.Record, len(records))
	for _, r := range records {
		m[r.Int(idField)] = r
	}
	return m
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// MatchingStartups returns the active startups compatible with the given
// investor, scored, sorted by score descending (stable) and truncated to
// f.Limit when set. The investor having no profile is a hard error; an
// empty candidate list is not.
func (e *Engine) MatchingStartups(investorUserID int, f StartupFilters) ([]storage.Record, error) {
	investor, ok := e.store.FindOne(storage.InvestorProfiles, storage.Where(map[string]any{"user_id": investorUserID}))
	if !ok {
		return nil, ErrInvestorProfileNotFound
	}

	industryPrefs := parsePreferenceIDs(investor["preferred_industries"], "industry_id")
	stagePrefs := parsePreferenceIDs(investor["preferred_stages"], "stage_id")

	// Bulk load once per call; per-candidate lookups would thrash the disk.
	startups := e.store.ReadAll(storage.StartupProfiles)
	users := recordsByID(e.store.ReadAll(storage.Users), "user_id")
	industries := recordsByID(e.store.ReadAll(storage.Industries), "industry_id")
	stages := recordsByID(e.store.ReadAll(storage.FundingStages), "stage_id")

	budgetMin := investor.Float("budget_min")
	budgetMax := investor.Float("budget_max")

	results := make([]storage.Record, 0, len(startups))
	for _, startup := range startups {
		user, ok := users[startup.Int("user_id")]
		if !ok || !user.Bool("is_active") {
			continue
		}

		goal := startup.Float("funding_goal")
		if budgetMin > 0 && goal < budgetMin {
			continue
		}
		if budgetMax > 0 && goal > budgetMax {
			continue
		}

		industryID := startup.Int("industry_id")
		if !f.IgnoreIndustry && len(industryPrefs) > 0 && industryID != 0 && !containsID(industryPrefs, industryID) {
			continue
		}
		stageID := startup.Int("funding_stage_id")
		if !f.IgnoreStage && len(stagePrefs) > 0 && stageID != 0 && !containsID(stagePrefs, stageID) {
			continue
		}

		if f.IndustryID != 0 && industryID != f.IndustryID {
			continue
		}
		if f.StageID != 0 && stageID != f.StageID {
			continue
		}
		if f.MinFunding > 0 && goal < f.MinFunding {
			continue
		}
		if f.MaxFunding > 0 && goal > f.MaxFunding {
			continue
		}
		if f.Location != "" && startup.String("location") != "" && !containsFold(startup.String("location"), f.Location) {
			continue
		}
		if f.MinTeamSize > 0 && startup.Int("team_size") < f.MinTeamSize {
			continue
		}

		out := startup.Clone()
		out["full_name"] = user.String("full_name")
		out["email"] = user.String("email")
		out["is_verified"] = user.Bool("is_verified")
		out["industry_name"] = lookupName(industries, industryID, "industry_name")
		out["stage_name"] = lookupName(stages, stageID, "stage_name")
		out["matchScore"] = Score(startup, investor, industryPrefs, stagePrefs)

		if f.Search != "" && !startupMatchesSearch(out, f.Search) {
			continue
		}
		results = append(results, out)
	}

	sortByScore(results)
	return truncate(results, f.Limit), nil
}

// MatchingInvestors is the mirror operation: active investors compatible
// with the given startup.
func (e *Engine) MatchingInvestors(startupUserID int, f InvestorFilters) ([]storage.Record, error) {
	startup, ok := e.store.FindOne(storage.StartupProfiles, storage.Where(map[string]any{"user_id": startupUserID}))
	if !ok {
		return nil, ErrStartupProfileNotFound
	}

	investors := e.store.ReadAll(storage.InvestorProfiles)
	users := recordsByID(e.store.ReadAll(storage.Users), "user_id")
	industries := recordsByID(e.store.ReadAll(storage.Industries), "industry_id")
	stages := recordsByID(e.store.ReadAll(storage.FundingStages), "stage_id")

	startupIndustry := startup.Int("industry_id")
	startupStage := startup.Int("funding_stage_id")
	goal := startup.Float("funding_goal")

	results := make([]storage.Record, 0, len(investors))
	for _, investor := range investors {
		user, ok := users[investor.Int("user_id")]
		if !ok || !user.Bool("is_active") {
			continue
		}

		if goal > 0 && investor.Float("budget_max") > 0 && investor.Float("budget_max") < goal {
			continue
		}
		if f.InvestorType != "" && investor.String("investor_type") != f.InvestorType {
			continue
		}
		if f.MinBudget > 0 && investor.Float("budget_min") < f.MinBudget {
			continue
		}
		if f.MaxBudget > 0 && investor.Float("budget_max") > f.MaxBudget {
			continue
		}
		if f.Location != "" && investor.String("location") != "" && !containsFold(investor.String("location"), f.Location) {
			continue
		}

		industryPrefs := parsePreferenceIDs(investor["preferred_industries"], "industry_id")
		stagePrefs := parsePreferenceIDs(investor["preferred_stages"], "stage_id")

		isMatch := true
		if !f.IgnoreIndustry && len(industryPrefs) > 0 && startupIndustry != 0 && !containsID(industryPrefs, startupIndustry) {
			isMatch = false
		}
		if !f.IgnoreStage && len(stagePrefs) > 0 && startupStage != 0 && !containsID(stagePrefs, startupStage) {
			isMatch = false
		}
		if !isMatch && !f.ShowAll {
			continue
		}

		out := investor.Clone()
		out["full_name"] = user.String("full_name")
		out["email"] = user.String("email")
		out["is_verified"] = user.Bool("is_verified")
		out["industries"] = resolveRefs(industries, industryPrefs)
		out["stages"] = resolveRefs(stages, stagePrefs)
		out["matchScore"] = Score(startup, investor, industryPrefs, stagePrefs)
		out["isMatch"] = isMatch

		if f.Search != "" && !investorMatchesSearch(out, f.Search) {
			continue
		}
		results = append(results, out)
	}

	sortByScore(results)
	return truncate(results, f.Limit), nil
}

// Stats summarizes a user's match counts for dashboard display.
type Stats struct {
	TotalMatches int `json:"totalMatches"`
	TopMatches   int `json:"topMatches"`
	GoodMatches  int `json:"goodMatches"`
}

// MatchStats runs the full unfiltered matching query for the user's role
// and aggregates counts. Matches scoring 80 or higher count as top matches.
func (e *Engine) MatchStats(userID int, role string) (Stats, error) {
	var matches []storage.Record
	var err error
	switch role {
	case "Investor":
		matches, err = e.MatchingStartups(userID, StartupFilters{})
	case "Startup":
		matches, err = e.MatchingInvestors(userID, InvestorFilters{})
	}
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{TotalMatches: len(matches)}
	for _, m := range matches {
		if m.Int("matchScore") >= 80 {
			stats.TopMatches++
		}
	}
	stats.GoodMatches = stats.TotalMatches - stats.TopMatches
	return stats, nil
}

// lookupName resolves a reference id to its display name, or nil when the
// row is missing so the caller degrades instead of failing.
func lookupName(byID map[int]storage.Record, id int, nameField string) any {
	if id == 0 {
		return nil
	}
	if row, ok := byID[id]; ok {
		return row.String(nameField)
	}
	return nil
}

// resolveRefs maps a preference id set to its reference rows, dropping ids
// whose lookup row no longer exists.
func resolveRefs(byID map[int]storage.Record, ids []int) []storage.Record {
	out := make([]storage.Record, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, row)
		}
	}
	return out
}

func startupMatchesSearch(r storage.Record, search string) bool {
	for _, field := range []string{"company_name", "elevator_pitch", "location", "industry_name"} {
		if v, ok := r[field].(string); ok && containsFold(v, search) {
			return true
		}
	}
	return false
}

func investorMatchesSearch(r storage.Record, search string) bool {
	for _, field := range []string{"investor_name", "investment_thesis", "location", "investor_type"} {
		if v, ok := r[field].(string); ok && containsFold(v, search) {
			return true
		}
	}
	return false
}

// sortByScore orders descending by matchScore; the sort is stable so ties
// keep their original relative order.
func sortByScore(records []storage.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Int("matchScore") > records[j].Int("matchScore")
	})
}

func truncate(records []storage.Record, limit int) []storage.Record {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
