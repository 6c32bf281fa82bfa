package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/swotlink/backend/matching"
	"github.com/swotlink/backend/storage"
)

// discoverStartupsHandler translates the query string onto the engine's
// startup filters. Only investors may browse startups.
func discoverStartupsHandler(engine *matching.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := authUserFrom(r)
		filters := matching.StartupFilters{
			IndustryID:     queryInt(r, "industryId"),
			StageID:        queryInt(r, "stageId"),
			MinFunding:     queryFloat(r, "minFunding"),
			MaxFunding:     queryFloat(r, "maxFunding"),
			Location:       r.URL.Query().Get("location"),
			MinTeamSize:    queryInt(r, "minTeamSize"),
			Search:         r.URL.Query().Get("search"),
			IgnoreIndustry: queryBool(r, "ignoreIndustry"),
			IgnoreStage:    queryBool(r, "ignoreStage"),
			Limit:          queryInt(r, "limit"),
		}

		results, err := engine.MatchingStartups(user.ID, filters)
		if err != nil {
			if errors.Is(err, matching.ErrInvestorProfileNotFound) {
				writeError(w, http.StatusBadRequest, "Please complete your investor profile first")
				return
			}
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"count":   len(results),
			"data":    results,
		})
	}
}

func discoverInvestorsHandler(engine *matching.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := authUserFrom(r)
		filters := matching.InvestorFilters{
			InvestorType:   r.URL.Query().Get("investorType"),
			MinBudget:      queryFloat(r, "minBudget"),
			MaxBudget:      queryFloat(r, "maxBudget"),
			Location:       r.URL.Query().Get("location"),
			Search:         r.URL.Query().Get("search"),
			IgnoreIndustry: queryBool(r, "ignoreIndustry"),
			IgnoreStage:    queryBool(r, "ignoreStage"),
			ShowAll:        queryBool(r, "showAll"),
			Limit:          queryInt(r, "limit"),
		}

		results, err := engine.MatchingInvestors(user.ID, filters)
		if err != nil {
			if errors.Is(err, matching.ErrStartupProfileNotFound) {
				writeError(w, http.StatusBadRequest, "Please complete your startup profile first")
				return
			}
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"count":   len(results),
			"data":    results,
		})
	}
}

// startupDetailHandler returns one startup profile by profile id with the
// caller's personal match score attached.
func startupDetailHandler(store *storage.Store, engine *matching.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid profile id")
			return
		}

		profile, ok := store.FindOne(storage.StartupProfiles, storage.Where(map[string]any{"startup_profile_id": profileID}))
		if !ok {
			writeError(w, http.StatusNotFound, "Startup not found")
			return
		}
		owner, ok := store.FindOne(storage.Users, storage.Where(map[string]any{"user_id": profile.Int("user_id")}))
		if !ok || !owner.Bool("is_active") {
			writeError(w, http.StatusNotFound, "Startup not found")
			return
		}

		out := profile.Clone()
		out["full_name"] = owner["full_name"]
		out["email"] = owner["email"]
		if id := profile.Int("industry_id"); id != 0 {
			out["industry_name"] = nameOf(store, storage.Industries, "industry_id", id, "industry_name")
		}
		if id := profile.Int("funding_stage_id"); id != 0 {
			out["stage_name"] = nameOf(store, storage.FundingStages, "stage_id", id, "stage_name")
		}

		// A caller without an investor profile still sees the page, scored 0.
		matchScore := 0
		user := authUserFrom(r)
		if investor, ok := store.FindOne(storage.InvestorProfiles, storage.Where(map[string]any{"user_id": user.ID})); ok {
			matchScore = engine.ScoreFor(profile, investor)
		}
		out["matchScore"] = matchScore

		writeData(w, http.StatusOK, out)
	}
}

func investorDetailHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid profile id")
			return
		}

		profile, ok := store.FindOne(storage.InvestorProfiles, storage.Where(map[string]any{"investor_profile_id": profileID}))
		if !ok {
			writeError(w, http.StatusNotFound, "Investor not found")
			return
		}
		owner, ok := store.FindOne(storage.Users, storage.Where(map[string]any{"user_id": profile.Int("user_id")}))
		if !ok || !owner.Bool("is_active") {
			writeError(w, http.StatusNotFound, "Investor not found")
			return
		}

		out := profile.Clone()
		out["full_name"] = owner["full_name"]
		out["email"] = owner["email"]
		out["industries"] = matching.PreferenceIDs(profile["preferred_industries"], "industry_id")
		out["stages"] = matching.PreferenceIDs(profile["preferred_stages"], "stage_id")

		writeData(w, http.StatusOK, out)
	}
}

func matchStatsHandler(engine *matching.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := authUserFrom(r)
		stats, err := engine.MatchStats(user.ID, user.Role)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
		writeData(w, http.StatusOK, stats)
	}
}
