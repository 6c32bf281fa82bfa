package main

import (
	"net/http"
	"sort"

	"github.com/swotlink/backend/matching"
	"github.com/swotlink/backend/storage"
)

// startupDashboardHandler aggregates the startup home page: profile with
// resolved reference names, match stats and activity counters. A missing
// profile is not an error, the page renders its onboarding state.
func startupDashboardHandler(store *storage.Store, engine *matching.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := authUserFrom(r)
		profile, hasProfile := store.FindOne(storage.StartupProfiles, storage.Where(map[string]any{"user_id": user.ID}))

		var profileOut storage.Record
		profileViews := 0
		stats := matching.Stats{}
		if hasProfile {
			profileOut = profile.Clone()
			if id := profile.Int("industry_id"); id != 0 {
				profileOut["industry_name"] = nameOf(store, storage.Industries, "industry_id", id, "industry_name")
			}
			if id := profile.Int("funding_stage_id"); id != 0 {
				profileOut["stage_name"] = nameOf(store, storage.FundingStages, "stage_id", id, "stage_name")
			}
			profileViews = profile.Int("view_count")
			stats, _ = engine.MatchStats(user.ID, "Startup")
		}

		savedCount := store.Count(storage.SavedMatches, storage.Where(map[string]any{"user_id": user.ID}))
		messageCount := store.Count(storage.Messages, storage.Match(func(m storage.Record) bool {
			return m.Int("sender_id") == user.ID || m.Int("receiver_id") == user.ID
		}))

		writeData(w, http.StatusOK, map[string]any{
			"user":       map[string]any{"fullName": user.FullName, "email": user.Email},
			"hasProfile": hasProfile,
			"profile":    profileOut,
			"stats": map[string]any{
				"profileViews":    profileViews,
				"investorMatches": stats.TotalMatches,
				"savedInvestors":  savedCount,
				"messages":        messageCount,
			},
		})
	}
}

func investorDashboardHandler(store *storage.Store, engine *matching.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := authUserFrom(r)
		profile, hasProfile := store.FindOne(storage.InvestorProfiles, storage.Where(map[string]any{"user_id": user.ID}))

		var profileOut storage.Record
		profileViews := 0
		stats := matching.Stats{}
		if hasProfile {
			profileOut = profile.Clone()
			profileOut["industries"] = expandIDList(store, storage.Industries, "industry_id", profile["preferred_industries"])
			profileOut["fundingStages"] = expandIDList(store, storage.FundingStages, "stage_id", profile["preferred_stages"])
			profileViews = profile.Int("view_count")
			stats, _ = engine.MatchStats(user.ID, "Investor")
		}

		savedCount := store.Count(storage.SavedMatches, storage.Where(map[string]any{"user_id": user.ID}))
		messageCount := store.Count(storage.Messages, storage.Match(func(m storage.Record) bool {
			return m.Int("sender_id") == user.ID || m.Int("receiver_id") == user.ID
		}))

		writeData(w, http.StatusOK, map[string]any{
			"user":       map[string]any{"fullName": user.FullName, "email": user.Email},
			"hasProfile": hasProfile,
			"profile":    profileOut,
			"stats": map[string]any{
				"startupMatches": stats.TotalMatches,
				"savedStartups":  savedCount,
				"profileViews":   profileViews,
				"messages":       messageCount,
			},
		})
	}
}

func industriesHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		industries := storage.Query(store, storage.Industries, func(records []storage.Record) []storage.Record {
			sort.SliceStable(records, func(i, j int) bool {
				return records[i].String("industry_name") < records[j].String("industry_name")
			})
			return records
		})
		writeData(w, http.StatusOK, industries)
	}
}

func fundingStagesHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stages := storage.Query(store, storage.FundingStages, func(records []storage.Record) []storage.Record {
			sort.SliceStable(records, func(i, j int) bool {
				return records[i].Float("typical_range_min") < records[j].Float("typical_range_min")
			})
			return records
		})
		writeData(w, http.StatusOK, stages)
	}
}
