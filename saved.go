package main

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/swotlink/backend/storage"
)

func saveMatchHandler(store *storage.Store, hub *PresenceHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TargetUserID int    `json:"targetUserId"`
			TargetType   string `json:"targetType"`
			Notes        string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetUserID == 0 || req.TargetType == "" {
			writeError(w, http.StatusBadRequest, "Target user ID and type are required")
			return
		}

		user := authUserFrom(r)
		pair := storage.Where(map[string]any{"user_id": user.ID, "target_user_id": req.TargetUserID})

		// Saving twice updates the notes instead of duplicating the row.
		if existing, ok := store.FindOne(storage.SavedMatches, pair); ok {
			store.Update(storage.SavedMatches,
				storage.Where(map[string]any{"saved_id": existing.Int("saved_id")}),
				storage.Record{"notes": orNilStr(req.Notes)})
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"message": "Match updated",
				"data":    map[string]any{"savedId": existing.Int("saved_id")},
			})
			return
		}

		created, ok := store.Insert(storage.SavedMatches, storage.Record{
			"user_id":        user.ID,
			"target_user_id": req.TargetUserID,
			"target_type":    req.TargetType,
			"notes":          orNilStr(req.Notes),
		}, "saved_id")
		if !ok {
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		notifyNewMatch(store, hub, req.TargetUserID, user.ID, displayNameOf(store, user.ID))
		checkAndAwardBadges(store, hub, user.ID)

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Match saved successfully",
			"data":    map[string]any{"savedId": created.Int("saved_id")},
		})
	}
}

func unsaveMatchHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetUserID, err := strconv.Atoi(mux.Vars(r)["targetUserId"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid user id")
			return
		}
		user := authUserFrom(r)
		store.Delete(storage.SavedMatches, storage.Where(map[string]any{
			"user_id":        user.ID,
			"target_user_id": targetUserID,
		}))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Match removed from saved"})
	}
}

// listSavedHandler returns the caller's bookmarks enriched with the
// counterpart's user and profile data, newest first. Bookmarks whose
// target lost its account or profile are silently skipped.
func listSavedHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := authUserFrom(r)
		matches := store.FindMany(storage.SavedMatches, storage.Where(map[string]any{"user_id": user.ID}))
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].String("created_at") > matches[j].String("created_at")
		})

		targetIDs := make([]int, 0, len(matches))
		for _, m := range matches {
			targetIDs = append(targetIDs, m.Int("target_user_id"))
		}
		users := loadUsers(r, store, targetIDs)

		saved := []storage.Record{}
		if user.Role == "Investor" {
			profiles := profilesByUser(store, storage.StartupProfiles)
			industries := namesByID(store, storage.Industries, "industry_id", "industry_name")
			stages := namesByID(store, storage.FundingStages, "stage_id", "stage_name")
			for _, m := range matches {
				targetID := m.Int("target_user_id")
				target, ok := users[targetID]
				if !ok {
					continue
				}
				profile, ok := profiles[targetID]
				if !ok {
					continue
				}
				saved = append(saved, storage.Record{
					"saved_id":         m.Int("saved_id"),
					"notes":            m["notes"],
					"created_at":       m["created_at"],
					"profile_id":       profile.Int("startup_profile_id"),
					"company_name":     profile["company_name"],
					"elevator_pitch":   profile["elevator_pitch"],
					"funding_goal":     profile["funding_goal"],
					"industry_id":      profile["industry_id"],
					"industry_name":    industries[profile.Int("industry_id")],
					"funding_stage_id": profile["funding_stage_id"],
					"stage_name":       stages[profile.Int("funding_stage_id")],
					"location":         profile["location"],
					"team_size":        profile["team_size"],
					"user_id":          targetID,
					"full_name":        target["full_name"],
				})
			}
		} else {
			profiles := profilesByUser(store, storage.InvestorProfiles)
			for _, m := range matches {
				targetID := m.Int("target_user_id")
				target, ok := users[targetID]
				if !ok {
					continue
				}
				profile, ok := profiles[targetID]
				if !ok {
					continue
				}
				saved = append(saved, storage.Record{
					"saved_id":          m.Int("saved_id"),
					"notes":             m["notes"],
					"created_at":        m["created_at"],
					"profile_id":        profile.Int("investor_profile_id"),
					"investor_name":     profile["investor_name"],
					"investor_type":     profile["investor_type"],
					"investment_thesis": profile["investment_thesis"],
					"budget_min":        profile["budget_min"],
					"budget_max":        profile["budget_max"],
					"location":          profile["location"],
					"company":           profile["company"],
					"user_id":           targetID,
					"full_name":         target["full_name"],
					"industries":        expandIDList(store, storage.Industries, "industry_id", profile["preferred_industries"]),
					"fundingStages":     expandIDList(store, storage.FundingStages, "stage_id", profile["preferred_stages"]),
				})
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"count":   len(saved),
			"data":    saved,
		})
	}
}

func checkSavedHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetUserID, err := strconv.Atoi(mux.Vars(r)["targetUserId"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid user id")
			return
		}
		user := authUserFrom(r)
		_, saved := store.FindOne(storage.SavedMatches, storage.Where(map[string]any{
			"user_id":        user.ID,
			"target_user_id": targetUserID,
		}))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "isSaved": saved})
	}
}

// trackViewHandler records a discovery-page view and bumps the viewed
// profile's counter. An investor viewing looks at startups, so the role
// decides which profile collection the counter lives on.
func trackViewHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ViewedUserID int `json:"viewedUserId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ViewedUserID == 0 {
			writeError(w, http.StatusBadRequest, "Viewed user ID is required")
			return
		}

		user := authUserFrom(r)
		store.Insert(storage.ProfileViews, storage.Record{
			"viewer_id":      user.ID,
			"viewed_user_id": req.ViewedUserID,
		}, "view_id")

		collection := storage.InvestorProfiles
		if user.Role == "Investor" {
			collection = storage.StartupProfiles
		}
		ownerMatch := storage.Where(map[string]any{"user_id": req.ViewedUserID})
		if profile, ok := store.FindOne(collection, ownerMatch); ok {
			store.Update(collection, ownerMatch, storage.Record{
				"view_count": profile.Int("view_count") + 1,
			})
		}

		notifyProfileView(store, req.ViewedUserID, user.ID, displayNameOf(store, user.ID))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "View tracked"})
	}
}

func profilesByUser(store *storage.Store, collection string) map[int]storage.Record {
	out := make(map[int]storage.Record)
	for _, p := range store.ReadAll(collection) {
		out[p.Int("user_id")] = p
	}
	return out
}

func namesByID(store *storage.Store, collection, idField, nameField string) map[int]string {
	out := make(map[int]string)
	for _, rec := range store.ReadAll(collection) {
		out[rec.Int(idField)] = rec.String(nameField)
	}
	return out
}

func displayNameOf(store *storage.Store, userID int) string {
	if user, ok := store.FindOne(storage.Users, storage.Where(map[string]any{"user_id": userID})); ok {
		return displayName(user)
	}
	return ""
}
