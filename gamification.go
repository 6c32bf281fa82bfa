package main

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/swotlink/backend/storage"
)

// badgeCriteria is the decoded rule_criteria of a badge. Zero-valued
// fields mean the rule does not apply.
type badgeCriteria struct {
	Role              string `json:"role"`
	ProfileCompletion int    `json:"profile_completion"`
	VideosViewed      int    `json:"videos_viewed"`
	VideosUploaded    int    `json:"videos_uploaded"`
	MessagesSent      int    `json:"messages_sent"`
	MatchesSaved      int    `json:"matches_saved"`
}

// getOrCreateUserStats returns the user's stats row, inserting a zeroed
// one on first touch.
func getOrCreateUserStats(store *storage.Store, userID int) storage.Record {
	if stats, ok := store.FindOne(storage.UserStats, storage.Where(map[string]any{"user_id": userID})); ok {
		return stats
	}
	stats, _ := store.Insert(storage.UserStats, storage.Record{
		"user_id":                       userID,
		"total_points":                  0,
		"profile_completion_percentage": 0,
		"total_matches_saved":           0,
		"total_messages_sent":           0,
		"total_profile_views":           0,
	}, "stat_id")
	return stats
}

// awardBadge grants a badge once and credits its points to the user's
// stats. Returns false when the badge is unknown or already held.
func awardBadge(store *storage.Store, hub *PresenceHub, userID, badgeID int) (storage.Record, bool) {
	held := storage.Where(map[string]any{"user_id": userID, "badge_id": badgeID})
	if _, ok := store.FindOne(storage.UserBadges, held); ok {
		return nil, false
	}
	badge, ok := store.FindOne(storage.Badges, storage.Where(map[string]any{"badge_id": badgeID}))
	if !ok {
		return nil, false
	}

	points := badge.Int("points_value")
	store.Insert(storage.UserBadges, storage.Record{
		"user_id":        userID,
		"badge_id":       badgeID,
		"points_awarded": points,
	}, "user_badge_id")

	stats := getOrCreateUserStats(store, userID)
	store.Update(storage.UserStats,
		storage.Where(map[string]any{"user_id": userID}),
		storage.Record{"total_points": stats.Int("total_points") + points})

	notifyBadgeEarned(store, hub, userID, badge.String("badge_name"))
	return badge, true
}

// checkAndAwardBadges evaluates every badge the user does not yet hold
// against its criteria and awards the ones now met.
func checkAndAwardBadges(store *storage.Store, hub *PresenceHub, userID int) []storage.Record {
	awarded := []storage.Record{}
	user, ok := store.FindOne(storage.Users, storage.Where(map[string]any{"user_id": userID}))
	if !ok {
		return awarded
	}
	stats := getOrCreateUserStats(store, userID)

	earned := make(map[int]bool)
	for _, ub := range store.FindMany(storage.UserBadges, storage.Where(map[string]any{"user_id": userID})) {
		earned[ub.Int("badge_id")] = true
	}

	for _, badge := range store.ReadAll(storage.Badges) {
		if earned[badge.Int("badge_id")] {
			continue
		}
		var criteria badgeCriteria
		if raw := badge.String("rule_criteria"); raw != "" {
			// Malformed criteria evaluate as empty, which always matches.
			_ = json.Unmarshal([]byte(raw), &criteria)
		}
		if !meetsCriteria(store, userID, user.String("role"), stats, criteria) {
			continue
		}
		if b, ok := awardBadge(store, hub, userID, badge.Int("badge_id")); ok {
			awarded = append(awarded, b)
		}
	}
	return awarded
}

func meetsCriteria(store *storage.Store, userID int, role string, stats storage.Record, c badgeCriteria) bool {
	if c.Role != "" && c.Role != role {
		return false
	}
	if c.ProfileCompletion > 0 && stats.Int("profile_completion_percentage") < c.ProfileCompletion {
		return false
	}
	if c.VideosViewed > 0 {
		views := store.Count(storage.VideoViews, storage.Where(map[string]any{"user_id": userID}))
		if views < c.VideosViewed {
			return false
		}
	}
	if c.VideosUploaded > 0 && role == "Startup" {
		uploads := store.Count(storage.PitchVideos, storage.Where(map[string]any{"user_id": userID}))
		if uploads < c.VideosUploaded {
			return false
		}
	}
	if c.MessagesSent > 0 {
		sent := store.Count(storage.Messages, storage.Where(map[string]any{"sender_id": userID}))
		if sent < c.MessagesSent {
			return false
		}
	}
	if c.MatchesSaved > 0 {
		saved := store.Count(storage.SavedMatches, storage.Where(map[string]any{"user_id": userID}))
		if saved < c.MatchesSaved {
			return false
		}
	}
	return true
}

// gamificationSummaryHandler reports the caller's points, earned badges
// and all-time leaderboard rank.
func gamificationSummaryHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := authUserFrom(r)
		stats := getOrCreateUserStats(store, user.ID)

		badgesByID := make(map[int]storage.Record)
		for _, b := range store.ReadAll(storage.Badges) {
			badgesByID[b.Int("badge_id")] = b
		}

		earned := store.FindMany(storage.UserBadges, storage.Where(map[string]any{"user_id": user.ID}))
		badgeDetails := make([]storage.Record, 0, len(earned))
		for _, ub := range earned {
			out := ub.Clone()
			if badge, ok := badgesByID[ub.Int("badge_id")]; ok {
				for k, v := range badge {
					out[k] = v
				}
			}
			badgeDetails = append(badgeDetails, out)
		}

		allStats := store.ReadAll(storage.UserStats)
		sort.SliceStable(allStats, func(i, j int) bool {
			return allStats[i].Int("total_points") > allStats[j].Int("total_points")
		})
		rank := 0
		for i, s := range allStats {
			if s.Int("user_id") == user.ID {
				rank = i + 1
				break
			}
		}

		writeData(w, http.StatusOK, map[string]any{
			"total_points":  stats.Int("total_points"),
			"badges_earned": len(badgeDetails),
			"badges":        badgeDetails,
			"rank":          rank,
			"total_users":   len(allStats),
		})
	}
}

// leaderboardHandler returns the top users by points, with display names
// resolved from their profiles.
func leaderboardHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit")
		if limit <= 0 {
			limit = 10
		}

		usersByID := make(map[int]storage.Record)
		for _, u := range store.ReadAll(storage.Users) {
			usersByID[u.Int("user_id")] = u
		}
		startupNames := make(map[int]string)
		for _, p := range store.ReadAll(storage.StartupProfiles) {
			startupNames[p.Int("user_id")] = p.String("company_name")
		}
		investorNames := make(map[int]string)
		for _, p := range store.ReadAll(storage.InvestorProfiles) {
			investorNames[p.Int("user_id")] = p.String("investor_name")
		}

		allStats := store.ReadAll(storage.UserStats)
		sort.SliceStable(allStats, func(i, j int) bool {
			return allStats[i].Int("total_points") > allStats[j].Int("total_points")
		})
		if len(allStats) > limit {
			allStats = allStats[:limit]
		}

		leaderboard := make([]storage.Record, 0, len(allStats))
		for i, stat := range allStats {
			userID := stat.Int("user_id")
			entry := storage.Record{
				"rank":         i + 1,
				"user_id":      userID,
				"total_points": stat.Int("total_points"),
			}
			if u, ok := usersByID[userID]; ok {
				entry["username"] = displayName(u)
				entry["role"] = u.String("role")
			}
			if name := startupNames[userID]; name != "" {
				entry["display_name"] = name
			} else {
				entry["display_name"] = investorNames[userID]
			}
			leaderboard = append(leaderboard, entry)
		}
		writeData(w, http.StatusOK, leaderboard)
	}
}
