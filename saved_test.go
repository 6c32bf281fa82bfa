package main

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/swotlink/backend/storage"
)

func TestSavedMatchesSuite(t *testing.T) {
	t.Run("SaveAndCheck", testSaveAndCheck)
	t.Run("SaveTwiceUpdatesNotes", testSaveTwiceUpdatesNotes)
	t.Run("Unsave", testUnsave)
	t.Run("ListEnrichment", testListEnrichment)
	t.Run("TrackView", testTrackView)
}

func testSaveAndCheck(t *testing.T) {
	app := newTestApp(t)
	investorToken, _ := seedMatchPair(t, app)
	_, startupID := loginAs(t, app, "sam@startup.test")

	// Not saved yet.
	w := app.doJSON(t, http.MethodGet, fmt.Sprintf("/api/saved/check/%d", startupID), investorToken, nil)
	if decodeBody(t, w)["isSaved"] != false {
		t.Error("Expected isSaved false before saving")
	}

	w = app.doJSON(t, http.MethodPost, "/api/saved/save", investorToken, map[string]any{
		"targetUserId": startupID,
		"targetType":   "Startup",
		"notes":        "promising",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = app.doJSON(t, http.MethodGet, fmt.Sprintf("/api/saved/check/%d", startupID), investorToken, nil)
	if decodeBody(t, w)["isSaved"] != true {
		t.Error("Expected isSaved true after saving")
	}

	// The saved user is notified of the new match.
	notif, ok := app.store.FindOne(storage.Notifications, storage.Where(map[string]any{
		"user_id":           startupID,
		"notification_type": "new_match",
	}))
	if !ok {
		t.Fatal("Expected a new_match notification for the target")
	}
	if notif.String("message") != "You have a new match with Iva Investor" {
		t.Errorf("Unexpected notification message %q", notif.String("message"))
	}

	// Missing target payload is a 400.
	if w := app.doJSON(t, http.MethodPost, "/api/saved/save", investorToken, map[string]any{"notes": "x"}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func testSaveTwiceUpdatesNotes(t *testing.T) {
	app := newTestApp(t)
	investorToken, _ := seedMatchPair(t, app)
	_, startupID := loginAs(t, app, "sam@startup.test")

	for _, notes := range []string{"first impression", "second look"} {
		w := app.doJSON(t, http.MethodPost, "/api/saved/save", investorToken, map[string]any{
			"targetUserId": startupID,
			"targetType":   "Startup",
			"notes":        notes,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("Save failed: %d", w.Code)
		}
	}

	if got := app.store.Count(storage.SavedMatches, storage.All()); got != 1 {
		t.Fatalf("Expected 1 saved match, got %d", got)
	}
	saved, _ := app.store.FindOne(storage.SavedMatches, storage.All())
	if saved.String("notes") != "second look" {
		t.Errorf("Expected notes updated, got %q", saved.String("notes"))
	}
}

func testUnsave(t *testing.T) {
	app := newTestApp(t)
	investorToken, _ := seedMatchPair(t, app)
	_, startupID := loginAs(t, app, "sam@startup.test")

	app.doJSON(t, http.MethodPost, "/api/saved/save", investorToken, map[string]any{
		"targetUserId": startupID,
		"targetType":   "Startup",
	})

	w := app.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/saved/unsave/%d", startupID), investorToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := app.store.Count(storage.SavedMatches, storage.All()); got != 0 {
		t.Errorf("Expected 0 saved matches after unsave, got %d", got)
	}

	// Unsaving again is harmless.
	if w := app.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/saved/unsave/%d", startupID), investorToken, nil); w.Code != http.StatusOK {
		t.Errorf("Second unsave: expected 200, got %d", w.Code)
	}
}

func testListEnrichment(t *testing.T) {
	app := newTestApp(t)
	investorToken, startupToken := seedMatchPair(t, app)
	investorID := decodeUserID(t, app, "iva@investor.test")
	startupID := decodeUserID(t, app, "sam@startup.test")

	app.doJSON(t, http.MethodPost, "/api/saved/save", investorToken, map[string]any{
		"targetUserId": startupID,
		"targetType":   "Startup",
		"notes":        "strong team",
	})
	app.doJSON(t, http.MethodPost, "/api/saved/save", startupToken, map[string]any{
		"targetUserId": investorID,
		"targetType":   "Investor",
	})

	// Investor sees startup fields.
	w := app.doJSON(t, http.MethodGet, "/api/saved/list", investorToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	data := decodeBody(t, w)["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("Expected 1 saved startup, got %d", len(data))
	}
	entry := data[0].(map[string]any)
	if entry["company_name"] != "Acme Robotics" {
		t.Errorf("Expected company_name, got %v", entry["company_name"])
	}
	if entry["industry_name"] != "Technology" {
		t.Errorf("Expected industry_name, got %v", entry["industry_name"])
	}
	if entry["notes"] != "strong team" {
		t.Errorf("Expected notes, got %v", entry["notes"])
	}

	// Startup sees investor fields with expanded preferences.
	w = app.doJSON(t, http.MethodGet, "/api/saved/list", startupToken, nil)
	data = decodeBody(t, w)["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("Expected 1 saved investor, got %d", len(data))
	}
	entry = data[0].(map[string]any)
	if entry["investor_name"] != "Ingrid Capital" {
		t.Errorf("Expected investor_name, got %v", entry["investor_name"])
	}
	industries, _ := entry["industries"].([]any)
	if len(industries) != 1 {
		t.Errorf("Expected expanded industries, got %v", entry["industries"])
	}

	// Bookmarks whose target vanished are skipped, not errors.
	app.store.Delete(storage.Users, storage.Where(map[string]any{"user_id": startupID}))
	w = app.doJSON(t, http.MethodGet, "/api/saved/list", investorToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if count := decodeBody(t, w)["count"].(float64); count != 0 {
		t.Errorf("Expected orphaned bookmark skipped, got count %v", count)
	}
}

func testTrackView(t *testing.T) {
	app := newTestApp(t)
	investorToken, _ := seedMatchPair(t, app)
	startupID := decodeUserID(t, app, "sam@startup.test")

	w := app.doJSON(t, http.MethodPost, "/api/saved/track-view", investorToken, map[string]any{
		"viewedUserId": startupID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	// The startup profile's view counter is bumped.
	profile, _ := app.store.FindOne(storage.StartupProfiles, storage.Where(map[string]any{"user_id": startupID}))
	if profile.Int("view_count") != 1 {
		t.Errorf("Expected view_count 1, got %v", profile["view_count"])
	}

	// And the viewed user gets a profile_view notification.
	if _, ok := app.store.FindOne(storage.Notifications, storage.Where(map[string]any{
		"user_id":           startupID,
		"notification_type": "profile_view",
	})); !ok {
		t.Error("Expected a profile_view notification")
	}

	if w := app.doJSON(t, http.MethodPost, "/api/saved/track-view", investorToken, map[string]any{}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without viewedUserId, got %d", w.Code)
	}
}

func decodeUserID(t *testing.T, app *testApp, email string) int {
	t.Helper()

	user, ok := app.store.FindOne(storage.Users, storage.Where(map[string]any{"email": email}))
	if !ok {
		t.Fatalf("User %s not found", email)
	}
	return user.Int("user_id")
}
