package main

import (
	"net/http"
	"testing"
)

func TestDashboardSuite(t *testing.T) {
	t.Run("StartupDashboard", testStartupDashboard)
	t.Run("InvestorDashboard", testInvestorDashboard)
	t.Run("ReferenceLists", testReferenceLists)
}

func testStartupDashboard(t *testing.T) {
	app := newTestApp(t)
	investorToken, startupToken := seedMatchPair(t, app)
	investorID := decodeUserID(t, app, "iva@investor.test")

	// One saved investor and one received view feed the counters.
	app.doJSON(t, http.MethodPost, "/api/saved/save", startupToken, map[string]any{
		"targetUserId": investorID,
		"targetType":   "Investor",
	})
	app.doJSON(t, http.MethodPost, "/api/saved/track-view", investorToken, map[string]any{
		"viewedUserId": decodeUserID(t, app, "sam@startup.test"),
	})

	w := app.doJSON(t, http.MethodGet, "/api/dashboard/startup", startupToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := decodeBody(t, w)["data"].(map[string]any)
	if data["hasProfile"] != true {
		t.Fatal("Expected hasProfile true")
	}
	profile := data["profile"].(map[string]any)
	if profile["industry_name"] != "Technology" {
		t.Errorf("Expected enriched industry_name, got %v", profile["industry_name"])
	}
	stats := data["stats"].(map[string]any)
	if stats["investorMatches"].(float64) != 1 {
		t.Errorf("Expected 1 investor match, got %v", stats["investorMatches"])
	}
	if stats["savedInvestors"].(float64) != 1 {
		t.Errorf("Expected 1 saved investor, got %v", stats["savedInvestors"])
	}
	if stats["profileViews"].(float64) != 1 {
		t.Errorf("Expected 1 profile view, got %v", stats["profileViews"])
	}
	user := data["user"].(map[string]any)
	if user["fullName"] != "Sam Startup" {
		t.Errorf("Expected caller identity, got %v", user["fullName"])
	}
}

func testInvestorDashboard(t *testing.T) {
	app := newTestApp(t)
	investorToken, _ := seedMatchPair(t, app)

	w := app.doJSON(t, http.MethodGet, "/api/dashboard/investor", investorToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	data := decodeBody(t, w)["data"].(map[string]any)
	profile := data["profile"].(map[string]any)
	industries := profile["industries"].([]any)
	if len(industries) != 1 {
		t.Fatalf("Expected 1 preferred industry, got %v", profile["industries"])
	}
	if name := industries[0].(map[string]any)["industry_name"]; name != "Technology" {
		t.Errorf("Expected Technology, got %v", name)
	}
	stats := data["stats"].(map[string]any)
	if stats["startupMatches"].(float64) != 1 {
		t.Errorf("Expected 1 startup match, got %v", stats["startupMatches"])
	}

	// A fresh investor with only the registration stub still gets a page.
	bareToken, _ := app.registerTestUser(t, "Bare Investor", "bare@investor.test", "Investor")
	w = app.doJSON(t, http.MethodGet, "/api/dashboard/investor", bareToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for stub profile, got %d", w.Code)
	}
}

func testReferenceLists(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.registerTestUser(t, "Ref User", "ref@example.com", "Startup")

	w := app.doJSON(t, http.MethodGet, "/api/dashboard/industries", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	industries := decodeBody(t, w)["data"].([]any)
	if len(industries) != 10 {
		t.Fatalf("Expected 10 seeded industries, got %d", len(industries))
	}
	// Alphabetical ordering.
	first := industries[0].(map[string]any)["industry_name"]
	if first != "E-commerce" {
		t.Errorf("Expected E-commerce first alphabetically, got %v", first)
	}

	w = app.doJSON(t, http.MethodGet, "/api/dashboard/funding-stages", token, nil)
	stages := decodeBody(t, w)["data"].([]any)
	if len(stages) != 6 {
		t.Fatalf("Expected 6 seeded stages, got %d", len(stages))
	}
}
