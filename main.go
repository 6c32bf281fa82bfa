package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/swotlink/backend/matching"
	"github.com/swotlink/backend/storage"
)

func main() {
	cfg := loadConfig()
	jwtSecret = cfg.JWTSecret

	store := storage.New(cfg.DataDir)
	if err := store.Initialize(); err != nil {
		log.Fatalf("Storage init failed: %v", err)
	}
	ensureDefaultUsers(store)

	engine := matching.NewEngine(store)
	hub := NewPresenceHub()

	router := newRouter(store, engine, hub)
	handler := withCORS(cfg.FrontendURL, DataLoaderMiddleware(store)(router))

	log.Printf("Server running on port %s (%s)", cfg.Port, cfg.Env)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// newRouter wires every endpoint. Kept separate from main so tests can
// stand up the full route table against a temp store.
func newRouter(store *storage.Store, engine *matching.Engine, hub *PresenceHub) *mux.Router {
	r := mux.NewRouter()

	auth := func(h http.HandlerFunc) http.HandlerFunc { return authenticate(store, h) }
	startupOnly := func(h http.HandlerFunc) http.HandlerFunc { return auth(requireRole("Startup", h)) }
	investorOnly := func(h http.HandlerFunc) http.HandlerFunc { return auth(requireRole("Investor", h)) }

	// Auth
	r.HandleFunc("/api/auth/register", registerHandler(store)).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", loginHandler(store)).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/me", auth(meHandler(store))).Methods(http.MethodGet)

	// Profiles
	r.HandleFunc("/api/profile/startup", startupOnly(saveStartupProfileHandler(store, hub))).Methods(http.MethodPost)
	r.HandleFunc("/api/profile/startup", startupOnly(getStartupProfileHandler(store))).Methods(http.MethodGet)
	r.HandleFunc("/api/profile/investor", investorOnly(saveInvestorProfileHandler(store, hub))).Methods(http.MethodPost)
	r.HandleFunc("/api/profile/investor", investorOnly(getInvestorProfileHandler(store))).Methods(http.MethodGet)
	r.HandleFunc("/api/profile/track-view/{profileUserId}", auth(trackProfileViewHandler(store))).Methods(http.MethodPost)
	r.HandleFunc("/api/profile/views", auth(profileViewsHandler(store))).Methods(http.MethodGet)

	// Discovery
	r.HandleFunc("/api/discovery/startups", investorOnly(discoverStartupsHandler(engine))).Methods(http.MethodGet)
	r.HandleFunc("/api/discovery/investors", startupOnly(discoverInvestorsHandler(engine))).Methods(http.MethodGet)
	r.HandleFunc("/api/discovery/startup/{id}", investorOnly(startupDetailHandler(store, engine))).Methods(http.MethodGet)
	r.HandleFunc("/api/discovery/investor/{id}", startupOnly(investorDetailHandler(store))).Methods(http.MethodGet)
	r.HandleFunc("/api/discovery/match-stats", auth(matchStatsHandler(engine))).Methods(http.MethodGet)

	// Dashboard
	r.HandleFunc("/api/dashboard/startup", startupOnly(startupDashboardHandler(store, engine))).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard/investor", investorOnly(investorDashboardHandler(store, engine))).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard/industries", auth(industriesHandler(store))).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard/funding-stages", auth(fundingStagesHandler(store))).Methods(http.MethodGet)

	// Saved matches
	r.HandleFunc("/api/saved/save", auth(saveMatchHandler(store, hub))).Methods(http.MethodPost)
	r.HandleFunc("/api/saved/unsave/{targetUserId}", auth(unsaveMatchHandler(store))).Methods(http.MethodDelete)
	r.HandleFunc("/api/saved/list", auth(listSavedHandler(store))).Methods(http.MethodGet)
	r.HandleFunc("/api/saved/check/{targetUserId}", auth(checkSavedHandler(store))).Methods(http.MethodGet)
	r.HandleFunc("/api/saved/track-view", auth(trackViewHandler(store))).Methods(http.MethodPost)

	// Notifications and gamification
	r.HandleFunc("/api/notifications", auth(listNotificationsHandler(store))).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/unread-count", auth(unreadCountHandler(store))).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/{notificationId}/read", auth(markNotificationReadHandler(store))).Methods(http.MethodPut)
	r.HandleFunc("/api/gamification/summary", auth(gamificationSummaryHandler(store))).Methods(http.MethodGet)
	r.HandleFunc("/api/gamification/leaderboard", auth(leaderboardHandler(store))).Methods(http.MethodGet)

	// Real-time relay
	r.HandleFunc("/ws", wsHandler(hub))

	// Health check
	r.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}
