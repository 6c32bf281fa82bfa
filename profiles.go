package main

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/swotlink/backend/storage"
)

// StartupProfileRequest carries the create/update payload for a startup
// profile. Optional numeric fields use pointers so an omitted field can be
// told apart from zero.
type StartupProfileRequest struct {
	CompanyName    string   `json:"companyName"`
	IndustryID     int      `json:"industryId"`
	FundingStageID *int     `json:"fundingStageId"`
	ElevatorPitch  string   `json:"elevatorPitch"`
	Strengths      string   `json:"strengths"`
	Weaknesses     string   `json:"weaknesses"`
	Opportunities  string   `json:"opportunities"`
	Threats        string   `json:"threats"`
	FundingGoal    *float64 `json:"fundingGoal"`
	Currency       string   `json:"currency"`
	Website        string   `json:"website"`
	FoundedYear    *int     `json:"foundedYear"`
	TeamSize       *int     `json:"teamSize"`
	Location       string   `json:"location"`
}

type InvestorProfileRequest struct {
	InvestorName     string   `json:"investorName"`
	InvestorType     string   `json:"investorType"`
	InvestmentThesis string   `json:"investmentThesis"`
	BudgetMin        *float64 `json:"budgetMin"`
	BudgetMax        *float64 `json:"budgetMax"`
	Currency         string   `json:"currency"`
	Website          string   `json:"website"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	YearsExperience  *int     `json:"yearsExperience"`
	Industries       []int    `json:"industries"`
	FundingStages    []int    `json:"fundingStages"`
}

var investorTypes = map[string]bool{
	"Angel":          true,
	"VC":             true,
	"Corporate":      true,
	"Private Equity": true,
	"Other":          true,
}

func saveStartupProfileHandler(store *storage.Store, hub *PresenceHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartupProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.CompanyName == "" {
			writeError(w, http.StatusBadRequest, "Company name is required")
			return
		}
		if req.ElevatorPitch == "" {
			writeError(w, http.StatusBadRequest, "Elevator pitch is required")
			return
		}
		if req.IndustryID == 0 {
			writeError(w, http.StatusBadRequest, "Valid industry is required")
			return
		}

		user := authUserFrom(r)
		fields := storage.Record{
			"company_name":     req.CompanyName,
			"industry_id":      req.IndustryID,
			"funding_stage_id": orNil(req.FundingStageID),
			"elevator_pitch":   req.ElevatorPitch,
			"strengths":        orNilStr(req.Strengths),
			"weaknesses":       orNilStr(req.Weaknesses),
			"opportunities":    orNilStr(req.Opportunities),
			"threats":          orNilStr(req.Threats),
			"funding_goal":     orNilFloat(req.FundingGoal),
			"currency":         defaultStr(req.Currency, "USD"),
			"website":          orNilStr(req.Website),
			"founded_year":     orNil(req.FoundedYear),
			"team_size":        orNil(req.TeamSize),
			"location":         orNilStr(req.Location),
		}

		ownerMatch := storage.Where(map[string]any{"user_id": user.ID})
		var profileID int
		if existing, ok := store.FindOne(storage.StartupProfiles, ownerMatch); ok {
			store.Update(storage.StartupProfiles, ownerMatch, fields)
			profileID = existing.Int("startup_profile_id")
		} else {
			fields["user_id"] = user.ID
			created, ok := store.Insert(storage.StartupProfiles, fields, "startup_profile_id")
			if !ok {
				writeError(w, http.StatusInternalServerError, "Server error saving profile")
				return
			}
			profileID = created.Int("startup_profile_id")
		}

		checkAndAwardBadges(store, hub, user.ID)

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Startup profile saved successfully",
			"data":    map[string]any{"profileId": profileID},
		})
	}
}

func saveInvestorProfileHandler(store *storage.Store, hub *PresenceHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InvestorProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.InvestorName == "" {
			writeError(w, http.StatusBadRequest, "Investor name is required")
			return
		}
		if !investorTypes[req.InvestorType] {
			writeError(w, http.StatusBadRequest, "Valid investor type required")
			return
		}
		if req.InvestmentThesis == "" {
			writeError(w, http.StatusBadRequest, "Investment thesis is required")
			return
		}

		user := authUserFrom(r)
		fields := storage.Record{
			"investor_name":        req.InvestorName,
			"investor_type":        req.InvestorType,
			"investment_thesis":    req.InvestmentThesis,
			"budget_min":           orNilFloat(req.BudgetMin),
			"budget_max":           orNilFloat(req.BudgetMax),
			"currency":             defaultStr(req.Currency, "USD"),
			"website":              orNilStr(req.Website),
			"company":              orNilStr(req.Company),
			"location":             orNilStr(req.Location),
			"years_experience":     orNil(req.YearsExperience),
			"preferred_industries": encodeIDList(req.Industries),
			"preferred_stages":     encodeIDList(req.FundingStages),
		}

		ownerMatch := storage.Where(map[string]any{"user_id": user.ID})
		var profileID int
		if existing, ok := store.FindOne(storage.InvestorProfiles, ownerMatch); ok {
			store.Update(storage.InvestorProfiles, ownerMatch, fields)
			profileID = existing.Int("investor_profile_id")
		} else {
			fields["user_id"] = user.ID
			created, ok := store.Insert(storage.InvestorProfiles, fields, "investor_profile_id")
			if !ok {
				writeError(w, http.StatusInternalServerError, "Server error saving profile")
				return
			}
			profileID = created.Int("investor_profile_id")
		}

		checkAndAwardBadges(store, hub, user.ID)

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Investor profile saved successfully",
			"data":    map[string]any{"profileId": profileID},
		})
	}
}

func getStartupProfileHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := authUserFrom(r)
		profile, ok := store.FindOne(storage.StartupProfiles, storage.Where(map[string]any{"user_id": user.ID}))
		if !ok {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    nil,
				"message": "No profile found",
			})
			return
		}

		profile = profile.Clone()
		if id := profile.Int("industry_id"); id != 0 {
			profile["industry_name"] = nameOf(store, storage.Industries, "industry_id", id, "industry_name")
		}
		if id := profile.Int("funding_stage_id"); id != 0 {
			profile["stage_name"] = nameOf(store, storage.FundingStages, "stage_id", id, "stage_name")
		}
		writeData(w, http.StatusOK, profile)
	}
}

func getInvestorProfileHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := authUserFrom(r)
		profile, ok := store.FindOne(storage.InvestorProfiles, storage.Where(map[string]any{"user_id": user.ID}))
		if !ok {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    nil,
				"message": "No profile found",
			})
			return
		}

		profile = profile.Clone()
		profile["industries"] = expandIDList(store, storage.Industries, "industry_id", profile["preferred_industries"])
		profile["fundingStages"] = expandIDList(store, storage.FundingStages, "stage_id", profile["preferred_stages"])
		writeData(w, http.StatusOK, profile)
	}
}

// trackProfileViewHandler records that one user looked at another's
// profile. Self-views are acknowledged but not stored.
func trackProfileViewHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := authUserFrom(r)
		profileUserID, err := strconv.Atoi(mux.Vars(r)["profileUserId"])
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid user id")
			return
		}
		if viewer.ID == profileUserID {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Cannot track own profile view"})
			return
		}

		var body struct {
			Duration int `json:"duration"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		_, ok := store.Insert(storage.ProfileViews, storage.Record{
			"viewer_id":      viewer.ID,
			"viewed_user_id": profileUserID,
			"view_duration":  body.Duration,
		}, "view_id")
		if !ok {
			writeError(w, http.StatusInternalServerError, "Failed to track view")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Profile view tracked"})
	}
}

func profileViewsHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := authUserFrom(r)
		views := store.FindMany(storage.ProfileViews, storage.Where(map[string]any{"viewed_user_id": user.ID}))

		viewerIDs := make([]int, 0, len(views))
		for _, v := range views {
			viewerIDs = append(viewerIDs, v.Int("viewer_id"))
		}
		users := loadUsers(r, store, viewerIDs)

		enriched := make([]storage.Record, 0, len(views))
		for _, v := range views {
			out := v.Clone()
			if viewer, ok := users[v.Int("viewer_id")]; ok {
				out["viewer_name"] = displayName(viewer)
				out["viewer_role"] = viewer.String("role")
			}
			enriched = append(enriched, out)
		}
		sort.SliceStable(enriched, func(i, j int) bool {
			return enriched[i].String("created_at") > enriched[j].String("created_at")
		})
		writeData(w, http.StatusOK, enriched)
	}
}

// displayName prefers full_name and falls back to the email local part.
func displayName(user storage.Record) string {
	if name := user.String("full_name"); name != "" {
		return name
	}
	email := user.String("email")
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			return email[:i]
		}
	}
	return email
}

func nameOf(store *storage.Store, collection, idField string, id int, nameField string) any {
	if rec, ok := store.FindOne(collection, storage.Where(map[string]any{idField: id})); ok {
		return rec.String(nameField)
	}
	return nil
}

// expandIDList turns a stored JSON id-list string into the full lookup
// records it references. Malformed input expands to an empty list.
func expandIDList(store *storage.Store, collection, idField string, stored any) []storage.Record {
	raw, _ := stored.(string)
	var ids []int
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			ids = nil
		}
	}
	out := []storage.Record{}
	if len(ids) == 0 {
		return out
	}
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, rec := range store.ReadAll(collection) {
		if want[rec.Int(idField)] {
			out = append(out, rec)
		}
	}
	return out
}

// encodeIDList serializes preference ids the way the store expects them, a
// JSON string. Empty lists are stored as nil.
func encodeIDList(ids []int) any {
	if len(ids) == 0 {
		return nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return nil
	}
	return string(b)
}

func orNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func orNilFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func orNilStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func defaultStr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
