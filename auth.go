package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/swotlink/backend/storage"
)

// AuthUserKey is the key type for storing the authenticated user in context
type AuthUserKey string

const authUserKey AuthUserKey = "authUser"

// jwtSecret is set from config at startup; tests override it directly.
var jwtSecret = []byte("your-secret-key")

// AuthUser is the authenticated caller attached to the request context.
type AuthUser struct {
	ID       int
	Email    string
	Role     string
	FullName string
}

func signToken(userID int, email, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"role":    role,
		"exp":     time.Now().Add(7 * 24 * time.Hour).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// parseToken validates a JWT and returns its user id, or ok=false.
func parseToken(tokenString string) (int, bool) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, false
	}
	return int(id), true
}

// authenticate wraps a handler with bearer-token verification. The token's
// user must still exist and not be suspended; the resulting AuthUser is
// attached to the request context.
func authenticate(store *storage.Store, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "No token provided")
			return
		}
		userID, ok := parseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, ok := store.FindOne(storage.Users, storage.Where(map[string]any{"user_id": userID}))
		if !ok {
			writeError(w, http.StatusUnauthorized, "User not found")
			return
		}
		if user.Bool("is_suspended") {
			writeError(w, http.StatusForbidden, "Account suspended")
			return
		}

		ctx := context.WithValue(r.Context(), authUserKey, AuthUser{
			ID:       user.Int("user_id"),
			Email:    user.String("email"),
			Role:     user.String("role"),
			FullName: user.String("full_name"),
		})
		next(w, r.WithContext(ctx))
	}
}

// requireRole gates a handler on the authenticated user's role. Must run
// inside authenticate.
func requireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if authUserFrom(r).Role != role {
			writeError(w, http.StatusForbidden, "Access denied. Insufficient permissions.")
			return
		}
		next(w, r)
	}
}

func authUserFrom(r *http.Request) AuthUser {
	user, _ := r.Context().Value(authUserKey).(AuthUser)
	return user
}

func registerHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Invalid method")
			return
		}

		type RegisterRequest struct {
			Email     string `json:"email"`
			Password  string `json:"password"`
			FullName  string `json:"fullName"`
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
			Role      string `json:"role"`
		}

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		fullName := strings.TrimSpace(req.FullName)
		if fullName == "" {
			fullName = strings.TrimSpace(strings.TrimSpace(req.FirstName) + " " + strings.TrimSpace(req.LastName))
		}

		switch {
		case !strings.Contains(req.Email, "@"):
			writeError(w, http.StatusBadRequest, "Valid email is required")
			return
		case len(req.Password) < 8:
			writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
			return
		case fullName == "":
			writeError(w, http.StatusBadRequest, "Full name is required")
			return
		case req.Role != "Startup" && req.Role != "Investor":
			writeError(w, http.StatusBadRequest, "Role must be Startup or Investor")
			return
		}

		if _, exists := store.FindOne(storage.Users, storage.Where(map[string]any{"email": req.Email})); exists {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("Error hashing password:", err)
			writeError(w, http.StatusInternalServerError, "Server error during registration")
			return
		}

		user, ok := store.Insert(storage.Users, storage.Record{
			"full_name":          fullName,
			"email":              req.Email,
			"password_hash":      string(hash),
			"role":               req.Role,
			"is_active":          true,
			"is_verified":        false,
			"is_suspended":       false,
			"profile_completion": 0,
			"last_login":         nil,
		}, "user_id")
		if !ok {
			writeError(w, http.StatusInternalServerError, "Server error during registration")
			return
		}
		userID := user.Int("user_id")

		// Role-specific profile stub so the profile editors have a row to
		// update.
		switch req.Role {
		case "Startup":
			store.Insert(storage.StartupProfiles, storage.Record{"user_id": userID}, "startup_profile_id")
		case "Investor":
			store.Insert(storage.InvestorProfiles, storage.Record{"user_id": userID}, "investor_profile_id")
		}

		token, err := signToken(userID, req.Email, req.Role)
		if err != nil {
			log.Println("Error generating token for new user:", err)
			writeError(w, http.StatusInternalServerError, "Server error during registration")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"token":   token,
			"user": map[string]interface{}{
				"userId":   userID,
				"fullName": fullName,
				"email":    req.Email,
				"role":     req.Role,
			},
		})
	}
}

func loginHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Invalid method")
			return
		}

		type LoginRequest struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		user, ok := store.FindOne(storage.Users, storage.Where(map[string]any{"email": req.Email}))
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		if user.Bool("is_suspended") {
			writeError(w, http.StatusForbidden, "Account suspended. Contact support.")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.String("password_hash")), []byte(req.Password)); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}

		store.Update(storage.Users,
			storage.Where(map[string]any{"user_id": user.Int("user_id")}),
			storage.Record{"last_login": time.Now().UTC().Format(time.RFC3339)})

		token, err := signToken(user.Int("user_id"), user.String("email"), user.String("role"))
		if err != nil {
			log.Println("Error generating token:", err)
			writeError(w, http.StatusInternalServerError, "Server error during login")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"token":   token,
			"user": map[string]interface{}{
				"userId":            user.Int("user_id"),
				"fullName":          user.String("full_name"),
				"email":             user.String("email"),
				"role":              user.String("role"),
				"profileCompletion": user.Int("profile_completion"),
				"isVerified":        user.Bool("is_verified"),
			},
		})
	}
}

// meHandler returns the caller's own user record. Runs inside
// authenticate.
func meHandler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := store.FindOne(storage.Users, storage.Where(map[string]any{"user_id": authUserFrom(r).ID}))
		if !ok {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		// Never leak the password hash.
		sanitized := user.Clone()
		delete(sanitized, "password_hash")
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": sanitized})
	}
}
