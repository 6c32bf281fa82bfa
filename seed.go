package main

import (
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/swotlink/backend/storage"
)

// ensureDefaultUsers creates demo accounts the first time the server runs
// against an empty store. Any existing user disables the seed.
func ensureDefaultUsers(store *storage.Store) {
	if existing := store.Count(storage.Users, storage.All()); existing > 0 {
		log.Printf("Seed: Skipped (users.json already has %d user(s))", existing)
		return
	}

	log.Println("Seed: Creating default users")
	defaults := []struct {
		fullName string
		email    string
		password string
		role     string
	}{
		{"Alice Startup", "alice@startup.test", "startup123", "Startup"},
		{"Bob Investor", "bob@investor.test", "investor123", "Investor"},
	}

	for _, d := range defaults {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("Seed: hashing password for %s: %v", d.email, err)
			continue
		}
		user, ok := store.Insert(storage.Users, storage.Record{
			"full_name":          d.fullName,
			"email":              d.email,
			"password_hash":      string(hash),
			"role":               d.role,
			"is_active":          true,
			"is_verified":        false,
			"is_suspended":       false,
			"profile_completion": 0,
			"last_login":         nil,
		}, "user_id")
		if !ok {
			log.Printf("Seed: failed to insert %s", d.email)
			continue
		}

		switch d.role {
		case "Startup":
			store.Insert(storage.StartupProfiles, storage.Record{"user_id": user.Int("user_id")}, "startup_profile_id")
		case "Investor":
			store.Insert(storage.InvestorProfiles, storage.Record{"user_id": user.Int("user_id")}, "investor_profile_id")
		}
	}
	log.Println("Seed: Default users created")
}
