// Package storage persists named collections as JSON array files on disk
// and exposes a minimal relational-style query API over them. It replaces a
// SQL database for small single-process deployments: every operation is a
// full read-modify-write of one collection file.
package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Collection names accepted by every Store operation.
const (
	Users             = "users"
	StartupProfiles   = "startupProfiles"
	InvestorProfiles  = "investorProfiles"
	Industries        = "industries"
	FundingStages     = "fundingStages"
	SavedMatches      = "savedMatches"
	PitchVideos       = "pitchVideos"
	VideoViews        = "videoViews"
	VideoComments     = "videoComments"
	Messages          = "messages"
	Conversations     = "conversations"
	Notifications     = "notifications"
	NotificationQueue = "notificationQueue"
	ProfileViews      = "profileViews"
	Badges            = "badges"
	UserBadges        = "userBadges"
	UserStats         = "userStats"
	ForumCategories   = "forumCategories"
	ForumPosts        = "forumPosts"
	ForumReplies      = "forumReplies"
)

// dataFiles maps collection names to their on-disk file names.
var dataFiles = map[string]string{
	Users:             "users.json",
	StartupProfiles:   "startup_profiles.json",
	InvestorProfiles:  "investor_profiles.json",
	Industries:        "industries.json",
	FundingStages:     "funding_stages.json",
	SavedMatches:      "saved_matches.json",
	PitchVideos:       "pitch_videos.json",
	VideoViews:        "video_views.json",
	VideoComments:     "video_comments.json",
	Messages:          "messages.json",
	Conversations:     "conversations.json",
	Notifications:     "notifications.json",
	NotificationQueue: "notification_queue.json",
	ProfileViews:      "profile_views.json",
	Badges:            "badges.json",
	UserBadges:        "user_badges.json",
	UserStats:         "user_stats.json",
	ForumCategories:   "forum_categories.json",
	ForumPosts:        "forum_posts.json",
	ForumReplies:      "forum_replies.json",
}

// Store is a file-backed document store. Each collection is serialized as
// one pretty-printed JSON array under the data directory.
//
// Writers are queued per collection, so two concurrent mutations of the
// same collection cannot lose each other's updates. Operations spanning
// several collections are NOT coordinated: a matching query issues several
// independent reads, and a write landing between them can surface a
// partially-updated view. That read skew is an accepted property of the
// design, not something callers should try to work around.
type Store struct {
	dir   string
	locks map[string]*sync.RWMutex
}

// New returns a Store rooted at dir. Call Initialize before first use.
func New(dir string) *Store {
	locks := make(map[string]*sync.RWMutex, len(dataFiles))
	for name := range dataFiles {
		locks[name] = &sync.RWMutex{}
	}
	return &Store{dir: dir, locks: locks}
}

// Dir returns the data directory the store persists into.
func (s *Store) Dir() string { return s.dir }

// Initialize creates the data directory and every collection file that does
// not exist yet. Reference collections get their seed content on first
// creation only, so the call is safe on every process start. A directory
// creation failure is propagated.
func (s *Store) Initialize() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", s.dir, err)
	}
	for name, file := range dataFiles {
		path := filepath.Join(s.dir, file)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		initial := seedData[name]
		if initial == nil {
			initial = []Record{}
		}
		if !s.writeFile(path, initial) {
			return fmt.Errorf("initialize collection %s", name)
		}
	}
	return nil
}

func (s *Store) path(collection string) (string, bool) {
	file, ok := dataFiles[collection]
	if !ok {
		return "", false
	}
	return filepath.Join(s.dir, file), true
}

func (s *Store) lock(collection string) *sync.RWMutex {
	return s.locks[collection]
}

// readFile loads and parses one collection file. Read or parse failures
// degrade to an empty collection: a corrupted file costs a feature, not the
// process.
func (s *Store) readFile(path string) []Record {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("storage: error reading %s: %v", path, err)
		}
		return []Record{}
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("storage: error parsing %s: %v", path, err)
		return []Record{}
	}
	return records
}

func (s *Store) writeFile(path string, records []Record) bool {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		log.Printf("storage: error serializing %s: %v", path, err)
		return false
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("storage: error writing %s: %v", path, err)
		return false
	}
	return true
}

// ReadAll loads the entire collection from disk. Unknown collections and
// unreadable files return an empty slice.
func (s *Store) ReadAll(collection string) []Record {
	path, ok := s.path(collection)
	if !ok {
		log.Printf("storage: unknown collection %q", collection)
		return []Record{}
	}
	mu := s.lock(collection)
	mu.RLock()
	defer mu.RUnlock()
	return s.readFile(path)
}

// WriteAll overwrites the collection with the given record set. Returns
// whether the write succeeded; it never panics or propagates an error.
func (s *Store) WriteAll(collection string, records []Record) bool {
	path, ok := s.path(collection)
	if !ok {
		log.Printf("storage: unknown collection %q", collection)
		return false
	}
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()
	return s.writeFile(path, records)
}
