package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir())
	require.NoError(t, s.Initialize())
	return s
}

func TestInitializeCreatesCollectionFiles(t *testing.T) {
	s := newTestStore(t)

	for _, file := range dataFiles {
		_, err := os.Stat(filepath.Join(s.Dir(), file))
		assert.NoError(t, err, "expected %s to exist", file)
	}
}

func TestInitializeSeedsReferenceCollections(t *testing.T) {
	s := newTestStore(t)

	industries := s.ReadAll(Industries)
	require.Len(t, industries, 10)
	assert.Equal(t, "Technology", industries[0].String("industry_name"))
	assert.Equal(t, 1, industries[0].Int("industry_id"))

	stages := s.ReadAll(FundingStages)
	require.Len(t, stages, 6)
	assert.Equal(t, "Pre-Seed", stages[0].String("stage_name"))

	assert.Len(t, s.ReadAll(Badges), 5)
	assert.Len(t, s.ReadAll(ForumCategories), 5)

	// Non-reference collections start out empty.
	assert.Empty(t, s.ReadAll(Users))
}

func TestInitializeIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	// Mutate a seeded collection, then re-run Initialize: existing files
	// must not be re-seeded.
	ok := s.WriteAll(Industries, []Record{{"industry_id": 99, "industry_name": "Custom"}})
	require.True(t, ok)

	require.NoError(t, s.Initialize())

	industries := s.ReadAll(Industries)
	require.Len(t, industries, 1)
	assert.Equal(t, 99, industries[0].Int("industry_id"))
}

func TestInitializeFailsOnUncreatableDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := New(filepath.Join(blocker, "data"))
	assert.Error(t, s.Initialize())
}

func TestReadAllFailsOpenOnCorruptFile(t *testing.T) {
	s := newTestStore(t)

	path := filepath.Join(s.Dir(), dataFiles[Users])
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Empty(t, s.ReadAll(Users))
}

func TestReadAllUnknownCollection(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.ReadAll("nofiles"))
	assert.False(t, s.WriteAll("nofiles", nil))
}

func TestInsertAssignsSequentialIDs(t *testing.T) {
	s := newTestStore(t)

	first, ok := s.Insert(Users, Record{"email": "a@example.com"}, "user_id")
	require.True(t, ok)
	assert.Equal(t, 1, first.Int("user_id"))

	second, ok := s.Insert(Users, Record{"email": "b@example.com"}, "user_id")
	require.True(t, ok)
	assert.Equal(t, 2, second.Int("user_id"))
}

func TestInsertFindOneRoundTrip(t *testing.T) {
	s := newTestStore(t)

	inserted, ok := s.Insert(Users, Record{"email": "a@example.com", "role": "Startup"}, "user_id")
	require.True(t, ok)
	assert.NotEmpty(t, inserted.String("created_at"))

	found, ok := s.FindOne(Users, Where(map[string]any{"user_id": inserted.Int("user_id")}))
	require.True(t, ok)
	assert.Equal(t, "a@example.com", found.String("email"))
	assert.Equal(t, "Startup", found.String("role"))
	assert.Equal(t, inserted.String("created_at"), found.String("created_at"))
}

func TestInsertReusesIDAfterMaxDeleted(t *testing.T) {
	s := newTestStore(t)

	s.Insert(Users, Record{"email": "a@example.com"}, "user_id")
	s.Insert(Users, Record{"email": "b@example.com"}, "user_id")
	s.Delete(Users, Where(map[string]any{"user_id": 2}))

	// max(ids)+1 on purpose: deleting the highest id record recycles it.
	third, ok := s.Insert(Users, Record{"email": "c@example.com"}, "user_id")
	require.True(t, ok)
	assert.Equal(t, 2, third.Int("user_id"))
}

func TestUpdateIsPartialMerge(t *testing.T) {
	s := newTestStore(t)

	s.Insert(Users, Record{"a": 1, "b": 2}, "user_id")
	updated := s.Update(Users, Where(map[string]any{"user_id": 1}), Record{"b": 3})
	require.True(t, updated)

	found, ok := s.FindOne(Users, Where(map[string]any{"user_id": 1}))
	require.True(t, ok)
	assert.Equal(t, 1, found.Int("a"))
	assert.Equal(t, 3, found.Int("b"))
	assert.NotEmpty(t, found.String("updated_at"))
}

func TestUpdateNoMatchReturnsFalse(t *testing.T) {
	s := newTestStore(t)

	s.Insert(Users, Record{"email": "a@example.com"}, "user_id")
	assert.False(t, s.Update(Users, Where(map[string]any{"user_id": 42}), Record{"email": "x"}))
}

func TestDeleteReturnsRemovedCount(t *testing.T) {
	s := newTestStore(t)

	s.Insert(Users, Record{"role": "Startup"}, "user_id")
	s.Insert(Users, Record{"role": "Startup"}, "user_id")
	s.Insert(Users, Record{"role": "Investor"}, "user_id")

	assert.Equal(t, 2, s.Delete(Users, Where(map[string]any{"role": "Startup"})))
	assert.Equal(t, 0, s.Delete(Users, Where(map[string]any{"role": "Startup"})))
	assert.Equal(t, 1, s.Count(Users, All()))
}

func TestFindManyPredicateVariants(t *testing.T) {
	s := newTestStore(t)

	s.Insert(Users, Record{"role": "Startup", "is_active": true}, "user_id")
	s.Insert(Users, Record{"role": "Investor", "is_active": true}, "user_id")
	s.Insert(Users, Record{"role": "Investor", "is_active": false}, "user_id")

	// Equality-map variant, AND-combined.
	byFields := s.FindMany(Users, Where(map[string]any{"role": "Investor", "is_active": true}))
	require.Len(t, byFields, 1)
	assert.Equal(t, 2, byFields[0].Int("user_id"))

	// Function variant.
	byFn := s.FindMany(Users, Match(func(r Record) bool {
		return r.Bool("is_active")
	}))
	assert.Len(t, byFn, 2)

	// Empty predicate returns everything.
	assert.Len(t, s.FindMany(Users, All()), 3)
}

func TestQueryTransform(t *testing.T) {
	s := newTestStore(t)

	names := Query(s, Industries, func(records []Record) []string {
		out := make([]string, 0, len(records))
		for _, r := range records {
			out = append(out, r.String("industry_name"))
		}
		return out
	})
	require.Len(t, names, 10)
	assert.Contains(t, names, "Healthcare")
}

func TestWriteAllPersistsPrettyJSON(t *testing.T) {
	s := newTestStore(t)

	require.True(t, s.WriteAll(Users, []Record{{"user_id": 1}}))
	data, err := os.ReadFile(filepath.Join(s.Dir(), dataFiles[Users]))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {")
}
