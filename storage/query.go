package storage

import (
	"log"
	"time"
)

// Predicate selects records from a collection. It is a tagged union: either
// an equality map (every listed field must equal its expected value) or an
// arbitrary match function. The zero value matches every record.
type Predicate struct {
	fields map[string]any
	fn     func(Record) bool
}

// Where builds an equality predicate; all field/value pairs must match.
func Where(fields map[string]any) Predicate {
	return Predicate{fields: fields}
}

// Match builds a function predicate.
func Match(fn func(Record) bool) Predicate {
	return Predicate{fn: fn}
}

// All matches every record in a collection.
func All() Predicate {
	return Predicate{}
}

func (p Predicate) matches(r Record) bool {
	if p.fn != nil {
		return p.fn(r)
	}
	for field, want := range p.fields {
		if !looseEqual(r[field], want) {
			return false
		}
	}
	return true
}

// FindOne returns the first record matching the predicate, or ok=false when
// nothing matches.
func (s *Store) FindOne(collection string, p Predicate) (Record, bool) {
	for _, r := range s.ReadAll(collection) {
		if p.matches(r) {
			return r, true
		}
	}
	return nil, false
}

// FindMany returns all records matching the predicate, in file order.
func (s *Store) FindMany(collection string, p Predicate) []Record {
	records := s.ReadAll(collection)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if p.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of records matching the predicate.
func (s *Store) Count(collection string, p Predicate) int {
	return len(s.FindMany(collection, p))
}

// nextID assigns identifiers as max(existing)+1, or 1 for an empty
// collection. Deleting the highest-id record and inserting again therefore
// reuses that id; the original system behaves the same way and downstream
// code must not assume ids are never recycled.
func nextID(records []Record, idField string) int {
	max := 0
	for _, r := range records {
		if id := r.Int(idField); id > max {
			max = id
		}
	}
	return max + 1
}

// Insert appends a new record with a freshly assigned id and a created_at
// timestamp, then persists the collection. The returned bool reports
// whether the persist succeeded; the record is returned either way so
// callers can surface the assigned id.
func (s *Store) Insert(collection string, fields Record, idField string) (Record, bool) {
	path, ok := s.path(collection)
	if !ok {
		log.Printf("storage: unknown collection %q", collection)
		return nil, false
	}
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	records := s.readFile(path)
	record := make(Record, len(fields)+2)
	record[idField] = nextID(records, idField)
	for k, v := range fields {
		if k == idField {
			continue
		}
		record[k] = v
	}
	record["created_at"] = time.Now().UTC().Format(time.RFC3339)
	records = append(records, record)
	return record, s.writeFile(path, records)
}

// Update merges the patch over every record matching the predicate (patch
// fields win) and stamps updated_at. The collection is only rewritten when
// at least one record matched; returns whether any update occurred.
func (s *Store) Update(collection string, p Predicate, patch Record) bool {
	path, ok := s.path(collection)
	if !ok {
		log.Printf("storage: unknown collection %q", collection)
		return false
	}
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	records := s.readFile(path)
	updated := false
	now := time.Now().UTC().Format(time.RFC3339)
	for i, r := range records {
		if !p.matches(r) {
			continue
		}
		merged := r.Clone()
		for k, v := range patch {
			merged[k] = v
		}
		merged["updated_at"] = now
		records[i] = merged
		updated = true
	}
	if !updated {
		return false
	}
	return s.writeFile(path, records)
}

// Delete removes every record matching the predicate and persists the
// remainder. Returns the number of records removed.
func (s *Store) Delete(collection string, p Predicate) int {
	path, ok := s.path(collection)
	if !ok {
		log.Printf("storage: unknown collection %q", collection)
		return 0
	}
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	records := s.readFile(path)
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if !p.matches(r) {
			kept = append(kept, r)
		}
	}
	removed := len(records) - len(kept)
	if removed > 0 {
		s.writeFile(path, kept)
	}
	return removed
}

// Query is the escape hatch for operations the predicate API cannot
// express (sorting, grouping): it loads the whole collection and hands it
// to an arbitrary transform.
func Query[T any](s *Store, collection string, fn func([]Record) T) T {
	return fn(s.ReadAll(collection))
}
