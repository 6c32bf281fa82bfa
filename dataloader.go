package main

import (
	"context"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/swotlink/backend/storage"
)

// DataLoaderContextKey is the key used to store dataloaders in context
type DataLoaderContextKey string

const dataLoaderKey DataLoaderContextKey = "dataloader"

// DataLoaders holds the per-request batched loaders. List endpoints that
// enrich many rows (saved matches, notifications) go through these so one
// collection read serves the whole batch instead of one read per row.
type DataLoaders struct {
	UserLoader            *dataloader.Loader[int, storage.Record]
	StartupProfileLoader  *dataloader.Loader[int, storage.Record]
	InvestorProfileLoader *dataloader.Loader[int, storage.Record]
}

// NewDataLoaders creates new dataloaders over the document store
func NewDataLoaders(store *storage.Store) *DataLoaders {
	return &DataLoaders{
		UserLoader:            dataloader.NewBatchedLoader(recordBatchFn(store, storage.Users, "user_id"), dataloader.WithWait[int, storage.Record](16*time.Millisecond)),
		StartupProfileLoader:  dataloader.NewBatchedLoader(recordBatchFn(store, storage.StartupProfiles, "user_id"), dataloader.WithWait[int, storage.Record](16*time.Millisecond)),
		InvestorProfileLoader: dataloader.NewBatchedLoader(recordBatchFn(store, storage.InvestorProfiles, "user_id"), dataloader.WithWait[int, storage.Record](16*time.Millisecond)),
	}
}

// GetDataLoadersFromContext retrieves dataloaders from context
func GetDataLoadersFromContext(ctx context.Context) *DataLoaders {
	if dl, ok := ctx.Value(dataLoaderKey).(*DataLoaders); ok {
		return dl
	}
	return nil
}

// WithDataLoaders adds dataloaders to context
func WithDataLoaders(ctx context.Context, dl *DataLoaders) context.Context {
	return context.WithValue(ctx, dataLoaderKey, dl)
}

// recordBatchFn loads records keyed by keyField with a single collection
// read per batch. Missing keys resolve to a nil Record, not an error.
func recordBatchFn(store *storage.Store, collection, keyField string) dataloader.BatchFunc[int, storage.Record] {
	return func(ctx context.Context, keys []int) []*dataloader.Result[storage.Record] {
		results := make([]*dataloader.Result[storage.Record], len(keys))

		// Track which position in the batch each key resolves to
		keyMap := make(map[int]int) // key -> index in results
		for i, key := range keys {
			keyMap[key] = i
			results[i] = &dataloader.Result[storage.Record]{}
		}

		if len(keys) == 0 {
			return results
		}

		for _, rec := range store.ReadAll(collection) {
			if idx, ok := keyMap[rec.Int(keyField)]; ok {
				results[idx].Data = rec
			}
		}

		return results
	}
}

// DataLoaderMiddleware creates middleware that injects dataloaders into the request context
func DataLoaderMiddleware(store *storage.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Fresh loaders per request so the cache never outlives a response
			dataloaders := NewDataLoaders(store)
			ctx := WithDataLoaders(r.Context(), dataloaders)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// loadUsers resolves many user ids through the request's loader, falling
// back to direct reads when the middleware is not installed (tests that
// call handlers without the full router).
func loadUsers(r *http.Request, store *storage.Store, ids []int) map[int]storage.Record {
	out := make(map[int]storage.Record, len(ids))
	if dl := GetDataLoadersFromContext(r.Context()); dl != nil {
		thunks := make(map[int]func() (storage.Record, error), len(ids))
		for _, id := range ids {
			if _, seen := thunks[id]; !seen {
				thunks[id] = dl.UserLoader.Load(r.Context(), id)
			}
		}
		for id, thunk := range thunks {
			if rec, err := thunk(); err == nil && rec != nil {
				out[id] = rec
			}
		}
		return out
	}
	for _, rec := range store.ReadAll(storage.Users) {
		out[rec.Int("user_id")] = rec
	}
	return out
}
