package testsupport

import (
	"context"
	"testing"

	"newsdiet/internal/config"
	"newsdiet/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustCreateFeed registers an enabled feed for tests.
func MustCreateFeed(t testing.TB, st *store.Store, url, name string) *store.Feed {
	t.Helper()

	feed, err := st.CreateFeed(context.Background(), url, name, true)
	if err != nil {
		t.Fatalf("store.CreateFeed: %v", err)
	}
	return feed
}
