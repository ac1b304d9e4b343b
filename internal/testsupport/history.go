package testsupport

import (
	"testing"

	"reelcut/internal/config"
	"reelcut/internal/history"
)

// MustOpenHistory opens the ledger at cfg.History.Path and closes it when
// the test ends.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
