// Package testing provides database helpers shared by package tests.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/aristath/cpagateway/internal/database"
)

// NewTestDB creates a migrated SQLite database in a per-test temporary directory.
// The connection is closed when the test finishes.
//
// name selects the embedded schema ("history", "plans", "config"); unknown names
// produce an empty database.
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	profile := database.ProfileStandard
	if name == "history" {
		profile = database.ProfileLedger
	}

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db
}
