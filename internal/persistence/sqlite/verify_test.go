// SPDX-License-Identifier: MIT

package sqlite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVerifyIntegrity_DetectsCorruption(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "corruptible.sqlite")

	db, err := Open(dbPath, DefaultConfig())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE widgets (id INTEGER PRIMARY KEY, data TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for i := 0; i < 200; i++ {
		if _, err := db.Exec("INSERT INTO widgets (data) VALUES (?)", strings.Repeat("A", 200)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	db.Close()

	issues, err := VerifyIntegrity(dbPath, "quick")
	if err != nil {
		t.Fatalf("initial verification errored: %v", err)
	}
	if issues != nil {
		t.Fatalf("initial verification found issues: %v", issues)
	}

	f, err := os.OpenFile(dbPath, os.O_RDWR, 0o644)
	if err != nil {
		t.Fatalf("open for corruption: %v", err)
	}
	corrupt := make([]byte, 200)
	for i := range corrupt {
		corrupt[i] = 0xFF
	}
	if _, err := f.WriteAt(corrupt, 4096); err != nil {
		f.Close()
		t.Fatalf("write corruption: %v", err)
	}
	f.Close()

	issues, err = VerifyIntegrity(dbPath, "full")
	if err != nil {
		t.Fatalf("verification after corruption errored: %v", err)
	}
	if issues == nil {
		t.Error("expected corruption to be detected")
	}
}

func TestVerifyIntegrity_MissingFile(t *testing.T) {
	_, err := VerifyIntegrity(filepath.Join(t.TempDir(), "does-not-exist.sqlite"), "quick")
	if err == nil {
		t.Error("expected an error opening a nonexistent database")
	}
}
