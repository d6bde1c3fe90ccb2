package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveOutputPath(t *testing.T) {
	t.Chdir(t.TempDir())

	if got := ResolveOutputPath("custom/path.db", true); got != "custom/path.db" {
		t.Errorf("Explicit path must win, got %q", got)
	}
	if got := ResolveOutputPath("", true); got != "emails.db" {
		t.Errorf("Destructive default = %q, want emails.db", got)
	}

	today := time.Now().Format("2006-01-02")
	base := fmt.Sprintf("%s-emails.db", today)

	if got := ResolveOutputPath("", false); got != base {
		t.Errorf("First run = %q, want %q", got, base)
	}

	mustTouch(t, base)
	if got, want := ResolveOutputPath("", false), fmt.Sprintf("%s-emails-0001.db", today); got != want {
		t.Errorf("Second run = %q, want %q", got, want)
	}

	mustTouch(t, fmt.Sprintf("%s-emails-0001.db", today))
	if got, want := ResolveOutputPath("", false), fmt.Sprintf("%s-emails-0002.db", today); got != want {
		t.Errorf("Third run = %q, want %q", got, want)
	}
}

func mustTouch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
}

func TestOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "emails.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	if _, err := db.Exec(insertQuery,
		"a@example.com", "b@example.com", "", "", "subject",
		"Thu, 9 Jun 2005 10:30:00 -0400", "2005-06-09 14:30:00",
		"<m1@example.com>", "", "", "text/plain", "body", ""); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Failed to close database: %v", err)
	}

	// Reopening runs the schema again; it must keep existing rows.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM emails").Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 row after reopen, got %d", count)
	}

	var from, dateParsed string
	if err := db.QueryRow("SELECT from_addr, date_parsed FROM emails").Scan(&from, &dateParsed); err != nil {
		t.Fatalf("Failed to read row: %v", err)
	}
	if from != "a@example.com" || dateParsed != "2005-06-09 14:30:00" {
		t.Errorf("Row = (%q, %q)", from, dateParsed)
	}
}
