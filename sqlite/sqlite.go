// Package sqlite writes converted email records into a SQLite database
// file using the pure Go driver.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Open creates or opens the database at path, applies the import pragmas
// and ensures the schema exists. Missing parent directories are created.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(pragmas); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

// ResolveOutputPath picks the database file for a run. An explicit path
// always wins, destructive mode reuses emails.db, and otherwise the name
// carries the local date plus a counter so earlier runs are never touched.
func ResolveOutputPath(explicit string, destructive bool) string {
	if explicit != "" {
		return explicit
	}
	if destructive {
		return "emails.db"
	}

	today := time.Now().Format("2006-01-02")
	base := fmt.Sprintf("%s-emails.db", today)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return base
	}

	for counter := 1; counter < 10000; counter++ {
		numbered := fmt.Sprintf("%s-emails-%04d.db", today, counter)
		if _, err := os.Stat(numbered); os.IsNotExist(err) {
			return numbered
		}
	}
	return base
}
