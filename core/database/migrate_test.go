package database

import (
	"os"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/screeningbot/core/config"
)

func TestListAndCountMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_journal_kind.up.sql",
		"000001_relay_journal.up.sql",
		"000001_relay_journal.down.sql",
		"README.md",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("-- sql"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	files := listMigrationFiles(dir)
	if len(files) != 2 || files[0] != "000001_relay_journal.up.sql" {
		t.Fatalf("unexpected files: %v", files)
	}
	if got := countApplied(files, 0, 2); got != 2 {
		t.Fatalf("countApplied(0,2) = %d", got)
	}
	if got := countApplied(files, 1, 1); got != 0 {
		t.Fatalf("countApplied(1,1) = %d", got)
	}
	if parseVersion("junk.sql") != 0 {
		t.Fatal("non numeric prefix must parse to 0")
	}
}

func TestConnectionStrings(t *testing.T) {
	cfg := coreconfig.DatabaseConfig{User: "bot", Password: "pw", Host: "db", Port: "5432", Name: "screening", SSLMode: "disable"}
	if got := DSN(cfg); got != "user=bot password=pw host=db port=5432 dbname=screening sslmode=disable" {
		t.Fatalf("DSN = %q", got)
	}
	if got := URL(cfg); got != "postgres://bot:pw@db:5432/screening?sslmode=disable" {
		t.Fatalf("URL = %q", got)
	}
}
