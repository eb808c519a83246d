package migration

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	sets := map[string]fs.FS{
		"migrations/postgres": postgresFS,
		"migrations/sqlite":   sqliteFS,
	}
	for dir, fsys := range sets {
		entries, err := fs.ReadDir(fsys, dir)
		if err != nil {
			t.Fatalf("read %s: %v", dir, err)
		}
		ups, downs := map[string]bool{}, map[string]bool{}
		for _, e := range entries {
			name := e.Name()
			switch {
			case strings.HasSuffix(name, ".up.sql"):
				ups[strings.TrimSuffix(name, ".up.sql")] = true
			case strings.HasSuffix(name, ".down.sql"):
				downs[strings.TrimSuffix(name, ".down.sql")] = true
			}
		}
		if len(ups) == 0 {
			t.Fatalf("%s: no migrations embedded", dir)
		}
		for name := range ups {
			if !downs[name] {
				t.Errorf("%s: %s has no down migration", dir, name)
			}
		}
	}
}

func TestSQLiteUpDown(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")

	if err := Up(ctx, BackendSQLite, path); err != nil {
		t.Fatalf("Up: %v", err)
	}
	// second run is a no-op
	if err := Up(ctx, BackendSQLite, path); err != nil {
		t.Fatalf("Up again: %v", err)
	}

	mig, err := Open(ctx, BackendSQLite, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() {
		_ = mig.Close()
	}()
	version, dirty, err := mig.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("version = %d dirty = %v", version, dirty)
	}
	if err := mig.Steps(-1); err != nil {
		t.Fatalf("Steps(-1): %v", err)
	}
	if version, _, _ := mig.Version(); version != 0 {
		t.Fatalf("version after rollback = %d", version)
	}
}

func TestOpenUnsupportedBackend(t *testing.T) {
	if _, err := Open(context.Background(), Backend("mysql"), "x"); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}
