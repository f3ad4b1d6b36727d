package database

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseURI(t *testing.T) {
	t.Parallel()
	tests := []struct {
		uri    string
		driver string
		dsn    string
		err    bool
	}{
		{"postgres://u:p@localhost:5432/nag", DriverPostgres, "postgres://u:p@localhost:5432/nag", false},
		{"postgresql://localhost/nag", DriverPostgres, "postgresql://localhost/nag", false},
		{"sqlite://nagqueen.db", DriverSQLite, "nagqueen.db", false},
		{"sqlite:///var/lib/nag/nag.db", DriverSQLite, "/var/lib/nag/nag.db", false},
		{"sqlite://", "", "", true},
		{"mysql://localhost/nag", "", "", true},
	}
	for _, tt := range tests {
		driver, dsn, err := ParseURI(tt.uri)
		if tt.err {
			if err == nil {
				t.Errorf("ParseURI(%q) expected error", tt.uri)
			}
			continue
		}
		if err != nil || driver != tt.driver || dsn != tt.dsn {
			t.Errorf("ParseURI(%q) = %q, %q, %v", tt.uri, driver, dsn, err)
		}
	}
}

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(":memory:", time.Second)
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := MigrateSQLite(ctx, db, zerolog.Nop()); err != nil {
			t.Fatalf("MigrateSQLite run %d: %v", i+1, err)
		}
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Fatalf("schema_migrations has %d rows, want 1", n)
	}
	if _, err := db.ExecContext(ctx, "SELECT reminder_id, next_run FROM reminders"); err != nil {
		t.Fatalf("reminders table missing: %v", err)
	}
}
