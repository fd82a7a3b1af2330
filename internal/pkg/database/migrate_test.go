package database

import (
	"strings"
	"testing"
)

func TestMigrationsAreOrderedAndNonEmpty(t *testing.T) {
	migrations, err := Migrations()
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatalf("expected embedded migrations")
	}
	for i, m := range migrations {
		if strings.TrimSpace(m.SQL) == "" {
			t.Fatalf("migration %s is empty", m.Version)
		}
		if i > 0 && migrations[i-1].Version >= m.Version {
			t.Fatalf("migrations out of order: %s before %s", migrations[i-1].Version, m.Version)
		}
	}
}

func TestSchemaEnforcesSingleActiveHandover(t *testing.T) {
	migrations, err := Migrations()
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	var all strings.Builder
	for _, m := range migrations {
		all.WriteString(m.SQL)
	}
	schema := all.String()
	for _, want := range []string{"uq_handovers_active_pair", "uq_handovers_active_lost", "uq_reports_reporter_target"} {
		if !strings.Contains(schema, want) {
			t.Fatalf("schema is missing %s", want)
		}
	}
}

func TestNewRedisRequiresURL(t *testing.T) {
	if _, err := NewRedis(""); err != ErrRedisNotConfigured {
		t.Fatalf("expected ErrRedisNotConfigured, got %v", err)
	}
}
