package db

import (
	"testing"

	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestMigrateSQLiteCreatesDomainTables(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, table := range []string{"prizes", "outputs", "radio_stations", "programs", "master_inventory", "master_inventory_photos", "distribution_history", "admins", "settings"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	for _, column := range []string{"radio_station_id", "source_master_id", "combo_details", "pickup_deadline_days", "is_on_air", "scheduled_for"} {
		if !conn.Migrator().HasColumn("prizes", column) {
			t.Fatalf("prizes missing column %s", column)
		}
	}
	if !conn.Migrator().HasIndex(&models.Prize{}, "idx_prizes_station_lineage") {
		t.Fatalf("prizes missing lineage index")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	for i := 0; i < 2; i++ {
		if errMigrate := Migrate(conn); errMigrate != nil {
			t.Fatalf("migrate pass %d: %v", i+1, errMigrate)
		}
	}
}

func TestDetectDialectFromDSN(t *testing.T) {
	cases := []struct {
		dsn  string
		want string
	}{
		{dsn: "postgres://u:p@localhost:5432/prizes", want: DialectPostgres},
		{dsn: "host=localhost dbname=prizes sslmode=disable", want: DialectPostgres},
		{dsn: "file:data/prizes.db", want: DialectSQLite},
		{dsn: "sqlite://data/prizes.db", want: DialectSQLite},
		{dsn: "prizes.db", want: DialectSQLite},
	}
	for _, tc := range cases {
		got, err := detectDialectFromDSN(tc.dsn)
		if err != nil {
			t.Fatalf("detect %q: %v", tc.dsn, err)
		}
		if got != tc.want {
			t.Fatalf("detect %q = %q, want %q", tc.dsn, got, tc.want)
		}
	}
	if _, err := detectDialectFromDSN("mysql://localhost/x"); err == nil {
		t.Fatalf("expected error for mysql dsn")
	}
}

func TestEnsureSQLiteParams(t *testing.T) {
	got := ensureSQLiteParams("file:x.db?_busy_timeout=100")
	if got != "file:x.db?_busy_timeout=100&_foreign_keys=on" {
		t.Fatalf("unexpected dsn %q", got)
	}
	if got := ensureSQLiteParams(":memory:"); got != ":memory:" {
		t.Fatalf("memory dsn changed: %q", got)
	}
}

func TestOpenSQLiteMemory(t *testing.T) {
	conn, err := Open("file:db_open_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !IsSQLite(conn) {
		t.Fatalf("expected sqlite dialect, got %q", DialectName(conn))
	}
	if got := CaseInsensitiveLikeExpr(conn, "winner_name"); got != "fold_lower(winner_name) LIKE ?" {
		t.Fatalf("unexpected like expr %q", got)
	}
	if got := NormalizeLikePattern(conn, "%Ana%"); got != "%ana%" {
		t.Fatalf("unexpected pattern %q", got)
	}
}

func TestCaseInsensitiveLikeFoldsAccents(t *testing.T) {
	conn, err := Open("file:db_fold_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var matches int64
	query := "SELECT COUNT(*) FROM (SELECT 'JOÃO PEREIRA' AS name) WHERE " + CaseInsensitiveLikeExpr(conn, "name")
	if errRaw := conn.Raw(query, NormalizeLikePattern(conn, "%Joã%")).Scan(&matches).Error; errRaw != nil {
		t.Fatalf("query: %v", errRaw)
	}
	if matches != 1 {
		t.Fatalf("accented upper-case name not matched")
	}
}
