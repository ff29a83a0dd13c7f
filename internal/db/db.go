package db

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

var (
	db   *sql.DB
	once sync.Once
)

type Config struct {
	Path string
}

func Init(cfg Config) error {
	var initErr error
	once.Do(func() {
		db, initErr = sql.Open("sqlite3", cfg.Path)
		if initErr != nil {
			return
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		initErr = runMigrations(db)
	})
	return initErr
}

func GetDB() *sql.DB {
	return db
}

func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

type Migration struct {
	Version string
	SQL     string
}

var migrations = []Migration{
	{
		Version: "001_print_jobs",
		SQL: `
			CREATE TABLE IF NOT EXISTS print_jobs (
				id              TEXT PRIMARY KEY,
				document_name   TEXT NOT NULL,
				source_path     TEXT NOT NULL DEFAULT '',
				total_pages     INTEGER NOT NULL,
				pages_to_print  TEXT NOT NULL DEFAULT 'all',
				color_mode      TEXT NOT NULL,
				unit_price      INTEGER NOT NULL DEFAULT 0,
				total_price     INTEGER NOT NULL DEFAULT 0,
				inserted_amount INTEGER NOT NULL DEFAULT 0,
				state           TEXT NOT NULL DEFAULT 'awaiting_payment',
				failure_reason  TEXT NOT NULL DEFAULT '',
				created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_print_jobs_state      ON print_jobs(state);
			CREATE INDEX IF NOT EXISTS idx_print_jobs_created_at ON print_jobs(created_at);
		`,
	},
	{
		Version: "002_price_tables",
		SQL: `
			CREATE TABLE IF NOT EXISTS price_tables (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				black_rate     INTEGER NOT NULL,
				color_rate     INTEGER NOT NULL,
				effective_from DATETIME NOT NULL,
				created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_price_tables_effective ON price_tables(effective_from);
		`,
	},
	{
		Version: "003_paper_stock",
		SQL: `
			CREATE TABLE IF NOT EXISTS paper_stock (
				id               INTEGER PRIMARY KEY AUTOINCREMENT,
				remaining_sheets INTEGER NOT NULL CHECK (remaining_sheets >= 0),
				is_refill_event  INTEGER NOT NULL DEFAULT 0,
				recorded_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_paper_stock_recorded ON paper_stock(recorded_at);
		`,
	},
	{
		Version: "004_settings",
		SQL: `
			CREATE TABLE IF NOT EXISTS settings (
				key        TEXT PRIMARY KEY,
				value      TEXT NOT NULL,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
}

func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	pending := make([]Migration, len(migrations))
	copy(pending, migrations)
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Version < pending[j].Version
	})

	for _, m := range pending {
		if applied[m.Version] {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
		}
	}

	return nil
}
