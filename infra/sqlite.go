package infra

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens the on-device database. One writer handle per process:
// MaxOpenConns(1) keeps every statement on a single connection, and the
// engine serializes writes per row beyond that. The busy timeout covers
// the window where a second handle (e.g. a test harness) holds the file.
func OpenSQLite(cfg *Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_fk=1&_busy_timeout=%d", cfg.DBPath, cfg.BusyTimeoutMS)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}
