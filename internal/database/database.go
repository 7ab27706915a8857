package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// localParams are applied to every pooled connection. _txlock=immediate makes
// BEGIN take the write lock, so concurrent writers queue instead of
// interleaving their reads and writes.
const localParams = "_txlock=immediate&_foreign_keys=on&_busy_timeout=5000"

// InitDB opens the database and migrates it to the latest schema.
// A blank primaryUrl opens a local SQLite file (or ":memory:"); otherwise the
// remote libSQL database at primaryUrl is used.
func InitDB(dbPath string, primaryUrl string, authToken string) (*sql.DB, error) {
	if primaryUrl == "" {
		log.Info("Initializing local-only SQLite database", "path", dbPath)
		db, err := openLocal(dbPath)
		if err != nil {
			return nil, err
		}
		if err = migrate(db, "sqlite3"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate local db: %w", err)
		}
		return db, nil
	}

	log.Info("Initializing Turso database", "url", primaryUrl)
	db, err := sql.Open("libsql", primaryUrl+"?authToken="+authToken)
	if err != nil {
		return nil, fmt.Errorf("failed to open db %s: %w", primaryUrl, err)
	}
	if err = migrate(db, "turso"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate remote db: %w", err)
	}
	return db, nil
}

func openLocal(dbPath string) (*sql.DB, error) {
	dsn := "file:" + dbPath + "?" + localParams
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		dsn = "file::memory:?" + localParams
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
		return db, nil
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB, dialect string) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	log.Info("Database initialized successfully")
	return nil
}
