// Package db establishes the GORM connection to a workspace's Symbol
// Database and runs migrations, mirroring the teacher's connect/migrate
// split so that the file-based default and a remote libsql/Turso replica
// share one code path.
package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"

	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oxhq/cascade/models"
)

// Connect opens (creating if necessary) the Symbol Database at dsn in WAL
// mode, enables foreign keys, and runs migrations. dsn is either a local
// file path or a libsql/https URL for a remote replica.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	if !isURL(dsn) {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	config := &gorm.Config{}
	if debug {
		config.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		dialector gorm.Dialector
		conn      *sql.DB
	)
	if isURL(dsn) {
		var (
			connector driver.Connector
			err       error
		)
		if token := os.Getenv("CASCADE_LIBSQL_AUTH_TOKEN"); token != "" {
			connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(token))
		} else {
			connector, err = libsql.NewConnector(dsn)
		}
		if err != nil {
			return nil, fmt.Errorf("create libsql connector: %w", err)
		}
		conn = sql.OpenDB(connector)
		dialector = sqlite.New(sqlite.Config{
			DriverName: "libsql",
			Conn:       conn,
			DSN:        dsn,
		})
	} else {
		dialector = sqlite.Open(dsn + "?_journal_mode=WAL&_foreign_keys=on")
	}

	gdb, err := gorm.Open(dialector, config)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("connect: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	sqlDB.Exec("PRAGMA foreign_keys = ON")
	sqlDB.Exec("PRAGMA journal_mode = WAL")

	if err := Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return gdb, nil
}

func isURL(dsn string) bool {
	return len(dsn) > 6 &&
		(len(dsn) > 7 && dsn[:7] == "http://" ||
			len(dsn) > 8 && dsn[:8] == "https://" ||
			dsn[:6] == "libsql")
}

// Migrate runs GORM auto-migration for the five row structs and then the
// raw DDL for the FTS5 virtual table, which GORM cannot express.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&models.Workspace{},
		&models.File{},
		&models.Symbol{},
		&models.Relationship{},
		&models.Identifier{},
	); err != nil {
		return err
	}
	return createFTS(gdb)
}

// createFTS creates the file_content_fts virtual table (spec §6) if it
// does not already exist, and the triggers that keep it synchronized with
// files.content on insert/update/delete.
func createFTS(gdb *gorm.DB) error {
	stmts := []string{
		`CREATE VIRTUAL TABLE IF NOT EXISTS file_content_fts USING fts5(
			path UNINDEXED, content, tokenize='porter unicode61'
		)`,
		`CREATE TRIGGER IF NOT EXISTS files_ai AFTER INSERT ON files BEGIN
			INSERT INTO file_content_fts(rowid, path, content)
			VALUES (new.rowid, new.path, coalesce(new.content, ''));
		END`,
		`CREATE TRIGGER IF NOT EXISTS files_ad AFTER DELETE ON files BEGIN
			DELETE FROM file_content_fts WHERE rowid = old.rowid;
		END`,
		`CREATE TRIGGER IF NOT EXISTS files_au AFTER UPDATE ON files BEGIN
			DELETE FROM file_content_fts WHERE rowid = old.rowid;
			INSERT INTO file_content_fts(rowid, path, content)
			VALUES (new.rowid, new.path, coalesce(new.content, ''));
		END`,
	}
	for _, stmt := range stmts {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("fts setup: %w", err)
		}
	}
	return nil
}
