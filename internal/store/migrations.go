package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const migrationTable = "schema_migrations"

// applyMigrations executes each embedded *.sql file at most once, in name
// order, recording it in schema_migrations inside the same transaction.
func applyMigrations(db *sql.DB, migrationFS fs.FS, logger *zap.Logger) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	applied := 0
	for _, file := range files {
		done, err := isApplied(db, file)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if done {
			continue
		}
		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		up := extractUpMigration(string(content))
		if strings.TrimSpace(up) == "" {
			continue
		}

		tx, err := db.BeginTx(context.Background(), nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(up); err != nil && !isAlreadyExistsError(err) {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
			file, time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
		applied++
		logger.Debug("migration applied", zap.String("file", file))
	}

	logger.Debug("schema migrations complete", zap.Int("applied", applied), zap.Int("known", len(files)))
	return nil
}

// extractUpMigration returns the SQL between "-- +migrate Up" and
// "-- +migrate Down", or the whole file when unmarked.
func extractUpMigration(content string) string {
	const upMarker, downMarker = "-- +migrate Up", "-- +migrate Down"
	upIdx := strings.Index(content, upMarker)
	if upIdx == -1 {
		return content
	}
	body := content[upIdx+len(upMarker):]
	if downIdx := strings.Index(body, downMarker); downIdx != -1 {
		return body[:downIdx]
	}
	return body
}

func isAlreadyExistsError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column name")
}

func isApplied(db *sql.DB, name string) (bool, error) {
	var found int
	err := db.QueryRow(`SELECT 1 FROM `+migrationTable+` WHERE name = ?`, name).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AppliedMigrations lists applied migration files in order.
func (s *Store) AppliedMigrations(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT name FROM `+migrationTable+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			dfltValue  any
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &primaryKey); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// indexExists checks sqlite_master for a named index.
func indexExists(db *sql.DB, index string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, index).Scan(&count)
	return count > 0, err
}

// requiredColumns are the users columns every reader and writer relies on.
var requiredColumns = []string{"id", "name", "state", "options", "github_username", "created_at", "updated_at"}

// CheckSchema verifies the users table and its owner index are in place.
func (s *Store) CheckSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.handle()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, column := range requiredColumns {
		ok, err := columnExists(db, "users", column)
		if err != nil {
			return fmt.Errorf("store: inspect users.%s: %w", column, err)
		}
		if !ok {
			return fmt.Errorf("store: users.%s is missing", column)
		}
	}
	ok, err := indexExists(db, "idx_users_github_username")
	if err != nil {
		return fmt.Errorf("store: inspect owner index: %w", err)
	}
	if !ok {
		return fmt.Errorf("store: owner index is missing")
	}
	return nil
}
