package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"registry/internal/types"
)

// =============================================================================
// USER RECORDS
// =============================================================================

const recordColumns = `id, name, state, options, github_username, created_at, updated_at`

// timeLayout is what we write; readTimeLayouts also cover CURRENT_TIMESTAMP
// defaults and the driver's RFC 3339 rendering of parsed DATETIME values.
const timeLayout = "2006-01-02 15:04:05.000000000"

var readTimeLayouts = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// Create inserts a new record owned by owner and returns it with its
// assigned id. created_at and updated_at are equal.
func (s *Store) Create(ctx context.Context, name, state, options, owner string) (types.StoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.handle()
	if err != nil {
		return types.StoredRecord{}, err
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return types.StoredRecord{}, fmt.Errorf("store: owner is required")
	}

	now := s.now().UTC()
	stamp := formatTime(now)
	res, err := db.ExecContext(ctx,
		`INSERT INTO users (name, state, options, github_username, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		name, state, nullableOptions(options), owner, stamp, stamp,
	)
	if err != nil {
		s.logger.Error("create record failed", zap.String("owner", owner), zap.Error(err))
		return types.StoredRecord{}, fmt.Errorf("store: create record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.StoredRecord{}, fmt.Errorf("store: read inserted id: %w", err)
	}

	s.logger.Info("record created", zap.Int64("id", id), zap.String("owner", owner))
	return types.StoredRecord{
		ID:        id,
		Name:      name,
		State:     state,
		Options:   nullableOptions(options),
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update overwrites name, state and options of record id when owner created
// it. The lookup, the ownership check and the write share one immediate
// transaction; on ErrRecordNotFound or ErrUnauthorized nothing is written.
func (s *Store) Update(ctx context.Context, id int64, name, state, options, owner string) (types.StoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.handle()
	if err != nil {
		return types.StoredRecord{}, err
	}
	owner = strings.TrimSpace(owner)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return types.StoredRecord{}, fmt.Errorf("store: begin update: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var existingOwner string
	err = tx.QueryRowContext(ctx, `SELECT github_username FROM users WHERE id = ?`, id).Scan(&existingOwner)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("update of missing record", zap.Int64("id", id), zap.String("owner", owner))
		return types.StoredRecord{}, fmt.Errorf("%w: id %d", ErrRecordNotFound, id)
	}
	if err != nil {
		return types.StoredRecord{}, fmt.Errorf("store: load record %d: %w", id, err)
	}
	if existingOwner != owner {
		s.logger.Warn("unauthorized update rejected",
			zap.Int64("id", id), zap.String("owner", owner), zap.String("record_owner", existingOwner))
		return types.StoredRecord{}, fmt.Errorf("%w: record %d belongs to another user", ErrUnauthorized, id)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET name = ?, state = ?, options = ?, updated_at = ?
		 WHERE id = ? AND github_username = ?`,
		name, state, nullableOptions(options), formatTime(s.now().UTC()), id, owner,
	)
	if err != nil {
		return types.StoredRecord{}, fmt.Errorf("store: update record %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return types.StoredRecord{}, fmt.Errorf("store: update record %d: %w", id, err)
	} else if n != 1 {
		return types.StoredRecord{}, fmt.Errorf("%w: record %d changed owner during update", ErrUnauthorized, id)
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return types.StoredRecord{}, fmt.Errorf("store: reload record %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return types.StoredRecord{}, fmt.Errorf("store: commit update %d: %w", id, err)
	}
	committed = true

	s.logger.Info("record updated", zap.Int64("id", id), zap.String("owner", owner))
	return rec, nil
}

// Get returns record id, or ErrRecordNotFound.
func (s *Store) Get(ctx context.Context, id int64) (types.StoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.handle()
	if err != nil {
		return types.StoredRecord{}, err
	}
	rec, err := scanRecord(db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.StoredRecord{}, ErrRecordNotFound
	}
	if err != nil {
		return types.StoredRecord{}, fmt.Errorf("store: get record %d: %w", id, err)
	}
	return rec, nil
}

// LatestByOwner returns the most recently created record of owner, or
// ErrRecordNotFound.
func (s *Store) LatestByOwner(ctx context.Context, owner string) (types.StoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.handle()
	if err != nil {
		return types.StoredRecord{}, err
	}
	rec, err := scanRecord(db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM users WHERE github_username = ? ORDER BY id DESC LIMIT 1`,
		strings.TrimSpace(owner),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return types.StoredRecord{}, ErrRecordNotFound
	}
	if err != nil {
		return types.StoredRecord{}, fmt.Errorf("store: latest record for %s: %w", owner, err)
	}
	return rec, nil
}

// List returns a snapshot of every record, newest first. Ids are assigned in
// creation order, so id order is creation order.
func (s *Store) List(ctx context.Context) ([]types.StoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT `+recordColumns+` FROM users ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list records: %w", err)
	}
	defer rows.Close()

	var out []types.StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list records: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.handle()
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count records: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (types.StoredRecord, error) {
	var (
		rec                  types.StoredRecord
		options              sql.NullString
		createdAt, updatedAt sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Name, &rec.State, &options, &rec.Owner, &createdAt, &updatedAt); err != nil {
		return types.StoredRecord{}, err
	}
	if options.Valid {
		v := options.String
		rec.Options = &v
	}
	var err error
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return types.StoredRecord{}, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return types.StoredRecord{}, err
	}
	return rec, nil
}

// nullableOptions stores blank options as NULL.
func nullableOptions(options string) *string {
	if strings.TrimSpace(options) == "" {
		return nil
	}
	return &options
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v sql.NullString) (time.Time, error) {
	if !v.Valid || v.String == "" {
		return time.Time{}, nil
	}
	for _, layout := range readTimeLayouts {
		if t, err := time.Parse(layout, v.String); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("store: unrecognised timestamp %q", v.String)
}
