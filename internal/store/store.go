// Package store persists user records in a single SQLite table.
//
// A Store is opened once per invocation and closed on every exit path. Writes
// run in immediate transactions, so the ownership check and the write of an
// update hold the database write lock together even when other processes
// share the file.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"registry/internal/logging"
	"registry/internal/store/migrations"
)

var (
	// ErrRecordNotFound indicates no record has the requested id or owner.
	ErrRecordNotFound = errors.New("store: record not found")
	// ErrUnauthorized indicates the caller does not own the record.
	ErrUnauthorized = errors.New("store: not authorized to modify record")
)

// MemoryPath opens a private in-memory database. Useful for tests and dry runs.
const MemoryPath = ":memory:"

const defaultBusyTimeout = 5 * time.Second

// Store is the SQLite-backed record table.
type Store struct {
	db          *sql.DB
	mu          sync.Mutex
	path        string
	now         func() time.Time
	logger      *zap.Logger
	busyTimeout time.Duration
}

// Option customizes a Store during Open.
type Option func(*Store)

// WithClock overrides the clock used for created_at / updated_at.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.now = clock
	}
}

// WithLogger routes store logs to l.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logging.For(l, logging.CategoryStore)
	}
}

// WithBusyTimeout sets how long a writer waits for another writer's lock.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// Open opens (creating if needed) the database at path and applies the
// embedded migrations.
func Open(path string, opts ...Option) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store: database path is required")
	}

	s := &Store{
		path:        path,
		now:         time.Now,
		logger:      zap.NewNop(),
		busyTimeout: defaultBusyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	timer := logging.StartTimer(s.logger, "open")
	defer timer.Stop()

	if path != MemoryPath {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// One connection per process; cross-process writers are serialized by
	// SQLite's file lock and the busy timeout.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}
	s.db = db

	if err := applyMigrations(db, migrations.FS, s.logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: run migrations: %w", err)
	}

	s.logger.Debug("record store ready", zap.String("path", path))
	return s, nil
}

// dsn builds the modernc connection string. _txlock=immediate makes every
// BeginTx take the write lock up front.
func (s *Store) dsn() string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", s.busyTimeout.Milliseconds()))
	q.Add("_txlock", "immediate")
	if s.path != MemoryPath {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
	}
	return s.path + "?" + q.Encode()
}

// Close releases the database handle. Safe on a nil or closed store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.logger.Debug("record store closed", zap.String("path", s.path))
	return err
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) handle() (*sql.DB, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store: not open")
	}
	return s.db, nil
}
