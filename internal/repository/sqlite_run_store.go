package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"RegimeShift/internal/domain/models"
	domrepo "RegimeShift/internal/domain/repository"

	_ "modernc.org/sqlite"
)

// SQLiteRunStore keeps run history in a local SQLite file.
type SQLiteRunStore struct {
	db    *sql.DB
	table string
	mu    sync.Mutex
}

// NewSQLiteRunStore opens (or creates) the database file.
func NewSQLiteRunStore(path, table string) (*SQLiteRunStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read history while a run is being recorded.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return &SQLiteRunStore{db: db, table: table}, nil
}

func (s *SQLiteRunStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL UNIQUE,
			trigger           TEXT,
			engine            TEXT,
			state             TEXT NOT NULL,
			started_at        INTEGER NOT NULL,
			completed_at      INTEGER NOT NULL,
			digest            TEXT,
			tau               INTEGER,
			change_point_date TEXT,
			mu_1              REAL,
			mu_2              REAL,
			sigma_1           REAL,
			sigma_2           REAL,
			error_kind        TEXT,
			error_message     TEXT
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_started ON %s(started_at)`, s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *SQLiteRunStore) Save(ctx context.Context, r models.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table, runColumns)
	_, err := s.db.ExecContext(ctx, q,
		r.RunID, r.Trigger, r.Engine, string(r.State),
		r.StartedAt.UnixMilli(), r.CompletedAt.UnixMilli(),
		r.Digest, r.Tau, r.ChangePointDate,
		r.Mu1, r.Mu2, r.Sigma1, r.Sigma2,
		r.ErrorKind, r.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (s *SQLiteRunStore) Recent(ctx context.Context, limit int) ([]models.RunRecord, error) {
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY started_at DESC, id DESC LIMIT ?", runColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	out := make([]models.RunRecord, 0, limit)
	for rows.Next() {
		var (
			r          models.RunRecord
			state      string
			start, end int64
		)
		if err := rows.Scan(&r.RunID, &r.Trigger, &r.Engine, &state, &start, &end, &r.Digest, &r.Tau,
			&r.ChangePointDate, &r.Mu1, &r.Mu2, &r.Sigma1, &r.Sigma2, &r.ErrorKind, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.State = models.RunState(state)
		r.StartedAt = time.UnixMilli(start).UTC()
		r.CompletedAt = time.UnixMilli(end).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteRunStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

var _ domrepo.RunStore = (*SQLiteRunStore)(nil)
