package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"RegimeShift/internal/domain/models"
	domrepo "RegimeShift/internal/domain/repository"
	pkgch "RegimeShift/pkg/clickhouse"
	applogger "RegimeShift/pkg/logger"
)

const runColumns = "run_id, trigger, engine, state, started_at, completed_at, digest, tau, change_point_date, mu_1, mu_2, sigma_1, sigma_2, error_kind, error_message"

// CHRunStore keeps run history in a ClickHouse MergeTree table.
type CHRunStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHRunStore(ch *pkgch.Client, table string) *CHRunStore {
	return &CHRunStore{ch: ch, db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHRunStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHRunStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            run_id            String,
            trigger           LowCardinality(String),
            engine            LowCardinality(String),
            state             LowCardinality(String),
            started_at        DateTime64(3, 'UTC'),
            completed_at      DateTime64(3, 'UTC'),
            digest            String,
            tau               Int32,
            change_point_date String,
            mu_1              Float64,
            mu_2              Float64,
            sigma_1           Float64,
            sigma_2           Float64,
            error_kind        LowCardinality(String),
            error_message     String
        ) ENGINE = MergeTree
        ORDER BY (started_at, run_id)`, s.table)})
}

func (s *CHRunStore) Save(ctx context.Context, r models.RunRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table, runColumns)
	_, err := s.db.ExecContext(ctx, q,
		r.RunID, r.Trigger, r.Engine, string(r.State),
		r.StartedAt.UTC(), r.CompletedAt.UTC(),
		r.Digest, int32(r.Tau), r.ChangePointDate,
		r.Mu1, r.Mu2, r.Sigma1, r.Sigma2,
		r.ErrorKind, r.ErrorMessage,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse run insert error", applogger.String("table", s.table), applogger.Error(err))
		}
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (s *CHRunStore) Recent(ctx context.Context, limit int) ([]models.RunRecord, error) {
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY started_at DESC LIMIT ?", runColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	out := make([]models.RunRecord, 0, limit)
	for rows.Next() {
		var (
			r     models.RunRecord
			state string
			tau   int32
			start time.Time
			end   time.Time
		)
		if err := rows.Scan(&r.RunID, &r.Trigger, &r.Engine, &state, &start, &end, &r.Digest, &tau,
			&r.ChangePointDate, &r.Mu1, &r.Mu2, &r.Sigma1, &r.Sigma2, &r.ErrorKind, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.State = models.RunState(state)
		r.Tau = int(tau)
		r.StartedAt, r.CompletedAt = start, end
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *CHRunStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHRunStore) Close() error {
	return s.ch.Close()
}

var _ domrepo.RunStore = (*CHRunStore)(nil)
