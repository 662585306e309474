package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/forensic-cli/internal/db"
	"github.com/sells-group/forensic-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// newPostgresWithPool wires an existing pool; tests inject pgxmock here.
func newPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS score_runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	input_file TEXT NOT NULL,
	population INTEGER NOT NULL,
	method     TEXT NOT NULL,
	policy     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_results (
	run_id     TEXT NOT NULL REFERENCES score_runs(id),
	company_id TEXT NOT NULL,
	score      DOUBLE PRECISION NOT NULL,
	verdict    TEXT NOT NULL,
	detail     JSONB NOT NULL,
	PRIMARY KEY (run_id, company_id)
);

CREATE INDEX IF NOT EXISTS idx_score_runs_method ON score_runs(method);
CREATE INDEX IF NOT EXISTS idx_run_results_run_id ON run_results(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveRun inserts the run row, then bulk-copies the per-company results.
func (s *PostgresStore) SaveRun(ctx context.Context, run *model.ScoreRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	policyJSON, err := json.Marshal(run.Policy)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal policy")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO score_runs (id, input_file, population, method, policy, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.InputFile, run.Population, run.Policy.Method, policyJSON, run.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert run")
	}

	rows := make([][]any, 0, len(run.Results))
	for _, res := range run.Results {
		detailJSON, err := json.Marshal(res)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal result %s", res.CompanyID)
		}
		rows = append(rows, []any{run.ID, res.CompanyID, res.Score, string(res.Verdict), detailJSON})
	}

	_, err = db.CopyFrom(ctx, s.pool, "run_results",
		[]string{"run_id", "company_id", "score", "verdict", "detail"}, rows)
	return err
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.ScoreRun, error) {
	var run model.ScoreRun
	var policyJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, input_file, population, policy, created_at FROM score_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.InputFile, &run.Population, &policyJSON, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("run not found: %s", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	if err := json.Unmarshal(policyJSON, &run.Policy); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal policy")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT detail FROM run_results WHERE run_id = $1 ORDER BY score DESC, company_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query results")
	}
	defer rows.Close()

	for rows.Next() {
		var detailJSON []byte
		if err := rows.Scan(&detailJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		var res model.RiskScoreResult
		if err := json.Unmarshal(detailJSON, &res); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		run.Results = append(run.Results, res)
	}
	return &run, eris.Wrap(rows.Err(), "postgres: iterate results")
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.ScoreRun, error) {
	query := `SELECT id, input_file, population, policy, created_at FROM score_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Method != "" {
		query += fmt.Sprintf(` AND method = $%d`, argIdx)
		args = append(args, filter.Method)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.ScoreRun
	for rows.Next() {
		var run model.ScoreRun
		var policyJSON []byte
		if err := rows.Scan(&run.ID, &run.InputFile, &run.Population, &policyJSON, &run.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(policyJSON, &run.Policy); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal policy")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
