package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/forensic-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS score_runs (
	id         TEXT PRIMARY KEY,
	input_file TEXT NOT NULL,
	population INTEGER NOT NULL,
	method     TEXT NOT NULL,
	policy     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_results (
	run_id     TEXT NOT NULL REFERENCES score_runs(id),
	company_id TEXT NOT NULL,
	score      REAL NOT NULL,
	verdict    TEXT NOT NULL,
	detail     TEXT NOT NULL,
	PRIMARY KEY (run_id, company_id)
);

CREATE INDEX IF NOT EXISTS idx_score_runs_method ON score_runs(method);
CREATE INDEX IF NOT EXISTS idx_run_results_run_id ON run_results(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun persists run metadata and all per-company results in one
// transaction. Assigns ID and CreatedAt when unset.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.ScoreRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	policyJSON, err := json.Marshal(run.Policy)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal policy")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO score_runs (id, input_file, population, method, policy, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputFile, run.Population, run.Policy.Method, string(policyJSON), run.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert run")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_results (run_id, company_id, score, verdict, detail) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare result insert")
	}
	defer stmt.Close()

	for _, res := range run.Results {
		detailJSON, err := json.Marshal(res)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal result %s", res.CompanyID)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, res.CompanyID, res.Score, string(res.Verdict), string(detailJSON)); err != nil {
			return eris.Wrapf(err, "sqlite: insert result %s", res.CompanyID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.ScoreRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input_file, population, policy, created_at FROM score_runs WHERE id = ?`,
		runID,
	)

	var run model.ScoreRun
	var policyJSON string
	err := row.Scan(&run.ID, &run.InputFile, &run.Population, &policyJSON, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if err := json.Unmarshal([]byte(policyJSON), &run.Policy); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal policy")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT detail FROM run_results WHERE run_id = ? ORDER BY score DESC, company_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query results")
	}
	defer rows.Close()

	for rows.Next() {
		var detailJSON string
		if err := rows.Scan(&detailJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		var res model.RiskScoreResult
		if err := json.Unmarshal([]byte(detailJSON), &res); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
		run.Results = append(run.Results, res)
	}
	return &run, eris.Wrap(rows.Err(), "sqlite: iterate results")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.ScoreRun, error) {
	query := `SELECT id, input_file, population, policy, created_at FROM score_runs WHERE 1=1`
	var args []any

	if filter.Method != "" {
		query += ` AND method = ?`
		args = append(args, filter.Method)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.ScoreRun
	for rows.Next() {
		var run model.ScoreRun
		var policyJSON string
		if err := rows.Scan(&run.ID, &run.InputFile, &run.Population, &policyJSON, &run.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if err := json.Unmarshal([]byte(policyJSON), &run.Policy); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal policy")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}
