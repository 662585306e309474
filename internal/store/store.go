// Package store persists scoring runs. Two backends: SQLite for the
// single-analyst CLI default, Postgres for shared deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/forensic-cli/internal/config"
	"github.com/sells-group/forensic-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Method string `json:"method,omitempty"` // grouping method
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for scoring runs. ListRuns
// returns run metadata only; GetRun loads the per-company results.
type Store interface {
	SaveRun(ctx context.Context, run *model.ScoreRun) error
	GetRun(ctx context.Context, runID string) (*model.ScoreRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.ScoreRun, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open builds the store named by config and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		s, err = NewSQLite(cfg.SQLitePath)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
