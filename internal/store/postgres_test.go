package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forensic-cli/internal/config"
	"github.com/sells-group/forensic-cli/internal/model"
)

func testStoreConfig(t *testing.T) config.StoreConfig {
	t.Helper()
	return config.StoreConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "open.db"),
	}
}

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return newPostgresWithPool(mock), mock
}

func TestPostgresSaveRun(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`INSERT INTO score_runs`).
		WithArgs(pgxmock.AnyArg(), "disclosures.xlsx", 2, "binary (small sample protocol)", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"run_results"},
		[]string{"run_id", "company_id", "score", "verdict", "detail"}).
		WillReturnResult(2)

	run := testRun()
	require.NoError(t, s.SaveRun(context.Background(), run))
	assert.NotEmpty(t, run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRun(t *testing.T) {
	s, mock := newMockPostgres(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, input_file, population, policy, created_at FROM score_runs`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "input_file", "population", "policy", "created_at"}).
			AddRow("run-1", "in.csv", 2, []byte(`{"bucket_count":2,"high_risk_threshold":50,"method":"binary (small sample protocol)"}`), now))
	mock.ExpectQuery(`SELECT detail FROM run_results`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"detail"}).
			AddRow([]byte(`{"company_id":"acme","score":70,"verdict":"high_risk"}`)).
			AddRow([]byte(`{"company_id":"beta","score":0,"verdict":"low_risk"}`)))

	got, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)

	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, 2, got.Policy.BucketCount)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "acme", got.Results[0].CompanyID)
	assert.Equal(t, model.BucketHighRisk, got.Results[0].Verdict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRunNotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT id, input_file, population, policy, created_at FROM score_runs`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListRuns(t *testing.T) {
	s, mock := newMockPostgres(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, input_file, population, policy, created_at FROM score_runs`).
		WithArgs("binary (small sample protocol)", 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "input_file", "population", "policy", "created_at"}).
			AddRow("run-1", "in.csv", 12, []byte(`{"bucket_count":2,"method":"binary (small sample protocol)"}`), now))

	runs, err := s.ListRuns(context.Background(), RunFilter{Method: "binary (small sample protocol)"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 12, runs[0].Population)
	assert.NoError(t, mock.ExpectationsWereMet())
}
