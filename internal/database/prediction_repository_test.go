package database_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/config"
	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/database"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/domain"
)

func newMockRepo(t *testing.T) (*database.PredictionRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return database.NewPredictionRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestPredictionRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := int64(42)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO ml_predictions_log")).
		WithArgs(&id, "server down", "critical", 0.91, "v1.0", "req-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	rec := &domain.PredictionRecord{
		ComplaintID:       &id,
		ComplaintText:     "server down",
		PredictedPriority: "critical",
		ConfidenceScore:   0.91,
		ModelVersion:      "v1.0",
		RequestID:         "req-1",
	}
	require.NoError(t, repo.Create(context.Background(), rec))

	assert.Equal(t, int64(7), rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionRepository_CreateUsesPostgresPlaceholders(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5, $6, $7)")).
		WillReturnError(sql.ErrConnDone)

	err := repo.Create(context.Background(), &domain.PredictionRecord{ComplaintText: "x"})
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionRepository_ListRecent(t *testing.T) {
	testCases := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{name: "default when zero", limit: 0, wantLimit: database.DefaultListLimit},
		{name: "explicit", limit: 10, wantLimit: 10},
		{name: "capped", limit: 10_000, wantLimit: database.MaxListLimit},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

			rows := sqlmock.NewRows([]string{
				"id", "complaint_id", "complaint_text", "predicted_priority",
				"confidence_score", "model_version", "request_id", "created_at",
			}).
				AddRow(2, nil, "app is slow", "medium", 0.7, "v1.0", "", created).
				AddRow(1, 5, "server down", "critical", 0.9, "v1.0", "req", created)

			mock.ExpectQuery(regexp.QuoteMeta("FROM ml_predictions_log")).
				WithArgs(tc.wantLimit).
				WillReturnRows(rows)

			records, err := repo.ListRecent(context.Background(), tc.limit)
			require.NoError(t, err)
			require.Len(t, records, 2)

			assert.Nil(t, records[0].ComplaintID)
			require.NotNil(t, records[1].ComplaintID)
			assert.Equal(t, int64(5), *records[1].ComplaintID)
			assert.Equal(t, "critical", records[1].PredictedPriority)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPredictionRepository_CountByPriority(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY predicted_priority")).
		WillReturnRows(sqlmock.NewRows([]string{"predicted_priority", "count"}).
			AddRow("high", 3).
			AddRow("low", 1))

	counts, err := repo.CountByPriority(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"high": 3, "low": 1}, counts)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, database.DefaultListLimit, database.ClampLimit(-1))
	assert.Equal(t, 1, database.ClampLimit(1))
	assert.Equal(t, database.MaxListLimit, database.ClampLimit(database.MaxListLimit+1))
}

func TestSQLite_RoundTrip(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "predictions.db"),
	}
	cfg.SetDefaults()

	db, err := database.Open(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, database.RunMigrations(cfg, logger.NewNop()))
	require.NoError(t, database.RunMigrations(cfg, logger.NewNop()), "migrations must be idempotent")

	repo := database.NewPredictionRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, p := range []string{"high", "low", "high"} {
		rec := &domain.PredictionRecord{
			ComplaintText:     "complaint " + p,
			PredictedPriority: p,
			ConfidenceScore:   0.5,
			ModelVersion:      "v1.0",
			CreatedAt:         base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Create(ctx, rec))
		assert.Equal(t, int64(i+1), rec.ID)
	}

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(3), recent[0].ID)
	assert.Equal(t, int64(2), recent[1].ID)

	counts, err := repo.CountByPriority(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"high": 2, "low": 1}, counts)
	require.NoError(t, repo.Ping(ctx))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open(context.Background(), config.DatabaseConfig{Driver: "mysql", DSN: "x"}, logger.NewNop())
	require.ErrorIs(t, err, database.ErrUnsupportedDriver)
}

func TestRunMigrations_UnsupportedDriver(t *testing.T) {
	err := database.RunMigrations(config.DatabaseConfig{Driver: "mysql", DSN: "x"}, logger.NewNop())
	require.ErrorIs(t, err, database.ErrUnsupportedDriver)
}
