package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/complaint-priority/internal/domain"
)

const (
	// DefaultListLimit is used when ListRecent gets a non-positive limit.
	DefaultListLimit = 50
	// MaxListLimit caps ListRecent.
	MaxListLimit = 500
)

// PredictionRepository persists predictions to ml_predictions_log.
type PredictionRepository struct {
	db *sqlx.DB
}

// NewPredictionRepository creates a new prediction repository.
func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Create inserts rec and fills in its ID and CreatedAt.
func (r *PredictionRepository) Create(ctx context.Context, rec *domain.PredictionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO ml_predictions_log (
			complaint_id, complaint_text, predicted_priority, confidence_score,
			model_version, request_id, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := r.db.QueryRowContext(ctx, query,
		rec.ComplaintID,
		rec.ComplaintText,
		rec.PredictedPriority,
		rec.ConfidenceScore,
		rec.ModelVersion,
		rec.RequestID,
		rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to create prediction record: %w", err)
	}
	return nil
}

// ListRecent returns up to limit records, newest first.
func (r *PredictionRepository) ListRecent(ctx context.Context, limit int) ([]domain.PredictionRecord, error) {
	limit = ClampLimit(limit)

	query := r.db.Rebind(`
		SELECT id, complaint_id, complaint_text, predicted_priority, confidence_score,
		       model_version, request_id, created_at
		FROM ml_predictions_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`)

	records := make([]domain.PredictionRecord, 0, limit)
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return records, nil
}

// CountByPriority returns how many predictions were made for each priority.
func (r *PredictionRepository) CountByPriority(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Priority string `db:"predicted_priority"`
		Count    int    `db:"count"`
	}
	query := `
		SELECT predicted_priority, COUNT(*) AS count
		FROM ml_predictions_log
		GROUP BY predicted_priority
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count predictions: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Priority] = row.Count
	}
	return counts, nil
}

// Ping checks the connection.
func (r *PredictionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ClampLimit applies the default and maximum page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
