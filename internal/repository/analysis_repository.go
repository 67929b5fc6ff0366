package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"crop-monitor-service/internal/apperr"
	"crop-monitor-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type AnalysisRepository struct {
	db *sqlx.DB
}

func NewAnalysisRepository(db *sqlx.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create inserts an analysis result. ext may be the db itself (the
// standalone image-only path) or an open ingestion transaction.
func (r *AnalysisRepository) Create(ctx context.Context, ext sqlx.ExtContext, result *models.AnalysisResult) error {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	if result.AnalyzedAt.IsZero() {
		result.AnalyzedAt = time.Now()
	}

	query := `
		INSERT INTO analysis_results (
			id, drone_image_id, sensor_reading_id, model_type,
			prediction, confidence, probabilities, analyzed_at
		) VALUES (
			:id, :drone_image_id, :sensor_reading_id, :model_type,
			:prediction, :confidence, :probabilities, :analyzed_at
		)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, result); err != nil {
		return fmt.Errorf("%w: insert analysis result: %v", apperr.ErrStorage, err)
	}
	return nil
}

// FindByImageAndModel returns the stored result for an (image, model)
// pair, or nil when the image has not been classified by that model.
// This is what makes re-requests of the image-only path idempotent.
func (r *AnalysisRepository) FindByImageAndModel(ctx context.Context, imageID uuid.UUID, modelType models.ModelType) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	err := r.db.GetContext(ctx, &result, `
		SELECT * FROM analysis_results
		WHERE drone_image_id = $1 AND model_type = $2
		ORDER BY analyzed_at
		LIMIT 1`, imageID, modelType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: find analysis: %v", apperr.ErrStorage, err)
	}
	return &result, nil
}

// ListByModel returns results of one model type, newest first.
func (r *AnalysisRepository) ListByModel(ctx context.Context, modelType models.ModelType, limit int) ([]models.AnalysisResult, error) {
	var results []models.AnalysisResult
	err := r.db.SelectContext(ctx, &results, `
		SELECT * FROM analysis_results
		WHERE model_type = $1
		ORDER BY analyzed_at DESC
		LIMIT $2`, modelType, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list analyses: %v", apperr.ErrStorage, err)
	}
	return results, nil
}

// latestRow carries an analysis joined with its image's object name.
type latestRow struct {
	models.AnalysisResult
	ObjectName string `db:"object_name"`
}

// LatestFusedForSensor returns the newest multimodal result for a zone
// together with the image object it was computed from, or nils when the
// zone has never been analyzed.
func (r *AnalysisRepository) LatestFusedForSensor(ctx context.Context, sensorID uuid.UUID) (*models.AnalysisResult, string, error) {
	var row latestRow
	err := r.db.GetContext(ctx, &row, `
		SELECT ar.*, di.object_name
		FROM analysis_results ar
		JOIN drone_images di ON di.id = ar.drone_image_id
		WHERE di.sensor_id = $1 AND ar.model_type = $2
		ORDER BY ar.analyzed_at DESC
		LIMIT 1`, sensorID, models.ModelMultimodal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("%w: latest analysis: %v", apperr.ErrStorage, err)
	}
	return &row.AnalysisResult, row.ObjectName, nil
}
