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

type ImageRepository struct {
	db *sqlx.DB
}

func NewImageRepository(db *sqlx.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create inserts an image record inside the caller's transaction.
func (r *ImageRepository) Create(ctx context.Context, ext sqlx.ExtContext, img *models.DroneImage) error {
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	if img.CapturedAt.IsZero() {
		img.CapturedAt = time.Now()
	}

	query := `
		INSERT INTO drone_images (id, sensor_id, object_name, captured_at)
		VALUES (:id, :sensor_id, :object_name, :captured_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, img); err != nil {
		return fmt.Errorf("%w: insert image record: %v", apperr.ErrStorage, err)
	}
	return nil
}

func (r *ImageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DroneImage, error) {
	var img models.DroneImage
	err := r.db.GetContext(ctx, &img, `SELECT * FROM drone_images WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: drone image %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get image: %v", apperr.ErrStorage, err)
	}
	return &img, nil
}

// ListRecent returns images newest first, optionally limited to one
// zone and to captures after the given cutoff.
func (r *ImageRepository) ListRecent(ctx context.Context, sensorID *uuid.UUID, since *time.Time, limit, offset int) ([]models.DroneImage, error) {
	query := `SELECT * FROM drone_images WHERE 1=1`
	args := []any{}
	if sensorID != nil {
		args = append(args, *sensorID)
		query += fmt.Sprintf(" AND sensor_id = $%d", len(args))
	}
	if since != nil {
		args = append(args, *since)
		query += fmt.Sprintf(" AND captured_at >= $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY captured_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	var images []models.DroneImage
	if err := r.db.SelectContext(ctx, &images, query, args...); err != nil {
		return nil, fmt.Errorf("%w: list images: %v", apperr.ErrStorage, err)
	}
	return images, nil
}
