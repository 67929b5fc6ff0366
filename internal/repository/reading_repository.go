package repository

import (
	"context"
	"fmt"
	"time"

	"crop-monitor-service/internal/apperr"
	"crop-monitor-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ReadingRepository struct {
	db *sqlx.DB
}

func NewReadingRepository(db *sqlx.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// Create inserts a reading inside the caller's transaction. Readings are
// append-only; there is no update path.
func (r *ReadingRepository) Create(ctx context.Context, ext sqlx.ExtContext, reading *models.SensorReading) error {
	if reading.ID == uuid.Nil {
		reading.ID = uuid.New()
	}
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = time.Now()
	}

	query := `
		INSERT INTO sensor_readings (
			id, sensor_id, n, p, k, soil_moisture,
			air_temperature, humidity, recorded_at
		) VALUES (
			:id, :sensor_id, :n, :p, :k, :soil_moisture,
			:air_temperature, :humidity, :recorded_at
		)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, reading); err != nil {
		return fmt.Errorf("%w: insert reading: %v", apperr.ErrStorage, err)
	}
	return nil
}

// ListBySensor returns a zone's readings, newest first.
func (r *ReadingRepository) ListBySensor(ctx context.Context, sensorID uuid.UUID, limit int) ([]models.SensorReading, error) {
	var readings []models.SensorReading
	err := r.db.SelectContext(ctx, &readings,
		`SELECT * FROM sensor_readings WHERE sensor_id = $1 ORDER BY recorded_at DESC LIMIT $2`,
		sensorID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list readings: %v", apperr.ErrStorage, err)
	}
	return readings, nil
}
