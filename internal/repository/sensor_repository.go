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

type SensorRepository struct {
	db *sqlx.DB
}

func NewSensorRepository(db *sqlx.DB) *SensorRepository {
	return &SensorRepository{db: db}
}

func (r *SensorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Sensor, error) {
	var sensor models.Sensor
	err := r.db.GetContext(ctx, &sensor, `SELECT * FROM sensors WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: sensor %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get sensor: %v", apperr.ErrStorage, err)
	}
	return &sensor, nil
}

// ListByConfig returns a configuration's zones in zone_index order.
func (r *SensorRepository) ListByConfig(ctx context.Context, configID uuid.UUID) ([]models.Sensor, error) {
	var sensors []models.Sensor
	err := r.db.SelectContext(ctx, &sensors,
		`SELECT * FROM sensors WHERE farm_config_id = $1 ORDER BY zone_index`, configID)
	if err != nil {
		return nil, fmt.Errorf("%w: list sensors: %v", apperr.ErrStorage, err)
	}
	return sensors, nil
}

// CountByConfig returns the number of zones in a configuration.
func (r *SensorRepository) CountByConfig(ctx context.Context, configID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM sensors WHERE farm_config_id = $1`, configID)
	if err != nil {
		return 0, fmt.Errorf("%w: count sensors: %v", apperr.ErrStorage, err)
	}
	return count, nil
}

// UpdateStatus is the explicit operator status override. It is the only
// path that brings a zone back out of offline.
func (r *SensorRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SensorStatus) (*models.Sensor, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sensors SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return nil, fmt.Errorf("%w: update sensor status: %v", apperr.ErrStorage, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: sensor %s", apperr.ErrNotFound, id)
	}
	return r.GetByID(ctx, id)
}

// TouchLastReading stamps last_reading_at inside the caller's
// transaction. Status is intentionally untouched: liveness demotion
// belongs to the heartbeat, promotion to the operator.
func (r *SensorRepository) TouchLastReading(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID, at time.Time) error {
	if _, err := ext.ExecContext(ctx,
		`UPDATE sensors SET last_reading_at = $1 WHERE id = $2`, at, id); err != nil {
		return fmt.Errorf("%w: touch last_reading_at: %v", apperr.ErrStorage, err)
	}
	return nil
}

// MarkStaleOffline transitions every active/error zone whose
// last_reading_at is set and older than the cutoff to offline, as one
// batch. Zones that never reported are left alone.
func (r *SensorRepository) MarkStaleOffline(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		UPDATE sensors
		SET status = $1
		WHERE status IN ($2, $3)
		  AND last_reading_at IS NOT NULL
		  AND last_reading_at < $4
		RETURNING id`,
		models.SensorOffline, models.SensorActive, models.SensorError, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: mark stale offline: %v", apperr.ErrStorage, err)
	}
	return ids, nil
}
