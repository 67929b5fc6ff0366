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

type FarmConfigRepository struct {
	db *sqlx.DB
}

func NewFarmConfigRepository(db *sqlx.DB) *FarmConfigRepository {
	return &FarmConfigRepository{db: db}
}

// ActivateWithZones switches the active configuration in one
// transaction: deactivate whatever is active, insert the new config,
// insert all of its zones. A failure at any point rolls the whole
// switch back.
func (r *FarmConfigRepository) ActivateWithZones(ctx context.Context, cfg *models.FarmConfig, sensors []models.Sensor) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	cfg.IsActive = true
	cfg.CreatedAt = time.Now()
	for i := range sensors {
		if sensors[i].ID == uuid.Nil {
			sensors[i].ID = uuid.New()
		}
		sensors[i].FarmConfigID = cfg.ID
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin activation: %v", apperr.ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE farm_config SET is_active = FALSE WHERE is_active = TRUE`); err != nil {
		return fmt.Errorf("%w: deactivate previous config: %v", apperr.ErrStorage, err)
	}

	insertCfg := `
		INSERT INTO farm_config (
			id, field_width, field_height, sensor_spacing,
			grid_rows, grid_cols, crop_type, region,
			latitude, longitude, is_active, created_at
		) VALUES (
			:id, :field_width, :field_height, :sensor_spacing,
			:grid_rows, :grid_cols, :crop_type, :region,
			:latitude, :longitude, :is_active, :created_at
		)`
	if _, err := sqlx.NamedExecContext(ctx, tx, insertCfg, cfg); err != nil {
		return fmt.Errorf("%w: insert config: %v", apperr.ErrStorage, err)
	}

	insertSensor := `
		INSERT INTO sensors (id, farm_config_id, zone_index, zone_row, zone_col, status)
		VALUES (:id, :farm_config_id, :zone_index, :zone_row, :zone_col, :status)`
	if _, err := sqlx.NamedExecContext(ctx, tx, insertSensor, sensors); err != nil {
		return fmt.Errorf("%w: insert zones: %v", apperr.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit activation: %v", apperr.ErrStorage, err)
	}
	return nil
}

// GetActive returns the single active configuration.
func (r *FarmConfigRepository) GetActive(ctx context.Context) (*models.FarmConfig, error) {
	var cfg models.FarmConfig
	err := r.db.GetContext(ctx, &cfg,
		`SELECT * FROM farm_config WHERE is_active = TRUE LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no active farm config", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: get active config: %v", apperr.ErrStorage, err)
	}
	return &cfg, nil
}

// GetByID returns a configuration by primary key.
func (r *FarmConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FarmConfig, error) {
	var cfg models.FarmConfig
	err := r.db.GetContext(ctx, &cfg, `SELECT * FROM farm_config WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: farm config %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get config: %v", apperr.ErrStorage, err)
	}
	return &cfg, nil
}
