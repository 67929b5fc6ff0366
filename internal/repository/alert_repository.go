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

type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// CreateBatch inserts the alerts queued by one threshold evaluation
// inside the caller's transaction. A nil/empty batch is a no-op.
func (r *AlertRepository) CreateBatch(ctx context.Context, ext sqlx.ExtContext, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	for i := range alerts {
		if alerts[i].ID == uuid.Nil {
			alerts[i].ID = uuid.New()
		}
		if alerts[i].CreatedAt.IsZero() {
			alerts[i].CreatedAt = time.Now()
		}
	}

	query := `
		INSERT INTO alerts (id, sensor_id, alert_type, message, severity, acknowledged, created_at)
		VALUES (:id, :sensor_id, :alert_type, :message, :severity, :acknowledged, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, alerts); err != nil {
		return fmt.Errorf("%w: insert alerts: %v", apperr.ErrStorage, err)
	}
	return nil
}

// AlertFilter narrows List. Nil fields are ignored.
type AlertFilter struct {
	Acknowledged *bool
	Severity     *models.AlertSeverity
	SensorID     *uuid.UUID
	Limit        int
}

// List returns alerts newest first, filtered.
func (r *AlertRepository) List(ctx context.Context, filter AlertFilter) ([]models.Alert, error) {
	query := `SELECT * FROM alerts WHERE 1=1`
	args := []any{}
	if filter.Acknowledged != nil {
		args = append(args, *filter.Acknowledged)
		query += fmt.Sprintf(" AND acknowledged = $%d", len(args))
	}
	if filter.Severity != nil {
		args = append(args, *filter.Severity)
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	if filter.SensorID != nil {
		args = append(args, *filter.SensorID)
		query += fmt.Sprintf(" AND sensor_id = $%d", len(args))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	var alerts []models.Alert
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, fmt.Errorf("%w: list alerts: %v", apperr.ErrStorage, err)
	}
	return alerts, nil
}

// Acknowledge flips the acknowledged flag; the only mutation an alert
// supports.
func (r *AlertRepository) Acknowledge(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.GetContext(ctx, &alert, `
		UPDATE alerts SET acknowledged = TRUE WHERE id = $1
		RETURNING *`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: alert %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: acknowledge alert: %v", apperr.ErrStorage, err)
	}
	return &alert, nil
}

// Delete removes an alert permanently.
func (r *AlertRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete alert: %v", apperr.ErrStorage, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: alert %s", apperr.ErrNotFound, id)
	}
	return nil
}

// HasUnacknowledged reports whether a zone has any open alert.
func (r *AlertRepository) HasUnacknowledged(ctx context.Context, sensorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM alerts WHERE sensor_id = $1 AND acknowledged = FALSE)`,
		sensorID)
	if err != nil {
		return false, fmt.Errorf("%w: check open alerts: %v", apperr.ErrStorage, err)
	}
	return exists, nil
}
