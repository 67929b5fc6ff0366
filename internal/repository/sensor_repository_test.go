package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"crop-monitor-service/internal/apperr"
	"crop-monitor-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

// ============================================================================
// TEST SUITE: LIVENESS SWEEP STATEMENT
// ============================================================================

func TestMarkStaleOffline_TargetsOnlyStaleActiveOrError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSensorRepository(db)

	cutoff := time.Now().Add(-2 * time.Minute)
	first, second := uuid.New(), uuid.New()

	// The update must be guarded on status and on a non-null
	// last_reading_at: never-reported and already-offline zones stay
	// untouched.
	mock.ExpectQuery(`(?s)UPDATE sensors.*SET status = \$1.*WHERE status IN \(\$2, \$3\).*last_reading_at IS NOT NULL.*last_reading_at < \$4.*RETURNING id`).
		WithArgs(models.SensorOffline, models.SensorActive, models.SensorError, cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(first.String()).
			AddRow(second.String()))

	ids, err := repo.MarkStaleOffline(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkStaleOffline_NoStaleZones(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSensorRepository(db)

	cutoff := time.Now().Add(-2 * time.Minute)
	mock.ExpectQuery(`(?s)UPDATE sensors.*RETURNING id`).
		WithArgs(models.SensorOffline, models.SensorActive, models.SensorError, cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ids, err := repo.MarkStaleOffline(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkStaleOffline_StorageError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSensorRepository(db)

	cutoff := time.Now().Add(-2 * time.Minute)
	mock.ExpectQuery(`(?s)UPDATE sensors.*RETURNING id`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.MarkStaleOffline(context.Background(), cutoff)

	assert.ErrorIs(t, err, apperr.ErrStorage)
}

// ============================================================================
// TEST SUITE: OPERATOR STATUS OVERRIDE
// ============================================================================

func TestUpdateStatus_UnknownSensor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSensorRepository(db)

	id := uuid.New()
	mock.ExpectExec(`UPDATE sensors SET status = \$1 WHERE id = \$2`).
		WithArgs(models.SensorActive, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.UpdateStatus(context.Background(), id, models.SensorActive)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
