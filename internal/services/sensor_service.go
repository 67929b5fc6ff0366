package services

import (
	"context"
	"fmt"

	"crop-monitor-service/internal/apperr"
	"crop-monitor-service/internal/models"
	"crop-monitor-service/internal/repository"

	"github.com/google/uuid"
)

// SensorService exposes zone listing and the explicit operator status
// override.
type SensorService struct {
	sensorRepo *repository.SensorRepository
	configRepo *repository.FarmConfigRepository
}

func NewSensorService(sensorRepo *repository.SensorRepository, configRepo *repository.FarmConfigRepository) *SensorService {
	return &SensorService{sensorRepo: sensorRepo, configRepo: configRepo}
}

// ListActive returns the active configuration's zones in zone_index
// order.
func (s *SensorService) ListActive(ctx context.Context) ([]models.Sensor, error) {
	cfg, err := s.configRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.sensorRepo.ListByConfig(ctx, cfg.ID)
}

// UpdateStatus applies an operator status override. This is the only
// path out of offline: a zone that resumes reporting stays offline
// until an operator sets it back to active or error.
func (s *SensorService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SensorStatus) (*models.Sensor, error) {
	if !models.IsValidSensorStatus(status) {
		return nil, fmt.Errorf("%w: invalid status %q", apperr.ErrValidation, status)
	}
	return s.sensorRepo.UpdateStatus(ctx, id, status)
}
