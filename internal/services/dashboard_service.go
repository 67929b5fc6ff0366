package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crop-monitor-service/internal/apperr"
	"crop-monitor-service/internal/models"
	"crop-monitor-service/internal/repository"

	"github.com/google/uuid"
)

// imageBrowseWindow bounds the dashboard image browser.
const imageBrowseWindow = 48 * time.Hour

// DashboardService assembles the operator-facing grid snapshot and
// image browsing views.
type DashboardService struct {
	configRepo   *repository.FarmConfigRepository
	sensorRepo   *repository.SensorRepository
	imageRepo    *repository.ImageRepository
	analysisRepo *repository.AnalysisRepository
	alertRepo    *repository.AlertRepository
	blobs        blobReader
}

func NewDashboardService(
	configRepo *repository.FarmConfigRepository,
	sensorRepo *repository.SensorRepository,
	imageRepo *repository.ImageRepository,
	analysisRepo *repository.AnalysisRepository,
	alertRepo *repository.AlertRepository,
	blobs blobReader,
) *DashboardService {
	return &DashboardService{
		configRepo:   configRepo,
		sensorRepo:   sensorRepo,
		imageRepo:    imageRepo,
		analysisRepo: analysisRepo,
		alertRepo:    alertRepo,
		blobs:        blobs,
	}
}

// GridSnapshot returns one cell per zone: liveness status, the latest
// fused prediction if any, and whether unacknowledged alerts exist.
// With no active configuration the grid is simply empty.
func (s *DashboardService) GridSnapshot(ctx context.Context) ([]models.GridCell, error) {
	cfg, err := s.configRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return []models.GridCell{}, nil
		}
		return nil, err
	}

	sensors, err := s.sensorRepo.ListByConfig(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}

	cells := make([]models.GridCell, 0, len(sensors))
	for _, sensor := range sensors {
		cell := models.GridCell{
			SensorID:  sensor.ID,
			ZoneIndex: sensor.ZoneIndex,
			ZoneRow:   sensor.ZoneRow,
			ZoneCol:   sensor.ZoneCol,
			Status:    sensor.Status,
		}

		analysis, _, err := s.analysisRepo.LatestFusedForSensor(ctx, sensor.ID)
		if err != nil {
			return nil, err
		}
		if analysis != nil {
			cell.LatestPrediction = &analysis.Prediction
			cell.LatestConfidence = &analysis.Confidence
		}

		hasAlert, err := s.alertRepo.HasUnacknowledged(ctx, sensor.ID)
		if err != nil {
			return nil, err
		}
		cell.HasAlert = hasAlert

		cells = append(cells, cell)
	}
	return cells, nil
}

// CropAnalysis returns the latest fused result per zone with the full
// probability mapping and the source image reference.
func (s *DashboardService) CropAnalysis(ctx context.Context) ([]models.ZoneAnalysis, error) {
	cfg, err := s.configRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return []models.ZoneAnalysis{}, nil
		}
		return nil, err
	}

	sensors, err := s.sensorRepo.ListByConfig(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}

	results := make([]models.ZoneAnalysis, 0, len(sensors))
	for _, sensor := range sensors {
		entry := models.ZoneAnalysis{
			SensorID:  sensor.ID,
			ZoneIndex: sensor.ZoneIndex,
			ZoneRow:   sensor.ZoneRow,
			ZoneCol:   sensor.ZoneCol,
		}

		analysis, objectName, err := s.analysisRepo.LatestFusedForSensor(ctx, sensor.ID)
		if err != nil {
			return nil, err
		}
		if analysis != nil {
			analyzedAt := analysis.AnalyzedAt.Format(time.RFC3339)
			entry.Prediction = &analysis.Prediction
			entry.Confidence = &analysis.Confidence
			entry.Probs = analysis.Probabilities
			entry.AnalyzedAt = &analyzedAt
			entry.ObjectName = &objectName
		}
		results = append(results, entry)
	}
	return results, nil
}

// BrowseImages lists recent images, optionally for one zone.
func (s *DashboardService) BrowseImages(ctx context.Context, sensorID *uuid.UUID) ([]models.DroneImage, error) {
	since := time.Now().Add(-imageBrowseWindow)
	return s.imageRepo.ListRecent(ctx, sensorID, &since, 200, 0)
}

// ImageBytes fetches a stored image for serving.
func (s *DashboardService) ImageBytes(ctx context.Context, imageID uuid.UUID) ([]byte, string, error) {
	img, err := s.imageRepo.GetByID(ctx, imageID)
	if err != nil {
		return nil, "", err
	}
	stored, err := s.blobs.Exists(ctx, img.ObjectName)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	if !stored {
		return nil, "", fmt.Errorf("%w: image object %s missing from store", apperr.ErrNotFound, img.ObjectName)
	}
	data, err := s.blobs.Read(ctx, img.ObjectName)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return data, img.ObjectName, nil
}
