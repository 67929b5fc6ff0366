package services

import (
	"context"
	"fmt"
	"log"
	"math"

	"crop-monitor-service/internal/apperr"
	"crop-monitor-service/internal/models"
	"crop-monitor-service/internal/repository"
	"crop-monitor-service/internal/weather"
)

// geocoder is the slice of the weather facade the config path needs.
type geocoder interface {
	Geocode(ctx context.Context, region string) *weather.Coordinates
}

// ConfigService owns farm configuration activation and the grid model.
type ConfigService struct {
	configRepo *repository.FarmConfigRepository
	sensorRepo *repository.SensorRepository
	weather    geocoder
}

func NewConfigService(configRepo *repository.FarmConfigRepository, sensorRepo *repository.SensorRepository, weather geocoder) *ConfigService {
	return &ConfigService{
		configRepo: configRepo,
		sensorRepo: sensorRepo,
		weather:    weather,
	}
}

// ComputeGrid derives the zone grid: rows from field width, columns
// from field height, both rounded up to cover the edges.
func ComputeGrid(fieldWidth, fieldHeight, spacing float64) (rows, cols int, err error) {
	if fieldWidth <= 0 || fieldHeight <= 0 || spacing <= 0 {
		return 0, 0, fmt.Errorf("%w: field dimensions and spacing must be positive", apperr.ErrValidation)
	}
	rows = int(math.Ceil(fieldWidth / spacing))
	cols = int(math.Ceil(fieldHeight / spacing))
	return rows, cols, nil
}

// BuildZones produces the rows*cols zones in row-major order with
// zone_index assigned from 0. Indices are fixed here and never
// recomputed.
func BuildZones(rows, cols int) []models.Sensor {
	zones := make([]models.Sensor, 0, rows*cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			zones = append(zones, models.Sensor{
				ZoneIndex: row*cols + col,
				ZoneRow:   row,
				ZoneCol:   col,
				Status:    models.SensorActive,
			})
		}
	}
	return zones
}

// Create validates the request, derives the grid, geocodes the region
// best-effort, and activates the new configuration with all its zones
// in one transaction.
func (s *ConfigService) Create(ctx context.Context, req models.FarmConfigCreate) (*models.FarmConfigResponse, error) {
	rows, cols, err := ComputeGrid(req.FieldWidth, req.FieldHeight, req.SensorSpacing)
	if err != nil {
		return nil, err
	}
	if req.CropType == "" {
		return nil, fmt.Errorf("%w: crop_type is required", apperr.ErrValidation)
	}
	if req.Region == "" {
		return nil, fmt.Errorf("%w: region is required", apperr.ErrValidation)
	}

	cfg := models.FarmConfig{
		FieldWidth:    req.FieldWidth,
		FieldHeight:   req.FieldHeight,
		SensorSpacing: req.SensorSpacing,
		GridRows:      rows,
		GridCols:      cols,
		CropType:      req.CropType,
		Region:        req.Region,
	}

	// Geocoding is best-effort: a config without coordinates still works,
	// ingestion falls back to the neutral ambient defaults.
	if coords := s.weather.Geocode(ctx, req.Region); coords != nil {
		cfg.Latitude = &coords.Lat
		cfg.Longitude = &coords.Lon
	} else {
		log.Printf("[config] region %q not geocoded, ambient defaults will be used", req.Region)
	}

	zones := BuildZones(rows, cols)
	if err := s.configRepo.ActivateWithZones(ctx, &cfg, zones); err != nil {
		return nil, err
	}

	return &models.FarmConfigResponse{FarmConfig: cfg, SensorCount: len(zones)}, nil
}

// GetActive returns the active configuration with its zone count.
func (s *ConfigService) GetActive(ctx context.Context) (*models.FarmConfigResponse, error) {
	cfg, err := s.configRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	count, err := s.sensorRepo.CountByConfig(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}
	return &models.FarmConfigResponse{FarmConfig: *cfg, SensorCount: count}, nil
}
