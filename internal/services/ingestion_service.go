package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"crop-monitor-service/internal/ai"
	"crop-monitor-service/internal/apperr"
	"crop-monitor-service/internal/models"
	"crop-monitor-service/internal/weather"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Collaborator seams, narrowed to what the pipeline calls. The
// repository types and the weather/minio wrappers satisfy these.
type sensorStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sensor, error)
	TouchLastReading(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID, at time.Time) error
}

type configStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.FarmConfig, error)
}

type readingStore interface {
	Create(ctx context.Context, ext sqlx.ExtContext, reading *models.SensorReading) error
}

type imageRecordStore interface {
	Create(ctx context.Context, ext sqlx.ExtContext, img *models.DroneImage) error
}

type analysisStore interface {
	Create(ctx context.Context, ext sqlx.ExtContext, result *models.AnalysisResult) error
}

type alertStore interface {
	CreateBatch(ctx context.Context, ext sqlx.ExtContext, alerts []models.Alert) error
}

type ambientSource interface {
	AmbientFor(ctx context.Context, lat, lon *float64) weather.Conditions
}

type blobStore interface {
	Save(ctx context.Context, data []byte, name string) (string, error)
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ext sqlx.ExtContext) error) error
}

// IngestionService runs the ingestion pipeline: raw inputs in,
// persisted records and alerts out, all under one commit. The slow
// collaborator calls (image store, weather, classifier) happen before
// the transaction opens so no lock is held across them.
type IngestionService struct {
	sensors    sensorStore
	configs    configStore
	readings   readingStore
	images     imageRecordStore
	analyses   analysisStore
	alerts     alertStore
	tx         txRunner
	engine     *AlertEngine
	ambient    ambientSource
	classifier ai.Classifier
	scaler     *ai.Scaler
	blobs      blobStore
	now        func() time.Time
}

func NewIngestionService(
	sensors sensorStore,
	configs configStore,
	readings readingStore,
	images imageRecordStore,
	analyses analysisStore,
	alerts alertStore,
	tx txRunner,
	engine *AlertEngine,
	ambient ambientSource,
	classifier ai.Classifier,
	scaler *ai.Scaler,
	blobs blobStore,
) *IngestionService {
	return &IngestionService{
		sensors:    sensors,
		configs:    configs,
		readings:   readings,
		images:     images,
		analyses:   analyses,
		alerts:     alerts,
		tx:         tx,
		engine:     engine,
		ambient:    ambient,
		classifier: classifier,
		scaler:     scaler,
		blobs:      blobs,
		now:        time.Now,
	}
}

// ImageObjectName derives the stored object name from the zone and a
// millisecond timestamp, unique even under concurrent uploads to the
// same zone.
func ImageObjectName(sensorID uuid.UUID, at time.Time, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%s_%d%s", sensorID, at.UnixMilli(), ext)
}

// IngestFused is the full pipeline for a drone upload: validate zone,
// store image, fetch ambient context, build features, classify, then
// persist reading + image + analysis + alerts + liveness in one
// transaction.
func (s *IngestionService) IngestFused(ctx context.Context, sensorID uuid.UUID, imageName string, imageBytes []byte, values ReadingValues) (*models.DroneUploadResponse, error) {
	sensor, err := s.sensors.GetByID(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.configs.GetByID(ctx, sensor.FarmConfigID)
	if err != nil {
		return nil, err
	}
	if len(imageBytes) == 0 {
		return nil, fmt.Errorf("%w: empty image upload", apperr.ErrValidation)
	}

	now := s.now()
	objectName := ImageObjectName(sensor.ID, now, imageName)
	if _, err := s.blobs.Save(ctx, imageBytes, objectName); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}

	conditions := s.ambient.AmbientFor(ctx, cfg.Latitude, cfg.Longitude)

	// The cyclic time feature is always computed in UTC so the model
	// input does not drift with the host timezone.
	utc := now.UTC()
	hour := float64(utc.Hour()) + float64(utc.Minute())/60.0
	features := s.scaler.Transform(ai.BuildFeatureVector(ai.SensorFeatures{
		N:              values.N,
		P:              values.P,
		K:              values.K,
		SoilMoisture:   values.SoilMoisture,
		AirTemperature: conditions.AirTemperature,
		Humidity:       conditions.Humidity,
		Hour:           hour,
		CropType:       cfg.CropType,
	}))

	prediction, err := s.classifier.PredictFused(ctx, imageBytes, features)
	if err != nil {
		return nil, err
	}

	reading := models.SensorReading{
		SensorID:       sensor.ID,
		N:              values.N,
		P:              values.P,
		K:              values.K,
		SoilMoisture:   values.SoilMoisture,
		AirTemperature: conditions.AirTemperature,
		Humidity:       conditions.Humidity,
		RecordedAt:     now,
	}
	image := models.DroneImage{
		SensorID:   sensor.ID,
		ObjectName: objectName,
		CapturedAt: now,
	}

	var analysis models.AnalysisResult
	var queued []models.Alert
	err = s.tx.RunInTx(ctx, func(ext sqlx.ExtContext) error {
		if err := s.readings.Create(ctx, ext, &reading); err != nil {
			return err
		}
		if err := s.images.Create(ctx, ext, &image); err != nil {
			return err
		}

		analysis = models.AnalysisResult{
			DroneImageID:    image.ID,
			SensorReadingID: &reading.ID,
			ModelType:       models.ModelMultimodal,
			Prediction:      prediction.Label,
			Confidence:      prediction.Confidence,
			Probabilities:   prediction.Probabilities,
			AnalyzedAt:      now,
		}
		if err := s.analyses.Create(ctx, ext, &analysis); err != nil {
			return err
		}

		queued = s.engine.FromReading(sensor.ID, values)
		queued = append(queued, s.engine.FromPrediction(sensor.ID, prediction.Label, prediction.Confidence)...)
		if err := s.alerts.CreateBatch(ctx, ext, queued); err != nil {
			return err
		}

		return s.sensors.TouchLastReading(ctx, ext, sensor.ID, now)
	})
	if err != nil {
		return nil, err
	}

	return &models.DroneUploadResponse{
		DroneImage:    image,
		SensorReading: reading,
		Analysis:      analysis,
		Alerts:        queued,
	}, nil
}

// IngestReading is the reading-only pipeline: no image, no classifier.
func (s *IngestionService) IngestReading(ctx context.Context, sensorID uuid.UUID, values ReadingValues) (*models.SensorReading, error) {
	sensor, err := s.sensors.GetByID(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.configs.GetByID(ctx, sensor.FarmConfigID)
	if err != nil {
		return nil, err
	}

	conditions := s.ambient.AmbientFor(ctx, cfg.Latitude, cfg.Longitude)
	return s.persistReading(ctx, sensor, values, conditions)
}

// IngestBatch processes a batch of readings. Ambient context is fetched
// once, from the first zone that resolves; zones that fail resolution
// are skipped, not fatal. A write failure also drops only its own
// entry, but is reported per entry so callers can tell it apart from a
// skip.
func (s *IngestionService) IngestBatch(ctx context.Context, batch []models.BulkSensorReading) (*models.BulkReadingResponse, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: empty batch", apperr.ErrValidation)
	}

	resolved := make(map[uuid.UUID]*models.Sensor, len(batch))
	var first *models.Sensor
	for _, entry := range batch {
		if _, seen := resolved[entry.SensorID]; seen {
			continue
		}
		sensor, err := s.sensors.GetByID(ctx, entry.SensorID)
		if err != nil {
			log.Printf("[ingest] batch: zone %s skipped: %v", entry.SensorID, err)
			resolved[entry.SensorID] = nil
			continue
		}
		resolved[entry.SensorID] = sensor
		if first == nil {
			first = sensor
		}
	}
	if first == nil {
		return &models.BulkReadingResponse{Created: []models.SensorReading{}, Skipped: len(batch)}, nil
	}

	cfg, err := s.configs.GetByID(ctx, first.FarmConfigID)
	if err != nil {
		return nil, err
	}
	conditions := s.ambient.AmbientFor(ctx, cfg.Latitude, cfg.Longitude)

	resp := &models.BulkReadingResponse{Created: []models.SensorReading{}}
	for _, entry := range batch {
		sensor := resolved[entry.SensorID]
		if sensor == nil {
			resp.Skipped++
			continue
		}
		reading, err := s.persistReading(ctx, sensor, ReadingValues{
			N:            entry.N,
			P:            entry.P,
			K:            entry.K,
			SoilMoisture: entry.SoilMoisture,
		}, conditions)
		if err != nil {
			// A failed write drops this entry only; the batch goes on.
			log.Printf("[ingest] batch: zone %s write failed: %v", entry.SensorID, err)
			resp.Errors = append(resp.Errors, models.BulkEntryError{
				SensorID: entry.SensorID,
				Error:    err.Error(),
			})
			continue
		}
		resp.Created = append(resp.Created, *reading)
	}
	return resp, nil
}

// persistReading commits one reading, its alerts and the liveness stamp
// atomically.
func (s *IngestionService) persistReading(ctx context.Context, sensor *models.Sensor, values ReadingValues, conditions weather.Conditions) (*models.SensorReading, error) {
	now := s.now()
	reading := models.SensorReading{
		SensorID:       sensor.ID,
		N:              values.N,
		P:              values.P,
		K:              values.K,
		SoilMoisture:   values.SoilMoisture,
		AirTemperature: conditions.AirTemperature,
		Humidity:       conditions.Humidity,
		RecordedAt:     now,
	}

	err := s.tx.RunInTx(ctx, func(ext sqlx.ExtContext) error {
		if err := s.readings.Create(ctx, ext, &reading); err != nil {
			return err
		}
		if err := s.alerts.CreateBatch(ctx, ext, s.engine.FromReading(sensor.ID, values)); err != nil {
			return err
		}
		return s.sensors.TouchLastReading(ctx, ext, sensor.ID, now)
	})
	if err != nil {
		return nil, err
	}
	return &reading, nil
}
