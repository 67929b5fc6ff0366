package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"crop-monitor-service/internal/ai"
	"crop-monitor-service/internal/apperr"
	"crop-monitor-service/internal/models"
	"crop-monitor-service/internal/weather"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST FAKES
// ============================================================================

type fakeSensorStore struct {
	sensors map[uuid.UUID]*models.Sensor
	touched []uuid.UUID
}

func (f *fakeSensorStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Sensor, error) {
	s, ok := f.sensors[id]
	if !ok {
		return nil, fmt.Errorf("%w: sensor %s", apperr.ErrNotFound, id)
	}
	return s, nil
}

func (f *fakeSensorStore) TouchLastReading(ctx context.Context, ext sqlx.ExtContext, id uuid.UUID, at time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeConfigStore struct {
	cfg *models.FarmConfig
}

func (f *fakeConfigStore) GetByID(ctx context.Context, id uuid.UUID) (*models.FarmConfig, error) {
	if f.cfg == nil || f.cfg.ID != id {
		return nil, fmt.Errorf("%w: config %s", apperr.ErrNotFound, id)
	}
	return f.cfg, nil
}

type fakeReadingStore struct {
	created []models.SensorReading
	failOn  int // 1-based call index that fails, 0 never
	calls   int
}

func (f *fakeReadingStore) Create(ctx context.Context, ext sqlx.ExtContext, reading *models.SensorReading) error {
	f.calls++
	if f.failOn != 0 && f.calls == f.failOn {
		return fmt.Errorf("%w: forced write failure", apperr.ErrStorage)
	}
	reading.ID = uuid.New()
	f.created = append(f.created, *reading)
	return nil
}

type fakeImageRecordStore struct {
	created []models.DroneImage
}

func (f *fakeImageRecordStore) Create(ctx context.Context, ext sqlx.ExtContext, img *models.DroneImage) error {
	img.ID = uuid.New()
	f.created = append(f.created, *img)
	return nil
}

type fakeAnalysisStore struct {
	created []models.AnalysisResult
}

func (f *fakeAnalysisStore) Create(ctx context.Context, ext sqlx.ExtContext, result *models.AnalysisResult) error {
	result.ID = uuid.New()
	f.created = append(f.created, *result)
	return nil
}

type fakeAlertStore struct {
	created []models.Alert
}

func (f *fakeAlertStore) CreateBatch(ctx context.Context, ext sqlx.ExtContext, alerts []models.Alert) error {
	f.created = append(f.created, alerts...)
	return nil
}

type fakeAmbient struct {
	conditions weather.Conditions
	calls      int
}

func (f *fakeAmbient) AmbientFor(ctx context.Context, lat, lon *float64) weather.Conditions {
	f.calls++
	return f.conditions
}

type fakeBlobStore struct {
	saved map[string][]byte
	err   error
}

func (f *fakeBlobStore) Save(ctx context.Context, data []byte, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[name] = data
	return name, nil
}

type fakeTxRunner struct {
	commits int
}

func (f *fakeTxRunner) RunInTx(ctx context.Context, fn func(ext sqlx.ExtContext) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	f.commits++
	return nil
}

type fakeClassifier struct {
	fused     ai.Prediction
	imageOnly ai.Prediction
	err       error
	calls     int
	features  []float32
}

func (f *fakeClassifier) PredictFused(ctx context.Context, image []byte, features []float32) (ai.Prediction, error) {
	f.calls++
	f.features = features
	if f.err != nil {
		return ai.Prediction{}, f.err
	}
	return f.fused, nil
}

func (f *fakeClassifier) PredictImage(ctx context.Context, image []byte) (ai.Prediction, error) {
	f.calls++
	if f.err != nil {
		return ai.Prediction{}, f.err
	}
	return f.imageOnly, nil
}

type ingestFixture struct {
	service    *IngestionService
	sensorID   uuid.UUID
	sensors    *fakeSensorStore
	readings   *fakeReadingStore
	images     *fakeImageRecordStore
	analyses   *fakeAnalysisStore
	alerts     *fakeAlertStore
	ambient    *fakeAmbient
	blobs      *fakeBlobStore
	tx         *fakeTxRunner
	classifier *fakeClassifier
}

func newIngestFixture() *ingestFixture {
	cfg := &models.FarmConfig{
		ID:       uuid.New(),
		CropType: "Corn",
		Region:   "Hanoi",
	}
	sensorID := uuid.New()
	f := &ingestFixture{
		sensorID: sensorID,
		sensors: &fakeSensorStore{sensors: map[uuid.UUID]*models.Sensor{
			sensorID: {ID: sensorID, FarmConfigID: cfg.ID, Status: models.SensorActive},
		}},
		readings: &fakeReadingStore{},
		images:   &fakeImageRecordStore{},
		analyses: &fakeAnalysisStore{},
		alerts:   &fakeAlertStore{},
		ambient:  &fakeAmbient{conditions: weather.Conditions{AirTemperature: 25.0, Humidity: 60.0}},
		blobs:    &fakeBlobStore{},
		tx:       &fakeTxRunner{},
		classifier: &fakeClassifier{
			fused: ai.Prediction{
				Label:      models.LabelHealthy,
				Confidence: 97.0,
				Probabilities: models.ProbabilityMap{
					models.LabelDiseaseStress:  1.0,
					models.LabelHealthy:        97.0,
					models.LabelNutrientStress: 1.0,
					models.LabelWaterStress:    1.0,
				},
			},
		},
	}
	f.service = NewIngestionService(
		f.sensors, &fakeConfigStore{cfg: cfg}, f.readings, f.images, f.analyses,
		f.alerts, f.tx, defaultEngine(), f.ambient, f.classifier, ai.IdentityScaler(), f.blobs)
	return f
}

func healthyValues() ReadingValues {
	return ReadingValues{N: 50, P: 30, K: 40, SoilMoisture: 25}
}

// ============================================================================
// TEST SUITE 1: OBJECT NAMING
// ============================================================================

func TestImageObjectName_Format(t *testing.T) {
	sensorID := uuid.New()
	at := time.UnixMilli(1700000000123)

	name := ImageObjectName(sensorID, at, "Field_Photo.JPG")

	assert.Equal(t, fmt.Sprintf("%s_1700000000123.jpg", sensorID), name)
}

func TestImageObjectName_DefaultsExtension(t *testing.T) {
	sensorID := uuid.New()
	at := time.UnixMilli(1700000000123)

	name := ImageObjectName(sensorID, at, "capture")

	assert.True(t, strings.HasSuffix(name, ".jpg"))
}

// ============================================================================
// TEST SUITE 2: FUSED INGESTION
// ============================================================================

func TestIngestFused_HappyPath(t *testing.T) {
	f := newIngestFixture()

	resp, err := f.service.IngestFused(context.Background(), f.sensorID, "shot.png", []byte("img"), healthyValues())

	require.NoError(t, err)
	assert.Equal(t, 1, f.tx.commits)
	require.Len(t, f.readings.created, 1)
	require.Len(t, f.images.created, 1)
	require.Len(t, f.analyses.created, 1)

	assert.Equal(t, f.sensorID, resp.SensorReading.SensorID)
	assert.Equal(t, 25.0, resp.SensorReading.AirTemperature, "Ambient context lands on the reading")
	assert.Equal(t, 60.0, resp.SensorReading.Humidity)

	assert.True(t, strings.HasPrefix(resp.DroneImage.ObjectName, f.sensorID.String()+"_"))
	assert.True(t, strings.HasSuffix(resp.DroneImage.ObjectName, ".png"))
	assert.Contains(t, f.blobs.saved, resp.DroneImage.ObjectName)

	assert.Equal(t, models.ModelMultimodal, resp.Analysis.ModelType)
	assert.Equal(t, resp.DroneImage.ID, resp.Analysis.DroneImageID)
	require.NotNil(t, resp.Analysis.SensorReadingID)
	assert.Equal(t, resp.SensorReading.ID, *resp.Analysis.SensorReadingID)

	assert.Empty(t, resp.Alerts, "Healthy prediction and healthy values raise nothing")
	assert.Equal(t, []uuid.UUID{f.sensorID}, f.sensors.touched, "Liveness stamp updates with the commit")
}

func TestIngestFused_CriticalReadingAndPrediction(t *testing.T) {
	f := newIngestFixture()
	f.classifier.fused = ai.Prediction{
		Label:      models.LabelDiseaseStress,
		Confidence: 85.0,
		Probabilities: models.ProbabilityMap{
			models.LabelDiseaseStress:  85.0,
			models.LabelHealthy:        5.0,
			models.LabelNutrientStress: 5.0,
			models.LabelWaterStress:    5.0,
		},
	}

	resp, err := f.service.IngestFused(context.Background(), f.sensorID, "shot.jpg", []byte("img"),
		ReadingValues{N: 12, P: 30, K: 40, SoilMoisture: 25})

	require.NoError(t, err)
	require.Len(t, resp.Alerts, 2)

	critical := 0
	for _, a := range resp.Alerts {
		if a.Severity == models.SeverityCritical {
			critical++
		}
	}
	assert.Equal(t, 2, critical, "One nutrient critical plus one high-confidence condition critical")
	assert.Equal(t, resp.Alerts, f.alerts.created, "Returned alerts are the persisted ones")
}

func TestIngestFused_UnknownSensor(t *testing.T) {
	f := newIngestFixture()

	_, err := f.service.IngestFused(context.Background(), uuid.New(), "shot.jpg", []byte("img"), healthyValues())

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 0, f.tx.commits)
	assert.Empty(t, f.blobs.saved, "Nothing stored for an unknown zone")
}

func TestIngestFused_EmptyImage(t *testing.T) {
	f := newIngestFixture()

	_, err := f.service.IngestFused(context.Background(), f.sensorID, "shot.jpg", nil, healthyValues())

	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, f.blobs.saved)
}

func TestIngestFused_StorageFailureAbortsEverything(t *testing.T) {
	f := newIngestFixture()
	f.blobs.err = errors.New("bucket gone")

	_, err := f.service.IngestFused(context.Background(), f.sensorID, "shot.jpg", []byte("img"), healthyValues())

	assert.ErrorIs(t, err, apperr.ErrStorage)
	assert.Equal(t, 0, f.classifier.calls, "No classification after a failed store")
	assert.Equal(t, 0, f.tx.commits)
	assert.Empty(t, f.readings.created)
}

func TestIngestFused_TimeFeatureUsesUTC(t *testing.T) {
	f := newIngestFixture()
	// 01:30 at UTC+7 is 18:30 UTC the previous day.
	f.service.now = func() time.Time {
		return time.Date(2026, 8, 31, 1, 30, 0, 0, time.FixedZone("ICT", 7*3600))
	}

	_, err := f.service.IngestFused(context.Background(), f.sensorID, "shot.jpg", []byte("img"), healthyValues())

	require.NoError(t, err)
	require.Len(t, f.classifier.features, 12)
	hour := 18.5
	assert.InDelta(t, math.Sin(2*math.Pi*hour/24.0), float64(f.classifier.features[6]), 1e-5)
	assert.InDelta(t, math.Cos(2*math.Pi*hour/24.0), float64(f.classifier.features[7]), 1e-5)
}

func TestIngestFused_ClassifierFailureLeavesNoRecords(t *testing.T) {
	f := newIngestFixture()
	f.classifier.err = fmt.Errorf("%w: model unreachable", apperr.ErrInference)

	_, err := f.service.IngestFused(context.Background(), f.sensorID, "shot.jpg", []byte("img"), healthyValues())

	assert.ErrorIs(t, err, apperr.ErrInference)
	assert.Equal(t, 0, f.tx.commits)
	assert.Empty(t, f.readings.created)
	assert.Empty(t, f.analyses.created)
	assert.Empty(t, f.sensors.touched, "A failed pipeline never advances liveness")
}

// ============================================================================
// TEST SUITE 3: READING-ONLY INGESTION
// ============================================================================

func TestIngestReading_PersistsReadingAndAlerts(t *testing.T) {
	f := newIngestFixture()

	reading, err := f.service.IngestReading(context.Background(), f.sensorID,
		ReadingValues{N: 18, P: 30, K: 40, SoilMoisture: 25})

	require.NoError(t, err)
	assert.Equal(t, 1, f.tx.commits)
	assert.Equal(t, 25.0, reading.AirTemperature)
	require.Len(t, f.alerts.created, 1)
	assert.Equal(t, models.SeverityWarning, f.alerts.created[0].Severity)
	assert.Equal(t, []uuid.UUID{f.sensorID}, f.sensors.touched)
	assert.Equal(t, 0, f.classifier.calls, "No model involvement on the reading path")
}

func TestIngestReading_UnknownSensor(t *testing.T) {
	f := newIngestFixture()

	_, err := f.service.IngestReading(context.Background(), uuid.New(), healthyValues())

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 0, f.tx.commits)
}

// ============================================================================
// TEST SUITE 4: BATCH INGESTION
// ============================================================================

func TestIngestBatch_SkipsUnresolvableZones(t *testing.T) {
	f := newIngestFixture()
	batch := []models.BulkSensorReading{
		{SensorID: f.sensorID, N: 50, P: 30, K: 40, SoilMoisture: 25},
		{SensorID: uuid.New(), N: 50, P: 30, K: 40, SoilMoisture: 25}, // unknown zone
		{SensorID: f.sensorID, N: 50, P: 30, K: 40, SoilMoisture: 25},
	}

	resp, err := f.service.IngestBatch(context.Background(), batch)

	require.NoError(t, err, "Zone resolution failures never fail the batch")
	assert.Len(t, resp.Created, 2)
	assert.Equal(t, 1, resp.Skipped)
	assert.Equal(t, 2, f.tx.commits, "Each persisted reading commits on its own")
}

func TestIngestBatch_AmbientFetchedOnce(t *testing.T) {
	f := newIngestFixture()
	batch := []models.BulkSensorReading{
		{SensorID: f.sensorID, N: 50, P: 30, K: 40, SoilMoisture: 25},
		{SensorID: f.sensorID, N: 51, P: 30, K: 40, SoilMoisture: 25},
		{SensorID: f.sensorID, N: 52, P: 30, K: 40, SoilMoisture: 25},
	}

	_, err := f.service.IngestBatch(context.Background(), batch)

	require.NoError(t, err)
	assert.Equal(t, 1, f.ambient.calls, "One ambient lookup covers the whole batch")
}

func TestIngestBatch_EmptyBatchRejected(t *testing.T) {
	f := newIngestFixture()

	_, err := f.service.IngestBatch(context.Background(), nil)

	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestIngestBatch_AllZonesUnresolvable(t *testing.T) {
	f := newIngestFixture()
	batch := []models.BulkSensorReading{
		{SensorID: uuid.New()},
		{SensorID: uuid.New()},
	}

	resp, err := f.service.IngestBatch(context.Background(), batch)

	require.NoError(t, err)
	assert.Empty(t, resp.Created)
	assert.Equal(t, 2, resp.Skipped)
	assert.Equal(t, 0, f.ambient.calls, "No ambient lookup without a resolvable zone")
}

func TestIngestBatch_WriteFailureDropsEntryOnly(t *testing.T) {
	f := newIngestFixture()
	f.readings.failOn = 2
	batch := []models.BulkSensorReading{
		{SensorID: f.sensorID, N: 50, P: 30, K: 40, SoilMoisture: 25},
		{SensorID: f.sensorID, N: 51, P: 30, K: 40, SoilMoisture: 25},
		{SensorID: f.sensorID, N: 52, P: 30, K: 40, SoilMoisture: 25},
	}

	resp, err := f.service.IngestBatch(context.Background(), batch)

	require.NoError(t, err)
	assert.Len(t, resp.Created, 2)
	assert.Equal(t, 0, resp.Skipped, "A write failure is not a resolution skip")
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, f.sensorID, resp.Errors[0].SensorID)
	assert.Contains(t, resp.Errors[0].Error, "forced write failure")
}
