package models

import "github.com/google/uuid"

// FarmConfigCreate is the create-configuration request body.
type FarmConfigCreate struct {
	FieldWidth    float64 `json:"field_width"`
	FieldHeight   float64 `json:"field_height"`
	SensorSpacing float64 `json:"sensor_spacing"`
	CropType      string  `json:"crop_type"`
	Region        string  `json:"region"`
}

// FarmConfigResponse adds the zone count to the stored configuration.
type FarmConfigResponse struct {
	FarmConfig
	SensorCount int `json:"sensor_count"`
}

// SensorStatusUpdate is the operator status override body.
type SensorStatusUpdate struct {
	Status SensorStatus `json:"status"`
}

// SensorReadingCreate is a single reading submission for one zone.
type SensorReadingCreate struct {
	N            float64 `json:"n"`
	P            float64 `json:"p"`
	K            float64 `json:"k"`
	SoilMoisture float64 `json:"soil_moisture"`
}

// BulkSensorReading is one entry of a batched reading submission.
type BulkSensorReading struct {
	SensorID     uuid.UUID `json:"sensor_id"`
	N            float64   `json:"n"`
	P            float64   `json:"p"`
	K            float64   `json:"k"`
	SoilMoisture float64   `json:"soil_moisture"`
}

// BulkEntryError reports one batch entry whose write failed.
type BulkEntryError struct {
	SensorID uuid.UUID `json:"sensor_id"`
	Error    string    `json:"error"`
}

// BulkReadingResponse reports what the batch actually persisted.
// Skipped counts entries whose zone did not resolve; write failures are
// listed in Errors instead.
type BulkReadingResponse struct {
	Created []SensorReading  `json:"created"`
	Skipped int              `json:"skipped"`
	Errors  []BulkEntryError `json:"errors,omitempty"`
}

// DroneUploadResponse is the fused-ingestion result.
type DroneUploadResponse struct {
	DroneImage    DroneImage     `json:"drone_image"`
	SensorReading SensorReading  `json:"sensor_reading"`
	Analysis      AnalysisResult `json:"analysis"`
	Alerts        []Alert        `json:"alerts"`
}

// DiseaseAnalysisRequest asks for image-only classification of a stored
// image.
type DiseaseAnalysisRequest struct {
	DroneImageID uuid.UUID `json:"drone_image_id"`
}

// GridCell is one zone of the dashboard snapshot.
type GridCell struct {
	SensorID         uuid.UUID    `json:"sensor_id"`
	ZoneIndex        int          `json:"zone_index"`
	ZoneRow          int          `json:"zone_row"`
	ZoneCol          int          `json:"zone_col"`
	Status           SensorStatus `json:"status"`
	LatestPrediction *string      `json:"latest_prediction"`
	LatestConfidence *float64     `json:"latest_confidence"`
	HasAlert         bool         `json:"has_alert"`
}

// ZoneAnalysis is the latest fused result for one zone.
type ZoneAnalysis struct {
	SensorID   uuid.UUID      `json:"sensor_id"`
	ZoneIndex  int            `json:"zone_index"`
	ZoneRow    int            `json:"zone_row"`
	ZoneCol    int            `json:"zone_col"`
	Prediction *string        `json:"prediction"`
	Confidence *float64       `json:"confidence"`
	Probs      ProbabilityMap `json:"all_probs,omitempty"`
	AnalyzedAt *string        `json:"analyzed_at"`
	ObjectName *string        `json:"image_path"`
}
