package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FarmConfig describes one field layout. At most one row is active at a
// time; activating a new configuration deactivates the rest in the same
// transaction.
type FarmConfig struct {
	ID            uuid.UUID `db:"id" json:"id"`
	FieldWidth    float64   `db:"field_width" json:"field_width"`
	FieldHeight   float64   `db:"field_height" json:"field_height"`
	SensorSpacing float64   `db:"sensor_spacing" json:"sensor_spacing"`
	GridRows      int       `db:"grid_rows" json:"grid_rows"`
	GridCols      int       `db:"grid_cols" json:"grid_cols"`
	CropType      string    `db:"crop_type" json:"crop_type"`
	Region        string    `db:"region" json:"region"`
	Latitude      *float64  `db:"latitude" json:"latitude"`
	Longitude     *float64  `db:"longitude" json:"longitude"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Sensor is one fixed grid zone. Position is immutable; only status and
// last_reading_at change after creation.
type Sensor struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	FarmConfigID  uuid.UUID    `db:"farm_config_id" json:"farm_config_id"`
	ZoneIndex     int          `db:"zone_index" json:"zone_index"`
	ZoneRow       int          `db:"zone_row" json:"zone_row"`
	ZoneCol       int          `db:"zone_col" json:"zone_col"`
	Status        SensorStatus `db:"status" json:"status"`
	LastReadingAt *time.Time   `db:"last_reading_at" json:"last_reading_at"`
}

// SensorReading is an append-only nutrient/moisture/ambient tuple.
type SensorReading struct {
	ID             uuid.UUID `db:"id" json:"id"`
	SensorID       uuid.UUID `db:"sensor_id" json:"sensor_id"`
	N              float64   `db:"n" json:"n"`
	P              float64   `db:"p" json:"p"`
	K              float64   `db:"k" json:"k"`
	SoilMoisture   float64   `db:"soil_moisture" json:"soil_moisture"`
	AirTemperature float64   `db:"air_temperature" json:"air_temperature"`
	Humidity       float64   `db:"humidity" json:"humidity"`
	RecordedAt     time.Time `db:"recorded_at" json:"recorded_at"`
}

// DroneImage records a stored image object. The bytes themselves live in
// the object store under ObjectName.
type DroneImage struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SensorID   uuid.UUID `db:"sensor_id" json:"sensor_id"`
	ObjectName string    `db:"object_name" json:"object_name"`
	CapturedAt time.Time `db:"captured_at" json:"captured_at"`
}

// ProbabilityMap stores the full per-label probability mapping as jsonb.
type ProbabilityMap map[string]float64

// Value implements driver.Valuer for jsonb columns.
func (p ProbabilityMap) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for jsonb columns.
func (p *ProbabilityMap) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ProbabilityMap", src)
	}
}

// AnalysisResult is one classifier invocation outcome. SensorReadingID
// is set only for the fused model.
type AnalysisResult struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	DroneImageID    uuid.UUID      `db:"drone_image_id" json:"drone_image_id"`
	SensorReadingID *uuid.UUID     `db:"sensor_reading_id" json:"sensor_reading_id"`
	ModelType       ModelType      `db:"model_type" json:"model_type"`
	Prediction      string         `db:"prediction" json:"prediction"`
	Confidence      float64        `db:"confidence" json:"confidence"`
	Probabilities   ProbabilityMap `db:"probabilities" json:"probabilities"`
	AnalyzedAt      time.Time      `db:"analyzed_at" json:"analyzed_at"`
}

// Alert is an operator-facing condition raised by the threshold engine.
// Append-only except for the acknowledged flag and explicit deletion.
type Alert struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	SensorID     uuid.UUID     `db:"sensor_id" json:"sensor_id"`
	AlertType    string        `db:"alert_type" json:"alert_type"`
	Message      string        `db:"message" json:"message"`
	Severity     AlertSeverity `db:"severity" json:"severity"`
	Acknowledged bool          `db:"acknowledged" json:"acknowledged"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}
