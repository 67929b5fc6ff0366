package models

// SensorStatus represents the liveness state of a zone sensor.
type SensorStatus string

const (
	SensorActive  SensorStatus = "active"
	SensorError   SensorStatus = "error"
	SensorOffline SensorStatus = "offline"
)

// IsValidSensorStatus checks operator-supplied status values.
func IsValidSensorStatus(s SensorStatus) bool {
	switch s {
	case SensorActive, SensorError, SensorOffline:
		return true
	default:
		return false
	}
}

// AlertSeverity is the two-level severity of an alert.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// ModelType discriminates the two classification variants.
type ModelType string

const (
	// ModelMultimodal is the fused image+sensor model over the fixed
	// four-label condition set.
	ModelMultimodal ModelType = "multimodal"
	// ModelVitDisease is the image-only disease classifier with its own
	// larger label set.
	ModelVitDisease ModelType = "vit_disease"
)

// Condition labels produced by the fused model. "healthy" never raises
// an alert.
const (
	LabelHealthy        = "healthy"
	LabelDiseaseStress  = "disease_stress"
	LabelNutrientStress = "nutrient_stress"
	LabelWaterStress    = "water_stress"
)

// FusedLabels is the full label set of the fused model, alphabetical.
var FusedLabels = []string{
	LabelDiseaseStress,
	LabelHealthy,
	LabelNutrientStress,
	LabelWaterStress,
}

// CropTypes are the crop categories the fused model was trained on;
// the order fixes the one-hot encoding.
var CropTypes = []string{"Corn", "Potato", "Rice", "Wheat"}

// Alert types.
const (
	AlertSensorThreshold = "sensor_threshold"
	AlertDiseaseStress   = "disease_stress"
	AlertNutrientLow     = "nutrient_low"
	AlertWaterStress     = "water_stress"
)
