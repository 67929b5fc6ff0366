package services

import (
	"fmt"
	"strings"

	"crop-monitor-service/internal/config"
	"crop-monitor-service/internal/models"

	"github.com/google/uuid"
)

// ReadingValues are the four monitored quantities of one reading.
type ReadingValues struct {
	N            float64
	P            float64
	K            float64
	SoilMoisture float64
}

// AlertEngine evaluates readings and classification results against the
// configured thresholds. It is stateless and deterministic; it returns
// the alerts to queue and leaves persistence to the caller's
// transaction.
type AlertEngine struct {
	thresholds         config.AlertConfig
	criticalConfidence float64
}

func NewAlertEngine(thresholds config.AlertConfig, criticalConfidence float64) *AlertEngine {
	return &AlertEngine{
		thresholds:         thresholds,
		criticalConfidence: criticalConfidence,
	}
}

// FromReading checks each monitored quantity independently: below
// critical raises a critical alert, otherwise below low raises a
// warning. A single reading can produce zero to four alerts.
func (e *AlertEngine) FromReading(sensorID uuid.UUID, values ReadingValues) []models.Alert {
	checks := []struct {
		label string
		value float64
		pair  config.ThresholdPair
	}{
		{"Nitrogen", values.N, e.thresholds.Nitrogen},
		{"Phosphorus", values.P, e.thresholds.Phosphorus},
		{"Potassium", values.K, e.thresholds.Potassium},
		{"Soil moisture", values.SoilMoisture, e.thresholds.SoilMoisture},
	}

	var alerts []models.Alert
	for _, c := range checks {
		switch {
		case c.value < c.pair.Critical:
			alerts = append(alerts, models.Alert{
				SensorID:  sensorID,
				AlertType: models.AlertSensorThreshold,
				Message:   fmt.Sprintf("Critical: %s = %.1f (below %g)", c.label, c.value, c.pair.Critical),
				Severity:  models.SeverityCritical,
			})
		case c.value < c.pair.Low:
			alerts = append(alerts, models.Alert{
				SensorID:  sensorID,
				AlertType: models.AlertSensorThreshold,
				Message:   fmt.Sprintf("Warning: %s = %.1f (below %g)", c.label, c.value, c.pair.Low),
				Severity:  models.SeverityWarning,
			})
		}
	}
	return alerts
}

// conditionAlertTypes maps prediction labels to alert types; labels
// outside the map carry through as their own type.
var conditionAlertTypes = map[string]string{
	models.LabelDiseaseStress:  models.AlertDiseaseStress,
	models.LabelNutrientStress: models.AlertNutrientLow,
	models.LabelWaterStress:    models.AlertWaterStress,
}

// FromPrediction raises exactly one alert for any non-healthy label:
// critical when confidence exceeds the configured cutoff, warning
// otherwise. Healthy predictions never alert.
func (e *AlertEngine) FromPrediction(sensorID uuid.UUID, label string, confidence float64) []models.Alert {
	if label == models.LabelHealthy {
		return nil
	}

	severity := models.SeverityWarning
	if confidence > e.criticalConfidence {
		severity = models.SeverityCritical
	}

	alertType, ok := conditionAlertTypes[label]
	if !ok {
		alertType = label
	}

	return []models.Alert{{
		SensorID:  sensorID,
		AlertType: alertType,
		Message:   fmt.Sprintf("%s detected with %.1f%% confidence", titleCase(label), confidence),
		Severity:  severity,
	}}
}

// titleCase renders a snake_case label as a readable heading, e.g.
// "disease_stress" -> "Disease Stress".
func titleCase(label string) string {
	words := strings.Split(strings.ReplaceAll(label, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
