package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"crop-monitor-service/internal/models"
)

// FeatureDim is the fused model's input width: 8 numeric values plus a
// one-hot slot per crop type.
var FeatureDim = 8 + len(models.CropTypes)

// SensorFeatures are the raw numeric inputs of the fused model, in the
// order the model was trained with.
type SensorFeatures struct {
	N              float64
	P              float64
	K              float64
	SoilMoisture   float64
	AirTemperature float64
	Humidity       float64
	// Hour is time-of-day in [0, 24), encoded cyclically below.
	Hour     float64
	CropType string
}

// BuildFeatureVector assembles the unscaled feature vector: the six
// sensor/ambient values, the sine/cosine pair for time of day, then the
// one-hot crop encoding. An unknown crop type encodes as all zeros, the
// same as an unseen category at training time.
func BuildFeatureVector(f SensorFeatures) []float32 {
	sinTime := math.Sin(2 * math.Pi * f.Hour / 24)
	cosTime := math.Cos(2 * math.Pi * f.Hour / 24)

	vec := make([]float32, 0, FeatureDim)
	for _, v := range []float64{
		f.N, f.P, f.K,
		f.SoilMoisture, f.AirTemperature, f.Humidity,
		sinTime, cosTime,
	} {
		vec = append(vec, float32(v))
	}
	for _, crop := range models.CropTypes {
		if f.CropType == crop {
			vec = append(vec, 1)
		} else {
			vec = append(vec, 0)
		}
	}
	return vec
}

// Scaler holds the fitted standard-scaler parameters the fused model was
// trained with. Features are transformed as (x - mean) / std.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// LoadScaler reads fitted scaler parameters from a JSON file.
func LoadScaler(path string) (*Scaler, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scaler params %s: %w", path, err)
	}
	var s Scaler
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scaler params %s: %w", path, err)
	}
	if len(s.Mean) != FeatureDim || len(s.Std) != FeatureDim {
		return nil, fmt.Errorf("scaler params %s: expected %d dims, got mean=%d std=%d",
			path, FeatureDim, len(s.Mean), len(s.Std))
	}
	return &s, nil
}

// IdentityScaler passes features through unchanged. Used when no fitted
// parameters are available.
func IdentityScaler() *Scaler {
	mean := make([]float64, FeatureDim)
	std := make([]float64, FeatureDim)
	for i := range std {
		std[i] = 1
	}
	return &Scaler{Mean: mean, Std: std}
}

// Transform scales a feature vector in place and returns it.
func (s *Scaler) Transform(vec []float32) []float32 {
	for i := range vec {
		if i >= len(s.Mean) {
			break
		}
		std := s.Std[i]
		if std == 0 {
			std = 1
		}
		vec[i] = float32((float64(vec[i]) - s.Mean[i]) / std)
	}
	return vec
}
