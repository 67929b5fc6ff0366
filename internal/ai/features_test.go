package ai

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST SUITE 1: FEATURE VECTOR CONSTRUCTION
// ============================================================================

func TestBuildFeatureVector_OrderAndWidth(t *testing.T) {
	vec := BuildFeatureVector(SensorFeatures{
		N: 30, P: 20, K: 40,
		SoilMoisture:   22,
		AirTemperature: 25,
		Humidity:       60,
		Hour:           0,
		CropType:       "Rice",
	})

	require.Len(t, vec, FeatureDim)
	assert.Equal(t, float32(30), vec[0], "n")
	assert.Equal(t, float32(20), vec[1], "p")
	assert.Equal(t, float32(40), vec[2], "k")
	assert.Equal(t, float32(22), vec[3], "soil moisture")
	assert.Equal(t, float32(25), vec[4], "air temperature")
	assert.Equal(t, float32(60), vec[5], "humidity")
	assert.InDelta(t, 0, vec[6], 1e-6, "sin at midnight")
	assert.InDelta(t, 1, vec[7], 1e-6, "cos at midnight")
}

func TestBuildFeatureVector_CyclicTimeEncoding(t *testing.T) {
	noon := BuildFeatureVector(SensorFeatures{Hour: 12})
	assert.InDelta(t, 0, noon[6], 1e-6, "sin at noon")
	assert.InDelta(t, -1, noon[7], 1e-6, "cos at noon")

	six := BuildFeatureVector(SensorFeatures{Hour: 6})
	assert.InDelta(t, 1, six[6], 1e-6, "sin at 06:00")
	assert.InDelta(t, 0, six[7], 1e-6, "cos at 06:00")

	// 23:30 and 00:30 should encode close together.
	late := BuildFeatureVector(SensorFeatures{Hour: 23.5})
	early := BuildFeatureVector(SensorFeatures{Hour: 0.5})
	assert.InDelta(t, float64(early[6]), -float64(late[6]), 1e-5)
	assert.InDelta(t, float64(early[7]), float64(late[7]), 1e-5)
}

func TestBuildFeatureVector_CropOneHot(t *testing.T) {
	cases := []struct {
		crop string
		want []float32
	}{
		{"Corn", []float32{1, 0, 0, 0}},
		{"Potato", []float32{0, 1, 0, 0}},
		{"Rice", []float32{0, 0, 1, 0}},
		{"Wheat", []float32{0, 0, 0, 1}},
	}
	for _, c := range cases {
		vec := BuildFeatureVector(SensorFeatures{CropType: c.crop})
		assert.Equal(t, c.want, vec[8:], c.crop)
	}
}

func TestBuildFeatureVector_UnknownCropAllZeros(t *testing.T) {
	vec := BuildFeatureVector(SensorFeatures{CropType: "Barley"})

	assert.Equal(t, []float32{0, 0, 0, 0}, vec[8:], "Unseen crop encodes as no category")
}

// ============================================================================
// TEST SUITE 2: SCALER
// ============================================================================

func TestIdentityScaler_PassesThrough(t *testing.T) {
	vec := BuildFeatureVector(SensorFeatures{N: 30, P: 20, K: 40, Hour: 9, CropType: "Corn"})
	original := append([]float32(nil), vec...)

	scaled := IdentityScaler().Transform(vec)

	assert.Equal(t, original, scaled)
}

func TestScalerTransform_StandardScaling(t *testing.T) {
	s := IdentityScaler()
	s.Mean[0] = 50
	s.Std[0] = 10

	vec := make([]float32, FeatureDim)
	vec[0] = 30
	scaled := s.Transform(vec)

	assert.InDelta(t, -2.0, scaled[0], 1e-6, "(30-50)/10")
}

func TestScalerTransform_ZeroStdTreatedAsOne(t *testing.T) {
	s := IdentityScaler()
	s.Mean[2] = 1
	s.Std[2] = 0

	vec := make([]float32, FeatureDim)
	vec[2] = 3
	scaled := s.Transform(vec)

	assert.InDelta(t, 2.0, scaled[2], 1e-6, "Zero std must not divide by zero")
}

func TestFeatureDim_CoversCropTypes(t *testing.T) {
	assert.Equal(t, 12, FeatureDim)
}

func TestBuildFeatureVector_SinCosStayBounded(t *testing.T) {
	for h := 0.0; h < 24; h += 0.5 {
		vec := BuildFeatureVector(SensorFeatures{Hour: h})
		norm := float64(vec[6])*float64(vec[6]) + float64(vec[7])*float64(vec[7])
		assert.InDelta(t, 1.0, norm, 1e-5, "hour %.1f", h)
		assert.LessOrEqual(t, math.Abs(float64(vec[6])), 1.0)
	}
}
