package ai

import (
	"context"

	"crop-monitor-service/internal/models"
)

type mockClassifier struct{}

// NewMock returns a Classifier that answers instantly with a healthy
// prediction. Used for development when no model server is configured.
func NewMock() Classifier {
	return &mockClassifier{}
}

func (m *mockClassifier) PredictFused(ctx context.Context, image []byte, features []float32) (Prediction, error) {
	return Prediction{
		Label:      models.LabelHealthy,
		Confidence: 97.0,
		Probabilities: models.ProbabilityMap{
			models.LabelDiseaseStress:  1.0,
			models.LabelHealthy:        97.0,
			models.LabelNutrientStress: 1.0,
			models.LabelWaterStress:    1.0,
		},
	}, nil
}

func (m *mockClassifier) PredictImage(ctx context.Context, image []byte) (Prediction, error) {
	return Prediction{
		Label:      "Corn___Healthy",
		Confidence: 95.0,
		Probabilities: models.ProbabilityMap{
			"Corn___Healthy":     95.0,
			"Corn___Common_Rust": 5.0,
		},
	}, nil
}
