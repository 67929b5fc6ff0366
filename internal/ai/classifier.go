// Package ai defines the boundary to the external classification model:
// the feature-construction contract for the fused model, and the two
// invocation shapes it exposes.
package ai

import (
	"context"
	"fmt"
	"math"

	"crop-monitor-service/internal/apperr"
	"crop-monitor-service/internal/models"
)

// probSumTolerance bounds rounding drift in a probability mapping that
// should total 100%.
const probSumTolerance = 0.5

// Prediction is one classifier invocation outcome. Confidence and the
// probability values are percentages.
type Prediction struct {
	Label         string                `json:"prediction"`
	Confidence    float64               `json:"confidence"`
	Probabilities models.ProbabilityMap `json:"all_probs"`
}

// Classifier is the external model contract. Both calls are synchronous,
// potentially slow, and side-effect-free.
type Classifier interface {
	// PredictFused classifies from an image combined with the scaled
	// sensor feature vector. Labels are drawn from models.FusedLabels.
	PredictFused(ctx context.Context, image []byte, features []float32) (Prediction, error)

	// PredictImage classifies from the image alone, over the model's own
	// larger label set.
	PredictImage(ctx context.Context, image []byte) (Prediction, error)
}

// ValidateFused checks a fused prediction against the fixed label set:
// every label present, nothing extra, probabilities totalling ~100.
func ValidateFused(p Prediction) error {
	if len(p.Probabilities) != len(models.FusedLabels) {
		return fmt.Errorf("%w: expected %d labels, got %d",
			apperr.ErrInference, len(models.FusedLabels), len(p.Probabilities))
	}
	for _, label := range models.FusedLabels {
		if _, ok := p.Probabilities[label]; !ok {
			return fmt.Errorf("%w: probability mapping missing label %q", apperr.ErrInference, label)
		}
	}
	return validateSum(p)
}

// ValidateImageOnly checks the looser image-only contract: a non-empty
// mapping totalling ~100 that contains the predicted label.
func ValidateImageOnly(p Prediction) error {
	if len(p.Probabilities) == 0 {
		return fmt.Errorf("%w: empty probability mapping", apperr.ErrInference)
	}
	if _, ok := p.Probabilities[p.Label]; !ok {
		return fmt.Errorf("%w: predicted label %q absent from probability mapping", apperr.ErrInference, p.Label)
	}
	return validateSum(p)
}

func validateSum(p Prediction) error {
	var sum float64
	for _, v := range p.Probabilities {
		sum += v
	}
	if math.Abs(sum-100.0) > probSumTolerance {
		return fmt.Errorf("%w: probabilities sum to %.2f, expected 100", apperr.ErrInference, sum)
	}
	return nil
}
