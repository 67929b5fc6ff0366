package services

import (
	"context"
	"fmt"
	"time"

	"crop-monitor-service/internal/ai"
	"crop-monitor-service/internal/apperr"
	"crop-monitor-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type imageRecordReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.DroneImage, error)
}

type analysisFinder interface {
	Create(ctx context.Context, ext sqlx.ExtContext, result *models.AnalysisResult) error
	FindByImageAndModel(ctx context.Context, imageID uuid.UUID, modelType models.ModelType) (*models.AnalysisResult, error)
	ListByModel(ctx context.Context, modelType models.ModelType, limit int) ([]models.AnalysisResult, error)
}

type blobReader interface {
	Exists(ctx context.Context, name string) (bool, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// AnalysisService runs standalone image-only disease classification on
// stored images, independently of the ingestion pipeline.
type AnalysisService struct {
	images     imageRecordReader
	analyses   analysisFinder
	blobs      blobReader
	classifier ai.Classifier
	db         sqlx.ExtContext
}

func NewAnalysisService(images imageRecordReader, analyses analysisFinder, blobs blobReader, classifier ai.Classifier, db sqlx.ExtContext) *AnalysisService {
	return &AnalysisService{
		images:     images,
		analyses:   analyses,
		blobs:      blobs,
		classifier: classifier,
		db:         db,
	}
}

// ClassifyImage runs the image-only model against a stored image.
// Re-requesting an image already classified with this model returns the
// stored result instead of recomputing.
func (s *AnalysisService) ClassifyImage(ctx context.Context, imageID uuid.UUID) (*models.AnalysisResult, error) {
	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return nil, err
	}

	existing, err := s.analyses.FindByImageAndModel(ctx, imageID, models.ModelVitDisease)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	stored, err := s.blobs.Exists(ctx, img.ObjectName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	if !stored {
		return nil, fmt.Errorf("%w: image object %s missing from store", apperr.ErrNotFound, img.ObjectName)
	}

	data, err := s.blobs.Read(ctx, img.ObjectName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}

	prediction, err := s.classifier.PredictImage(ctx, data)
	if err != nil {
		return nil, err
	}

	result := models.AnalysisResult{
		DroneImageID:  imageID,
		ModelType:     models.ModelVitDisease,
		Prediction:    prediction.Label,
		Confidence:    prediction.Confidence,
		Probabilities: prediction.Probabilities,
		AnalyzedAt:    time.Now(),
	}
	if err := s.analyses.Create(ctx, s.db, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListDiseaseResults returns past image-only results, newest first.
func (s *AnalysisService) ListDiseaseResults(ctx context.Context, limit int) ([]models.AnalysisResult, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.analyses.ListByModel(ctx, models.ModelVitDisease, limit)
}
