package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"crop-monitor-service/internal/apperr"
)

// httpClassifier talks to the model server over HTTP. The server hosts
// both the fused multimodal model and the image-only disease model.
type httpClassifier struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClassifier builds a Classifier against a model server base URL.
func NewHTTPClassifier(endpoint string) Classifier {
	return &httpClassifier{
		endpoint: strings.TrimRight(endpoint, "/"),
		// Inference can take seconds per invocation.
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *httpClassifier) PredictFused(ctx context.Context, image []byte, features []float32) (Prediction, error) {
	featJSON, err := json.Marshal(features)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: encode features: %v", apperr.ErrInference, err)
	}

	pred, err := c.post(ctx, "/predict/multimodal", image, map[string]string{
		"features": string(featJSON),
	})
	if err != nil {
		return Prediction{}, err
	}
	if err := ValidateFused(pred); err != nil {
		return Prediction{}, err
	}
	return pred, nil
}

func (c *httpClassifier) PredictImage(ctx context.Context, image []byte) (Prediction, error) {
	pred, err := c.post(ctx, "/predict/disease", image, nil)
	if err != nil {
		return Prediction{}, err
	}
	if err := ValidateImageOnly(pred); err != nil {
		return Prediction{}, err
	}
	return pred, nil
}

func (c *httpClassifier) post(ctx context.Context, path string, image []byte, fields map[string]string) (Prediction, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", "image.jpg")
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: build request: %v", apperr.ErrInference, err)
	}
	if _, err := part.Write(image); err != nil {
		return Prediction{}, fmt.Errorf("%w: build request: %v", apperr.ErrInference, err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return Prediction{}, fmt.Errorf("%w: build request: %v", apperr.ErrInference, err)
		}
	}
	if err := writer.Close(); err != nil {
		return Prediction{}, fmt.Errorf("%w: build request: %v", apperr.ErrInference, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, &buf)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: build request: %v", apperr.ErrInference, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: model server unreachable: %v", apperr.ErrInference, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: read response: %v", apperr.ErrInference, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("%w: model server returned %d: %s",
			apperr.ErrInference, resp.StatusCode, string(body))
	}

	var pred Prediction
	if err := json.Unmarshal(body, &pred); err != nil {
		return Prediction{}, fmt.Errorf("%w: malformed response: %v", apperr.ErrInference, err)
	}
	return pred, nil
}
