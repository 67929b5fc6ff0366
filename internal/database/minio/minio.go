package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"crop-monitor-service/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DroneImagesBucket holds every uploaded field image.
const DroneImagesBucket = "drone-images"

// ImageStore wraps the MinIO client for drone image persistence.
type ImageStore struct {
	client *minio.Client
	config config.MinioConfig
}

// NewImageStore initializes the MinIO client and ensures the image
// bucket exists.
func NewImageStore(cfg config.MinioConfig) (*ImageStore, error) {
	endpoint := strings.TrimPrefix(cfg.MinioURL, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	isSecure, err := strconv.ParseBool(cfg.MinioSecure)
	if err != nil {
		log.Printf("[minio] invalid secure flag: %v, defaulting to false", err)
		isSecure = false
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: isSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, DroneImagesBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO server: %w", err)
	}
	if !exists {
		err := client.MakeBucket(ctx, DroneImagesBucket, minio.MakeBucketOptions{
			Region: cfg.MinioLocation,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", DroneImagesBucket, err)
		}
		log.Printf("[minio] created bucket %s", DroneImagesBucket)
	}

	log.Printf("[minio] connected to %s", cfg.MinioURL)
	return &ImageStore{client: client, config: cfg}, nil
}

// Save writes the image bytes under the given object name and returns
// the stored name.
func (s *ImageStore) Save(ctx context.Context, data []byte, name string) (string, error) {
	_, err := s.client.PutObject(ctx, DroneImagesBucket, name,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentTypeFor(name)})
	if err != nil {
		return "", fmt.Errorf("failed to store image %s: %w", name, err)
	}
	return name, nil
}

// Exists reports whether an object with the given name is stored.
func (s *ImageStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.StatObject(ctx, DroneImagesBucket, name, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat image %s: %w", name, err)
	}
	return true, nil
}

// Read returns the stored image bytes.
func (s *ImageStore) Read(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, DroneImagesBucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get image %s: %w", name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", name, err)
	}
	return data, nil
}

func contentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	default:
		return "image/jpeg"
	}
}
