package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"decko/internal/content"
)

type GCSStorage struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSStorage(ctx context.Context, bucket, prefix string) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *GCSStorage) Save(ctx context.Context, name string, img *content.Image) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", fmt.Errorf("save image: empty image")
	}

	object := s.objectName(filepath.Base(withExtension(name, img)))
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = img.ContentType()

	if _, err := w.Write(img.Data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}

func (s *GCSStorage) List(ctx context.Context) ([]string, error) {
	query := &storage.Query{}
	if s.prefix != "" {
		query.Prefix = s.prefix + "/"
	}

	var images []string
	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		if isImageFile(attrs.Name) {
			images = append(images, fmt.Sprintf("gs://%s/%s", s.bucket, attrs.Name))
		}
	}

	return images, nil
}
