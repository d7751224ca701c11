package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"decko/internal/content"
)

type LocalStorage struct {
	outputDir string
}

func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{outputDir: outputDir}
}

func (s *LocalStorage) Save(ctx context.Context, name string, img *content.Image) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", fmt.Errorf("save image: empty image")
	}
	if err := s.EnsureDirectories(); err != nil {
		return "", err
	}

	path := filepath.Join(s.outputDir, filepath.Base(withExtension(name, img)))
	if err := os.WriteFile(path, img.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return path, nil
}

func (s *LocalStorage) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.outputDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		images = append(images, filepath.Join(s.outputDir, entry.Name()))
	}
	sort.Strings(images)

	return images, nil
}

func (s *LocalStorage) EnsureDirectories() error {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
