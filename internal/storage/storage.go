package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"decko/internal/content"
)

// ImageStore keeps images the user chose to save.
type ImageStore interface {
	Save(ctx context.Context, name string, img *content.Image) (string, error)
	List(ctx context.Context) ([]string, error)
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// NewImageName returns a unique file name such as generated-20250101-120000-1a2b3c4d.png.
func NewImageName(kind string, img *content.Image, now time.Time) string {
	if kind == "" {
		kind = "image"
	}
	id := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%s-%s-%s%s", kind, now.Format("20060102-150405"), id, img.Extension())
}

func isImageFile(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

func withExtension(name string, img *content.Image) string {
	if filepath.Ext(name) != "" {
		return name
	}
	return name + img.Extension()
}
