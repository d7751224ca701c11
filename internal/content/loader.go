package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"decko/pkg/httputil"
)

// MaxImageBytes bounds source images accepted for editing.
const MaxImageBytes = 20 << 20

type Loader struct {
	http *httputil.RetryClient
}

func NewLoader(client *httputil.RetryClient) *Loader {
	if client == nil {
		client = httputil.NewRetryClient(nil, httputil.DefaultRetryConfig())
	}
	return &Loader{http: client}
}

// Load resolves ref as a data URL, an http(s) URL or a local file path.
func (l *Loader) Load(ctx context.Context, ref string) (*Image, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, fmt.Errorf("empty image reference")
	case strings.HasPrefix(ref, "data:"):
		img, err := ParseDataURL(ref)
		if err != nil {
			return nil, err
		}
		return img, CheckImage(img)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.loadURL(ctx, ref)
	default:
		return loadFile(ref)
	}
}

func (l *Loader) loadURL(ctx context.Context, url string) (*Image, error) {
	data, mime, err := l.http.GetBytes(ctx, url, MaxImageBytes)
	if err != nil {
		return nil, err
	}

	img := NewImage(data, url)
	if strings.HasPrefix(mime, "image/") {
		img.MIMEType = strings.TrimSpace(strings.Split(mime, ";")[0])
	}
	if err := CheckImage(img); err != nil {
		return nil, err
	}
	return img, nil
}

func loadFile(path string) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}
	if info.Size() > MaxImageBytes {
		return nil, fmt.Errorf("image %s is larger than %d bytes", filepath.Base(path), MaxImageBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	img := NewImage(data, path)
	if err := CheckImage(img); err != nil {
		return nil, err
	}
	return img, nil
}

// CheckImage rejects empty payloads and non-image MIME types.
func CheckImage(img *Image) error {
	if len(img.Data) == 0 {
		return fmt.Errorf("image is empty")
	}
	if !strings.HasPrefix(img.MIMEType, "image/") {
		return fmt.Errorf("unsupported image type %q", img.MIMEType)
	}
	return nil
}
