package content

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

const DefaultImageMIMEType = "image/png"

var ErrInvalidDataURL = errors.New("invalid data url")

type Image struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
}

// ContentType is the MIME type, defaulting to image/png.
func (img *Image) ContentType() string {
	if img.MIMEType == "" {
		return DefaultImageMIMEType
	}
	return img.MIMEType
}

// DataURL encodes the image as data:<mime>;base64,<payload>.
func (img *Image) DataURL() string {
	return "data:" + img.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func (img *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// Extension picks a file extension for the image's MIME type.
func (img *Image) Extension() string {
	switch img.ContentType() {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".png"
}

func ParseDataURL(s string) (*Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return nil, ErrInvalidDataURL
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrInvalidDataURL
	}

	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, fmt.Errorf("%w: payload is not base64", ErrInvalidDataURL)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidDataURL)
	}

	if mime == "" {
		mime = http.DetectContentType(data)
	}

	return &Image{Data: data, MIMEType: mime}, nil
}

// NewImage sniffs the MIME type when the caller does not know it.
func NewImage(data []byte, name string) *Image {
	mime := mimeFromExt(filepath.Ext(name))
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return &Image{Data: data, MIMEType: mime}
}

func mimeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	}
	return ""
}
