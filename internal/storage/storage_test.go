package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"decko/internal/content"
)

func TestLocalStorageSave(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		img      *content.Image
		wantBase string
		wantErr  bool
	}{
		{
			name:     "addsExtension",
			fileName: "poster",
			img:      &content.Image{Data: []byte("png"), MIMEType: "image/png"},
			wantBase: "poster.png",
		},
		{
			name:     "keepsExtension",
			fileName: "poster.jpg",
			img:      &content.Image{Data: []byte("jpg"), MIMEType: "image/jpeg"},
			wantBase: "poster.jpg",
		},
		{
			name:     "stripsDirectories",
			fileName: "../../escape",
			img:      &content.Image{Data: []byte("png")},
			wantBase: "escape.png",
		},
		{
			name:     "emptyImage",
			fileName: "x",
			img:      &content.Image{},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			s := NewLocalStorage(dir)

			path, err := s.Save(context.Background(), tt.fileName, tt.img)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Save() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if path != filepath.Join(dir, tt.wantBase) {
				t.Errorf("Save() path = %q, want %q", path, filepath.Join(dir, tt.wantBase))
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != string(tt.img.Data) {
				t.Errorf("file contents = %q", data)
			}
		})
	}
}

func TestLocalStorageList(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)

	for _, name := range []string{"b.png", "a.JPG", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.png"), 0755); err != nil {
		t.Fatal(err)
	}

	images, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{filepath.Join(dir, "a.JPG"), filepath.Join(dir, "b.png")}
	if len(images) != len(want) {
		t.Fatalf("List() = %v, want %v", images, want)
	}
	for i := range want {
		if images[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, images[i], want[i])
		}
	}
}

func TestLocalStorageListMissingDir(t *testing.T) {
	s := NewLocalStorage("/nonexistent/dir")

	images, err := s.List(context.Background())
	if err != nil {
		t.Errorf("List() error = %v", err)
	}
	if len(images) != 0 {
		t.Errorf("List() = %v, want empty", images)
	}
}

func TestNewImageName(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	img := &content.Image{MIMEType: "image/jpeg"}

	name := NewImageName("edited", img, now)
	if !strings.HasPrefix(name, "edited-20250314-092653-") {
		t.Errorf("NewImageName() = %q", name)
	}
	if filepath.Ext(name) != img.Extension() {
		t.Errorf("NewImageName() ext = %q, want %q", filepath.Ext(name), img.Extension())
	}
	if NewImageName("edited", img, now) == name {
		t.Error("NewImageName() should be unique")
	}
	if !strings.HasPrefix(NewImageName("", img, now), "image-") {
		t.Error("empty kind should default to image")
	}
}

func TestGCSObjectName(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "", want: "a.png"},
		{prefix: "images", want: "images/a.png"},
	}

	for _, tt := range tests {
		s := &GCSStorage{prefix: tt.prefix}
		if got := s.objectName("a.png"); got != tt.want {
			t.Errorf("objectName() with prefix %q = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}
