package storage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestInspect_PNG(t *testing.T) {
	data := pngBytes(t, 40, 20)

	got, err := inspect(ports.Upload{Filename: "banner.txt", ContentType: "text/plain", Body: bytes.NewReader(data)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.contentType != "image/png" || got.ext != ".png" {
		t.Errorf("expected image/png .png, got %s %s", got.contentType, got.ext)
	}
	if got.width != 40 || got.height != 20 {
		t.Errorf("expected 40x20, got %dx%d", got.width, got.height)
	}
}

func TestInspect_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want string
	}{
		{"empty", nil, "required"},
		{"not an image", []byte("<html><body>hi</body></html>"), "png, jpeg"},
		{"too large", append(pngBytes(t, 1, 1), make([]byte, MaxBannerSize)...), "2MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inspect(ports.Upload{Body: bytes.NewReader(tt.body)})
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(verr.Fields["banner_image"], tt.want) {
				t.Errorf("expected message containing %q, got %q", tt.want, verr.Fields["banner_image"])
			}
		})
	}
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"cdn", Config{PublicBaseURL: "https://cdn.devjourney.io/", Bucket: "b"}, "https://cdn.devjourney.io"},
		{"custom endpoint", Config{Endpoint: "http://localhost:9000", Bucket: "banners"}, "http://localhost:9000/banners"},
		{"aws", Config{Bucket: "banners", Region: "eu-west-1"}, "https://banners.s3.eu-west-1.amazonaws.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := publicBaseURL(tt.cfg); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
