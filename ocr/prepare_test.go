package ocr

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestDownscale(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"disabled", 400, 200, 0, 400, 200},
		{"already small", 400, 200, 500, 400, 200},
		{"landscape", 400, 200, 100, 100, 50},
		{"portrait", 200, 400, 100, 50, 100},
		{"thin", 1000, 1, 100, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Downscale(image.NewGray(image.Rect(0, 0, tt.w, tt.h)), tt.max).Bounds()
			if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Errorf("Downscale = %dx%d, want %dx%d", got.Dx(), got.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(createTestImage(120, 60), 60)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 30 {
		t.Errorf("encoded size = %dx%d, want 60x30", b.Dx(), b.Dy())
	}
}

func TestEncodePNG_Empty(t *testing.T) {
	if _, err := EncodePNG(nil, 0); err == nil {
		t.Error("EncodePNG(nil) should fail")
	}
	if _, err := EncodePNG(image.NewGray(image.Rect(0, 0, 0, 0)), 0); err == nil {
		t.Error("EncodePNG of an empty image should fail")
	}
}
