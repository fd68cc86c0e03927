package tracking

import (
	"image"
	"image/color"
	"testing"
)

func TestImageFrame_SampleSameSize(t *testing.T) {
	img := blankImage(4, 4)
	img.SetRGBA(2, 1, orange)

	out, err := NewImageFrame(img).Sample(4, 4)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if out.RGBAAt(2, 1) != orange {
		t.Errorf("Expected pixel copied, got %v", out.RGBAAt(2, 1))
	}
}

func TestImageFrame_SampleNonRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 30, 30)) // non-zero origin
	img.Set(20, 20, orange)

	out, err := NewImageFrame(img).Sample(10, 10)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 10, 10) {
		t.Errorf("Expected 10x10 buffer, got %v", out.Bounds())
	}
	// (5,5) in the buffer maps to (20,20) in the source
	if got := out.RGBAAt(5, 5); got != (color.RGBA{R: 255, G: 100, B: 0, A: 255}) {
		t.Errorf("Expected orange at (5,5), got %v", got)
	}
}

func TestImageFrame_Errors(t *testing.T) {
	if _, err := NewImageFrame(nil).Sample(10, 10); err != ErrEmptyFrame {
		t.Errorf("Expected ErrEmptyFrame for nil image, got %v", err)
	}
	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if _, err := NewImageFrame(empty).Sample(10, 10); err != ErrEmptyFrame {
		t.Errorf("Expected ErrEmptyFrame for empty image, got %v", err)
	}
	if _, err := NewImageFrame(blankImage(4, 4)).Sample(0, 4); err == nil {
		t.Error("Expected error for zero sample width")
	}
}
