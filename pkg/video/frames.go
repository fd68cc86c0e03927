// Package video encodes tracker preview frames and screens out blank ones.
package video

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
)

// ErrBlankFrame is returned for frames that carry no picture (camera warming
// up, lens covered, placeholder gray).
var ErrBlankFrame = errors.New("blank frame")

// IsBlankJPEG checks if a JPEG is likely gray, black or corrupt.
func IsBlankJPEG(jpegData []byte) bool {
	if len(jpegData) < 100 {
		return true
	}
	img, err := jpeg.Decode(bytes.NewReader(jpegData))
	if err != nil {
		return true
	}
	return IsBlank(img)
}

// IsBlank samples a 10x10 grid and reports frames that are near-black or
// uniform mid-gray.
func IsBlank(img image.Image) bool {
	bounds := img.Bounds()
	if bounds.Dx() < 10 || bounds.Dy() < 10 {
		return true
	}

	var rSum, gSum, bSum int
	samples := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += bounds.Dy() / 10 {
		for x := bounds.Min.X; x < bounds.Max.X; x += bounds.Dx() / 10 {
			r, g, b, _ := img.At(x, y).RGBA()
			rSum += int(r >> 8)
			gSum += int(g >> 8)
			bSum += int(b >> 8)
			samples++
		}
	}

	avgR := rSum / samples
	avgG := gSum / samples
	avgB := bSum / samples

	if avgR < 30 && avgG < 30 && avgB < 30 {
		return true
	}

	// Uniform gray (R = G = B)
	colorDiff := abs(avgR-avgG) + abs(avgG-avgB) + abs(avgR-avgB)
	return colorDiff < 15 && avgR > 100 && avgR < 150
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// RGBToJPEG converts an RGBA image to JPEG bytes.
func RGBToJPEG(img *image.RGBA, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
