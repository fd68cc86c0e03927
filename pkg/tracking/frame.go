package tracking

import (
	"errors"
	"image"
	"image/color"
)

// Frame is a single video frame with known pixel dimensions.
type Frame interface {
	// Size returns the source resolution.
	Size() (width, height int)

	// Sample scales the frame into a width x height RGBA buffer.
	Sample(width, height int) (*image.RGBA, error)
}

// ErrEmptyFrame is returned when a frame has no pixels.
var ErrEmptyFrame = errors.New("empty frame")

// ImageFrame adapts an image.Image to Frame using nearest-neighbor sampling.
type ImageFrame struct {
	img image.Image
}

// NewImageFrame wraps img as a Frame.
func NewImageFrame(img image.Image) *ImageFrame {
	return &ImageFrame{img: img}
}

// Size returns the image dimensions.
func (f *ImageFrame) Size() (int, int) {
	if f.img == nil {
		return 0, 0
	}
	b := f.img.Bounds()
	return b.Dx(), b.Dy()
}

// Sample returns a width x height copy of the frame.
// When the sizes match the pixels are copied one to one.
func (f *ImageFrame) Sample(width, height int) (*image.RGBA, error) {
	srcW, srcH := f.Size()
	if srcW == 0 || srcH == 0 {
		return nil, ErrEmptyFrame
	}
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid sample size")
	}

	b := f.img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	src, isRGBA := f.img.(*image.RGBA)
	for y := 0; y < height; y++ {
		sy := b.Min.Y + y*srcH/height
		for x := 0; x < width; x++ {
			sx := b.Min.X + x*srcW/width
			i := dst.PixOffset(x, y)
			if isRGBA {
				j := src.PixOffset(sx, sy)
				copy(dst.Pix[i:i+4], src.Pix[j:j+4])
				continue
			}
			c := color.RGBAModel.Convert(f.img.At(sx, sy)).(color.RGBA)
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = c.A
		}
	}

	return dst, nil
}
