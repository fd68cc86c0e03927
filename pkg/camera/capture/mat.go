// Package capture reads frames through OpenCV, from local capture devices and
// HTTP snapshot endpoints, and renders the annotated tracker preview.
package capture

import (
	"image"
	"image/draw"
	"sync"

	"github.com/pkg/errors"
	"github.com/teslashibe/go-ballrunner/pkg/tracking"
	"gocv.io/x/gocv"
)

// MatFrame is a BGR OpenCV frame. Sample area-averages down to the working
// resolution, which is steadier for color classification than point sampling.
//
// A MatFrame owns native memory; call Close when done with it.
type MatFrame struct {
	mu  sync.Mutex
	mat gocv.Mat
}

// NewMatFrame takes ownership of mat.
func NewMatFrame(mat gocv.Mat) *MatFrame {
	return &MatFrame{mat: mat}
}

// Size returns the frame dimensions.
func (f *MatFrame) Size() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mat.Empty() {
		return 0, 0
	}
	return f.mat.Cols(), f.mat.Rows()
}

// Sample resizes the frame to width x height and converts it to RGBA.
func (f *MatFrame) Sample(width, height int) (*image.RGBA, error) {
	small, err := f.resized(width, height)
	if err != nil {
		return nil, err
	}
	defer small.Close()

	img, err := small.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "convert frame")
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

// resized returns a new BGR Mat of the frame area-averaged to width x height.
// The caller closes it.
func (f *MatFrame) resized(width, height int) (gocv.Mat, error) {
	if width <= 0 || height <= 0 {
		return gocv.Mat{}, errors.New("invalid sample size")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mat.Empty() {
		return gocv.Mat{}, tracking.ErrEmptyFrame
	}

	small := gocv.NewMat()
	gocv.Resize(f.mat, &small, image.Pt(width, height), 0, 0, gocv.InterpolationArea)
	if small.Empty() {
		small.Close()
		return gocv.Mat{}, errors.New("resize frame failed")
	}
	return small, nil
}

// Close releases the native frame.
func (f *MatFrame) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mat.Close()
}

// DecodeJPEG decodes an encoded image into a MatFrame.
func DecodeJPEG(data []byte) (*MatFrame, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	if mat.Empty() {
		mat.Close()
		return nil, tracking.ErrEmptyFrame
	}
	return NewMatFrame(mat), nil
}
