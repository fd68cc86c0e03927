package capture

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-ballrunner/pkg/tracking"
)

// Overlay colors
var (
	lockColor  = color.RGBA{R: 74, G: 222, B: 128, A: 255}
	guideColor = color.RGBA{R: 37, G: 111, B: 64, A: 255}
	textColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Annotate draws the tracker state onto img, a BGR frame showing the whole
// srcW x srcH source at any scale. A detection gets its bounding box, a dot
// at the box center, a dashed vertical guide and a "Ball: N%" label. The
// tracker rate is always written in the top-left corner.
func Annotate(img *gocv.Mat, res tracking.DetectionResult, srcW, srcH int, fps float64) {
	w, h := img.Cols(), img.Rows()

	if res.Detected && srcW > 0 && srcH > 0 {
		sx := float64(w) / float64(srcW)
		sy := float64(h) / float64(srcH)

		box := image.Rect(int(res.Box.X1*sx), int(res.Box.Y1*sy), int(res.Box.X2*sx), int(res.Box.Y2*sy))
		thick := max(1, w/200)
		gocv.Rectangle(img, box, lockColor, thick)

		bx, by := res.Box.Center()
		cx, cy := int(bx*sx), int(by*sy)

		dash := max(2, h/60)
		for y := 0; y < h; y += 2 * dash {
			gocv.Line(img, image.Pt(cx, y), image.Pt(cx, min(y+dash, h-1)), guideColor, thick)
		}

		gocv.Circle(img, image.Pt(cx, cy), max(2, w/40), lockColor, -1)

		label := fmt.Sprintf("Ball: %.0f%%", res.Confidence*100)
		gocv.PutText(img, label, image.Pt(box.Min.X, max(12, box.Min.Y-5)),
			gocv.FontHersheySimplex, 0.4, lockColor, 1)
	}

	gocv.PutText(img, fmt.Sprintf("FPS: %.1f", fps), image.Pt(10, 20),
		gocv.FontHersheyPlain, 1, textColor, 1)
}

// Preview renders an annotated JPEG of frame at width x height. MatFrames are
// resized natively; any other frame is sampled and converted first.
func Preview(frame tracking.Frame, res tracking.DetectionResult, fps float64, width, height, quality int) ([]byte, error) {
	canvas, err := previewMat(frame, width, height)
	if err != nil {
		return nil, err
	}
	defer canvas.Close()

	srcW, srcH := frame.Size()
	Annotate(&canvas, res, srcW, srcH, fps)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, canvas, []int{int(gocv.IMWriteJpegQuality), quality})
	if err != nil {
		return nil, errors.Wrap(err, "encode preview")
	}
	defer buf.Close()

	// The buffer lives in native memory
	return append([]byte(nil), buf.GetBytes()...), nil
}

func previewMat(frame tracking.Frame, width, height int) (gocv.Mat, error) {
	if mf, ok := frame.(*MatFrame); ok {
		return mf.resized(width, height)
	}

	img, err := frame.Sample(width, height)
	if err != nil {
		return gocv.Mat{}, err
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, errors.Wrap(err, "convert preview")
	}
	return mat, nil
}
