package video

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/teslashibe/go-ballrunner/pkg/tracking"
)

// Overlay colors
var (
	LockColor  = color.RGBA{R: 74, G: 222, B: 128, A: 255}
	GuideColor = color.RGBA{R: 37, G: 111, B: 64, A: 128} // half-strength lock color
	BarBack    = color.RGBA{R: 0, G: 0, B: 0, A: 160}
)

// DrawOverlay marks a detection on img, which shows the whole source frame at
// any scale: bounding box, a dot at the box center, a dashed vertical guide
// and a confidence bar along the bottom edge. Nothing is drawn for a missed
// detection.
//
// This is the plain renderer for builds and tests without OpenCV; it has no
// font, so the confidence is a bar and the tracker rate is not shown.
// capture.Annotate draws the labelled version.
func DrawOverlay(img *image.RGBA, res tracking.DetectionResult, srcW, srcH int) {
	if !res.Detected || srcW <= 0 || srcH <= 0 {
		return
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	sx := float64(w) / float64(srcW)
	sy := float64(h) / float64(srcH)

	// Box (source pixels scaled to img)
	x1 := b.Min.X + int(res.Box.X1*sx)
	y1 := b.Min.Y + int(res.Box.Y1*sy)
	x2 := b.Min.X + int(res.Box.X2*sx)
	y2 := b.Min.Y + int(res.Box.Y2*sy)
	thick := max(1, w/200)
	strokeRect(img, image.Rect(x1, y1, x2+1, y2+1), thick, LockColor)

	bx, by := res.Box.Center()
	cx := b.Min.X + int(bx*sx)
	cy := b.Min.Y + int(by*sy)

	dash := max(2, h/60)
	for y := b.Min.Y; y < b.Max.Y; y += 2 * dash {
		seg := image.Rect(cx-thick/2, y, cx-thick/2+thick, min(y+dash, b.Max.Y))
		draw.Draw(img, seg.Intersect(b), image.NewUniform(GuideColor), image.Point{}, draw.Over)
	}

	fillCircle(img, cx, cy, max(2, w/40), LockColor)

	// Confidence bar
	barH := max(2, h/40)
	bar := image.Rect(b.Min.X, b.Max.Y-barH, b.Max.X, b.Max.Y)
	draw.Draw(img, bar, image.NewUniform(BarBack), image.Point{}, draw.Over)
	bar.Max.X = b.Min.X + int(res.Confidence*float64(w))
	draw.Draw(img, bar, image.NewUniform(LockColor), image.Point{}, draw.Src)
}

// strokeRect draws the outline of r with the given thickness.
func strokeRect(img *image.RGBA, r image.Rectangle, thick int, c color.Color) {
	src := image.NewUniform(c)
	clip := img.Bounds()
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thick),
		image.Rect(r.Min.X, r.Max.Y-thick, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thick, r.Max.Y),
		image.Rect(r.Max.X-thick, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(clip), src, image.Point{}, draw.Src)
	}
}

func fillCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	clip := img.Bounds()
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			if image.Pt(x, y).In(clip) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// Preview renders an annotated JPEG of frame at the given size.
func Preview(frame tracking.Frame, res tracking.DetectionResult, width, height, quality int) ([]byte, error) {
	img, err := frame.Sample(width, height)
	if err != nil {
		return nil, err
	}
	// Sample may hand back a shared buffer; draw on a copy
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Src)

	srcW, srcH := frame.Size()
	DrawOverlay(canvas, res, srcW, srcH)
	return RGBToJPEG(canvas, quality)
}
