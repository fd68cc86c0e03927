package tracking

import (
	"errors"
	"image"
	"image/color"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

var orange = color.RGBA{R: 255, G: 100, B: 0, A: 255}

// blankImage returns a black w x h image.
func blankImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// paint fills n pixels of a square block starting at (x0, y0), row by row.
func paint(img *image.RGBA, x0, y0, side, n int) {
	for i := 0; i < n; i++ {
		img.SetRGBA(x0+i%side, y0+i/side, orange)
	}
}

func newTestTracker(t *testing.T, cfg Config) *Tracker {
	t.Helper()
	tr, err := NewTracker(cfg)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	return tr
}

func TestNewTracker_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinPixels = 0

	if _, err := NewTracker(cfg); err == nil {
		t.Error("Expected error for invalid config")
	}
}

func TestNewTracker_ClampsSmoothingFactor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SmoothingFactor = 0.01

	tr := newTestTracker(t, cfg)
	if got := tr.Config().SmoothingFactor; got != MinSmoothingFactor {
		t.Errorf("Expected SmoothingFactor=%v, got %v", MinSmoothingFactor, got)
	}
}

func TestTrack_NoTargetPixels(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())

	res := tr.Track(NewImageFrame(blankImage(160, 120)))
	if res.Detected {
		t.Error("Expected no detection on a blank frame")
	}
	if res.Confidence != 0 {
		t.Errorf("Expected Confidence=0, got %v", res.Confidence)
	}
}

func TestTrack_MinPixelBoundary(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		pixels int
		want   bool
	}{
		{"exactly min", cfg.MinPixels, true},
		{"one fewer", cfg.MinPixels - 1, false},
		{"single pixel", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTracker(t, cfg)
			img := blankImage(cfg.WorkWidth, cfg.WorkHeight)
			paint(img, 70, 50, 5, tt.pixels)

			res := tr.Track(NewImageFrame(img))
			if res.Detected != tt.want {
				t.Errorf("Expected Detected=%v with %d pixels, got %v", tt.want, tt.pixels, res.Detected)
			}
		})
	}
}

func TestTrack_WrappedHueDetected(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())

	img := blankImage(160, 120)
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 0, B: 21, A: 255}) // hue ~355
		}
	}

	if res := tr.Track(NewImageFrame(img)); !res.Detected {
		t.Error("Expected hue 355 blob to be detected")
	}
}

func TestTrack_CentroidBoxAndConfidence(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())

	// 320x240 source, sampled 2:1 onto the 160x120 working buffer
	img := blankImage(320, 240)
	for y := 60; y < 100; y++ {
		for x := 100; x < 140; x++ {
			img.SetRGBA(x, y, orange)
		}
	}

	res := tr.Track(NewImageFrame(img))
	if !res.Detected {
		t.Fatal("Expected detection")
	}

	// Working buffer covers x 50..69, y 30..49 (400 pixels)
	approx := func(name string, got, want float64) {
		t.Helper()
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	approx("X", res.X, 59.5/160)
	approx("Y", res.Y, 39.5/120)
	approx("Width", res.Width, 19.0/160)
	approx("Height", res.Height, 19.0/120)
	approx("Confidence", res.Confidence, 400.0/2000)
	approx("Box.X1", res.Box.X1, 100)
	approx("Box.Y1", res.Box.Y1, 60)
	approx("Box.X2", res.Box.X2, 138)
	approx("Box.Y2", res.Box.Y2, 98)
}

func TestTrack_ConfidenceSaturates(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())

	img := blankImage(160, 120)
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			img.SetRGBA(x, y, orange)
		}
	}

	if res := tr.Track(NewImageFrame(img)); res.Confidence != 1 {
		t.Errorf("Expected Confidence=1, got %v", res.Confidence)
	}
}

func TestTrack_SmoothingConvergesWithoutOvershoot(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())

	left := blankImage(160, 120)
	paint(left, 10, 50, 10, 100)
	first := tr.Track(NewImageFrame(left))
	if !first.Detected {
		t.Fatal("Expected first detection")
	}

	right := blankImage(160, 120)
	paint(right, 140, 50, 10, 100)
	target := 144.5 / 160

	prevErr := math.Abs(first.X - target)
	for i := 0; i < 20; i++ {
		res := tr.Track(NewImageFrame(right))
		if res.X > target {
			t.Fatalf("cycle %d overshot: X=%v target=%v", i, res.X, target)
		}
		e := math.Abs(res.X - target)
		if e >= prevErr {
			t.Fatalf("cycle %d error did not decrease: %v >= %v", i, e, prevErr)
		}
		prevErr = e
	}
	if prevErr > 0.01 {
		t.Errorf("Expected convergence, error still %v", prevErr)
	}
}

func TestTrack_FirstDetectionUnsmoothed(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())

	img := blankImage(160, 120)
	paint(img, 140, 50, 10, 100)

	// A miss before the detection leaves nothing to blend with
	tr.Track(NewImageFrame(blankImage(160, 120)))
	res := tr.Track(NewImageFrame(img))

	if math.Abs(res.X-144.5/160) > 1e-9 {
		t.Errorf("Expected raw X=%v, got %v", 144.5/160, res.X)
	}
}

func TestTrack_MissFreezesPosition(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())

	img := blankImage(160, 120)
	paint(img, 40, 40, 10, 100)
	hit := tr.Track(NewImageFrame(img))

	miss := tr.Track(NewImageFrame(blankImage(160, 120)))
	if miss.Detected {
		t.Error("Expected Detected=false")
	}
	if miss.Confidence != 0 {
		t.Errorf("Expected Confidence=0, got %v", miss.Confidence)
	}
	if miss.X != hit.X || miss.Y != hit.Y {
		t.Errorf("Expected frozen position (%v,%v), got (%v,%v)", hit.X, hit.Y, miss.X, miss.Y)
	}
	if tr.Last() != miss {
		t.Error("Expected Last to return the miss")
	}
}

func TestTrack_CallbackOnlyOnDetection(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())

	var calls int
	var gotConf float64
	tr.OnBallUpdate(func(x, y, confidence float64) {
		calls++
		gotConf = confidence
	})

	img := blankImage(160, 120)
	paint(img, 40, 40, 10, 100)

	tr.Track(NewImageFrame(img))
	tr.Track(NewImageFrame(blankImage(160, 120)))
	tr.Track(NewImageFrame(blankImage(160, 120)))

	if calls != 1 {
		t.Errorf("Expected 1 callback, got %d", calls)
	}
	if gotConf != 100.0/2000 {
		t.Errorf("Expected confidence %v, got %v", 100.0/2000, gotConf)
	}
}

type errFrame struct{}

func (errFrame) Size() (int, int) { return 640, 480 }
func (errFrame) Sample(int, int) (*image.RGBA, error) {
	return nil, errors.New("camera unplugged")
}

func TestTrack_FrameErrorReturnsPrevious(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())

	img := blankImage(160, 120)
	paint(img, 40, 40, 10, 100)
	hit := tr.Track(NewImageFrame(img))

	res := tr.Track(errFrame{})
	if res != hit {
		t.Errorf("Expected previous result %+v, got %+v", hit, res)
	}
	if tr.Track(nil) != hit {
		t.Error("Expected nil frame to return previous result")
	}

	stats := tr.Stats()
	if stats.Failures != 2 {
		t.Errorf("Expected 2 failures, got %d", stats.Failures)
	}
	if stats.Cycles != 1 {
		t.Errorf("Expected 1 cycle, got %d", stats.Cycles)
	}
}

// blockingFrame holds Sample until released.
type blockingFrame struct {
	entered chan struct{}
	release chan struct{}
	img     *image.RGBA
}

func (f *blockingFrame) Size() (int, int) { return 160, 120 }
func (f *blockingFrame) Sample(int, int) (*image.RGBA, error) {
	close(f.entered)
	<-f.release
	return f.img, nil
}

func TestTrack_BusyReturnsCached(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())

	img := blankImage(160, 120)
	paint(img, 40, 40, 10, 100)
	cached := tr.Track(NewImageFrame(img))

	slow := &blockingFrame{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		img:     blankImage(160, 120),
	}

	var finished atomic.Bool
	done := make(chan struct{})
	go func() {
		tr.Track(slow)
		finished.Store(true)
		close(done)
	}()

	<-slow.entered

	start := time.Now()
	res := tr.Track(NewImageFrame(img))
	if time.Since(start) > time.Second {
		t.Error("Expected contended Track to return immediately")
	}
	if res != cached {
		t.Errorf("Expected cached result %+v, got %+v", cached, res)
	}
	if finished.Load() {
		t.Error("Expected slow cycle still in progress")
	}

	close(slow.release)
	<-done

	stats := tr.Stats()
	if stats.Skipped != 1 {
		t.Errorf("Expected 1 skipped request, got %d", stats.Skipped)
	}
	if stats.Cycles != 2 {
		t.Errorf("Expected 2 cycles, got %d", stats.Cycles)
	}
}

func TestTrack_KalmanConverges(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Smoothing = SmoothingKalman
	tr := newTestTracker(t, cfg)

	img := blankImage(160, 120)
	paint(img, 100, 60, 10, 100)
	target := 104.5 / 160

	var res DetectionResult
	for i := 0; i < 60; i++ {
		res = tr.Track(NewImageFrame(img))
	}

	if !res.Detected {
		t.Fatal("Expected detection")
	}
	if math.Abs(res.X-target) > 0.02 {
		t.Errorf("Expected X near %v, got %v", target, res.X)
	}
}

func TestStats_FPS(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())

	if tr.Stats().FPS != 0 {
		t.Error("Expected FPS=0 before any cycle")
	}
	tr.Track(NewImageFrame(blankImage(160, 120)))
	if s := tr.Stats(); s.LastCycle <= 0 || s.FPS <= 0 {
		t.Errorf("Expected positive cycle time and FPS, got %+v", s)
	}
}
