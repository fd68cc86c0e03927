// Package tracking turns camera frames into a smoothed, normalized ball
// position using HSV color classification.
package tracking

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-ballrunner/internal/log"
	"github.com/teslashibe/go-ballrunner/pkg/debug"
)

// BallUpdateFunc receives the smoothed position of a successful detection.
type BallUpdateFunc func(x, y, confidence float64)

// Stats describes tracker throughput.
type Stats struct {
	Cycles    uint64        `json:"cycles"`
	Skipped   uint64        `json:"skipped"`  // Requests answered from cache while busy
	Failures  uint64        `json:"failures"` // Cycles that could not read the frame
	LastCycle time.Duration `json:"last_cycle_ns"`
	FPS       float64       `json:"fps"`
}

// Tracker finds the target-colored object in frames.
//
// Track is safe to call from several goroutines but never runs two cycles at
// once: a call that arrives while a cycle is in progress returns the cached
// last result immediately.
type Tracker struct {
	config   Config
	smoother smoother
	logger   *slog.Logger

	busy atomic.Bool
	last atomic.Pointer[DetectionResult]

	mu       sync.RWMutex
	onUpdate []BallUpdateFunc

	cycles    atomic.Uint64
	skipped   atomic.Uint64
	failures  atomic.Uint64
	lastCycle atomic.Int64
}

// NewTracker creates a tracker. An invalid config is reported here, once.
func NewTracker(cfg Config) (*Tracker, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid tracker config: %v", errs)
	}
	cfg.SmoothingFactor = ClampSmoothingFactor(cfg.SmoothingFactor)

	t := &Tracker{
		config:   cfg,
		smoother: newSmoother(cfg),
		logger:   log.Component("tracker"),
	}
	t.last.Store(&DetectionResult{})

	t.logger.Info("tracker ready",
		"work", fmt.Sprintf("%dx%d", cfg.WorkWidth, cfg.WorkHeight),
		"min_pixels", cfg.MinPixels,
		"smoothing", cfg.Smoothing,
		"factor", cfg.SmoothingFactor)
	return t, nil
}

// Config returns the tracker configuration.
func (t *Tracker) Config() Config {
	return t.config
}

// OnBallUpdate registers a callback fired after every successful detection.
// Callbacks run synchronously on the tracking goroutine.
func (t *Tracker) OnBallUpdate(fn BallUpdateFunc) {
	t.mu.Lock()
	t.onUpdate = append(t.onUpdate, fn)
	t.mu.Unlock()
}

// Last returns the most recent result.
func (t *Tracker) Last() DetectionResult {
	return *t.last.Load()
}

// Stats returns a snapshot of tracker counters.
func (t *Tracker) Stats() Stats {
	last := time.Duration(t.lastCycle.Load())
	var fps float64
	if last > 0 {
		fps = 1 / last.Seconds()
	}
	return Stats{
		Cycles:    t.cycles.Load(),
		Skipped:   t.skipped.Load(),
		Failures:  t.failures.Load(),
		LastCycle: last,
		FPS:       fps,
	}
}

// Track runs one tracking cycle over frame.
//
// With no detection the result reports Detected=false and Confidence=0 while
// keeping the last known X/Y. A frame that cannot be read leaves the cached
// result untouched and returns it.
func (t *Tracker) Track(frame Frame) DetectionResult {
	if !t.busy.CompareAndSwap(false, true) {
		t.skipped.Add(1)
		return t.Last()
	}
	defer t.busy.Store(false)

	start := time.Now()
	prev := t.Last()

	res, err := t.scan(frame)
	if err != nil {
		t.failures.Add(1)
		t.logger.Warn("tracking cycle failed", "err", err)
		return prev
	}

	if res.Detected {
		if prev.Detected {
			res.X, res.Y = t.smoother.smooth(res.X, res.Y)
		} else {
			t.smoother.reset(res.X, res.Y)
		}
	} else {
		res = prev.missed()
	}

	t.last.Store(&res)
	t.cycles.Add(1)
	t.lastCycle.Store(int64(time.Since(start)))

	debug.TrackLog("tracking cycle",
		"detected", res.Detected,
		"x", res.X,
		"y", res.Y,
		"confidence", res.Confidence,
		"took", time.Since(start))

	if res.Detected {
		t.emit(res)
	}
	return res
}

func (t *Tracker) emit(res DetectionResult) {
	t.mu.RLock()
	callbacks := t.onUpdate
	t.mu.RUnlock()

	for _, fn := range callbacks {
		fn(res.X, res.Y, res.Confidence)
	}
}

// scan classifies every pixel of the working buffer and measures the blob.
// The returned position is raw (unsmoothed).
func (t *Tracker) scan(frame Frame) (DetectionResult, error) {
	if frame == nil {
		return DetectionResult{}, errors.New("nil frame")
	}

	w, h := t.config.WorkWidth, t.config.WorkHeight
	srcW, srcH := frame.Size()
	if srcW <= 0 || srcH <= 0 {
		return DetectionResult{}, ErrEmptyFrame
	}

	img, err := frame.Sample(w, h)
	if err != nil {
		return DetectionResult{}, fmt.Errorf("sample frame: %w", err)
	}
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		return DetectionResult{}, fmt.Errorf("sampled %dx%d, want %dx%d", b.Dx(), b.Dy(), w, h)
	}

	var (
		sumX, sumY int
		count      int
		minX, maxX = w, 0
		minY, maxY = h, 0
	)

	origin := img.Bounds().Min
	for y := 0; y < h; y++ {
		i := img.PixOffset(origin.X, origin.Y+y)
		for x := 0; x < w; x, i = x+1, i+4 {
			if !Classify(img.Pix[i], img.Pix[i+1], img.Pix[i+2], t.config.Color) {
				continue
			}
			sumX += x
			sumY += y
			count++
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}

	if count < t.config.MinPixels {
		return DetectionResult{}, nil
	}

	fw, fh := float64(w), float64(h)
	scaleX := float64(srcW) / fw
	scaleY := float64(srcH) / fh

	return DetectionResult{
		Detected:   true,
		X:          float64(sumX) / float64(count) / fw,
		Y:          float64(sumY) / float64(count) / fh,
		Width:      float64(maxX-minX) / fw,
		Height:     float64(maxY-minY) / fh,
		Confidence: min(float64(count)/t.config.ConfidenceDivisor, 1),
		Box: Box{
			X1: float64(minX) * scaleX,
			Y1: float64(minY) * scaleY,
			X2: float64(maxX) * scaleX,
			Y2: float64(maxY) * scaleY,
		},
	}, nil
}
