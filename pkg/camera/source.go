package camera

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"sync"

	"github.com/pkg/errors"
	"github.com/teslashibe/go-ballrunner/pkg/tracking"
)

// Source produces frames for the tracker.
type Source interface {
	// Next blocks until a frame is available or ctx is done.
	// io.EOF means the source is exhausted.
	Next(ctx context.Context) (tracking.Frame, error)

	// Close releases the underlying device or process.
	Close() error
}

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("camera source closed")

// StillSource returns the same image on every call.
type StillSource struct {
	frame *tracking.ImageFrame
}

// NewStillSource wraps a single image as a Source.
func NewStillSource(img image.Image) *StillSource {
	return &StillSource{frame: tracking.NewImageFrame(img)}
}

// Next returns the image.
func (s *StillSource) Next(ctx context.Context) (tracking.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.frame, nil
}

// Close is a no-op.
func (s *StillSource) Close() error { return nil }

// Feed is a Source fed by pushed JPEG frames, typically from a player's
// browser camera. Only the latest frame is kept; a slow reader skips frames.
type Feed struct {
	mu     sync.Mutex
	latest []byte
	pushed uint64
	taken  uint64
	closed bool

	notify chan struct{}
	done   chan struct{}
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push stores a JPEG frame, replacing any frame not yet read.
func (f *Feed) Push(jpegData []byte) error {
	if len(jpegData) < 4 || jpegData[0] != 0xFF || jpegData[1] != 0xD8 {
		return errors.New("not a JPEG frame")
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.latest = append(f.latest[:0], jpegData...)
	f.pushed++
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pushed returns the number of frames accepted so far.
func (f *Feed) Pushed() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushed
}

// Next waits for a frame newer than the last one returned.
func (f *Feed) Next(ctx context.Context) (tracking.Frame, error) {
	for {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return nil, ErrClosed
		}
		if f.pushed > f.taken {
			data := append([]byte(nil), f.latest...)
			f.taken = f.pushed
			f.mu.Unlock()

			img, err := jpeg.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, errors.Wrap(err, "decode pushed frame")
			}
			return tracking.NewImageFrame(img), nil
		}
		f.mu.Unlock()

		select {
		case <-f.notify:
		case <-f.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close wakes any waiting reader and rejects further pushes.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.done)
	}
	return nil
}

// Shared wraps src so that Close leaves it open. Use it to hand out a source
// owned elsewhere, such as the player feed.
func Shared(src Source) Source {
	return sharedSource{src}
}

type sharedSource struct {
	Source
}

func (sharedSource) Close() error { return nil }
