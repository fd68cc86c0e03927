package capture

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/teslashibe/go-ballrunner/internal/log"
	"github.com/teslashibe/go-ballrunner/pkg/camera"
	"github.com/teslashibe/go-ballrunner/pkg/tracking"
	"gocv.io/x/gocv"
)

// DeviceSource reads frames from a local capture device.
type DeviceSource struct {
	mu     sync.Mutex
	cap    *gocv.VideoCapture
	id     int
	closed bool
}

// NewDeviceSource opens capture device id and requests cfg's resolution.
func NewDeviceSource(id int, cfg camera.Config) (*DeviceSource, error) {
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, errors.Wrapf(err, "open capture device %d", id)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.Errorf("capture device %d not available", id)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	log.Info("capture device opened",
		"device", id,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight))

	return &DeviceSource{cap: vc, id: id}, nil
}

// Next grabs the next frame. The caller closes the returned frame.
func (d *DeviceSource) Next(ctx context.Context) (tracking.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, camera.ErrClosed
	}

	mat := gocv.NewMat()
	if ok := d.cap.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, errors.Errorf("read from capture device %d failed", d.id)
	}
	return NewMatFrame(mat), nil
}

// Close releases the device.
func (d *DeviceSource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.cap.Close()
}
