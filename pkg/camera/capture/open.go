package capture

import (
	"context"

	"github.com/pkg/errors"

	"github.com/teslashibe/go-ballrunner/pkg/camera"
)

// Open builds the Source selected by cfg.Source. The feed source reuses feed,
// which player connections push into.
func Open(ctx context.Context, cfg camera.Config, feed *camera.Feed) (camera.Source, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.Errorf("invalid camera config: %v", errs)
	}

	switch cfg.Source {
	case camera.SourceDevice:
		return NewDeviceSource(cfg.Device, cfg)
	case camera.SourceFile:
		return camera.NewVideoFileSource(ctx, cfg.File, cfg.Framerate)
	case camera.SourceSnapshot:
		return NewSnapshotSource(cfg.URL, nil), nil
	case camera.SourceFeed:
		if feed == nil {
			return nil, errors.New("feed source requested without a feed")
		}
		return camera.Shared(feed), nil
	}
	return nil, errors.Errorf("unknown camera source %q", cfg.Source)
}
