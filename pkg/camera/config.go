// Package camera provides runtime-configurable frame sources for the tracker.
// This follows the same pattern as pkg/tracking for tunable parameters.
package camera

import (
	"fmt"
	"strings"
)

// Source kinds.
const (
	SourceDevice   = "device"   // Local webcam via OpenCV
	SourceFile     = "file"     // Recorded footage decoded by ffmpeg
	SourceSnapshot = "snapshot" // HTTP endpoint returning one JPEG per request
	SourceFeed     = "feed"     // JPEGs pushed by connected players
)

// Config holds all camera configuration parameters.
// These can be modified via the camera API at runtime.
type Config struct {
	// === Source ===
	Source string `json:"source"` // device, file, snapshot or feed
	Device int    `json:"device"` // Capture device index
	File   string `json:"file"`   // Video path for the file source
	URL    string `json:"url"`    // Snapshot endpoint

	// === Capture ===
	Width     int `json:"width"`     // Requested capture width
	Height    int `json:"height"`    // Requested capture height
	Framerate int `json:"framerate"` // Target FPS (file decode rate)

	// Quality is the JPEG quality for preview frames (1-100).
	Quality int `json:"quality"`

	// Mirror flips the horizontal axis before steering.
	// Front-facing cameras see the player mirrored.
	Mirror bool `json:"mirror"`
}

// DefaultConfig returns a front-facing webcam at 640x480.
func DefaultConfig() Config {
	return Config{
		Source: SourceDevice,
		Device: 0,

		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   70,

		Mirror: true,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	switch c.Source {
	case SourceDevice:
		if c.Device < 0 {
			errors = append(errors, "device must not be negative")
		}
	case SourceFile:
		if strings.TrimSpace(c.File) == "" {
			errors = append(errors, "file source requires a path")
		}
	case SourceSnapshot:
		if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
			errors = append(errors, "snapshot source requires an http(s) url")
		}
	case SourceFeed:
	default:
		errors = append(errors, fmt.Sprintf("source must be one of %s", strings.Join(SourceNames(), ", ")))
	}

	// Resolution
	if c.Width < 160 || c.Width > 3840 {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > 2160 {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}

// SourceNames lists the supported source kinds.
func SourceNames() []string {
	return []string{SourceDevice, SourceFile, SourceSnapshot, SourceFeed}
}

// Capabilities describes what the camera layer supports.
func Capabilities() map[string]interface{} {
	return map[string]interface{}{
		"sources":    SourceNames(),
		"presets":    PresetNames(),
		"max_width":  3840,
		"max_height": 2160,
	}
}
