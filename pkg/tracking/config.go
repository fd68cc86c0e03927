package tracking

import (
	"fmt"
	"strings"
	"time"
)

// SmoothingMode selects how successive detections are blended.
type SmoothingMode string

const (
	// SmoothingEMA blends x/y with an exponential moving average.
	SmoothingEMA SmoothingMode = "ema"
	// SmoothingKalman runs x/y through a constant-velocity Kalman filter.
	SmoothingKalman SmoothingMode = "kalman"
)

// Smoothing factor bounds accepted at construction.
const (
	MinSmoothingFactor = 0.1
	MaxSmoothingFactor = 1.0
)

// Config holds all tunable parameters for ball tracking.
// A Tracker copies its Config at construction and never mutates it.
type Config struct {
	// Color
	Color ColorConfig `json:"color"`

	// Detection
	MinPixels         int     `json:"min_pixels"`         // Qualifying pixels needed for a detection
	ConfidenceDivisor float64 `json:"confidence_divisor"` // Pixel count that yields confidence 1.0

	// Working resolution (every pixel is classified, so this bounds per-cycle cost)
	WorkWidth  int `json:"work_width"`
	WorkHeight int `json:"work_height"`

	// Smoothing
	Smoothing       SmoothingMode `json:"smoothing"`
	SmoothingFactor float64       `json:"smoothing_factor"` // 0-1, higher = more weight on new reading

	// Kalman (only used with SmoothingKalman)
	KalmanInterval time.Duration `json:"kalman_interval"` // Nominal time between detections
	KalmanNoise    float64       `json:"kalman_noise"`    // Measurement noise std dev (normalized units)
}

// OrangeBall is the HSV region for an orange ball under indoor lighting.
func OrangeBall() ColorConfig {
	return ColorConfig{
		Hue:        Range{Min: 3, Max: 30},
		Saturation: Range{Min: 70, Max: 255},
		Value:      Range{Min: 60, Max: 255},
		HueWrap:    350,
	}
}

// DefaultConfig returns the recommended configuration for low-latency play
func DefaultConfig() Config {
	return Config{
		Color: OrangeBall(),

		MinPixels:         25,
		ConfidenceDivisor: 2000,

		// 160x120 keeps a full scan well under a frame interval
		WorkWidth:  160,
		WorkHeight: 120,

		Smoothing:       SmoothingEMA,
		SmoothingFactor: 0.4, // 40% new, 60% old

		KalmanInterval: 33 * time.Millisecond,
		KalmanNoise:    0.02,
	}
}

// DistanceConfig returns a configuration for a ball far from the camera.
// A larger working buffer and a lower pixel floor keep small blobs visible.
func DistanceConfig() Config {
	cfg := DefaultConfig()
	cfg.WorkWidth = 320
	cfg.WorkHeight = 240
	cfg.MinPixels = 15
	cfg.ConfidenceDivisor = 1500
	return cfg
}

// ResponsiveConfig returns a configuration that trusts new readings more
func ResponsiveConfig() Config {
	cfg := DefaultConfig()
	cfg.SmoothingFactor = 0.7
	return cfg
}

// Preset returns a named configuration ("default", "distance", "responsive").
func Preset(name string) (Config, bool) {
	switch strings.ToLower(name) {
	case "", "default":
		return DefaultConfig(), true
	case "distance":
		return DistanceConfig(), true
	case "responsive":
		return ResponsiveConfig(), true
	}
	return Config{}, false
}

// ClampSmoothingFactor bounds a smoothing factor to the accepted range.
func ClampSmoothingFactor(f float64) float64 {
	return clamp(f, MinSmoothingFactor, MaxSmoothingFactor)
}

// Validate checks if the config values are usable.
// Returns a list of validation errors, or nil if valid.
func (c Config) Validate() []string {
	var errs []string

	if c.Color.Hue.Min < 0 || c.Color.Hue.Max > 360 || c.Color.Hue.Min > c.Color.Hue.Max {
		errs = append(errs, fmt.Sprintf("hue range [%v, %v] must lie within [0, 360]", c.Color.Hue.Min, c.Color.Hue.Max))
	}
	if c.Color.HueWrap > 360 {
		errs = append(errs, "hue_wrap must be <= 360")
	}
	if c.Color.Saturation.Min < 0 || c.Color.Saturation.Min > 255 {
		errs = append(errs, "saturation min must be between 0 and 255")
	}
	if c.Color.Value.Min < 0 || c.Color.Value.Min > 255 {
		errs = append(errs, "value min must be between 0 and 255")
	}
	if c.MinPixels < 1 {
		errs = append(errs, "min_pixels must be at least 1")
	}
	if c.ConfidenceDivisor <= 0 {
		errs = append(errs, "confidence_divisor must be positive")
	}
	if c.WorkWidth <= 0 || c.WorkHeight <= 0 {
		errs = append(errs, "working resolution must be positive")
	}
	if c.SmoothingFactor <= 0 || c.SmoothingFactor > 1 {
		errs = append(errs, "smoothing_factor must be in (0, 1]")
	}
	switch c.Smoothing {
	case SmoothingEMA:
	case SmoothingKalman:
		if c.KalmanInterval <= 0 {
			errs = append(errs, "kalman_interval must be positive")
		}
		if c.KalmanNoise <= 0 {
			errs = append(errs, "kalman_noise must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown smoothing mode %q", c.Smoothing))
	}

	return errs
}

// clamp limits a value to a range
func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
