package tracking

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MinPixels != 25 {
		t.Errorf("Expected MinPixels=25, got %v", cfg.MinPixels)
	}
	if cfg.ConfidenceDivisor != 2000 {
		t.Errorf("Expected ConfidenceDivisor=2000, got %v", cfg.ConfidenceDivisor)
	}
	if cfg.WorkWidth != 160 || cfg.WorkHeight != 120 {
		t.Errorf("Expected 160x120 working resolution, got %dx%d", cfg.WorkWidth, cfg.WorkHeight)
	}
	if cfg.Smoothing != SmoothingEMA || cfg.SmoothingFactor != 0.4 {
		t.Errorf("Expected ema smoothing at 0.4, got %s at %v", cfg.Smoothing, cfg.SmoothingFactor)
	}
	if cfg.Color.HueWrap != 350 {
		t.Errorf("Expected HueWrap=350, got %v", cfg.Color.HueWrap)
	}
}

func TestPresets_Valid(t *testing.T) {
	for _, name := range []string{"default", "distance", "responsive", ""} {
		cfg, ok := Preset(name)
		if !ok {
			t.Errorf("Preset(%q) not found", name)
			continue
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("Preset(%q) invalid: %v", name, errs)
		}
	}

	if _, ok := Preset("turbo"); ok {
		t.Error("Expected unknown preset to be rejected")
	}
}

func TestPreset_CaseInsensitive(t *testing.T) {
	cfg, ok := Preset("Distance")
	if !ok {
		t.Fatal("Expected Preset to ignore case")
	}
	if cfg.WorkWidth != 320 {
		t.Errorf("Expected distance preset, got WorkWidth=%d", cfg.WorkWidth)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"default", func(c *Config) {}, true},
		{"kalman", func(c *Config) { c.Smoothing = SmoothingKalman }, true},
		{"zero min pixels", func(c *Config) { c.MinPixels = 0 }, false},
		{"zero divisor", func(c *Config) { c.ConfidenceDivisor = 0 }, false},
		{"zero width", func(c *Config) { c.WorkWidth = 0 }, false},
		{"negative height", func(c *Config) { c.WorkHeight = -1 }, false},
		{"zero smoothing factor", func(c *Config) { c.SmoothingFactor = 0 }, false},
		{"smoothing factor above one", func(c *Config) { c.SmoothingFactor = 1.5 }, false},
		{"smoothing factor one", func(c *Config) { c.SmoothingFactor = 1 }, true},
		{"inverted hue", func(c *Config) { c.Color.Hue = Range{Min: 40, Max: 10} }, false},
		{"hue past 360", func(c *Config) { c.Color.Hue.Max = 400 }, false},
		{"saturation past 255", func(c *Config) { c.Color.Saturation.Min = 300 }, false},
		{"unknown smoothing", func(c *Config) { c.Smoothing = "median" }, false},
		{"kalman without interval", func(c *Config) {
			c.Smoothing = SmoothingKalman
			c.KalmanInterval = 0
		}, false},
		{"ema ignores kalman fields", func(c *Config) { c.KalmanInterval = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			errs := cfg.Validate()
			if tt.valid && len(errs) > 0 {
				t.Errorf("Expected valid, got %v", errs)
			}
			if !tt.valid && len(errs) == 0 {
				t.Error("Expected validation errors")
			}
		})
	}
}

func TestClampSmoothingFactor(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.05, 0.1},
		{0.1, 0.1},
		{0.4, 0.4},
		{1, 1},
		{3, 1},
		{-1, 0.1},
	}

	for _, tt := range tests {
		if got := ClampSmoothingFactor(tt.in); got != tt.want {
			t.Errorf("ClampSmoothingFactor(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
