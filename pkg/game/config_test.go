package game

import "testing"

func TestPresets_Valid(t *testing.T) {
	for _, name := range []string{"", "default", "easy", "hard", "HARD"} {
		cfg, ok := Preset(name)
		if !ok {
			t.Errorf("Preset(%q) not found", name)
			continue
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("Preset(%q) invalid: %v", name, errs)
		}
	}

	if _, ok := Preset("nightmare"); ok {
		t.Error("Expected unknown preset to be rejected")
	}
}

func TestDefaultConfig_HalfTrack(t *testing.T) {
	if got := DefaultConfig().HalfTrack(); got != 1.5 {
		t.Errorf("Expected HalfTrack=1.5, got %v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"default", func(c *Config) {}, true},
		{"max below base", func(c *Config) { c.MaxSpeed = 10 }, false},
		{"negative ramp", func(c *Config) { c.SpeedRamp = -1 }, false},
		{"zero ramp", func(c *Config) { c.SpeedRamp = 0 }, true},
		{"no lanes", func(c *Config) { c.Lanes = nil }, false},
		{"lane off track", func(c *Config) { c.Lanes = []float64{0, 3} }, false},
		{"cluster larger than lanes", func(c *Config) { c.MaxCluster = 4 }, false},
		{"margin eats track", func(c *Config) { c.EdgeMargin = 2 }, false},
		{"spawn interval tunnels", func(c *Config) { c.SpawnInterval = 5 }, false},
		{"cleanup inside pass margin", func(c *Config) { c.CleanupDistance = 0.5 }, false},
		{"zero max delta", func(c *Config) { c.MaxDelta = 0 }, false},
		{"zero lane response", func(c *Config) { c.LaneResponse = 0 }, false},
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

func TestMinTickRate(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.CollisionWindow(); got != 1.5 {
		t.Errorf("Expected CollisionWindow=1.5, got %v", got)
	}

	rate := cfg.MinTickRate()
	if rate < 33 || rate > 34 {
		t.Errorf("Expected MinTickRate ~33.3, got %v", rate)
	}
	// One tick at that rate moves exactly the window
	if step := cfg.MaxSpeed / rate; step < 1.5-1e-9 || step > 1.5+1e-9 {
		t.Errorf("Expected step %v, got %v", cfg.CollisionWindow(), step)
	}

	for _, name := range []string{"default", "easy", "hard"} {
		p, _ := Preset(name)
		if p.MinTickRate() >= 60 {
			t.Errorf("%s: 60 Hz ticks would skip obstacles (needs %v)", name, p.MinTickRate())
		}
	}
}
