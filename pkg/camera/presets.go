package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetLow     = "low"
	Preset720p    = "720p"
	PresetRear    = "rear"
	PresetPlayer  = "player"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetLow:     LowConfig(),
		Preset720p:    HD720Config(),
		PresetRear:    RearConfig(),
		PresetPlayer:  PlayerFeedConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetLow,
		Preset720p,
		PresetRear,
		PresetPlayer,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// LowConfig returns 320x240 capture for slow machines.
// The tracker works at 160x120 anyway, so little accuracy is lost.
func LowConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Quality = 60
	return cfg
}

// HD720Config returns 720p capture.
// Sharper preview, higher decode cost.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// RearConfig returns a camera facing away from the player (no mirroring).
func RearConfig() Config {
	cfg := DefaultConfig()
	cfg.Mirror = false
	return cfg
}

// PlayerFeedConfig takes frames from the player's browser camera.
func PlayerFeedConfig() Config {
	cfg := DefaultConfig()
	cfg.Source = SourceFeed
	cfg.Framerate = 15
	return cfg
}
