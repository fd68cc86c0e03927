// Package config loads ballrunner settings from an optional YAML file and
// BALLRUNNER_* environment variables, on top of the built-in presets.
package config

import (
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/teslashibe/go-ballrunner/pkg/camera"
	"github.com/teslashibe/go-ballrunner/pkg/game"
	"github.com/teslashibe/go-ballrunner/pkg/session"
	"github.com/teslashibe/go-ballrunner/pkg/tracking"
)

// EnvPrefix prefixes every environment override, e.g. BALLRUNNER_SERVER_PORT.
const EnvPrefix = "BALLRUNNER"

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Camera  CameraConfig  `mapstructure:"camera"`
	Tracker TrackerConfig `mapstructure:"tracker"`
	Game    GameConfig    `mapstructure:"game"`
	Store   StoreConfig   `mapstructure:"store"`
	Loop    LoopConfig    `mapstructure:"loop"`

	// File is the config file that was read, empty if none
	File string `mapstructure:"-"`
}

type ServerConfig struct {
	Port   string `mapstructure:"port"`
	Static string `mapstructure:"static"` // Directory served at /, optional
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type CameraConfig struct {
	Preset string `mapstructure:"preset"`
	Source string `mapstructure:"source"` // device, file, snapshot or feed
	Device int    `mapstructure:"device"`
	File   string `mapstructure:"file"`
	URL    string `mapstructure:"url"`

	// Mirror overrides the preset when set
	Mirror *bool `mapstructure:"mirror"`
}

type TrackerConfig struct {
	Preset          string  `mapstructure:"preset"`
	Smoothing       string  `mapstructure:"smoothing"`        // ema or kalman, empty keeps the preset
	SmoothingFactor float64 `mapstructure:"smoothing_factor"` // 0 keeps the preset
	MinPixels       int     `mapstructure:"min_pixels"`       // 0 keeps the preset
}

type GameConfig struct {
	Preset string `mapstructure:"preset"`
	Seed   uint64 `mapstructure:"seed"` // 0 seeds from the clock
}

type StoreConfig struct {
	Path string `mapstructure:"path"` // Empty uses ~/.ballrunner/scores.json
}

type LoopConfig struct {
	TickHz       int `mapstructure:"tick_hz"`
	DetectHz     int `mapstructure:"detect_hz"`
	PreviewEvery int `mapstructure:"preview_every"`
}

func setDefaults(v *viper.Viper) {
	loop := session.DefaultConfig()
	cam := camera.DefaultConfig()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.static", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("camera.preset", camera.PresetDefault)
	v.SetDefault("camera.source", "")
	v.SetDefault("camera.device", cam.Device)
	v.SetDefault("camera.file", "")
	v.SetDefault("camera.url", "")

	v.SetDefault("tracker.preset", "default")
	v.SetDefault("tracker.smoothing", "")
	v.SetDefault("tracker.smoothing_factor", 0.0)
	v.SetDefault("tracker.min_pixels", 0)

	v.SetDefault("game.preset", "default")
	v.SetDefault("game.seed", 0)

	v.SetDefault("store.path", "")

	v.SetDefault("loop.tick_hz", loop.TickHz)
	v.SetDefault("loop.detect_hz", loop.DetectHz)
	v.SetDefault("loop.preview_every", loop.PreviewEvery)
}

// Load reads configuration. With an empty path, ballrunner.yaml is looked
// up in the working directory and ~/.ballrunner and may be absent; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// camera.mirror has no default, an unset mirror leaves the preset's
	// choice; bind it so the env override is still seen
	v.BindEnv("camera.mirror")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	} else {
		v.SetConfigName("ballrunner")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ballrunner")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.File = v.ConfigFileUsed()
	return &cfg, nil
}

// TrackerSettings resolves the tracker preset and overrides.
func (c *Config) TrackerSettings() (tracking.Config, error) {
	tc, ok := tracking.Preset(c.Tracker.Preset)
	if !ok {
		return tracking.Config{}, errors.Errorf("unknown tracker preset %q", c.Tracker.Preset)
	}
	if c.Tracker.Smoothing != "" {
		tc.Smoothing = tracking.SmoothingMode(strings.ToLower(c.Tracker.Smoothing))
	}
	if c.Tracker.SmoothingFactor != 0 {
		tc.SmoothingFactor = tracking.ClampSmoothingFactor(c.Tracker.SmoothingFactor)
	}
	if c.Tracker.MinPixels != 0 {
		tc.MinPixels = c.Tracker.MinPixels
	}
	if errs := tc.Validate(); len(errs) > 0 {
		return tracking.Config{}, errors.Errorf("invalid tracker config: %v", errs)
	}
	return tc, nil
}

// GameSettings resolves the game preset.
func (c *Config) GameSettings() (game.Config, error) {
	gc, ok := game.Preset(c.Game.Preset)
	if !ok {
		return game.Config{}, errors.Errorf("unknown game preset %q", c.Game.Preset)
	}
	return gc, nil
}

// GameRand returns the obstacle randomness: seeded when game.seed is set,
// nil (clock-seeded by the world) otherwise.
func (c *Config) GameRand() game.Rand {
	if c.Game.Seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(c.Game.Seed, c.Game.Seed^0x9e3779b97f4a7c15))
}

// CameraSettings resolves the camera preset and overrides.
func (c *Config) CameraSettings() (camera.Config, error) {
	preset := camera.GetPreset(c.Camera.Preset)
	if preset == nil {
		return camera.Config{}, errors.Errorf("unknown camera preset %q", c.Camera.Preset)
	}
	cc := *preset

	if c.Camera.Source != "" {
		cc.Source = c.Camera.Source
	}
	if c.Camera.Device != 0 {
		cc.Device = c.Camera.Device
	}
	if c.Camera.File != "" {
		cc.File = c.Camera.File
	}
	if c.Camera.URL != "" {
		cc.URL = c.Camera.URL
	}
	if c.Camera.Mirror != nil {
		cc.Mirror = *c.Camera.Mirror
	}

	if errs := cc.Validate(); len(errs) > 0 {
		return camera.Config{}, errors.Errorf("invalid camera config: %v", errs)
	}
	return cc, nil
}

// SessionSettings returns the loop configuration. Mirroring follows the
// camera.
func (c *Config) SessionSettings(cam camera.Config) (session.Config, error) {
	sc := session.DefaultConfig()
	sc.TickHz = c.Loop.TickHz
	sc.DetectHz = c.Loop.DetectHz
	sc.PreviewEvery = c.Loop.PreviewEvery
	sc.Mirror = cam.Mirror

	if errs := sc.Validate(); len(errs) > 0 {
		return session.Config{}, errors.Errorf("invalid loop config: %v", errs)
	}
	return sc, nil
}
