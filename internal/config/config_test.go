package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-ballrunner/pkg/camera"
	"github.com/teslashibe/go-ballrunner/pkg/tracking"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ballrunner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Empty(t, cfg.File)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "info", cfg.Log.Level)
	require.Nil(t, cfg.Camera.Mirror)

	tc, err := cfg.TrackerSettings()
	require.NoError(t, err)
	require.Equal(t, tracking.DefaultConfig(), tc)

	cc, err := cfg.CameraSettings()
	require.NoError(t, err)
	require.Equal(t, camera.DefaultConfig(), cc)

	sc, err := cfg.SessionSettings(cc)
	require.NoError(t, err)
	require.Equal(t, 60, sc.TickHz)
	require.True(t, sc.Mirror)

	require.Nil(t, cfg.GameRand())
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
server:
  port: "9000"
camera:
  preset: rear
  source: file
  file: run.mp4
tracker:
  preset: distance
  smoothing: kalman
  smoothing_factor: 0.05
game:
  preset: hard
  seed: 42
loop:
  preview_every: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, cfg.File)
	require.Equal(t, "9000", cfg.Server.Port)

	tc, err := cfg.TrackerSettings()
	require.NoError(t, err)
	require.Equal(t, tracking.SmoothingKalman, tc.Smoothing)
	require.Equal(t, tracking.MinSmoothingFactor, tc.SmoothingFactor)
	require.Equal(t, 320, tc.WorkWidth)

	cc, err := cfg.CameraSettings()
	require.NoError(t, err)
	require.Equal(t, camera.SourceFile, cc.Source)
	require.False(t, cc.Mirror, "rear preset does not mirror")

	gc, err := cfg.GameSettings()
	require.NoError(t, err)
	require.Greater(t, gc.BaseSpeed, 20.0)

	require.NotNil(t, cfg.GameRand())

	sc, err := cfg.SessionSettings(cc)
	require.NoError(t, err)
	require.Equal(t, 0, sc.PreviewEvery)
	require.False(t, sc.Mirror)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "server:\n  port: \"9000\"\n")
	t.Setenv("BALLRUNNER_SERVER_PORT", "7000")
	t.Setenv("BALLRUNNER_TRACKER_MIN_PIXELS", "40")
	t.Setenv("BALLRUNNER_CAMERA_MIRROR", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "7000", cfg.Server.Port)

	tc, err := cfg.TrackerSettings()
	require.NoError(t, err)
	require.Equal(t, 40, tc.MinPixels)

	require.NotNil(t, cfg.Camera.Mirror)
	cc, err := cfg.CameraSettings()
	require.NoError(t, err)
	require.False(t, cc.Mirror)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestSettings_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		check  func(*Config) error
	}{
		{"tracker preset", func(c *Config) { c.Tracker.Preset = "laser" },
			func(c *Config) error { _, err := c.TrackerSettings(); return err }},
		{"tracker smoothing", func(c *Config) { c.Tracker.Smoothing = "median" },
			func(c *Config) error { _, err := c.TrackerSettings(); return err }},
		{"game preset", func(c *Config) { c.Game.Preset = "insane" },
			func(c *Config) error { _, err := c.GameSettings(); return err }},
		{"camera preset", func(c *Config) { c.Camera.Preset = "8k" },
			func(c *Config) error { _, err := c.CameraSettings(); return err }},
		{"camera source", func(c *Config) { c.Camera.Source = "snapshot" },
			func(c *Config) error { _, err := c.CameraSettings(); return err }},
		{"loop rate", func(c *Config) { c.Loop.TickHz = 0 },
			func(c *Config) error { _, err := c.SessionSettings(camera.DefaultConfig()); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			cfg, err := Load("")
			require.NoError(t, err)
			tt.modify(cfg)
			require.Error(t, tt.check(cfg))
		})
	}
}
