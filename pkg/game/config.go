package game

import (
	"fmt"
	"strings"
)

// Config holds the tunable parameters of a run.
// Distances are world units, speeds are units per second.
type Config struct {
	// Speed
	BaseSpeed float64 `json:"base_speed"` // Speed at run start
	MaxSpeed  float64 `json:"max_speed"`  // Ramp ceiling
	SpeedRamp float64 `json:"speed_ramp"` // Increase per second

	// Lateral control
	LaneResponse float64 `json:"lane_response"` // Approach rate toward target lane (1/s)
	TrackWidth   float64 `json:"track_width"`
	EdgeMargin   float64 `json:"edge_margin"` // Keep-out distance from each track edge

	// Bodies
	PlayerRadius   float64 `json:"player_radius"`
	ObstacleRadius float64 `json:"obstacle_radius"`

	// Spawning
	Lanes          []float64 `json:"lanes"`           // Discrete obstacle offsets
	MaxCluster     int       `json:"max_cluster"`     // Obstacles per spawn: 1..MaxCluster, distinct lanes
	SpawnLookahead float64   `json:"spawn_lookahead"` // Spawn distance ahead of the player
	SpawnInterval  float64   `json:"spawn_interval"`  // Travel between spawns

	// Scoring and cleanup
	PassMargin      float64 `json:"pass_margin"`      // Distance behind the player before an obstacle scores
	CleanupDistance float64 `json:"cleanup_distance"` // Distance behind the player before an obstacle is dropped

	// MaxDelta caps a single tick (seconds) so a stalled host cannot teleport the player.
	// A clamped tick at MaxSpeed can still carry an obstacle through the
	// collision window; ticks must come at MinTickRate or faster.
	MaxDelta float64 `json:"max_delta"`
}

// DefaultConfig returns the standard runner tuning.
func DefaultConfig() Config {
	return Config{
		BaseSpeed: 20,
		MaxSpeed:  50,
		SpeedRamp: 0.5,

		LaneResponse: 12,
		TrackWidth:   4,
		EdgeMargin:   0.5,

		PlayerRadius:   0.4,
		ObstacleRadius: 0.35,

		Lanes:          []float64{-1.2, 0, 1.2},
		MaxCluster:     2,
		SpawnLookahead: 40,
		SpawnInterval:  8, // > MaxSpeed*MaxDelta, no tunneling

		PassMargin:      1,
		CleanupDistance: 10,

		MaxDelta: 0.1,
	}
}

// EasyConfig returns a slower run with single-obstacle spawns
func EasyConfig() Config {
	cfg := DefaultConfig()
	cfg.BaseSpeed = 15
	cfg.MaxSpeed = 35
	cfg.SpeedRamp = 0.3
	cfg.MaxCluster = 1
	cfg.SpawnInterval = 10
	return cfg
}

// HardConfig returns a faster run that ramps up quickly
func HardConfig() Config {
	cfg := DefaultConfig()
	cfg.BaseSpeed = 25
	cfg.MaxSpeed = 60
	cfg.SpeedRamp = 0.8
	cfg.SpawnInterval = 7
	return cfg
}

// Preset returns a named configuration ("default", "easy", "hard").
func Preset(name string) (Config, bool) {
	switch strings.ToLower(name) {
	case "", "default":
		return DefaultConfig(), true
	case "easy":
		return EasyConfig(), true
	case "hard":
		return HardConfig(), true
	}
	return Config{}, false
}

// HalfTrack is the largest lateral offset the player can be steered to.
func (c Config) HalfTrack() float64 {
	return c.TrackWidth/2 - c.EdgeMargin
}

// CollisionWindow is the travel during which a centered obstacle overlaps the
// player.
func (c Config) CollisionWindow() float64 {
	return 2 * (c.PlayerRadius + c.ObstacleRadius)
}

// MinTickRate is the slowest tick rate (Hz) at which one tick at MaxSpeed
// moves less than CollisionWindow, so no obstacle is skipped.
func (c Config) MinTickRate() float64 {
	return c.MaxSpeed / c.CollisionWindow()
}

// Validate checks if the config values are usable.
// Returns a list of validation errors, or nil if valid.
func (c Config) Validate() []string {
	var errs []string

	if c.BaseSpeed <= 0 {
		errs = append(errs, "base_speed must be positive")
	}
	if c.MaxSpeed < c.BaseSpeed {
		errs = append(errs, "max_speed must be >= base_speed")
	}
	if c.SpeedRamp < 0 {
		errs = append(errs, "speed_ramp must not be negative")
	}
	if c.LaneResponse <= 0 {
		errs = append(errs, "lane_response must be positive")
	}
	if c.TrackWidth <= 0 {
		errs = append(errs, "track_width must be positive")
	}
	if c.EdgeMargin < 0 || c.HalfTrack() <= 0 {
		errs = append(errs, "edge_margin must leave room on the track")
	}
	if c.PlayerRadius <= 0 || c.ObstacleRadius <= 0 {
		errs = append(errs, "radii must be positive")
	}
	if len(c.Lanes) == 0 {
		errs = append(errs, "at least one lane is required")
	}
	for _, lane := range c.Lanes {
		if lane < -c.TrackWidth/2 || lane > c.TrackWidth/2 {
			errs = append(errs, fmt.Sprintf("lane %v is off the track", lane))
		}
	}
	if c.MaxCluster < 1 || c.MaxCluster > len(c.Lanes) {
		errs = append(errs, "max_cluster must be between 1 and the number of lanes")
	}
	if c.SpawnLookahead <= 0 {
		errs = append(errs, "spawn_lookahead must be positive")
	}
	if c.MaxDelta <= 0 {
		errs = append(errs, "max_delta must be positive")
	}
	// A single tick must never carry the player past a whole spawn interval
	if c.SpawnInterval <= c.MaxSpeed*c.MaxDelta {
		errs = append(errs, fmt.Sprintf("spawn_interval %v must exceed max_speed*max_delta (%v)",
			c.SpawnInterval, c.MaxSpeed*c.MaxDelta))
	}
	if c.PassMargin < 0 {
		errs = append(errs, "pass_margin must not be negative")
	}
	if c.CleanupDistance <= c.PassMargin {
		errs = append(errs, "cleanup_distance must exceed pass_margin")
	}

	return errs
}
