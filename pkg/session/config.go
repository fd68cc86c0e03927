package session

import (
	"fmt"

	"github.com/teslashibe/go-ballrunner/pkg/game"
)

// Config holds loop rates and preview settings.
type Config struct {
	TickHz   int `json:"tick_hz"`   // World updates per second
	DetectHz int `json:"detect_hz"` // Tracking requests per second

	// PreviewEvery renders an annotated preview every Nth tracking cycle.
	// Zero disables previews.
	PreviewEvery   int `json:"preview_every"`
	PreviewWidth   int `json:"preview_width"`
	PreviewHeight  int `json:"preview_height"`
	PreviewQuality int `json:"preview_quality"`

	// Mirror feeds 1-x to the game, for front-facing cameras.
	Mirror bool `json:"mirror"`
}

// DefaultConfig returns the settings used by the ballrunner binary.
func DefaultConfig() Config {
	return Config{
		TickHz:         60,
		DetectHz:       30,
		PreviewEvery:   3,
		PreviewWidth:   320,
		PreviewHeight:  240,
		PreviewQuality: 70,
		Mirror:         true,
	}
}

// Validate returns a list of problems, empty if the config is usable.
func (c Config) Validate() []string {
	var errs []string
	if c.TickHz < 1 || c.TickHz > 240 {
		errs = append(errs, "tick_hz must be between 1 and 240")
	}
	if c.DetectHz < 1 || c.DetectHz > 120 {
		errs = append(errs, "detect_hz must be between 1 and 120")
	}
	if c.PreviewEvery < 0 {
		errs = append(errs, "preview_every must be >= 0")
	}
	if c.PreviewEvery > 0 {
		if c.PreviewWidth < 16 || c.PreviewHeight < 16 {
			errs = append(errs, "preview size must be at least 16x16")
		}
		if c.PreviewQuality < 1 || c.PreviewQuality > 100 {
			errs = append(errs, "preview_quality must be between 1 and 100")
		}
	}
	return errs
}

// Warnings returns problems that are legal but degrade play with world g.
// A tick rate below g.MinTickRate lets a fast obstacle pass through the
// player between two ticks.
func (c Config) Warnings(g game.Config) []string {
	var warns []string
	if need := g.MinTickRate(); float64(c.TickHz) < need {
		warns = append(warns, fmt.Sprintf("tick_hz %d is below %.1f, obstacles can be skipped at max speed", c.TickHz, need))
	}
	return warns
}
