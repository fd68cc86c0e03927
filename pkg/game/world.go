// Package game simulates the runner: the player steers across a track while
// obstacle clusters spawn ahead, score once passed and end the run on contact.
//
// The world does no I/O and owns no clock. The host calls Tick (or Step) with
// the elapsed time and feeds lateral control through UpdateControlSignal.
package game

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Rand is the randomness a World draws obstacle layouts from.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// World is the runner simulation. It is safe for concurrent use.
type World struct {
	config Config
	rng    Rand
	events Events

	mu        sync.Mutex
	state     State
	runID     string
	score     int
	speed     float64
	signal    float64
	playerX   float64
	targetX   float64
	playerZ   float64
	lastSpawn float64
	obstacles []Obstacle
}

// New creates an idle world. A nil rng seeds one from the clock.
func New(cfg Config, rng Rand) (*World, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid game config: %v", errs)
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	cfg.Lanes = append([]float64(nil), cfg.Lanes...)
	w := &World{
		config: cfg,
		rng:    rng,
		state:  Idle,
		speed:  cfg.BaseSpeed,
		signal: 0.5,
	}
	return w, nil
}

// Config returns the world configuration.
func (w *World) Config() Config {
	return w.config
}

// Events returns the callback registry.
func (w *World) Events() *Events {
	return &w.events
}

// Start begins a new run from any state. All run state is reinitialized.
func (w *World) Start() {
	w.mu.Lock()
	from := w.state
	w.resetLocked()
	w.state = Running
	w.mu.Unlock()

	w.events.dispatch([]event{
		{kind: evScore, n: 0},
		{kind: evSpeed, f: 1},
		{kind: evState, from: from, state: Running},
	})
}

// Pause suspends a running game. Returns false if the game was not running.
func (w *World) Pause() bool {
	return w.transition(Running, Paused)
}

// Resume continues a paused game. Returns false if the game was not paused.
func (w *World) Resume() bool {
	return w.transition(Paused, Running)
}

// Stop returns to Idle from any state.
func (w *World) Stop() {
	w.mu.Lock()
	from := w.state
	w.state = Idle
	w.mu.Unlock()

	if from != Idle {
		w.events.dispatch([]event{{kind: evState, from: from, state: Idle}})
	}
}

func (w *World) transition(from, to State) bool {
	w.mu.Lock()
	if w.state != from {
		w.mu.Unlock()
		return false
	}
	w.state = to
	w.mu.Unlock()

	w.events.dispatch([]event{{kind: evState, from: from, state: to}})
	return true
}

// UpdateControlSignal sets the horizontal command, 0 = left edge, 0.5 = center,
// 1 = right edge. Out-of-range values are clamped.
func (w *World) UpdateControlSignal(x float64) {
	if math.IsNaN(x) {
		return
	}
	w.mu.Lock()
	w.signal = clamp(x, 0, 1)
	w.mu.Unlock()
}

// Step sets the control signal and advances the simulation.
func (w *World) Step(dt, x float64) {
	w.UpdateControlSignal(x)
	w.Tick(dt)
}

// Tick advances the simulation by dt seconds. It does nothing unless running.
func (w *World) Tick(dt float64) {
	w.mu.Lock()
	queue := w.tickLocked(dt)
	w.mu.Unlock()

	w.events.dispatch(queue)
}

func (w *World) tickLocked(dt float64) []event {
	if w.state != Running {
		return nil
	}
	cfg := &w.config
	if !(dt > 0) {
		dt = 0
	}
	dt = min(dt, cfg.MaxDelta)

	// Steering
	half := cfg.HalfTrack()
	w.targetX = clamp((w.signal-0.5)*2*half, -half, half)
	w.playerX += (w.targetX - w.playerX) * (1 - math.Exp(-cfg.LaneResponse*dt))

	// Travel
	w.playerZ -= w.speed * dt

	w.spawnLocked()

	// Collision ends the tick
	reach := cfg.PlayerRadius
	for _, o := range w.obstacles {
		if math.Hypot(o.X-w.playerX, o.Z-w.playerZ) < reach+o.Radius {
			w.state = GameOver
			return []event{
				{kind: evState, from: Running, state: GameOver},
				{kind: evGameOver, n: w.score},
			}
		}
	}

	var queue []event

	// Scoring
	for i := range w.obstacles {
		o := &w.obstacles[i]
		if !o.Passed && o.Z > w.playerZ+cfg.PassMargin {
			o.Passed = true
			w.score++
			queue = append(queue, event{kind: evScore, n: w.score})
		}
	}

	// Cleanup
	kept := w.obstacles[:0]
	for _, o := range w.obstacles {
		if o.Z <= w.playerZ+cfg.CleanupDistance {
			kept = append(kept, o)
		}
	}
	w.obstacles = kept

	// Speed ramp
	w.speed = min(w.speed+cfg.SpeedRamp*dt, cfg.MaxSpeed)
	queue = append(queue, event{kind: evSpeed, f: w.speed / cfg.BaseSpeed})

	return queue
}

// spawnLocked drops a cluster at the spawn horizon once it has moved a full
// interval past the previous spawn.
func (w *World) spawnLocked() {
	cfg := &w.config
	horizon := w.playerZ - cfg.SpawnLookahead
	if horizon >= w.lastSpawn-cfg.SpawnInterval {
		return
	}

	n := 1 + w.rng.IntN(cfg.MaxCluster)
	lanes := append([]float64(nil), cfg.Lanes...)
	for i := 0; i < n; i++ {
		j := i + w.rng.IntN(len(lanes)-i)
		lanes[i], lanes[j] = lanes[j], lanes[i]
		w.obstacles = append(w.obstacles, Obstacle{
			X:      lanes[i],
			Z:      horizon,
			Radius: cfg.ObstacleRadius,
		})
	}
	w.lastSpawn = horizon
}

// PlaceObstacle adds an obstacle at (x, z) outside the spawn schedule.
func (w *World) PlaceObstacle(x, z float64) {
	w.mu.Lock()
	w.obstacles = append(w.obstacles, Obstacle{X: x, Z: z, Radius: w.config.ObstacleRadius})
	w.mu.Unlock()
}

func (w *World) resetLocked() {
	w.runID = uuid.NewString()
	w.score = 0
	w.speed = w.config.BaseSpeed
	w.signal = 0.5
	w.playerX = 0
	w.targetX = 0
	w.playerZ = 0
	w.lastSpawn = 0
	w.obstacles = nil
}

// State returns the lifecycle state.
func (w *World) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Score returns the current run's score.
func (w *World) Score() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.score
}

// SpeedMultiplier returns speed relative to the base speed.
func (w *World) SpeedMultiplier() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.speed / w.config.BaseSpeed
}

// Snapshot returns a copy of the world.
func (w *World) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Snapshot{
		RunID:           w.runID,
		State:           w.state,
		Score:           w.score,
		Speed:           w.speed,
		SpeedMultiplier: w.speed / w.config.BaseSpeed,
		Signal:          w.signal,
		PlayerX:         w.playerX,
		TargetX:         w.targetX,
		PlayerZ:         w.playerZ,
		Distance:        -w.playerZ,
		Obstacles:       append([]Obstacle(nil), w.obstacles...),
	}
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
