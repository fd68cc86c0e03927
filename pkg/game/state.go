package game

import "fmt"

// State is the lifecycle phase of a run.
//
//	Idle -> Running <-> Paused
//	Running -> GameOver -> (Start) Running
//	any -> (Stop) Idle
type State int

const (
	Idle State = iota
	Running
	Paused
	GameOver
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case GameOver:
		return "gameover"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Idle, Running, Paused, GameOver} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown game state %q", text)
}

// Obstacle is a single collidable entity on the track.
type Obstacle struct {
	X      float64 `json:"x"` // Lane offset
	Z      float64 `json:"z"` // Distance along the track; decreasing is forward
	Radius float64 `json:"radius"`
	Passed bool    `json:"passed"` // Already scored
}

// Snapshot is a read-only copy of the world at one instant.
type Snapshot struct {
	RunID           string     `json:"run_id"`
	State           State      `json:"state"`
	Score           int        `json:"score"`
	Speed           float64    `json:"speed"`
	SpeedMultiplier float64    `json:"speed_multiplier"`
	Signal          float64    `json:"signal"` // Last control signal, 0..1
	PlayerX         float64    `json:"player_x"`
	TargetX         float64    `json:"target_x"`
	PlayerZ         float64    `json:"player_z"`
	Distance        float64    `json:"distance"`
	Obstacles       []Obstacle `json:"obstacles"`
}
