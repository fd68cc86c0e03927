package game

import "sync"

// Events holds the callbacks a World notifies.
// Callbacks run after the world lock is released, so they may call back
// into the World.
type Events struct {
	mu          sync.RWMutex
	score       []func(score int)
	speed       []func(multiplier float64)
	gameOver    []func(finalScore int)
	stateChange []func(from, to State)
}

// OnScore registers a callback fired whenever the score increases,
// and with 0 when a run starts.
func (e *Events) OnScore(fn func(score int)) {
	e.mu.Lock()
	e.score = append(e.score, fn)
	e.mu.Unlock()
}

// OnSpeedChange registers a callback fired every running tick with speed/baseSpeed.
func (e *Events) OnSpeedChange(fn func(multiplier float64)) {
	e.mu.Lock()
	e.speed = append(e.speed, fn)
	e.mu.Unlock()
}

// OnGameOver registers a callback fired once when a run ends in a collision.
func (e *Events) OnGameOver(fn func(finalScore int)) {
	e.mu.Lock()
	e.gameOver = append(e.gameOver, fn)
	e.mu.Unlock()
}

// OnStateChange registers a callback fired on every lifecycle transition.
func (e *Events) OnStateChange(fn func(from, to State)) {
	e.mu.Lock()
	e.stateChange = append(e.stateChange, fn)
	e.mu.Unlock()
}

type eventKind int

const (
	evScore eventKind = iota
	evSpeed
	evGameOver
	evState
)

// event is a notification queued under the world lock and delivered after it.
type event struct {
	kind  eventKind
	n     int
	f     float64
	from  State
	state State
}

func (e *Events) dispatch(queue []event) {
	if len(queue) == 0 {
		return
	}

	e.mu.RLock()
	score, speed, gameOver, stateChange := e.score, e.speed, e.gameOver, e.stateChange
	e.mu.RUnlock()

	for _, ev := range queue {
		switch ev.kind {
		case evScore:
			for _, fn := range score {
				fn(ev.n)
			}
		case evSpeed:
			for _, fn := range speed {
				fn(ev.f)
			}
		case evGameOver:
			for _, fn := range gameOver {
				fn(ev.n)
			}
		case evState:
			for _, fn := range stateChange {
				fn(ev.from, ev.state)
			}
		}
	}
}
