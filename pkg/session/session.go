// Package session runs a game: it pulls frames from a camera source into the
// tracker, steers the world with the detected ball and fans world events out
// to sinks (dashboard, player sockets).
package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/teslashibe/go-ballrunner/internal/log"
	"github.com/teslashibe/go-ballrunner/pkg/camera"
	"github.com/teslashibe/go-ballrunner/pkg/debug"
	"github.com/teslashibe/go-ballrunner/pkg/game"
	"github.com/teslashibe/go-ballrunner/pkg/score"
	"github.com/teslashibe/go-ballrunner/pkg/tracking"
	"github.com/teslashibe/go-ballrunner/pkg/video"
)

var (
	// ErrNoTracker is returned for tracker queries while running degraded.
	ErrNoTracker = errors.New("tracker unavailable")

	// ErrUnknownAction is returned by Control for an unrecognized action.
	ErrUnknownAction = errors.New("unknown action")
)

// frameTimeout bounds how long one detection waits for a frame.
const frameTimeout = time.Second

// Sink receives game and tracking notifications. Methods are called from the
// loop goroutines and must not block.
type Sink interface {
	ScoreChanged(score int)
	SpeedChanged(multiplier float64)
	GameOver(final, best int, newRecord bool)
	BallUpdated(x, y, confidence float64)
	StateChanged(from, to game.State)
	Preview(jpeg []byte)
}

// PreviewFunc renders an annotated JPEG of frame. fps is the tracker rate.
type PreviewFunc func(frame tracking.Frame, res tracking.DetectionResult, fps float64, width, height, quality int) ([]byte, error)

// plainPreview draws without text and needs no OpenCV.
func plainPreview(frame tracking.Frame, res tracking.DetectionResult, _ float64, width, height, quality int) ([]byte, error) {
	return video.Preview(frame, res, width, height, quality)
}

// Status is a point-in-time view of the session.
type Status struct {
	Game        game.Snapshot            `json:"game"`
	Ball        tracking.DetectionResult `json:"ball"`
	Tracking    bool                     `json:"tracking"` // False when running without a tracker
	SourceEnded bool                     `json:"source_ended"`
	Mirror      bool                     `json:"mirror"`
	HighScore   int                      `json:"high_score"`
}

// Session wires a tracker, a world and a frame source together.
type Session struct {
	config  Config
	tracker *tracking.Tracker
	world   *game.World
	store   score.Store
	logger  *slog.Logger

	srcMu  sync.Mutex
	source camera.Source

	sinksMu sync.RWMutex
	sinks   []Sink

	previewMu sync.RWMutex
	preview   PreviewFunc

	detecting atomic.Bool
	ended     atomic.Bool
	mirror    atomic.Bool
	cycles    atomic.Uint64
	highScore atomic.Int64
}

// New creates a session. A nil tracker runs the session degraded: the game
// still plays but the ball is never detected. A nil store keeps high scores
// in memory.
func New(cfg Config, tracker *tracking.Tracker, world *game.World, source camera.Source, store score.Store) (*Session, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.Errorf("invalid session config: %v", errs)
	}
	if world == nil {
		return nil, errors.New("session needs a world")
	}
	if store == nil {
		store = score.NewMemoryStore()
	}

	s := &Session{
		config:  cfg,
		tracker: tracker,
		world:   world,
		store:   store,
		source:  source,
		preview: plainPreview,
		logger:  log.Component("session"),
	}
	s.mirror.Store(cfg.Mirror)

	for _, w := range cfg.Warnings(world.Config()) {
		s.logger.Warn("session config", "problem", w)
	}

	best, err := store.HighScore()
	if err != nil {
		s.logger.Warn("high score unavailable", "error", err)
	}
	s.highScore.Store(int64(best))

	if tracker != nil {
		tracker.OnBallUpdate(s.onBall)
	} else {
		s.logger.Warn("running without tracker, ball will not be detected")
	}

	ev := world.Events()
	ev.OnScore(func(n int) {
		s.each(func(k Sink) { k.ScoreChanged(n) })
	})
	ev.OnSpeedChange(func(m float64) {
		s.each(func(k Sink) { k.SpeedChanged(m) })
	})
	ev.OnGameOver(s.onGameOver)
	ev.OnStateChange(func(from, to game.State) {
		s.logger.Info("game state", "from", from, "to", to)
		s.each(func(k Sink) { k.StateChanged(from, to) })
	})

	return s, nil
}

// AddSink registers a notification sink.
func (s *Session) AddSink(k Sink) {
	s.sinksMu.Lock()
	s.sinks = append(s.sinks, k)
	s.sinksMu.Unlock()
}

func (s *Session) each(fn func(Sink)) {
	s.sinksMu.RLock()
	sinks := s.sinks
	s.sinksMu.RUnlock()

	for _, k := range sinks {
		fn(k)
	}
}

// onBall steers the world. The signal only moves while a run is in progress,
// so the player stays put in menus and while paused.
func (s *Session) onBall(x, y, confidence float64) {
	if s.mirror.Load() {
		x = 1 - x
	}
	if s.world.State() == game.Running {
		s.world.UpdateControlSignal(x)
	}
	s.each(func(k Sink) { k.BallUpdated(x, y, confidence) })
}

func (s *Session) onGameOver(final int) {
	best, newRecord, err := score.Record(s.store, final)
	if err != nil {
		s.logger.Error("failed to record score", "score", final, "error", err)
		best = int(s.highScore.Load())
		if final > best {
			best = final
		}
	}
	s.highScore.Store(int64(best))

	if h, ok := s.store.(score.History); ok {
		run := score.Run{
			ID:       s.world.Snapshot().RunID,
			Score:    final,
			Record:   newRecord,
			Finished: time.Now(),
		}
		if err := h.AddRun(run); err != nil {
			s.logger.Warn("failed to save run", "error", err)
		}
	}

	s.logger.Info("game over", "score", final, "best", best, "new_record", newRecord)
	s.each(func(k Sink) { k.GameOver(final, best, newRecord) })
}

// Run drives the world clock and the detection requests until ctx is done.
// Detection is skipped while a previous request is still in flight.
func (s *Session) Run(ctx context.Context) error {
	tick := time.NewTicker(time.Second / time.Duration(s.config.TickHz))
	defer tick.Stop()

	var detect <-chan time.Time
	if s.tracker != nil {
		t := time.NewTicker(time.Second / time.Duration(s.config.DetectHz))
		defer t.Stop()
		detect = t.C
	}

	s.logger.Info("session running",
		"tick_hz", s.config.TickHz,
		"detect_hz", s.config.DetectHz,
		"tracking", s.tracker != nil)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopped")
			return nil

		case now := <-tick.C:
			s.world.Tick(now.Sub(last).Seconds())
			last = now

		case <-detect:
			if s.ended.Load() {
				continue
			}
			if s.detecting.CompareAndSwap(false, true) {
				go func() {
					defer s.detecting.Store(false)
					s.detect(ctx)
				}()
			}
		}
	}
}

// detect runs one tracking cycle on the next frame from the source.
func (s *Session) detect(ctx context.Context) {
	src := s.currentSource()
	if src == nil {
		return
	}

	fctx, cancel := context.WithTimeout(ctx, frameTimeout)
	defer cancel()

	frame, err := src.Next(fctx)
	if err != nil {
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, camera.ErrClosed):
			if s.ended.CompareAndSwap(false, true) {
				s.logger.Info("camera source ended")
			}
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			debug.TrackLog("no frame", "error", err)
		default:
			s.logger.Warn("frame read failed", "error", err)
		}
		return
	}
	if c, ok := frame.(io.Closer); ok {
		defer c.Close()
	}

	res := s.tracker.Track(frame)
	n := s.cycles.Add(1)

	every := uint64(s.config.PreviewEvery)
	if every == 0 || n%every != 0 || !s.hasSinks() {
		return
	}
	s.previewMu.RLock()
	render := s.preview
	s.previewMu.RUnlock()

	fps := s.tracker.Stats().FPS
	data, err := render(frame, res, fps, s.config.PreviewWidth, s.config.PreviewHeight, s.config.PreviewQuality)
	if err != nil {
		debug.Log("preview failed", "error", err)
		return
	}
	s.each(func(k Sink) { k.Preview(data) })
}

func (s *Session) hasSinks() bool {
	s.sinksMu.RLock()
	defer s.sinksMu.RUnlock()
	return len(s.sinks) > 0
}

func (s *Session) currentSource() camera.Source {
	s.srcMu.Lock()
	defer s.srcMu.Unlock()
	return s.source
}

// SetSource swaps the frame source and closes the previous one.
func (s *Session) SetSource(src camera.Source) {
	s.srcMu.Lock()
	old := s.source
	s.source = src
	s.srcMu.Unlock()

	s.ended.Store(false)
	if old != nil && old != src {
		if err := old.Close(); err != nil {
			s.logger.Warn("failed to close camera source", "error", err)
		}
	}
}

// SetPreviewRenderer replaces the preview renderer. nil restores the plain
// one.
func (s *Session) SetPreviewRenderer(fn PreviewFunc) {
	if fn == nil {
		fn = plainPreview
	}
	s.previewMu.Lock()
	s.preview = fn
	s.previewMu.Unlock()
}

// SetMirror switches steering mirroring.
func (s *Session) SetMirror(on bool) {
	s.mirror.Store(on)
}

// Close releases the frame source.
func (s *Session) Close() error {
	s.srcMu.Lock()
	src := s.source
	s.source = nil
	s.srcMu.Unlock()

	if src == nil {
		return nil
	}
	return errors.Wrap(src.Close(), "close camera source")
}

// Start begins a new run. It also restarts after a game over.
func (s *Session) Start() {
	s.world.Start()
}

// Pause suspends a running game.
func (s *Session) Pause() bool {
	return s.world.Pause()
}

// Resume continues a paused game.
func (s *Session) Resume() bool {
	return s.world.Resume()
}

// Stop quits to the menu.
func (s *Session) Stop() {
	s.world.Stop()
}

// TogglePause pauses a running game or resumes a paused one.
func (s *Session) TogglePause() bool {
	switch s.world.State() {
	case game.Running:
		return s.world.Pause()
	case game.Paused:
		return s.world.Resume()
	}
	return false
}

// Control applies a named action: start, pause, resume, stop or toggle.
// It returns the game state afterwards.
func (s *Session) Control(action string) (game.State, error) {
	switch action {
	case "start":
		s.Start()
	case "pause":
		s.Pause()
	case "resume":
		s.Resume()
	case "stop":
		s.Stop()
	case "toggle":
		s.TogglePause()
	default:
		return s.world.State(), errors.Wrapf(ErrUnknownAction, "%q", action)
	}
	return s.world.State(), nil
}

// Status returns the current session state.
func (s *Session) Status() Status {
	st := Status{
		Game:        s.world.Snapshot(),
		Tracking:    s.tracker != nil,
		SourceEnded: s.ended.Load(),
		Mirror:      s.mirror.Load(),
		HighScore:   int(s.highScore.Load()),
	}
	if s.tracker != nil {
		st.Ball = s.tracker.Last()
	}
	return st
}

// TrackerStats returns tracker throughput counters.
func (s *Session) TrackerStats() (tracking.Stats, error) {
	if s.tracker == nil {
		return tracking.Stats{}, ErrNoTracker
	}
	return s.tracker.Stats(), nil
}

// TrackerConfig returns the active tracker configuration.
func (s *Session) TrackerConfig() (tracking.Config, error) {
	if s.tracker == nil {
		return tracking.Config{}, ErrNoTracker
	}
	return s.tracker.Config(), nil
}

// HighScore returns the best recorded score.
func (s *Session) HighScore() int {
	return int(s.highScore.Load())
}

// Runs returns recent finished runs, newest first, when the store keeps them.
func (s *Session) Runs() ([]score.Run, error) {
	h, ok := s.store.(score.History)
	if !ok {
		return nil, nil
	}
	return h.Runs()
}
