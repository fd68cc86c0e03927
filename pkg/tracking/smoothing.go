package tracking

import (
	kalman_filter "github.com/LdDl/kalman-filter"
)

// smoother blends successive detected positions.
// reset starts a new history at (x, y); smooth folds in the next reading.
type smoother interface {
	reset(x, y float64)
	smooth(x, y float64) (float64, float64)
}

func newSmoother(cfg Config) smoother {
	if cfg.Smoothing == SmoothingKalman {
		return &kalmanSmoother{
			dt:    cfg.KalmanInterval.Seconds(),
			noise: cfg.KalmanNoise,
		}
	}
	return &emaSmoother{factor: cfg.SmoothingFactor}
}

// emaSmoother applies smoothed = previous + (current - previous) * factor.
type emaSmoother struct {
	factor float64
	x, y   float64
}

func (s *emaSmoother) reset(x, y float64) {
	s.x, s.y = x, y
}

func (s *emaSmoother) smooth(x, y float64) (float64, float64) {
	s.x += (x - s.x) * s.factor
	s.y += (y - s.y) * s.factor
	return s.x, s.y
}

// kalmanSmoother runs positions through a constant-velocity Kalman filter.
type kalmanSmoother struct {
	dt    float64
	noise float64
	kf    *kalman_filter.Kalman2D
}

// Process noise (acceleration std dev, normalized units per s^2).
const kalmanAccelNoise = 2.0

func (s *kalmanSmoother) reset(x, y float64) {
	s.kf = kalman_filter.NewKalman2D(
		s.dt,
		0, 0, // no control input
		kalmanAccelNoise,
		s.noise, s.noise,
		kalman_filter.WithState2D(x, y),
	)
}

func (s *kalmanSmoother) smooth(x, y float64) (float64, float64) {
	if s.kf == nil {
		s.reset(x, y)
		return x, y
	}
	s.kf.Predict()
	if err := s.kf.Update(x, y); err != nil {
		s.reset(x, y)
		return x, y
	}
	sx, sy := s.kf.GetState()
	return clamp(sx, 0, 1), clamp(sy, 0, 1)
}
