package tracking

// Box is a bounding box in source-frame pixel coordinates.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Center returns the middle of the box.
func (b Box) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// DetectionResult is the output of one tracking cycle.
//
// X and Y are the smoothed, normalized centroid in [0,1]. Width, Height,
// Box and Confidence are the instantaneous measurement. Results are values:
// each cycle builds a new one and never mutates a previous one.
type DetectionResult struct {
	Detected   bool    `json:"detected"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// missed returns the result reported for a cycle without a detection.
// The last known position is kept so consumers reading X/Y see it frozen.
func (r DetectionResult) missed() DetectionResult {
	return DetectionResult{X: r.X, Y: r.Y}
}
