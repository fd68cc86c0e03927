package tracking

// HSV is a color in hue/saturation/value space.
// Hue is in degrees [0, 360). Saturation and value are scaled to [0, 255]
// so they can be compared directly against 8-bit thresholds.
type HSV struct {
	H float64
	S float64
	V float64
}

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ColorConfig describes the target color region.
//
// Saturation and value only enforce their lower bound; Max is kept for
// display and is implicitly 255. Hues at or above HueWrap are also accepted
// so reds that continue past 0° still match. HueWrap <= 0 disables the wrap.
type ColorConfig struct {
	Hue        Range   `json:"hue"`
	Saturation Range   `json:"saturation"`
	Value      Range   `json:"value"`
	HueWrap    float64 `json:"hue_wrap"`
}

// RGBToHSV converts an 8-bit RGB triple to HSV.
func RGBToHSV(r, g, b uint8) HSV {
	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255

	maxC := max(rf, gf, bf)
	minC := min(rf, gf, bf)
	d := maxC - minC

	var h float64
	if d != 0 {
		switch maxC {
		case rf:
			h = (gf - bf) / d
			if h < 0 {
				h += 6
			}
		case gf:
			h = (bf-rf)/d + 2
		default:
			h = (rf-gf)/d + 4
		}
		h *= 60
	}

	var s float64
	if maxC > 0 {
		s = d / maxC * 255
	}

	return HSV{H: h, S: s, V: maxC * 255}
}

// Classify reports whether the pixel falls inside the configured color region.
func Classify(r, g, b uint8, cfg ColorConfig) bool {
	hsv := RGBToHSV(r, g, b)

	if hsv.S < cfg.Saturation.Min || hsv.V < cfg.Value.Min {
		return false
	}
	if cfg.Hue.Contains(hsv.H) {
		return true
	}
	return cfg.HueWrap > 0 && hsv.H >= cfg.HueWrap
}
