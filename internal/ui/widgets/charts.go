package widgets

import (
	"math"
	"strings"
)

// Bar renders v in [0,1] as a fixed-width block bar. Any non-zero value
// shows at least one block.
func Bar(v float64, width int) string {
	if width <= 0 {
		return ""
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	v = clamp01(v)

	fill := int(math.Round(v * float64(width)))

	if v > 0 && fill == 0 {
		fill = 1
	}
	if fill > width {
		fill = width
	}

	return strings.Repeat("█", fill) + strings.Repeat(" ", width-fill)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
