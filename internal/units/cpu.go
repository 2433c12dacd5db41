package units

import (
	"math"
	"strconv"
)

// ParseCPU parses a metrics-API cpu string ("250m", "1234567n", "2") into millicores.
func ParseCPU(s string) (millicores int64, ok bool) {
	num, suffix := splitNumeric(s)
	if num == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	switch suffix {
	case "n":
		v /= 1e6
	case "u":
		v /= 1e3
	case "m":
	case "":
		v *= 1000
	default:
		return 0, false
	}
	return int64(math.Round(v)), true
}
