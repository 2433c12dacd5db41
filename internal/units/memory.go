package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit is a binary memory unit; each step scales by 1024.
type Unit int

const (
	Byte Unit = iota
	KiB
	MiB
	GiB
	TiB
)

var suffixes = map[string]Unit{
	"Ki": KiB,
	"Mi": MiB,
	"Gi": GiB,
	"Ti": TiB,
}

func (u Unit) scale() float64 {
	return math.Pow(1024, float64(u))
}

// Convert rescales v from one unit to another.
func Convert(v float64, from, to Unit) float64 {
	if from == to {
		return v
	}
	return v * from.scale() / to.scale()
}

// ParseMemory parses a quantity string such as "8192000Ki" into bytes.
// Only the binary suffixes Ki, Mi, Gi and Ti are recognised; plain byte
// counts, decimal SI suffixes, exponents and values past int64 report ok=false.
func ParseMemory(s string) (bytes int64, ok bool) {
	s = strings.TrimSpace(s)
	num, suffix := splitNumeric(s)
	if num == "" {
		return 0, false
	}
	unit, known := suffixes[suffix]
	if !known {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	b := math.Round(Convert(v, unit, Byte))
	if b >= math.MaxInt64 {
		return 0, false
	}
	return int64(b), true
}

// splitNumeric returns the leading decimal number and the rest of s.
func splitNumeric(s string) (num, rest string) {
	i := 0
	dot := false
	for i < len(s) {
		c := s[i]
		if c >= '0' && c <= '9' {
			i++
			continue
		}
		if c == '.' && !dot {
			dot = true
			i++
			continue
		}
		break
	}
	return s[:i], s[i:]
}

// BytesToMB converts bytes to (binary) megabytes.
func BytesToMB(b int64) float64 { return Convert(float64(b), Byte, MiB) }

// BytesToGB converts bytes to (binary) gigabytes.
func BytesToGB(b int64) float64 { return Convert(float64(b), Byte, GiB) }

// MBToBytes is the inverse of BytesToMB.
func MBToBytes(mb float64) int64 { return int64(math.Round(Convert(mb, MiB, Byte))) }

// GBToBytes is the inverse of BytesToGB.
func GBToBytes(gb float64) int64 { return int64(math.Round(Convert(gb, GiB, Byte))) }

// FormatMB renders bytes as "12.34 MB".
func FormatMB(b int64) string { return fmt.Sprintf("%.2f MB", round2(BytesToMB(b))) }

// FormatGB renders bytes as "15.63 GB".
func FormatGB(b int64) string { return fmt.Sprintf("%.2f GB", round2(BytesToGB(b))) }

// round2 rounds half away from zero; %.2f alone rounds 15.625 to 15.62.
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Percent returns floor(part/whole*100). ok is false when whole is not positive.
func Percent(part, whole int64) (pct int, ok bool) {
	if whole <= 0 || part < 0 {
		return 0, false
	}
	return int(part * 100 / whole), true
}
