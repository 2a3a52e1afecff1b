package geom

import (
	"fmt"
	"math"
)

// AspectRatioTolerance is the maximum width/height ratio difference treated
// as the same aspect ratio.
const AspectRatioTolerance = 0.1

// namedRatio pairs a canonical width/height value with its display name.
type namedRatio struct {
	value float64
	name  string
}

// Canonical ratios checked in order; first match within tolerance wins.
var namedRatios = []namedRatio{
	{1.0, "1:1"},
	{4.0 / 3.0, "4:3"},
	{3.0 / 2.0, "3:2"},
	{16.0 / 9.0, "16:9"},
	{3.0 / 4.0, "3:4"},
	{2.0 / 3.0, "2:3"},
	{9.0 / 16.0, "9:16"},
}

// AspectRatioName maps a width/height ratio to a familiar name (16:9, 4:3,
// 9:16, ...) within a fixed tolerance, falling back to a formatted ratio.
func AspectRatioName(ratio float64) string {
	for _, nr := range namedRatios {
		if math.Abs(ratio-nr.value) < AspectRatioTolerance {
			return nr.name
		}
	}
	if ratio > 1 {
		return fmt.Sprintf("%.2f:1", ratio)
	}
	return fmt.Sprintf("1:%.2f", SafeDiv(1, ratio, 1))
}

// AspectRatiosMatch reports whether two width/height ratios are the same
// within tolerance.
func AspectRatiosMatch(a, b float64) bool {
	return math.Abs(a-b) < AspectRatioTolerance
}
