package types

import "math"

// HeightRange is an inclusive interval of block heights.
type HeightRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// HeadRange is [max(0, maxHeight-diff), maxHeight]. ok is false when the
// subtraction overflows.
func HeadRange(maxHeight, diff int64) (r HeightRange, ok bool) {
	start, ok := subInt64(maxHeight, diff)
	if !ok {
		return HeightRange{}, false
	}
	return HeightRange{Start: max(0, start), End: maxHeight}, true
}

// AroundRange is [max(0, height-diff), height+diff]. Only the start is clamped.
func AroundRange(height, diff int64) (r HeightRange, ok bool) {
	start, ok := subInt64(height, diff)
	if !ok {
		return HeightRange{}, false
	}
	end, ok := addInt64(height, diff)
	if !ok {
		return HeightRange{}, false
	}
	return HeightRange{Start: max(0, start), End: end}, true
}

func addInt64(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

func subInt64(a, b int64) (int64, bool) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, false
	}
	return a - b, true
}
