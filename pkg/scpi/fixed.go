package scpi

import (
	"math"
	"strconv"
)

// maxScaled bounds the scaled value so it always converts to int64.
const maxScaled = 1e15

// AppendFixed2dp appends value with exactly two decimals to dst.
//
// The value is scaled by 100 and rounded half away from zero. A negative input
// keeps its sign even when it rounds to zero, so -0.001 becomes "-0.00".
// Magnitudes beyond 1e13 are clamped and NaN is written as "0.00".
func AppendFixed2dp(dst []byte, value float64) []byte {
	// The conversion forces rounding before the bias is added.
	scaled := float64(value * 100)
	switch {
	case math.IsNaN(scaled):
		scaled = 0
	case scaled > maxScaled:
		scaled = maxScaled
	case scaled < -maxScaled:
		scaled = -maxScaled
	}
	var rounded int64
	if scaled >= 0 {
		rounded = int64(scaled + 0.5)
	} else {
		rounded = int64(scaled - 0.5)
	}
	if value < 0 {
		dst = append(dst, '-')
	}
	if rounded < 0 {
		rounded = -rounded
	}
	dst = strconv.AppendInt(dst, rounded/100, 10)
	frac := rounded % 100
	dst = append(dst, '.', byte('0'+frac/10), byte('0'+frac%10))
	return dst
}

// FormatFixed2dp returns value with exactly two decimals.
func FormatFixed2dp(value float64) string {
	var buf [24]byte
	return string(AppendFixed2dp(buf[:0], value))
}
