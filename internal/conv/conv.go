// Package conv provides checked integer conversions for compiled rule data.
//
// Pattern bounds (skip, max occurrence) are validated against their declared
// ranges before they are narrowed. A failed conversion here therefore means a
// validation step was skipped, and it panics instead of wrapping silently.
package conv

import "math"

// IntToInt8 converts an int to int8.
// Panics if n is outside [math.MinInt8, math.MaxInt8].
//
//go:inline
func IntToInt8(n int) int8 {
	if n < math.MinInt8 || n > math.MaxInt8 {
		panic("integer overflow: int value out of int8 range")
	}
	return int8(n)
}

// IntToUint32 converts an int to uint32.
// Panics if n < 0 or n > math.MaxUint32.
//
//go:inline
func IntToUint32(n int) uint32 {
	// Compare as uint so that 32-bit platforms do not overflow the constant.
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("integer overflow: int value out of uint32 range")
	}
	return uint32(n)
}
