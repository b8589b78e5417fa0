// Package safeconv provides safe integer type conversion functions that panic
// on overflow. Arena node handles are uint32, so index arithmetic crossing the
// int/uint32 boundary goes through these helpers.
package safeconv

import "math"

// MaxInt is the maximum value for int type (platform-dependent).
const MaxInt = int(^uint(0) >> 1)

// MustIntToUint32 converts int to uint32, panics on bounds violation.
// Use only when bounds violations are logically impossible.
func MustIntToUint32(v int) uint32 {
	if v < 0 || uint64(v) > uint64(math.MaxUint32) {
		panic("safeconv: int to uint32 out of bounds")
	}

	return uint32(v)
}

// MustUint32ToInt converts uint32 to int, panics on overflow.
// Only 32-bit platforms can overflow here.
func MustUint32ToInt(v uint32) int {
	if uint64(v) > uint64(MaxInt) {
		panic("safeconv: uint32 to int overflow")
	}

	return int(v)
}
