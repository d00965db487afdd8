// Package cvss holds the error sentinels and rounding primitives shared by
// the v2, v3.x, and v4.0 scoring engines in its subpackages.
package cvss

import (
	"errors"
	"fmt"
	"math"
)

// Parse error sentinels, shared verbatim across every CVSS version.
var (
	ErrInvalidPrefix  = errors.New("cvss: invalid or missing version prefix")
	ErrInvalidVersion = errors.New("cvss: unrecognized CVSS version")
)

// InvalidMetricError reports a malformed or out-of-range metric assignment.
type InvalidMetricError struct {
	Key      string
	Value    string
	Expected string
}

func (e *InvalidMetricError) Error() string {
	return fmt.Sprintf("cvss: invalid metric %s:%s, expected one of %s", e.Key, e.Value, e.Expected)
}

// RoundUpV3 implements the CVSS v3 "smallest tenth >= x" rounding rule as
// integer arithmetic over x*100000, avoiding float-rounding artifacts at the
// boundary (e.g. roundUp(4.02) must be 4.1, not 4.0).
func RoundUpV3(x float64) float64 {
	intInput := int64(math.Round(x * 100000))
	if intInput%10000 == 0 {
		return float64(intInput) / 100000
	}
	return float64((intInput/10000)+1) / 10
}

// CeilToTenthV2 implements CVSS v2's "ceil to tenth" rounding.
func CeilToTenthV2(x float64) float64 {
	return math.Ceil(x*10) / 10
}

// RoundHalfAwayHundredthV4 rounds to one decimal using half-away-from-zero,
// per CVSS v4.0's distinct rounding rule (math.Round is already half-away-
// from-zero in Go, unlike banker's rounding).
func RoundHalfAwayHundredthV4(x float64) float64 {
	return math.Round(x*10) / 10
}
