// Package version implements a generalized, dotted-numeric version
// comparator for matching asset versions against CPE product ranges.
// Plain string comparison is explicitly wrong for this domain ("7.5.10"
// must compare less than "7.5.101"), so every component is compared
// numerically when both sides parse as integers, falling back to a
// lexicographic comparison of the raw segment otherwise (so "1.0.0-beta"
// orders before "1.0.0-rc1"). A qualifier counts as one more segment, so
// "1.2.0" orders before "1.2.0-beta".
package version

import (
	"strconv"
	"strings"
)

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func Compare(a, b string) int {
	as := splitSegments(a)
	bs := splitSegments(b)

	for i := 0; i < len(as) || i < len(bs); i++ {
		var sa, sb string
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}
		if c := compareSegment(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}

// LessThan reports whether a < b.
func LessThan(a, b string) bool { return Compare(a, b) < 0 }

// LessOrEqual reports whether a <= b.
func LessOrEqual(a, b string) bool { return Compare(a, b) <= 0 }

// GreaterThan reports whether a > b.
func GreaterThan(a, b string) bool { return Compare(a, b) > 0 }

// GreaterOrEqual reports whether a >= b.
func GreaterOrEqual(a, b string) bool { return Compare(a, b) >= 0 }

// Equal reports whether a and b compare equal.
func Equal(a, b string) bool { return Compare(a, b) == 0 }

// splitSegments breaks a version string on '.', '-', '_', and '+', which
// covers the dotted-numeric-plus-qualifier forms seen in CPE version and
// update attributes (e.g. "2.4.41", "1.0.0-rc1", "5.15_p1").
func splitSegments(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == '.' || r == '-' || r == '_' || r == '+'
	})
}

// compareSegment compares two segments numerically when both parse as
// non-negative integers, otherwise lexicographically. A missing segment
// (empty string, meaning the other version has more parts) sorts lowest,
// so "1.2" < "1.2.1".
func compareSegment(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
