// Package severity classifies a CVSS base score into a named band, shared
// across the v2, v3.x, and v4.0 scoring engines.
package severity

// Band is a qualitative CVSS severity rating.
type Band string

const (
	None     Band = "none"
	Low      Band = "low"
	Medium   Band = "medium"
	High     Band = "high"
	Critical Band = "critical"
)

// String implements fmt.Stringer.
func (b Band) String() string {
	return string(b)
}

// OfV2 maps a v2 base score to its band: None [0.0], Low (0.0, 4.0),
// Medium [4.0, 7.0), High [7.0, 10.0].
func OfV2(score float64) Band {
	switch {
	case score <= 0.0:
		return None
	case score < 4.0:
		return Low
	case score < 7.0:
		return Medium
	default:
		return High
	}
}

// OfV3 maps a v3.x/v4.0 base score to its band: None [0.0], Low (0.0, 4.0),
// Medium [4.0, 7.0), High [7.0, 9.0), Critical [9.0, 10.0].
func OfV3(score float64) Band {
	switch {
	case score <= 0.0:
		return None
	case score < 4.0:
		return Low
	case score < 7.0:
		return Medium
	case score < 9.0:
		return High
	default:
		return Critical
	}
}

// Priority orders bands by comparative severity for max-of-severities logic.
func (b Band) Priority() int {
	switch b {
	case Critical:
		return 4
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}
