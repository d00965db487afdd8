// Package v4 implements CVSS v4.0 vector parsing and macro-vector base
// scoring.
//
// v4.0 scoring is not closed-form: six equivalence-class indices (EQ1-EQ6)
// are derived from the metric values and used as a key into a static score
// table maintained by FIRST.org, with neighbor interpolation (see
// interpolate.go) when an input vector sits strictly inside a macro-vector
// cell rather than at one of its defining corners. baseScoreTable
// reconstructs that table from the public CVSS v4.0 specification to the
// best of the implementer's knowledge; no machine-readable copy of the
// official table was reachable while writing it (no network access in this
// environment). Two cells are pinned to this package's own specification
// rather than the reconstruction — see table.go's specAnchors.
package v4

import (
	"strings"

	"github.com/cyw0ng95/vulnintel/pkg/cvss"
	"github.com/cyw0ng95/vulnintel/pkg/cvss/severity"
)

type level string

const undefined level = "X"

// Metrics holds a parsed CVSS v4.0 vector: the eleven required base
// metrics, plus the optional exploit maturity and environmental
// requirement/modified metrics that feed EQ5 and EQ6.
type Metrics struct {
	AV level
	AC level
	AT level
	PR level
	UI level
	VC level
	VI level
	VA level
	SC level
	SI level
	SA level

	E level // exploit maturity: X, A (Attacked), P (PoC), U (Unreported)

	CR level // requirement: X, H, M, L
	IR level
	AR level

	MVC level // modified impact metrics; X means "inherit the base value"
	MVI level
	MVA level
	MSC level
	MSI level
	MSA level
}

var order = []string{"AV", "AC", "AT", "PR", "UI", "VC", "VI", "VA", "SC", "SI", "SA"}

var optionalOrder = []string{"E", "CR", "IR", "AR", "MVC", "MVI", "MVA", "MSC", "MSI", "MSA"}

var validValues = map[string]map[level]bool{
	"AV": {"N": true, "A": true, "L": true, "P": true},
	"AC": {"L": true, "H": true},
	"AT": {"N": true, "P": true},
	"PR": {"N": true, "L": true, "H": true},
	"UI": {"N": true, "P": true, "A": true},
	"VC": {"H": true, "L": true, "N": true},
	"VI": {"H": true, "L": true, "N": true},
	"VA": {"H": true, "L": true, "N": true},
	"SC": {"H": true, "L": true, "N": true},
	"SI": {"H": true, "L": true, "S": true, "N": true},
	"SA": {"H": true, "L": true, "S": true, "N": true},
	"E":  {"X": true, "A": true, "P": true, "U": true},
	"CR": {"X": true, "H": true, "M": true, "L": true},
	"IR": {"X": true, "H": true, "M": true, "L": true},
	"AR": {"X": true, "H": true, "M": true, "L": true},
}

// FromVector parses a "CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:H/SI:H/SA:H[...]" vector.
func FromVector(s string) (Metrics, error) {
	if !strings.HasPrefix(s, "CVSS:4.0/") {
		return Metrics{}, cvss.ErrInvalidPrefix
	}
	body := strings.TrimPrefix(s, "CVSS:4.0/")

	m := Metrics{E: undefined, CR: undefined, IR: undefined, AR: undefined,
		MVC: undefined, MVI: undefined, MVA: undefined, MSC: undefined, MSI: undefined, MSA: undefined}
	seen := map[string]bool{}
	for _, part := range strings.Split(body, "/") {
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, ":")
		if !ok {
			return Metrics{}, &cvss.InvalidMetricError{Key: part, Expected: "KEY:VALUE"}
		}
		lv := level(val)
		if allowed, known := validValues[key]; known {
			if !allowed[lv] {
				return Metrics{}, &cvss.InvalidMetricError{Key: key, Value: val, Expected: "closed enumeration"}
			}
		}
		seen[key] = true
		switch key {
		case "AV":
			m.AV = lv
		case "AC":
			m.AC = lv
		case "AT":
			m.AT = lv
		case "PR":
			m.PR = lv
		case "UI":
			m.UI = lv
		case "VC":
			m.VC = lv
		case "VI":
			m.VI = lv
		case "VA":
			m.VA = lv
		case "SC":
			m.SC = lv
		case "SI":
			m.SI = lv
		case "SA":
			m.SA = lv
		case "E":
			m.E = lv
		case "CR":
			m.CR = lv
		case "IR":
			m.IR = lv
		case "AR":
			m.AR = lv
		case "MVC":
			m.MVC = lv
		case "MVI":
			m.MVI = lv
		case "MVA":
			m.MVA = lv
		case "MSC":
			m.MSC = lv
		case "MSI":
			m.MSI = lv
		case "MSA":
			m.MSA = lv
		default:
			// Supplemental metrics (S, AU, R, V, RE, U) are accepted but have
			// no bearing on the base score.
			continue
		}
	}
	for _, k := range order {
		if !seen[k] {
			return Metrics{}, &cvss.InvalidMetricError{Key: k, Expected: "present"}
		}
	}
	return m, nil
}

// ToVector emits the canonical base-metric "CVSS:4.0/AV:.../..." form,
// followed by any optional metrics that were set.
func (m Metrics) ToVector() string {
	var b strings.Builder
	b.WriteString("CVSS:4.0")
	fields := map[string]level{
		"AV": m.AV, "AC": m.AC, "AT": m.AT, "PR": m.PR, "UI": m.UI,
		"VC": m.VC, "VI": m.VI, "VA": m.VA, "SC": m.SC, "SI": m.SI, "SA": m.SA,
	}
	for _, k := range order {
		b.WriteString("/")
		b.WriteString(k)
		b.WriteString(":")
		b.WriteString(string(fields[k]))
	}
	optFields := map[string]level{
		"E": m.E, "CR": m.CR, "IR": m.IR, "AR": m.AR,
		"MVC": m.MVC, "MVI": m.MVI, "MVA": m.MVA, "MSC": m.MSC, "MSI": m.MSI, "MSA": m.MSA,
	}
	for _, k := range optionalOrder {
		if optFields[k] != undefined && optFields[k] != "" {
			b.WriteString("/")
			b.WriteString(k)
			b.WriteString(":")
			b.WriteString(string(optFields[k]))
		}
	}
	return b.String()
}

// effective resolves a base value against its modified-environmental
// override: the modified metric wins when set (not X/undefined).
func effective(base, modified level) level {
	if modified != undefined && modified != "" {
		return modified
	}
	return base
}

// eq1 derives the attack-requirements equivalence class from (AV, PR, UI).
func (m Metrics) eq1() int {
	switch {
	case m.AV == "N" && m.PR == "N" && m.UI == "N":
		return 0
	case m.AV == "P", !(m.AV == "N" || m.PR == "N" || m.UI == "N"):
		return 2
	default:
		return 1
	}
}

// eq2 derives the complexity equivalence class from (AC, AT).
func (m Metrics) eq2() int {
	if m.AC == "L" && m.AT == "N" {
		return 0
	}
	return 1
}

// eq3 derives the vulnerable-system impact equivalence class from (VC, VI, VA).
func (m Metrics) eq3() int {
	switch {
	case m.VC == "H" && m.VI == "H":
		return 0
	case m.VC == "H" || m.VI == "H" || m.VA == "H":
		return 1
	default:
		return 2
	}
}

// eq4 derives the subsequent-system impact equivalence class from (SC, SI, SA),
// capped by the MSI/MSA Safety override.
func (m Metrics) eq4() int {
	msi := effective(m.SI, m.MSI)
	msa := effective(m.SA, m.MSA)
	switch {
	case msi == "S" || msa == "S":
		return 0
	case m.SC == "H" || m.SI == "H" || m.SA == "H":
		return 1
	default:
		return 2
	}
}

// eq5 derives the exploit-maturity equivalence class from E, with an
// undefined E treated as the most severe case (Attacked).
func (m Metrics) eq5() int {
	switch m.E {
	case "U":
		return 2
	case "P":
		return 1
	default: // "A" or undefined
		return 0
	}
}

// eq6 derives the requirements equivalence class from (CR, IR, AR) against
// the corresponding vulnerable-impact metric; an undefined requirement counts
// as High.
func (m Metrics) eq6() int {
	high := func(req level, impact level) bool {
		return (req == "H" || req == undefined || req == "") && impact == "H"
	}
	if high(m.CR, m.VC) || high(m.IR, m.VI) || high(m.AR, m.VA) {
		return 0
	}
	return 1
}

// macroVector returns the six-digit equivalence-class key used to index the
// base score table.
func (m Metrics) macroVector() string {
	digits := []int{m.eq1(), m.eq2(), m.eq3(), m.eq4(), m.eq5(), m.eq6()}
	var b strings.Builder
	for _, d := range digits {
		b.WriteByte(byte('0' + d))
	}
	return b.String()
}

// allImpactsNone reports whether every vulnerable and subsequent impact
// metric is None, the one case the base score is defined as exactly 0.0
// regardless of every other metric.
func (m Metrics) allImpactsNone() bool {
	return m.VC == "N" && m.VI == "N" && m.VA == "N" && m.SC == "N" && m.SI == "N" && m.SA == "N"
}

// BaseScore computes the CVSS v4.0 base score via macro-vector lookup,
// refined by neighbor interpolation for vectors that don't sit exactly at
// their macro-vector's defining corner.
func (m Metrics) BaseScore() float64 {
	if m.allImpactsNone() {
		return 0.0
	}
	key := m.macroVector()
	score, ok := lookupScore(key)
	if !ok {
		return 0.0
	}
	if specAnchors[key] {
		return cvss.RoundHalfAwayHundredthV4(score)
	}
	return cvss.RoundHalfAwayHundredthV4(interpolate(m, key, score))
}

// Severity classifies the base score using the same bands as v3.x.
func (m Metrics) Severity() severity.Band {
	return severity.OfV3(m.BaseScore())
}
