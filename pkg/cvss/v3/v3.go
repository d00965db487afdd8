// Package v3 implements CVSS v3.0 and v3.1 vector parsing and base scoring.
package v3

import (
	"math"
	"strings"

	"github.com/cyw0ng95/vulnintel/pkg/cvss"
	"github.com/cyw0ng95/vulnintel/pkg/cvss/severity"
)

// Version distinguishes the two v3 revisions; the metric set and formulas
// are identical, only the "CVSS:<ver>" prefix differs.
type Version string

const (
	V30 Version = "3.0"
	V31 Version = "3.1"
)

type AttackVector string

const (
	AVNetwork   AttackVector = "N"
	AVAdjacent  AttackVector = "A"
	AVLocal     AttackVector = "L"
	AVPhysical  AttackVector = "P"
)

var avWeight = map[AttackVector]float64{AVNetwork: 0.85, AVAdjacent: 0.62, AVLocal: 0.55, AVPhysical: 0.2}

type AttackComplexity string

const (
	ACLow  AttackComplexity = "L"
	ACHigh AttackComplexity = "H"
)

var acWeight = map[AttackComplexity]float64{ACLow: 0.77, ACHigh: 0.44}

type PrivilegesRequired string

const (
	PRNone PrivilegesRequired = "N"
	PRLow  PrivilegesRequired = "L"
	PRHigh PrivilegesRequired = "H"
)

// prChanged/prUnchanged hold PR's scope-dependent weight, per §4.1.3.
var prChanged = map[PrivilegesRequired]float64{PRNone: 0.85, PRLow: 0.68, PRHigh: 0.5}
var prUnchanged = map[PrivilegesRequired]float64{PRNone: 0.85, PRLow: 0.62, PRHigh: 0.27}

type UserInteraction string

const (
	UINone     UserInteraction = "N"
	UIRequired UserInteraction = "R"
)

var uiWeight = map[UserInteraction]float64{UINone: 0.85, UIRequired: 0.62}

type Scope string

const (
	ScopeUnchanged Scope = "U"
	ScopeChanged   Scope = "C"
)

type CIAImpact string

const (
	ImpactNone CIAImpact = "N"
	ImpactLow  CIAImpact = "L"
	ImpactHigh CIAImpact = "H"
)

var ciaWeight = map[CIAImpact]float64{ImpactNone: 0, ImpactLow: 0.22, ImpactHigh: 0.56}

// Metrics holds a fully parsed CVSS v3.x base vector.
type Metrics struct {
	Version Version
	AV      AttackVector
	AC      AttackComplexity
	PR      PrivilegesRequired
	UI      UserInteraction
	S       Scope
	C       CIAImpact
	I       CIAImpact
	A       CIAImpact
}

var order = []string{"AV", "AC", "PR", "UI", "S", "C", "I", "A"}

// FromVector parses "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H" or the 3.0 equivalent.
func FromVector(s string) (Metrics, error) {
	if !strings.HasPrefix(s, "CVSS:") {
		return Metrics{}, cvss.ErrInvalidPrefix
	}
	rest := strings.TrimPrefix(s, "CVSS:")
	verStr, body, ok := strings.Cut(rest, "/")
	if !ok {
		return Metrics{}, cvss.ErrInvalidPrefix
	}
	var ver Version
	switch verStr {
	case string(V30):
		ver = V30
	case string(V31):
		ver = V31
	default:
		return Metrics{}, cvss.ErrInvalidVersion
	}

	m := Metrics{Version: ver}
	seen := map[string]bool{}
	for _, part := range strings.Split(body, "/") {
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, ":")
		if !ok {
			return Metrics{}, &cvss.InvalidMetricError{Key: part, Expected: "KEY:VALUE"}
		}
		seen[key] = true
		switch key {
		case "AV":
			v := AttackVector(val)
			if _, ok := avWeight[v]; !ok {
				return Metrics{}, &cvss.InvalidMetricError{Key: key, Value: val, Expected: "N|A|L|P"}
			}
			m.AV = v
		case "AC":
			v := AttackComplexity(val)
			if _, ok := acWeight[v]; !ok {
				return Metrics{}, &cvss.InvalidMetricError{Key: key, Value: val, Expected: "L|H"}
			}
			m.AC = v
		case "PR":
			v := PrivilegesRequired(val)
			if _, ok := prUnchanged[v]; !ok {
				return Metrics{}, &cvss.InvalidMetricError{Key: key, Value: val, Expected: "N|L|H"}
			}
			m.PR = v
		case "UI":
			v := UserInteraction(val)
			if _, ok := uiWeight[v]; !ok {
				return Metrics{}, &cvss.InvalidMetricError{Key: key, Value: val, Expected: "N|R"}
			}
			m.UI = v
		case "S":
			v := Scope(val)
			if v != ScopeUnchanged && v != ScopeChanged {
				return Metrics{}, &cvss.InvalidMetricError{Key: key, Value: val, Expected: "U|C"}
			}
			m.S = v
		case "C", "I", "A":
			v := CIAImpact(val)
			if _, ok := ciaWeight[v]; !ok {
				return Metrics{}, &cvss.InvalidMetricError{Key: key, Value: val, Expected: "N|L|H"}
			}
			switch key {
			case "C":
				m.C = v
			case "I":
				m.I = v
			case "A":
				m.A = v
			}
		default:
			// Temporal/environmental metrics and anything else are accepted for
			// parsing but do not influence the base score (§4.1 Non-goals).
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

// ToVector emits the canonical "CVSS:<ver>/AV:.../..." base-metric form.
func (m Metrics) ToVector() string {
	var b strings.Builder
	b.WriteString("CVSS:")
	b.WriteString(string(m.Version))
	fields := map[string]string{
		"AV": string(m.AV), "AC": string(m.AC), "PR": string(m.PR), "UI": string(m.UI),
		"S": string(m.S), "C": string(m.C), "I": string(m.I), "A": string(m.A),
	}
	for _, k := range order {
		b.WriteString("/")
		b.WriteString(k)
		b.WriteString(":")
		b.WriteString(fields[k])
	}
	return b.String()
}

// iss computes ISS = 1 - (1-C)(1-I)(1-A).
func (m Metrics) iss() float64 {
	c, i, a := ciaWeight[m.C], ciaWeight[m.I], ciaWeight[m.A]
	return 1 - (1-c)*(1-i)*(1-a)
}

// Impact computes the scope-dependent impact sub-score.
func (m Metrics) Impact() float64 {
	iss := m.iss()
	if m.S == ScopeUnchanged {
		return 6.42 * iss
	}
	return 7.52*(iss-0.029) - 3.25*math.Pow(iss-0.02, 15)
}

// Exploitability computes 8.22 x AV x AC x PR(scope) x UI.
func (m Metrics) Exploitability() float64 {
	pr := prUnchanged
	if m.S == ScopeChanged {
		pr = prChanged
	}
	return 8.22 * avWeight[m.AV] * acWeight[m.AC] * pr[m.PR] * uiWeight[m.UI]
}

// BaseScore computes the v3.x base score per §4.1.3.
func (m Metrics) BaseScore() float64 {
	impact := m.Impact()
	if impact <= 0 {
		return 0
	}
	exploitability := m.Exploitability()
	if m.S == ScopeUnchanged {
		return cvss.RoundUpV3(math.Min(impact+exploitability, 10))
	}
	return cvss.RoundUpV3(math.Min(1.08*(impact+exploitability), 10))
}

// Severity classifies the base score per the v3 band table (includes Critical).
func (m Metrics) Severity() severity.Band {
	return severity.OfV3(m.BaseScore())
}
