// Package v2 implements CVSS version 2.0 vector parsing and base scoring.
package v2

import (
	"strings"

	"github.com/cyw0ng95/vulnintel/pkg/cvss"
	"github.com/cyw0ng95/vulnintel/pkg/cvss/severity"
)

// AccessVector is the AV metric.
type AccessVector string

const (
	AVLocal   AccessVector = "L"
	AVAdjacent AccessVector = "A"
	AVNetwork AccessVector = "N"
)

var accessVectorWeight = map[AccessVector]float64{
	AVLocal:    0.395,
	AVAdjacent: 0.646,
	AVNetwork:  1.0,
}

// AccessComplexity is the AC metric.
type AccessComplexity string

const (
	ACHigh   AccessComplexity = "H"
	ACMedium AccessComplexity = "M"
	ACLow    AccessComplexity = "L"
)

var accessComplexityWeight = map[AccessComplexity]float64{
	ACHigh:   0.35,
	ACMedium: 0.61,
	ACLow:    0.71,
}

// Authentication is the Au metric.
type Authentication string

const (
	AuMultiple Authentication = "M"
	AuSingle   Authentication = "S"
	AuNone     Authentication = "N"
)

var authenticationWeight = map[Authentication]float64{
	AuMultiple: 0.45,
	AuSingle:   0.56,
	AuNone:     0.704,
}

// Impact is the shared C/I/A impact metric shape.
type Impact string

const (
	ImpactNone     Impact = "N"
	ImpactPartial  Impact = "P"
	ImpactComplete Impact = "C"
)

var impactWeight = map[Impact]float64{
	ImpactNone:     0.0,
	ImpactPartial:  0.275,
	ImpactComplete: 0.660,
}

// Metrics holds a fully parsed CVSS v2 base vector.
type Metrics struct {
	AV AccessVector
	AC AccessComplexity
	Au Authentication
	C  Impact
	I  Impact
	A  Impact
}

// canonical metric order for emission, per §4.1.1.
var order = []string{"AV", "AC", "Au", "C", "I", "A"}

// FromVector parses a CVSS v2 vector string such as "CVSS:2.0/AV:L/AC:M/Au:N/C:C/I:C/A:C".
// The "CVSS:2.0" prefix is optional for v2, matching the widely deployed bare
// "AV:.../AC:.../..." form; when present it must read exactly "CVSS:2.0".
func FromVector(s string) (Metrics, error) {
	body := s
	if strings.HasPrefix(s, "CVSS:") {
		rest, ok := strings.CutPrefix(s, "CVSS:2.0")
		if !ok {
			return Metrics{}, cvss.ErrInvalidVersion
		}
		body = strings.TrimPrefix(rest, "/")
	}
	if body == "" {
		return Metrics{}, cvss.ErrInvalidPrefix
	}

	var m Metrics
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
			av := AccessVector(val)
			if _, ok := accessVectorWeight[av]; !ok {
				return Metrics{}, &cvss.InvalidMetricError{Key: key, Value: val, Expected: "L|A|N"}
			}
			m.AV = av
		case "AC":
			ac := AccessComplexity(val)
			if _, ok := accessComplexityWeight[ac]; !ok {
				return Metrics{}, &cvss.InvalidMetricError{Key: key, Value: val, Expected: "H|M|L"}
			}
			m.AC = ac
		case "Au":
			au := Authentication(val)
			if _, ok := authenticationWeight[au]; !ok {
				return Metrics{}, &cvss.InvalidMetricError{Key: key, Value: val, Expected: "M|S|N"}
			}
			m.Au = au
		case "C", "I", "A":
			im := Impact(val)
			if _, ok := impactWeight[im]; !ok {
				return Metrics{}, &cvss.InvalidMetricError{Key: key, Value: val, Expected: "N|P|C"}
			}
			switch key {
			case "C":
				m.C = im
			case "I":
				m.I = im
			case "A":
				m.A = im
			}
		default:
			return Metrics{}, &cvss.InvalidMetricError{Key: key, Value: val, Expected: "AV|AC|Au|C|I|A"}
		}
	}
	for _, k := range order {
		if !seen[k] {
			return Metrics{}, &cvss.InvalidMetricError{Key: k, Expected: "present"}
		}
	}
	return m, nil
}

// ToVector emits the canonical "CVSS:2.0/AV:.../..." form.
func (m Metrics) ToVector() string {
	var b strings.Builder
	b.WriteString("CVSS:2.0")
	fields := map[string]string{
		"AV": string(m.AV),
		"AC": string(m.AC),
		"Au": string(m.Au),
		"C":  string(m.C),
		"I":  string(m.I),
		"A":  string(m.A),
	}
	for _, k := range order {
		b.WriteString("/")
		b.WriteString(k)
		b.WriteString(":")
		b.WriteString(fields[k])
	}
	return b.String()
}

// Exploitability computes 20 x AV x AC x Au.
func (m Metrics) Exploitability() float64 {
	return 20 * accessVectorWeight[m.AV] * accessComplexityWeight[m.AC] * authenticationWeight[m.Au]
}

// Impact computes 10.41 x (1 - (1-C)(1-I)(1-A)).
func (m Metrics) Impact() float64 {
	c := impactWeight[m.C]
	i := impactWeight[m.I]
	a := impactWeight[m.A]
	return 10.41 * (1 - (1-c)*(1-i)*(1-a))
}

// BaseScore computes the CVSS v2 base score, ceil-rounded to one decimal.
func (m Metrics) BaseScore() float64 {
	impact := m.Impact()
	exploitability := m.Exploitability()
	f := 0.0
	if impact != 0 {
		f = 1.176
	}
	raw := (0.6*impact + 0.4*exploitability - 1.5) * f
	return cvss.CeilToTenthV2(raw)
}

// Severity classifies the base score per the v2 band table.
func (m Metrics) Severity() severity.Band {
	return severity.OfV2(m.BaseScore())
}
