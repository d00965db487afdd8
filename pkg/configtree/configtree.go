// Package configtree evaluates a CVE's configuration forest — the logical
// AND/OR/negate expression over CPE match criteria that expresses which
// product/version combinations a CVE affects — against a concrete asset,
// and extracts the vendor/product pairs that seed CVE<->Product edges.
package configtree

import (
	"github.com/cyw0ng95/vulnintel/pkg/cpe"
	"github.com/cyw0ng95/vulnintel/pkg/version"
)

// Operator is the boolean combinator applied to a node's children or matches.
type Operator string

const (
	OperatorOR  Operator = "OR"
	OperatorAND Operator = "AND"
)

// Match is a single CPE applicability criterion, mirroring the NVD API's
// cpeMatch shape: a CPE name plus an optional version range.
type Match struct {
	Vulnerable bool
	Criteria   cpe.Name

	VersionStartIncluding string
	VersionStartExcluding string
	VersionEndIncluding   string
	VersionEndExcluding   string
}

// hasRange reports whether the match constrains the version with an
// explicit range rather than relying on the CPE's own version attribute.
func (m Match) hasRange() bool {
	return m.VersionStartIncluding != "" || m.VersionStartExcluding != "" ||
		m.VersionEndIncluding != "" || m.VersionEndExcluding != ""
}

// Node is one level of the configuration forest.
type Node struct {
	Operator Operator
	Negate   bool
	Children []Node
	CPEMatch []Match
}

// Asset is the (product, version) pair being checked for applicability.
type Asset struct {
	Product string
	Version string
}

// Evaluate implements §4.4: a node with match criteria evaluates those
// criteria directly (OR = any matches, AND = all match); a node without
// match criteria recurses into its children with the same operator
// semantics; negate inverts the final result.
func Evaluate(n Node, asset Asset) bool {
	var result bool
	if len(n.CPEMatch) > 0 {
		result = evalMatches(n.Operator, n.CPEMatch, asset)
	} else {
		result = evalChildren(n.Operator, n.Children, asset)
	}
	if n.Negate {
		return !result
	}
	return result
}

func evalMatches(op Operator, matches []Match, asset Asset) bool {
	if op == OperatorAND {
		for _, m := range matches {
			if !matchOne(m, asset) {
				return false
			}
		}
		return len(matches) > 0
	}
	for _, m := range matches {
		if matchOne(m, asset) {
			return true
		}
	}
	return false
}

func evalChildren(op Operator, children []Node, asset Asset) bool {
	if op == OperatorAND {
		for _, c := range children {
			if !Evaluate(c, asset) {
				return false
			}
		}
		return len(children) > 0
	}
	for _, c := range children {
		if Evaluate(c, asset) {
			return true
		}
	}
	return false
}

// matchOne implements §4.3's product and version matching rules for a
// single criterion.
func matchOne(m Match, asset Asset) bool {
	return matchProduct(m.Criteria, asset.Product) && matchVersion(m, asset.Version)
}

func matchProduct(c cpe.Name, product string) bool {
	switch {
	case c.Product.IsAny():
		return true
	case c.Product.IsNA():
		return false
	case c.TargetSW.IsValue():
		return c.TargetSW.Value+"-"+c.Product.Value == product
	default:
		return c.Product.Value == product
	}
}

func matchVersion(m Match, assetVersion string) bool {
	if m.hasRange() {
		if m.VersionStartIncluding != "" && !version.GreaterOrEqual(assetVersion, m.VersionStartIncluding) {
			return false
		}
		if m.VersionStartExcluding != "" && !version.GreaterThan(assetVersion, m.VersionStartExcluding) {
			return false
		}
		if m.VersionEndIncluding != "" && !version.LessOrEqual(assetVersion, m.VersionEndIncluding) {
			return false
		}
		if m.VersionEndExcluding != "" && !version.LessThan(assetVersion, m.VersionEndExcluding) {
			return false
		}
		return true
	}

	c := m.Criteria.Version
	switch {
	case c.IsAny():
		return true
	case c.IsNA():
		return false
	default:
		want := c.Value
		if m.Criteria.Update.IsValue() {
			want = want + ":" + m.Criteria.Update.Value
		}
		return version.Equal(assetVersion, want)
	}
}

// VendorProduct identifies a distinct (part, vendor, product) triple.
type VendorProduct struct {
	Part    cpe.Part
	Vendor  string
	Product string
}

// contributes reports whether a match criterion contributes to
// vendor/product extraction: either it is marked vulnerable, or it carries
// an explicit version range (§4.4 excludes pure environment-scoping
// criteria — vulnerable=false with no range — from this set).
func (m Match) contributes() bool {
	return m.Vulnerable || m.hasRange()
}

// VendorProductSet walks the whole forest and returns the distinct
// (part, vendor, product) triples from every contributing match criterion.
func VendorProductSet(forest []Node) []VendorProduct {
	seen := map[VendorProduct]bool{}
	var out []VendorProduct
	var walk func(n Node)
	walk = func(n Node) {
		for _, m := range n.CPEMatch {
			if !m.contributes() {
				continue
			}
			if !m.Criteria.Vendor.IsValue() || !m.Criteria.Product.IsValue() {
				continue
			}
			vp := VendorProduct{Part: m.Criteria.Part, Vendor: m.Criteria.Vendor.Value, Product: m.Criteria.Product.Value}
			if !seen[vp] {
				seen[vp] = true
				out = append(out, vp)
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, n := range forest {
		walk(n)
	}
	return out
}
