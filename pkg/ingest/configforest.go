package ingest

import (
	"github.com/cyw0ng95/vulnintel/pkg/configtree"
	"github.com/cyw0ng95/vulnintel/pkg/cpe"
	"github.com/cyw0ng95/vulnintel/pkg/feed/nvd"
)

// buildForest converts a CVE item's wire-level configuration blocks into
// configtree's evaluation shape, so the same pass that persists the CVE can
// also derive its vendor_product_set. CPE criteria that fail to parse are
// dropped rather than aborting the whole CVE.
func buildForest(configs []nvd.Config) []configtree.Node {
	forest := make([]configtree.Node, 0, len(configs))
	for _, c := range configs {
		op := c.Operator
		if op == "" {
			op = "AND"
		}
		children := make([]configtree.Node, 0, len(c.Nodes))
		for _, n := range c.Nodes {
			children = append(children, nodeToTreeNode(n))
		}
		forest = append(forest, configtree.Node{
			Operator: configtree.Operator(op),
			Negate:   c.Negate,
			Children: children,
		})
	}
	return forest
}

func nodeToTreeNode(n nvd.Node) configtree.Node {
	matches := make([]configtree.Match, 0, len(n.CPEMatch))
	for _, m := range n.CPEMatch {
		name, err := cpe.ParseURI(m.Criteria)
		if err != nil {
			continue
		}
		matches = append(matches, configtree.Match{
			Vulnerable:            m.Vulnerable,
			Criteria:              name,
			VersionStartIncluding: m.VersionStartIncluding,
			VersionStartExcluding: m.VersionStartExcluding,
			VersionEndIncluding:   m.VersionEndIncluding,
			VersionEndExcluding:   m.VersionEndExcluding,
		})
	}
	return configtree.Node{
		Operator: configtree.Operator(n.Operator),
		Negate:   n.Negate,
		CPEMatch: matches,
	}
}
