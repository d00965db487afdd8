package nvd

import (
	"github.com/cyw0ng95/vulnintel/pkg/applog"
	v2 "github.com/cyw0ng95/vulnintel/pkg/cvss/v2"
	v3 "github.com/cyw0ng95/vulnintel/pkg/cvss/v3"
	v4 "github.com/cyw0ng95/vulnintel/pkg/cvss/v4"
	"github.com/cyw0ng95/vulnintel/pkg/cvss/severity"
	"github.com/cyw0ng95/vulnintel/pkg/model"
)

var log = applog.Named("feed.nvd")

// ToModelCVE maps one NVD API item onto the aggregator's relational model,
// scoring every CVSS vector the feed supplies and deriving severity from the
// highest-priority revision present (v3.1 > v3.0 > v2; v4.0 is carried
// alongside but, per the documented priority rule that predates it, only
// drives severity when no v3/v2 result is available).
func ToModelCVE(item CVEItem) (model.CVE, error) {
	descriptions := make([]model.Description, 0, len(item.Descriptions))
	for _, d := range item.Descriptions {
		descriptions = append(descriptions, model.Description{Lang: d.Lang, Value: d.Value})
	}

	references := make([]model.Reference, 0, len(item.References))
	for _, r := range item.References {
		references = append(references, model.Reference{URL: r.URL, Source: r.Source, Tags: r.Tags})
	}

	weaknesses := make([]model.Weakness, 0, len(item.Weaknesses))
	for _, w := range item.Weaknesses {
		descs := make([]string, 0, len(w.Description))
		for _, d := range w.Description {
			descs = append(descs, d.Value)
		}
		weaknesses = append(weaknesses, model.Weakness{Source: w.Source, Type: w.Type, Description: descs})
	}

	configurations := make([]model.ConfigNode, 0, len(item.Configurations))
	for _, c := range item.Configurations {
		configurations = append(configurations, configToNode(c))
	}

	bundle, severityBand := buildCVSSBundle(item)

	cve := model.CVE{
		CVEID:          item.ID,
		Year:           yearFromCVEID(item.ID),
		Assigner:       item.SourceID,
		Published:      item.Published.Time,
		LastModified:   item.LastModified.Time,
		Descriptions:   descriptions,
		Severity:       severityBand,
		CVSS:           bundle,
		Weaknesses:     weaknesses,
		Configurations: configurations,
		References:     references,
	}
	return cve, nil
}

func configToNode(c Config) model.ConfigNode {
	op := c.Operator
	if op == "" {
		op = "AND"
	}
	children := make([]model.ConfigNode, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		children = append(children, nodeToConfigNode(n))
	}
	return model.ConfigNode{Operator: op, Negate: c.Negate, Children: children}
}

func nodeToConfigNode(n Node) model.ConfigNode {
	matches := make([]model.ConfigMatch, 0, len(n.CPEMatch))
	for _, m := range n.CPEMatch {
		matches = append(matches, model.ConfigMatch{
			Vulnerable:            m.Vulnerable,
			Criteria:              m.Criteria,
			VersionStartIncluding: m.VersionStartIncluding,
			VersionStartExcluding: m.VersionStartExcluding,
			VersionEndIncluding:   m.VersionEndIncluding,
			VersionEndExcluding:   m.VersionEndExcluding,
		})
	}
	return model.ConfigNode{Operator: n.Operator, Negate: n.Negate, CPEMatch: matches}
}

func buildCVSSBundle(item CVEItem) (model.CVSSBundle, severity.Band) {
	var bundle model.CVSSBundle
	if item.Metrics == nil {
		return bundle, severity.None
	}

	if len(item.Metrics.CvssMetricV2) > 0 {
		m := item.Metrics.CvssMetricV2[0]
		if metrics, err := v2.FromVector(m.CvssData.VectorString); err == nil {
			bundle.V2 = &model.CVSSResult{
				Vector:         metrics.ToVector(),
				BaseScore:      metrics.BaseScore(),
				Severity:       metrics.Severity(),
				Exploitability: metrics.Exploitability(),
				Impact:         metrics.Impact(),
				Source:         m.Source,
			}
		} else {
			log.Warn().Str("cve", item.ID).Err(err).Msg("nvd: skipping unparsable CVSS v2 vector")
		}
	}

	for _, m := range item.Metrics.CvssMetricV30 {
		metrics, err := v3.FromVector(m.CvssData.VectorString)
		if err != nil {
			log.Warn().Str("cve", item.ID).Err(err).Msg("nvd: skipping unparsable CVSS v3.0 vector")
			continue
		}
		bundle.V30 = &model.CVSSResult{
			Vector: metrics.ToVector(), BaseScore: metrics.BaseScore(), Severity: metrics.Severity(),
			Exploitability: metrics.Exploitability(), Impact: metrics.Impact(), Source: m.Source,
		}
		break
	}
	for _, m := range item.Metrics.CvssMetricV31 {
		metrics, err := v3.FromVector(m.CvssData.VectorString)
		if err != nil {
			log.Warn().Str("cve", item.ID).Err(err).Msg("nvd: skipping unparsable CVSS v3.1 vector")
			continue
		}
		bundle.V31 = &model.CVSSResult{
			Vector: metrics.ToVector(), BaseScore: metrics.BaseScore(), Severity: metrics.Severity(),
			Exploitability: metrics.Exploitability(), Impact: metrics.Impact(), Source: m.Source,
		}
		break
	}

	for _, m := range item.Metrics.CvssMetricV40 {
		metrics, err := v4.FromVector(m.CvssData.VectorString)
		if err != nil {
			log.Warn().Str("cve", item.ID).Err(err).Msg("nvd: skipping unparsable CVSS v4.0 vector")
			continue
		}
		bundle.V40 = &model.CVSSResult{
			Vector: metrics.ToVector(), BaseScore: metrics.BaseScore(), Severity: metrics.Severity(),
			Source: m.Source,
		}
		break
	}

	band := severity.None
	switch {
	case bundle.V31 != nil:
		bundle.V31.Primary = true
		band = bundle.V31.Severity
	case bundle.V30 != nil:
		bundle.V30.Primary = true
		band = bundle.V30.Severity
	case bundle.V2 != nil:
		bundle.V2.Primary = true
		band = bundle.V2.Severity
	case bundle.V40 != nil:
		bundle.V40.Primary = true
		band = bundle.V40.Severity
	}
	return bundle, band
}

func yearFromCVEID(id string) int {
	// "CVE-YYYY-NNNNN"
	if len(id) < 9 || id[:4] != "CVE-" {
		return 0
	}
	year := 0
	for i := 4; i < 8 && i < len(id); i++ {
		c := id[i]
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}
