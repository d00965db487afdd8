package nvd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyw0ng95/vulnintel/pkg/cvss/severity"
)

func TestToModelCVEPrefersV31Severity(t *testing.T) {
	item := CVEItem{
		ID:           "CVE-2026-12345",
		SourceID:     "cve@mitre.org",
		Descriptions: []Description{{Lang: "en", Value: "an example vulnerability"}},
		Metrics: &Metrics{
			CvssMetricV2: []CVSSMetricV2{{Source: "nvd@nist.gov", CvssData: CVSSDataV2{Version: "2.0", VectorString: "AV:N/AC:L/Au:N/C:P/I:P/A:P"}}},
			CvssMetricV31: []CVSSMetricV3{{Source: "nvd@nist.gov", CvssData: CVSSDataV3{
				Version: "3.1", VectorString: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H",
			}}},
		},
	}

	cve, err := ToModelCVE(item)
	require.NoError(t, err)
	assert.Equal(t, "CVE-2026-12345", cve.CVEID)
	assert.Equal(t, 2026, cve.Year)
	require.NotNil(t, cve.CVSS.V31)
	assert.True(t, cve.CVSS.V31.Primary)
	assert.InDelta(t, 10.0, cve.CVSS.V31.BaseScore, 0.01)
	assert.Equal(t, severity.Critical, cve.Severity)
	require.NotNil(t, cve.CVSS.V2)
	assert.False(t, cve.CVSS.V2.Primary)
}

func TestToModelCVENoMetrics(t *testing.T) {
	item := CVEItem{ID: "CVE-2025-00001"}
	cve, err := ToModelCVE(item)
	require.NoError(t, err)
	assert.Equal(t, severity.None, cve.Severity)
	assert.Equal(t, 2025, cve.Year)
}

func TestConfigToNodeBuildsTree(t *testing.T) {
	c := Config{
		Operator: "AND",
		Nodes: []Node{
			{Operator: "OR", CPEMatch: []CPEMatch{
				{Vulnerable: true, Criteria: "cpe:2.3:a:acme:widget:1.0:*:*:*:*:*:*:*"},
			}},
		},
	}
	node := configToNode(c)
	assert.Equal(t, "AND", node.Operator)
	require.Len(t, node.Children, 1)
	assert.Equal(t, "OR", node.Children[0].Operator)
	require.Len(t, node.Children[0].CPEMatch, 1)
	assert.True(t, node.Children[0].CPEMatch[0].Vulnerable)
}

func TestYearFromCVEID(t *testing.T) {
	assert.Equal(t, 2026, yearFromCVEID("CVE-2026-99999"))
	assert.Equal(t, 0, yearFromCVEID("not-a-cve"))
}
