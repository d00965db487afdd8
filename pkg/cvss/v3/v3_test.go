package v3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyw0ng95/vulnintel/pkg/cvss/severity"
)

func TestFromVectorRoundTrip(t *testing.T) {
	s := "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H"
	m, err := FromVector(s)
	require.NoError(t, err)
	assert.Equal(t, s, m.ToVector())
}

func TestS1CriticalScopeChanged(t *testing.T) {
	m, err := FromVector("CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H")
	require.NoError(t, err)
	assert.Equal(t, 10.0, m.BaseScore())
	assert.Equal(t, severity.Critical, m.Severity())
}

func TestS2ScopeRaisesScore(t *testing.T) {
	unchanged, err := FromVector("CVSS:3.1/AV:N/AC:H/PR:N/UI:R/S:U/C:H/I:L/A:H")
	require.NoError(t, err)
	assert.InDelta(t, 7.1, unchanged.BaseScore(), 0.05)
	assert.Equal(t, severity.High, unchanged.Severity())

	changed, err := FromVector("CVSS:3.1/AV:N/AC:H/PR:N/UI:R/S:C/C:H/I:L/A:H")
	require.NoError(t, err)
	assert.InDelta(t, 8.2, changed.BaseScore(), 0.05)
	assert.Equal(t, severity.High, changed.Severity())
}

func TestZeroImpactIsZeroScore(t *testing.T) {
	m, err := FromVector("CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:N")
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.BaseScore())
	assert.Equal(t, severity.None, m.Severity())
}

func TestV30Prefix(t *testing.T) {
	m, err := FromVector("CVSS:3.0/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H")
	require.NoError(t, err)
	assert.Equal(t, V30, m.Version)
}

func TestInvalidPrefix(t *testing.T) {
	_, err := FromVector("AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H")
	require.Error(t, err)
}

func TestInvalidMetricValue(t *testing.T) {
	_, err := FromVector("CVSS:3.1/AV:X/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H")
	require.Error(t, err)
}

func TestTemporalMetricsIgnoredForBaseScore(t *testing.T) {
	base, err := FromVector("CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H")
	require.NoError(t, err)
	withTemporal, err := FromVector("CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H/E:H/RL:O/RC:C")
	require.NoError(t, err)
	assert.Equal(t, base.BaseScore(), withTemporal.BaseScore())
}
