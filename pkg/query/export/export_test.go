package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cyw0ng95/vulnintel/pkg/cvss/severity"
	"github.com/cyw0ng95/vulnintel/pkg/model"
)

func TestWriteXLSXRoundTrips(t *testing.T) {
	cves := []model.CVE{
		{
			CVEID:        "CVE-2026-00001",
			Year:         2026,
			Severity:     severity.Critical,
			Published:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			LastModified: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			Translated:   true,
			Descriptions: []model.Description{{Lang: "en", Value: "an example vulnerability"}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, cves))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "CVE-2026-00001", rows[1][0])
	assert.Equal(t, "critical", rows[1][2])
	assert.Equal(t, "true", rows[1][5])
	assert.Equal(t, "an example vulnerability", rows[1][6])
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, header, rows[0])
}
