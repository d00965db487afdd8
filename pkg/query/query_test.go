package query

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyw0ng95/vulnintel/pkg/cpe"
	"github.com/cyw0ng95/vulnintel/pkg/cvss/severity"
	"github.com/cyw0ng95/vulnintel/pkg/model"
	"github.com/cyw0ng95/vulnintel/pkg/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open("file:"+filepath.Join(t.TempDir(), "query_test.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedCVE(t *testing.T, st *store.Store, id string, sev severity.Band) {
	t.Helper()
	require.NoError(t, st.CVECreateOrUpdate(context.Background(), model.CVE{
		CVEID:        id,
		Year:         2026,
		Published:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		LastModified: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Severity:     sev,
	}))
}

func TestCVEsFiltersBySeverity(t *testing.T) {
	st := openTestStore(t)
	seedCVE(t, st, "CVE-2026-00001", severity.Critical)
	seedCVE(t, st, "CVE-2026-00002", severity.Low)

	svc := New(st)
	res, err := svc.CVEs(context.Background(), Request{Severity: severity.Critical})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	require.Len(t, res.CVEs, 1)
	assert.Equal(t, "CVE-2026-00001", res.CVEs[0].CVEID)
}

func TestCVEsDefaultsPageToOne(t *testing.T) {
	st := openTestStore(t)
	seedCVE(t, st, "CVE-2026-00003", severity.High)

	svc := New(st)
	res, err := svc.CVEs(context.Background(), Request{Page: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
}

func TestCVEByIDMissingReturnsFalse(t *testing.T) {
	st := openTestStore(t)
	svc := New(st)
	_, ok, err := svc.CVEByID(context.Background(), "CVE-0000-00000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCVEByIDFound(t *testing.T) {
	st := openTestStore(t)
	seedCVE(t, st, "CVE-2026-00004", severity.Medium)

	svc := New(st)
	cve, ok, err := svc.CVEByID(context.Background(), "CVE-2026-00004")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "CVE-2026-00004", cve.CVEID)
}

func TestVendorByNameMissingReturnsFalse(t *testing.T) {
	st := openTestStore(t)
	svc := New(st)
	_, ok, err := svc.VendorByName(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductsFiltersByVendor(t *testing.T) {
	st := openTestStore(t)
	v, err := st.VendorQueryOrCreate(context.Background(), "acme")
	require.NoError(t, err)
	_, err = st.ProductQueryOrCreate(context.Background(), v.ID, "widget", cpe.PartApplication)
	require.NoError(t, err)

	svc := New(st)
	res, err := svc.Products(context.Background(), ProductRequest{Vendor: "acme"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "widget", res.Products[0].Name)
}

func TestKBsFiltersByName(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.KBCreateOrUpdate(context.Background(), model.KB{
		Name: "CVE-2026-00005", Source: model.KBSourceGitTemplates,
	}))

	svc := New(st)
	res, err := svc.KBs(context.Background(), KBRequest{Name: "CVE-2026-00005"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	require.Len(t, res.Entries, 1)
}
