package store

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
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "vulnintel_test.db")
	s, err := Open(dsn, 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleCVE(id string) model.CVE {
	return model.CVE{
		CVEID:        id,
		Year:         2026,
		Assigner:     "cve@mitre.org",
		Published:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		LastModified: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Descriptions: []model.Description{{Lang: "en", Value: "a sample vulnerability"}},
		Severity:     severity.High,
		CVSS: model.CVSSBundle{
			V31: &model.CVSSResult{Vector: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", BaseScore: 9.8, Severity: severity.Critical, Primary: true},
		},
	}
}

func TestCVECreateAndQuery(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.CVECreate(ctx, sampleCVE("CVE-2026-0001")))

	got, total, err := s.CVEQuery(ctx, CVEFilter{CVEID: "CVE-2026-0001"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, got, 1)
	assert.Equal(t, "CVE-2026-0001", got[0].CVEID)
	assert.Equal(t, severity.High, got[0].Severity)
}

func TestCVECreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec := sampleCVE("CVE-2026-0002")
	require.NoError(t, s.CVECreate(ctx, rec))
	rec.Assigner = "someone-else@example.com"
	require.NoError(t, s.CVECreate(ctx, rec)) // no-op on conflict

	got, _, err := s.CVEQuery(ctx, CVEFilter{CVEID: "CVE-2026-0002"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cve@mitre.org", got[0].Assigner)
}

func TestCVECreateOrUpdateResetsTranslated(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec := sampleCVE("CVE-2026-0003")
	require.NoError(t, s.CVECreateOrUpdate(ctx, rec))
	require.NoError(t, s.CVEUpdateTranslated(ctx, "CVE-2026-0003", "zh", "一个示例漏洞"))

	got, _, err := s.CVEQuery(ctx, CVEFilter{CVEID: "CVE-2026-0003"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Translated)

	rec.Assigner = "updated@example.com"
	require.NoError(t, s.CVECreateOrUpdate(ctx, rec))

	got2, _, err := s.CVEQuery(ctx, CVEFilter{CVEID: "CVE-2026-0003"})
	require.NoError(t, err)
	require.Len(t, got2, 1)
	assert.False(t, got2[0].Translated)
	assert.Equal(t, "updated@example.com", got2[0].Assigner)
}

func TestCVEUpdateTranslatedMergesByLang(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.CVECreateOrUpdate(ctx, sampleCVE("CVE-2026-0004")))

	require.NoError(t, s.CVEUpdateTranslated(ctx, "CVE-2026-0004", "zh", "first"))
	require.NoError(t, s.CVEUpdateTranslated(ctx, "CVE-2026-0004", "zh", "second"))

	got, _, err := s.CVEQuery(ctx, CVEFilter{CVEID: "CVE-2026-0004"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	var zhCount int
	var lastValue string
	for _, d := range got[0].Descriptions {
		if d.Lang == "zh" {
			zhCount++
			lastValue = d.Value
		}
	}
	assert.Equal(t, 1, zhCount)
	assert.Equal(t, "second", lastValue)
}

func TestVendorAndProductQueryOrCreate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	v1, err := s.VendorQueryOrCreate(ctx, "apache")
	require.NoError(t, err)
	v2, err := s.VendorQueryOrCreate(ctx, "apache")
	require.NoError(t, err)
	assert.Equal(t, v1.ID, v2.ID)

	p1, err := s.ProductQueryOrCreate(ctx, v1.ID, "http_server", cpe.PartApplication)
	require.NoError(t, err)
	p2, err := s.ProductQueryOrCreate(ctx, v1.ID, "http_server", cpe.PartApplication)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID)
}

func TestVendorFindByNameMissingReturnsFalse(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, ok, err := s.VendorFindByName(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVendorFindByNameDoesNotCreate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, _, err := s.VendorFindByName(ctx, "ghost")
	require.NoError(t, err)
	_, ok, err := s.VendorFindByName(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductQueryFiltersByVendorAndProduct(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	v, err := s.VendorQueryOrCreate(ctx, "acme")
	require.NoError(t, err)
	_, err = s.ProductQueryOrCreate(ctx, v.ID, "widget", cpe.PartApplication)
	require.NoError(t, err)
	_, err = s.ProductQueryOrCreate(ctx, v.ID, "gadget", cpe.PartApplication)
	require.NoError(t, err)

	products, total, err := s.ProductQuery(ctx, ProductFilter{Vendor: "acme", Product: "widget"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, "widget", products[0].Name)

	all, total2, err := s.ProductQuery(ctx, ProductFilter{Vendor: "acme"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total2)
	assert.Len(t, all, 2)
}

func TestEdgeCVEProductReplace(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.CVECreate(ctx, sampleCVE("CVE-2026-0005")))
	got, _, err := s.CVEQuery(ctx, CVEFilter{CVEID: "CVE-2026-0005"})
	require.NoError(t, err)
	cveID := got[0].ID

	v, err := s.VendorQueryOrCreate(ctx, "acme")
	require.NoError(t, err)
	p1, err := s.ProductQueryOrCreate(ctx, v.ID, "widget", cpe.PartApplication)
	require.NoError(t, err)
	p2, err := s.ProductQueryOrCreate(ctx, v.ID, "gadget", cpe.PartApplication)
	require.NoError(t, err)

	require.NoError(t, s.EdgeCVEProductReplace(ctx, cveID, []model.UUID{p1.ID, p2.ID}))
	require.NoError(t, s.EdgeCVEProductReplace(ctx, cveID, []model.UUID{p2.ID}))

	filtered, total, err := s.CVEQuery(ctx, CVEFilter{Vendor: "acme", Product: "widget"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, filtered)

	filtered2, total2, err := s.CVEQuery(ctx, CVEFilter{Vendor: "acme", Product: "gadget"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total2)
	require.Len(t, filtered2, 1)
}

func TestKBCreateOrUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	kb := model.KB{Name: "CVE-2026-0006", Source: model.KBSourceGitTemplates, URL: "https://example.com/poc"}
	require.NoError(t, s.KBCreateOrUpdate(ctx, kb))

	found, err := s.KBFindByName(ctx, "CVE-2026-0006")
	require.NoError(t, err)
	require.Len(t, found, 1)

	kb.URL = "https://example.com/updated"
	require.NoError(t, s.KBCreateOrUpdate(ctx, kb))
	found2, err := s.KBFindByName(ctx, "CVE-2026-0006")
	require.NoError(t, err)
	require.Len(t, found2, 1)
	assert.Equal(t, "https://example.com/updated", found2[0].URL)

	require.NoError(t, s.KBDelete(ctx, "CVE-2026-0006", model.KBSourceGitTemplates))
	found3, err := s.KBFindByName(ctx, "CVE-2026-0006")
	require.NoError(t, err)
	assert.Empty(t, found3)
}

func TestKBQueryFiltersByNameAndSource(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.KBCreateOrUpdate(ctx, model.KB{Name: "CVE-2026-0007", Source: model.KBSourceGitTemplates}))
	require.NoError(t, s.KBCreateOrUpdate(ctx, model.KB{Name: "CVE-2026-0007", Source: model.KBSourceAttackerKB}))
	require.NoError(t, s.KBCreateOrUpdate(ctx, model.KB{Name: "CVE-2026-0008", Source: model.KBSourceGitTemplates}))

	byName, total, err := s.KBQuery(ctx, KBFilter{Name: "CVE-2026-0007"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, byName, 2)

	bySource, total2, err := s.KBQuery(ctx, KBFilter{Source: model.KBSourceGitTemplates})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total2)
	assert.Len(t, bySource, 2)
}

func TestCVEQueryPageSizeCapped(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	for i := 0; i < 15; i++ {
		rec := sampleCVE("CVE-2026-10" + string(rune('0'+i%10)))
		rec.CVEID = "CVE-2026-1" + padLeft(i)
		require.NoError(t, s.CVECreate(ctx, rec))
	}
	got, _, err := s.CVEQuery(ctx, CVEFilter{PageSize: 1000})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), MaxPageSize)
}

func padLeft(i int) string {
	if i < 10 {
		return "0" + string(rune('0'+i))
	}
	return string(rune('0'+i/10)) + string(rune('0'+i%10))
}
