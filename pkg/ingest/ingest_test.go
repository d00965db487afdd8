package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyw0ng95/vulnintel/pkg/feed/attackerkb"
	"github.com/cyw0ng95/vulnintel/pkg/feed/cnnvd"
	"github.com/cyw0ng95/vulnintel/pkg/feed/nvd"
	"github.com/cyw0ng95/vulnintel/pkg/ingest/watermark"
	"github.com/cyw0ng95/vulnintel/pkg/model"
	"github.com/cyw0ng95/vulnintel/pkg/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open("file:"+filepath.Join(t.TempDir(), "ingest_test.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	wm, err := watermark.Open(filepath.Join(t.TempDir(), "watermark.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = wm.Close() })

	return New(st, wm, 2), st
}

func writeArchive(t *testing.T, resp nvd.CVEResponse) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.json")
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func sampleArchive(cveID string) nvd.CVEResponse {
	return nvd.CVEResponse{
		TotalResults: 1,
		Vulnerabilities: []struct {
			CVE nvd.CVEItem `json:"cve"`
		}{
			{CVE: nvd.CVEItem{
				ID:           cveID,
				SourceID:     "cve@mitre.org",
				Descriptions: []nvd.Description{{Lang: "en", Value: "an example vulnerability"}},
				Metrics: &nvd.Metrics{
					CvssMetricV31: []nvd.CVSSMetricV3{{Source: "nvd@nist.gov", CvssData: nvd.CVSSDataV3{
						Version: "3.1", VectorString: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H",
					}}},
				},
				Configurations: []nvd.Config{{
					Operator: "OR",
					Nodes: []nvd.Node{{
						Operator: "OR",
						CPEMatch: []nvd.CPEMatch{{
							Vulnerable: true,
							Criteria:   "cpe:2.3:a:acme:widget:1.0:*:*:*:*:*:*:*",
						}},
					}},
				}},
			}},
		},
	}
}

func TestIngestArchiveStoresCVEAndLinksProducts(t *testing.T) {
	svc, st := newTestService(t)
	path := writeArchive(t, sampleArchive("CVE-2026-00001"))

	n, err := svc.IngestArchive(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cves, total, err := st.CVEQuery(context.Background(), store.CVEFilter{CVEID: "CVE-2026-00001"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, cves, 1)
	assert.Equal(t, "CVE-2026-00001", cves[0].CVEID)
	require.NotNil(t, cves[0].CVSS.V31)

	products, _, err := st.CVEQuery(context.Background(), store.CVEFilter{Vendor: "acme", Product: "widget"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "CVE-2026-00001", products[0].CVEID)
}

func TestSyncNVDUnconfiguredAdapterErrors(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SyncNVD(context.Background(), time.Now(), time.Now(), 50)
	assert.Error(t, err)
}

func TestSyncCNNVDMergesTranslation(t *testing.T) {
	svc, st := newTestService(t)
	path := writeArchive(t, sampleArchive("CVE-2026-00002"))
	_, err := svc.IngestArchive(context.Background(), path)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/vulnerability/queryVulLibInfoList", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(cnnvd.ListEnvelope{
			Envelope: cnnvd.Envelope{Success: true},
			Data: cnnvd.VulList{
				Total: 1,
				Records: []cnnvd.Record{
					{CnnvdCode: "CNNVD-202601-001", CveCode: "CVE-2026-00002"},
				},
			},
		})
	})
	mux.HandleFunc("/vulnerability/detail", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(cnnvd.DetailEnvelope{
			Envelope: cnnvd.Envelope{Success: true},
			Data: cnnvd.Detail{CnnvdDetail: cnnvd.CnnvdDetail{
				CveCode: "CVE-2026-00002",
				VulDesc: "一个示例漏洞",
			}},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc.cnnvd = cnnvd.NewFetcher(server.URL + "/")

	n, err := svc.SyncCNNVD(context.Background(), time.Now().Add(-time.Hour), time.Now(), 50)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cves, _, err := st.CVEQuery(context.Background(), store.CVEFilter{CVEID: "CVE-2026-00002"})
	require.NoError(t, err)
	require.Len(t, cves, 1)
	assert.True(t, cves[0].Translated)
	found := false
	for _, d := range cves[0].Descriptions {
		if d.Lang == "zh" && d.Value == "一个示例漏洞" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSyncAttackerKBAttachesToExistingCVE(t *testing.T) {
	svc, st := newTestService(t)
	path := writeArchive(t, sampleArchive("CVE-2026-00003"))
	_, err := svc.IngestArchive(context.Background(), path)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/topics", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(attackerkb.ListResponse{
			Data: []attackerkb.Topic{
				{Name: "CVE-2026-00003", Document: "analysis write-up", Rapid7Analysis: "looks exploitable"},
			},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc.attackerkb = attackerkb.NewFetcher(server.URL, "")

	n, err := svc.SyncAttackerKB(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	kbs, err := st.KBFindByName(context.Background(), "CVE-2026-00003")
	require.NoError(t, err)
	require.Len(t, kbs, 1)
	assert.Equal(t, model.KBSourceAttackerKB, kbs[0].Source)
}
