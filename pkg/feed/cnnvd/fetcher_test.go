package cnnvd

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchByDateRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":200,"success":true,"message":"ok","time":"",
			"data":{"total":1,"pageIndex":1,"pageSize":50,
			"records":[{"id":"CNNVD-202601-001","vulName":"example","cnnvdCode":"CNNVD-202601-001",
			"cveCode":"CVE-2026-0001","hazardLevel":2,"createTime":"2026-01-01","publishTime":"2026-01-01",
			"updateTime":"2026-01-01","vulType":"other"}]}}`))
	}))
	defer server.Close()

	f := NewFetcher(server.URL + "/")
	list, err := f.FetchByDateRange(time.Now().AddDate(0, 0, -7), time.Now(), 1, 50)
	require.NoError(t, err)
	require.Len(t, list.Records, 1)
	assert.Equal(t, "CVE-2026-0001", RecordCVEID(list.Records[0]))
}

func TestFetchByKeywordRequiresKeyword(t *testing.T) {
	f := NewFetcher("")
	_, err := f.FetchByKeyword("", 1, 10)
	require.Error(t, err)
}

func TestFetchDetailUsesJSONDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":200,"success":true,"message":"ok","time":"",
			"data":{"cnnvdDetail":{"vulName":"example","cnnvdCode":"CNNVD-202601-001","cveCode":"cve-2026-0001",
			"publishTime":"2026-01-01","vendor":"acme","vulType":"other","vulTypeName":"other",
			"vulDesc":"一个示例漏洞","affectedVendor":"acme","referUrl":"https://example.com","patch":"",
			"updateTime":"2026-01-01"}}}`))
	}))
	defer server.Close()

	f := NewFetcher(server.URL + "/")
	detail, err := f.FetchDetail("CNNVD-202601-001")
	require.NoError(t, err)
	cveID, desc, ok := TranslatedDescription(*detail)
	require.True(t, ok)
	assert.Equal(t, "CVE-2026-0001", cveID)
	assert.Equal(t, "一个示例漏洞", desc)
}

func TestTranslatedDescriptionSkipsRecordsWithoutCVE(t *testing.T) {
	_, _, ok := TranslatedDescription(CnnvdDetail{VulDesc: "no cve here"})
	assert.False(t, ok)
}
