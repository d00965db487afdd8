package attackerkb

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchTopics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"1","name":"CVE-2026-0001","document":"desc","rapid7Analysis":"x"}],
			"links":{"next":""},"meta":{"count":1}}`))
	}))
	defer server.Close()

	f := NewFetcher(server.URL, "")
	resp, err := f.FetchTopics(time.Time{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "CVE-2026-0001", resp.Data[0].Name)
}

func TestFetchNextWithEmptyLink(t *testing.T) {
	f := NewFetcher("", "")
	resp, err := f.FetchNext("")
	require.NoError(t, err)
	assert.Nil(t, resp)
}
