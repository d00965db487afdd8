package cnnvd

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/cyw0ng95/vulnintel/pkg/jsonutil"
)

// MaxPageSize bounds one list-page request.
const MaxPageSize = 50

// Fetcher pulls vulnerability records and their Chinese-language
// translations from the CNNVD web API.
type Fetcher struct {
	client  *resty.Client
	baseURL string
}

// NewFetcher builds a Fetcher against baseURL, or DefaultBaseURL if empty.
func NewFetcher(baseURL string) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{client: resty.New().SetTimeout(20 * time.Second), baseURL: baseURL}
}

func (f *Fetcher) listRequest(params map[string]string) (*ListEnvelope, error) {
	req := f.client.R()
	for k, v := range params {
		req.SetQueryParam(k, v)
	}
	resp, err := req.Get(f.baseURL + "vulnerability/queryVulLibInfoList")
	if err != nil {
		return nil, fmt.Errorf("cnnvd: list request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cnnvd: list request status %d", resp.StatusCode())
	}
	var out ListEnvelope
	if err := jsonutil.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("cnnvd: unmarshal list: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("cnnvd: list request unsuccessful: %s", out.Message)
	}
	return &out, nil
}

// FetchByDateRange lists vulnerabilities published within [start, end].
func (f *Fetcher) FetchByDateRange(start, end time.Time, pageIndex, pageSize int) (*VulList, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	env, err := f.listRequest(map[string]string{
		"startTime": start.Format("2006-01-02"),
		"endTime":   end.Format("2006-01-02"),
		"pageIndex": fmt.Sprintf("%d", pageIndex),
		"pageSize":  fmt.Sprintf("%d", pageSize),
	})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// FetchByKeyword searches the vulnerability list by free-text keyword, the
// supplemented search mode the original adapter offers alongside the plain
// date-range sweep.
func (f *Fetcher) FetchByKeyword(keyword string, pageIndex, pageSize int) (*VulList, error) {
	if keyword == "" {
		return nil, fmt.Errorf("cnnvd: keyword cannot be empty")
	}
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	env, err := f.listRequest(map[string]string{
		"keyword":   keyword,
		"pageIndex": fmt.Sprintf("%d", pageIndex),
		"pageSize":  fmt.Sprintf("%d", pageSize),
	})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// FetchDetail fetches the full translated record for one CNNVD ID,
// enriching vulDesc from the public detail page via goquery when the JSON
// API returns it empty.
func (f *Fetcher) FetchDetail(id string) (*CnnvdDetail, error) {
	if id == "" {
		return nil, fmt.Errorf("cnnvd: id cannot be empty")
	}
	resp, err := f.client.R().SetQueryParam("id", id).Get(f.baseURL + "vulnerability/detail")
	if err != nil {
		return nil, fmt.Errorf("cnnvd: detail request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cnnvd: detail request status %d", resp.StatusCode())
	}
	var out DetailEnvelope
	if err := jsonutil.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("cnnvd: unmarshal detail: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("cnnvd: detail request unsuccessful: %s", out.Message)
	}

	detail := out.Data.CnnvdDetail
	if strings.TrimSpace(detail.VulDesc) == "" {
		if page, err := f.client.R().SetQueryParam("id", id).Get(f.baseURL + "vulnerability/view"); err == nil && !page.IsError() {
			if doc, parseErr := goquery.NewDocumentFromReader(strings.NewReader(string(page.Body()))); parseErr == nil {
				detail.VulDesc = strings.TrimSpace(doc.Find(".detail-desc, .vul-desc").First().Text())
			}
		}
	}
	return &detail, nil
}
