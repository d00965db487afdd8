package attackerkb

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/cyw0ng95/vulnintel/pkg/jsonutil"
)

// Fetcher pulls community vulnerability topics from AttackerKB.
type Fetcher struct {
	client  *resty.Client
	baseURL string
}

// NewFetcher builds a Fetcher. token is the bearer auth token (ABK_API_TOKEN);
// AttackerKB requires authentication for its topics endpoint.
func NewFetcher(baseURL, token string) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New().SetTimeout(20 * time.Second)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &Fetcher{client: client, baseURL: baseURL}
}

// FetchTopics fetches one page of topics, optionally filtered to those
// touched since `since`.
func (f *Fetcher) FetchTopics(since time.Time, page, pageSize int) (*ListResponse, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	req := f.client.R().
		SetQueryParam("page[size]", fmt.Sprintf("%d", pageSize)).
		SetQueryParam("page[index]", fmt.Sprintf("%d", page))
	if !since.IsZero() {
		req.SetQueryParam("filter[revision-date][gt]", since.UTC().Format(time.RFC3339))
	}
	resp, err := req.Get(f.baseURL + "/topics")
	if err != nil {
		return nil, fmt.Errorf("attackerkb: fetch topics: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("attackerkb: status %d", resp.StatusCode())
	}
	var out ListResponse
	if err := jsonutil.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("attackerkb: unmarshal topics: %w", err)
	}
	return &out, nil
}

// FetchNext follows a page's cursor link, returning nil with no error when
// there is no further page.
func (f *Fetcher) FetchNext(link string) (*ListResponse, error) {
	if link == "" {
		return nil, nil
	}
	resp, err := f.client.R().Get(link)
	if err != nil {
		return nil, fmt.Errorf("attackerkb: fetch next page: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("attackerkb: status %d", resp.StatusCode())
	}
	var out ListResponse
	if err := jsonutil.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("attackerkb: unmarshal next page: %w", err)
	}
	return &out, nil
}

// EnrichDocument scrapes the public topic page for a longer write-up when
// the API's document field is sparse.
func (f *Fetcher) EnrichDocument(topic Topic) (string, error) {
	url := TopicURL(topic.Name)
	resp, err := f.client.R().Get(url)
	if err != nil {
		return "", fmt.Errorf("attackerkb: fetch topic page: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("attackerkb: topic page status %d", resp.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body())))
	if err != nil {
		return "", fmt.Errorf("attackerkb: parse topic page: %w", err)
	}
	return strings.TrimSpace(doc.Find("article, .topic-document").First().Text()), nil
}
