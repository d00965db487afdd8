package nvd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cyw0ng95/vulnintel/pkg/jsonutil"
)

// ErrRateLimited is returned when the NVD API answers with a 429 status.
var ErrRateLimited = errors.New("nvd: rate limit exceeded")

// ErrResponseTooLarge is returned when a response body exceeds MaxResponseSize.
var ErrResponseTooLarge = errors.New("nvd: response body exceeds maximum allowed size")

// RateLimitError wraps ErrRateLimited with the server's requested backoff.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("nvd: rate limit exceeded, retry after %v", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

func parseRetryAfter(resp *resty.Response) time.Duration {
	const defaultRetryAfter = 5 * time.Second

	header := resp.Header().Get("Retry-After")
	if header == "" {
		return defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		d := time.Duration(seconds) * time.Second
		if d > time.Hour {
			return time.Hour
		}
		if d < time.Second {
			return time.Second
		}
		return d
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d <= 0 {
			return time.Second
		}
		if d > time.Hour {
			return time.Hour
		}
		return d
	}
	return defaultRetryAfter
}

// MaxResponseSize bounds a single API response body (10 MiB), guarding
// against OOM on a malformed or malicious reply.
const MaxResponseSize = 10 * 1024 * 1024

// Fetcher pulls CVE records from the NVD CVE API 2.0.
type Fetcher struct {
	client  *resty.Client
	baseURL string
	apiKey  string
}

// NewFetcher builds a Fetcher. apiKey may be empty for unauthenticated,
// rate-limited access.
func NewFetcher(apiKey string) *Fetcher {
	client := resty.New().SetTimeout(30 * time.Second)
	return &Fetcher{client: client, baseURL: DefaultBaseURL, apiKey: apiKey}
}

func (f *Fetcher) authed(req *resty.Request) *resty.Request {
	if f.apiKey != "" {
		req.SetHeader("apiKey", f.apiKey)
	}
	return req
}

func (f *Fetcher) decode(resp *resty.Response) (*CVEResponse, error) {
	if resp.IsError() {
		if resp.StatusCode() == http.StatusTooManyRequests {
			return nil, &RateLimitError{RetryAfter: parseRetryAfter(resp)}
		}
		return nil, fmt.Errorf("nvd: API returned status %d", resp.StatusCode())
	}
	body := resp.Body()
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("%w: got %d bytes, max %d", ErrResponseTooLarge, len(body), MaxResponseSize)
	}
	var out CVEResponse
	if err := jsonutil.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("nvd: unmarshal response: %w", err)
	}
	return &out, nil
}

// FetchCVEByID fetches a single CVE by ID.
func (f *Fetcher) FetchCVEByID(cveID string) (*CVEResponse, error) {
	if cveID == "" {
		return nil, fmt.Errorf("nvd: cveID cannot be empty")
	}
	resp, err := f.authed(f.client.R()).Get(f.baseURL + "?cveId=" + cveID)
	if err != nil {
		return nil, fmt.Errorf("nvd: fetch CVE: %w", err)
	}
	return f.decode(resp)
}

// FetchCVEs fetches one page of the full CVE feed.
func (f *Fetcher) FetchCVEs(startIndex, resultsPerPage int) (*CVEResponse, error) {
	if startIndex < 0 {
		return nil, fmt.Errorf("nvd: startIndex must be non-negative")
	}
	if resultsPerPage < 1 || resultsPerPage > 2000 {
		return nil, fmt.Errorf("nvd: resultsPerPage must be between 1 and 2000")
	}
	req := f.authed(f.client.R()).
		SetQueryParam("startIndex", fmt.Sprintf("%d", startIndex)).
		SetQueryParam("resultsPerPage", fmt.Sprintf("%d", resultsPerPage))
	resp, err := req.Get(f.baseURL)
	if err != nil {
		return nil, fmt.Errorf("nvd: fetch CVEs: %w", err)
	}
	return f.decode(resp)
}

// FetchModifiedSince fetches CVEs last modified within [start, end], NVD's
// supported way to poll for incremental updates.
func (f *Fetcher) FetchModifiedSince(start, end time.Time, startIndex, resultsPerPage int) (*CVEResponse, error) {
	if resultsPerPage < 1 || resultsPerPage > 2000 {
		return nil, fmt.Errorf("nvd: resultsPerPage must be between 1 and 2000")
	}
	req := f.authed(f.client.R()).
		SetQueryParam("lastModStartDate", start.UTC().Format(time.RFC3339)).
		SetQueryParam("lastModEndDate", end.UTC().Format(time.RFC3339)).
		SetQueryParam("startIndex", fmt.Sprintf("%d", startIndex)).
		SetQueryParam("resultsPerPage", fmt.Sprintf("%d", resultsPerPage))
	resp, err := req.Get(f.baseURL)
	if err != nil {
		return nil, fmt.Errorf("nvd: fetch modified CVEs: %w", err)
	}
	return f.decode(resp)
}

// FetchCVEsConcurrent fetches multiple CVE IDs through a worker pool,
// returning successes and failures collected across all workers.
func (f *Fetcher) FetchCVEsConcurrent(cveIDs []string, workers int) ([]*CVEResponse, []error) {
	if workers <= 0 {
		workers = 5
	}
	if len(cveIDs) == 0 {
		return nil, nil
	}

	type job struct {
		index int
		id    string
	}
	type result struct {
		index int
		resp  *CVEResponse
		err   error
	}

	jobs := make(chan job, len(cveIDs))
	results := make(chan result, len(cveIDs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				resp, err := f.FetchCVEByID(j.id)
				results <- result{index: j.index, resp: resp, err: err}
			}
		}()
	}
	for i, id := range cveIDs {
		jobs <- job{index: i, id: id}
	}
	close(jobs)
	go func() {
		wg.Wait()
		close(results)
	}()

	responses := make([]*CVEResponse, len(cveIDs))
	errs := make([]error, len(cveIDs))
	for r := range results {
		if r.err != nil {
			errs[r.index] = r.err
		} else {
			responses[r.index] = r.resp
		}
	}

	var okResponses []*CVEResponse
	var allErrs []error
	for i := range cveIDs {
		if errs[i] != nil {
			allErrs = append(allErrs, errs[i])
		} else if responses[i] != nil {
			okResponses = append(okResponses, responses[i])
		}
	}
	return okResponses, allErrs
}

// FetchArchive parses a previously downloaded NVD JSON archive from disk,
// the one-shot local-file ingestion path alongside the live API pull.
func FetchArchive(path string) (*CVEResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("nvd: read archive: %w", err)
	}
	if len(data) > MaxResponseSize*10 {
		return nil, fmt.Errorf("%w: archive %d bytes exceeds limit", ErrResponseTooLarge, len(data))
	}
	var out CVEResponse
	if err := jsonutil.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("nvd: unmarshal archive: %w", err)
	}
	return &out, nil
}
