// Package nvd fetches and normalizes records from the NVD CVE API 2.0,
// plus a one-shot path for ingesting a previously downloaded JSON archive of
// the same shape.
package nvd

import (
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the NVD CVE API v2.0 endpoint.
	DefaultBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"
	nvdTimeFormat  = "2006-01-02T15:04:05.999"
)

// Time handles the NVD API's non-RFC3339 timestamp format, falling back to
// RFC3339 for archives that were re-serialized by other tooling.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(nvdTimeFormat, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte("\"" + t.Time.Format(nvdTimeFormat) + "\""), nil
}

// CVEResponse is the top-level NVD API 2.0 response envelope.
type CVEResponse struct {
	ResultsPerPage  int     `json:"resultsPerPage"`
	StartIndex      int     `json:"startIndex"`
	TotalResults    int     `json:"totalResults"`
	Format          string  `json:"format"`
	Version         string  `json:"version"`
	Timestamp       Time    `json:"timestamp"`
	Vulnerabilities []struct {
		CVE CVEItem `json:"cve"`
	} `json:"vulnerabilities"`
}

// CVEItem is a single CVE record as shaped by the NVD API.
type CVEItem struct {
	ID             string        `json:"id"`
	SourceID       string        `json:"sourceIdentifier"`
	Published      Time          `json:"published"`
	LastModified   Time          `json:"lastModified"`
	VulnStatus     string        `json:"vulnStatus"`
	Descriptions   []Description `json:"descriptions"`
	Metrics        *Metrics      `json:"metrics,omitempty"`
	Weaknesses     []Weakness    `json:"weaknesses,omitempty"`
	Configurations []Config      `json:"configurations,omitempty"`
	References     []Reference   `json:"references,omitempty"`
}

type Description struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

type Weakness struct {
	Source      string        `json:"source"`
	Type        string        `json:"type"`
	Description []Description `json:"description"`
}

type Config struct {
	Operator string `json:"operator,omitempty"`
	Negate   bool   `json:"negate,omitempty"`
	Nodes    []Node `json:"nodes"`
}

type Node struct {
	Operator string     `json:"operator"`
	Negate   bool       `json:"negate,omitempty"`
	CPEMatch []CPEMatch `json:"cpeMatch"`
}

type CPEMatch struct {
	Vulnerable            bool   `json:"vulnerable"`
	Criteria              string `json:"criteria"`
	MatchCriteriaID       string `json:"matchCriteriaId"`
	VersionStartExcluding string `json:"versionStartExcluding,omitempty"`
	VersionStartIncluding string `json:"versionStartIncluding,omitempty"`
	VersionEndExcluding   string `json:"versionEndExcluding,omitempty"`
	VersionEndIncluding   string `json:"versionEndIncluding,omitempty"`
}

type Reference struct {
	URL    string   `json:"url"`
	Source string   `json:"source,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// Metrics groups every CVSS revision the NVD API may attach to a CVE.
type Metrics struct {
	CvssMetricV40 []CVSSMetricV40 `json:"cvssMetricV40,omitempty"`
	CvssMetricV31 []CVSSMetricV3  `json:"cvssMetricV31,omitempty"`
	CvssMetricV30 []CVSSMetricV3  `json:"cvssMetricV30,omitempty"`
	CvssMetricV2  []CVSSMetricV2  `json:"cvssMetricV2,omitempty"`
}

type CVSSMetricV3 struct {
	Source   string     `json:"source"`
	Type     string     `json:"type"`
	CvssData CVSSDataV3 `json:"cvssData"`
}

type CVSSDataV3 struct {
	Version      string `json:"version"`
	VectorString string `json:"vectorString"`
}

type CVSSMetricV2 struct {
	Source   string     `json:"source"`
	Type     string     `json:"type"`
	CvssData CVSSDataV2 `json:"cvssData"`
}

type CVSSDataV2 struct {
	Version      string `json:"version"`
	VectorString string `json:"vectorString"`
}

type CVSSMetricV40 struct {
	Source   string      `json:"source"`
	Type     string      `json:"type"`
	CvssData CVSSDataV40 `json:"cvssData"`
}

type CVSSDataV40 struct {
	Version      string `json:"version"`
	VectorString string `json:"vectorString"`
}
