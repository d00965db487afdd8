// Package attackerkb fetches community vulnerability analyses ("topics")
// from the AttackerKB v1 API, a cursor-paginated JSON feed, with a goquery
// fallback that enriches sparse topic documents from the public topic page.
package attackerkb

// DefaultBaseURL is the AttackerKB v1 API root.
const DefaultBaseURL = "https://api.attackerkb.com/v1"

// ListResponse is AttackerKB's cursor-paginated envelope.
type ListResponse struct {
	Data  []Topic `json:"data"`
	Links Links   `json:"links"`
	Meta  Meta    `json:"meta"`
}

// Links carries the next-page cursor URL, or "" at the end of the feed.
type Links struct {
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

// Meta carries the total result count.
type Meta struct {
	Count int `json:"count"`
}

// Topic is a single AttackerKB vulnerability analysis. Name is the
// vulnerability identifier; it is often, but not always, a CVE ID.
type Topic struct {
	ID                        string `json:"id"`
	Name                      string `json:"name"`
	Document                  string `json:"document"`
	Rapid7Analysis            string `json:"rapid7Analysis,omitempty"`
	Rapid7AnalysisCreated     string `json:"rapid7AnalysisCreated,omitempty"`
	Rapid7AnalysisRevisionDate string `json:"rapid7AnalysisRevisionDate,omitempty"`
	RevisionDate              string `json:"revisionDate,omitempty"`
}
