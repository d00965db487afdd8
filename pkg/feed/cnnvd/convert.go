package cnnvd

import "strings"

// TranslatedDescription builds the (cveID, description) pair that
// pkg/store.CVEUpdateTranslated expects, or ok=false when the record carries
// no CVE code (many CNNVD entries are China-specific and never map to a
// CVE ID).
func TranslatedDescription(d CnnvdDetail) (cveID, description string, ok bool) {
	cveID = strings.ToUpper(strings.TrimSpace(d.CveCode))
	if cveID == "" {
		return "", "", false
	}
	description = strings.TrimSpace(d.VulDesc)
	if description == "" {
		return "", "", false
	}
	return cveID, description, true
}

// RecordCVEID extracts the CVE code from a list-page record, or "" if the
// record isn't linked to one.
func RecordCVEID(r Record) string {
	return strings.ToUpper(strings.TrimSpace(r.CveCode))
}
