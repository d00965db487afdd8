// Package model defines the relational entities the aggregator persists:
// CVEs, their CWE/CVSS/configuration sub-objects, vendors and products, and
// knowledge-base (KB) entries, linked through CVE<->Product and CVE<->KB
// edge tables.
package model

import (
	"time"

	"github.com/cyw0ng95/vulnintel/pkg/cpe"
	"github.com/cyw0ng95/vulnintel/pkg/cvss/severity"
)

// Description is one localized CVE summary.
type Description struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

// Reference is an external pointer cited by a CVE record.
type Reference struct {
	URL    string   `json:"url"`
	Source string   `json:"source,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// Weakness links a CVE to a CWE ID with its reporting source.
type Weakness struct {
	Source      string   `json:"source,omitempty"`
	Type        string   `json:"type,omitempty"`
	Description []string `json:"description"`
}

// CVSSResult is one version's computed scoring result, carried alongside
// the original vector for traceability.
type CVSSResult struct {
	Vector          string        `json:"vector"`
	BaseScore       float64       `json:"baseScore"`
	Severity        severity.Band `json:"severity"`
	Exploitability  float64       `json:"exploitability"`
	Impact          float64       `json:"impact"`
	Source          string        `json:"source,omitempty"`
	Primary         bool          `json:"primary"`
}

// CVSSBundle holds at most one result per CVSS revision.
type CVSSBundle struct {
	V2  *CVSSResult `json:"v2,omitempty"`
	V30 *CVSSResult `json:"v30,omitempty"`
	V31 *CVSSResult `json:"v31,omitempty"`
	V40 *CVSSResult `json:"v40,omitempty"`
}

// ConfigMatch is a stored CPE applicability criterion.
type ConfigMatch struct {
	Vulnerable            bool   `json:"vulnerable"`
	Criteria              string `json:"criteria"`
	VersionStartIncluding string `json:"versionStartIncluding,omitempty"`
	VersionStartExcluding string `json:"versionStartExcluding,omitempty"`
	VersionEndIncluding   string `json:"versionEndIncluding,omitempty"`
	VersionEndExcluding   string `json:"versionEndExcluding,omitempty"`
}

// ConfigNode is a stored configuration-tree node, mirroring pkg/configtree's
// shape in a JSON-serializable form for persistence.
type ConfigNode struct {
	Operator string        `json:"operator"`
	Negate   bool          `json:"negate,omitempty"`
	Children []ConfigNode  `json:"children,omitempty"`
	CPEMatch []ConfigMatch `json:"cpeMatch,omitempty"`
}

// CVE is the central aggregated record. It is a pure value object: the
// nested fields below (descriptions, CVSS bundle, weaknesses, configuration
// forest, references) are persisted as a single JSON blob column by
// pkg/store, alongside a handful of indexed scalar columns.
type CVE struct {
	ID             UUID
	CVEID          string
	Year           int
	Assigner       string
	Published      time.Time
	LastModified   time.Time
	Descriptions   []Description
	Severity       severity.Band
	CVSS           CVSSBundle
	Weaknesses     []Weakness
	Configurations []ConfigNode
	References     []Reference
	Translated     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Vendor is a distinct CPE vendor string.
type Vendor struct {
	ID   UUID   `gorm:"column:id;primaryKey;type:blob"`
	Name string `gorm:"column:name;uniqueIndex;not null"`
}

func (Vendor) TableName() string { return "vendors" }

// Product is a distinct (vendor, name, part) triple.
type Product struct {
	ID       UUID     `gorm:"column:id;primaryKey;type:blob"`
	VendorID UUID     `gorm:"column:vendor_id;index;type:blob"`
	Name     string   `gorm:"column:name;index"`
	Part     cpe.Part `gorm:"column:part"`
}

func (Product) TableName() string { return "products" }

// CVEProduct is the edge table between a CVE and the products it affects.
type CVEProduct struct {
	CVEID     UUID `gorm:"column:cve_id;primaryKey;type:blob"`
	ProductID UUID `gorm:"column:product_id;primaryKey;type:blob"`
}

func (CVEProduct) TableName() string { return "cve_products" }

// KBSource identifies where a knowledge-base entry originated.
type KBSource string

const (
	KBSourceGitTemplates KBSource = "git-templates"
	KBSourceAttackerKB   KBSource = "attackerkb"
	// KBSourceGitHubPoC is a supplemented source: a second Git-hosted
	// repository of proof-of-concept exploits, distinct from the primary
	// template feed.
	KBSourceGitHubPoC KBSource = "github-poc"
)

// KB is a knowledge-base entry: a pointer to a PoC, exploit, or analysis.
type KB struct {
	ID          UUID     `gorm:"column:id;primaryKey;type:blob"`
	Name        string   `gorm:"column:name;index:idx_kb_name_source,unique"`
	Source      KBSource `gorm:"column:source;index:idx_kb_name_source,unique"`
	URL         string   `gorm:"column:url"`
	Description string   `gorm:"column:description"`
	Path        string   `gorm:"column:path"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (KB) TableName() string { return "kbs" }

// CVEKB is the edge table between a CVE and a KB entry that references it.
type CVEKB struct {
	CVEID UUID `gorm:"column:cve_id;primaryKey;type:blob"`
	KBID  UUID `gorm:"column:kb_id;primaryKey;type:blob"`
}

func (CVEKB) TableName() string { return "cve_kbs" }

// CWE is a weakness catalog entry.
type CWE struct {
	ID          string `gorm:"column:id;primaryKey"`
	Name        string `gorm:"column:name"`
	Abstraction string `gorm:"column:abstraction"`
	Status      string `gorm:"column:status"`
	Description string `gorm:"column:description"`
}

func (CWE) TableName() string { return "cwes" }

// CWEView is a named grouping of CWE entries (a CWE "view"), supplemented
// from the original catalog's view resource. Like CVE, its member list is
// persisted as a JSON blob by pkg/store rather than a gorm serializer tag.
type CWEView struct {
	ID        string
	Name      string
	Type      string
	Objective string
	MemberIDs []string
}
