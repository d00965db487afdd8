package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/cyw0ng95/vulnintel/pkg/cvss/severity"
	"github.com/cyw0ng95/vulnintel/pkg/jsonutil"
	"github.com/cyw0ng95/vulnintel/pkg/model"
)

func severityBand(s string) severity.Band {
	return severity.Band(s)
}

// cveRow is the gorm-mapped table row for a CVE: a handful of indexed
// scalar columns (CVEID/Published/LastModified/...) next to a single JSON
// text column carrying everything else.
type cveRow struct {
	gorm.Model
	CVEID        string `gorm:"column:cve_id;uniqueIndex;not null"`
	Year         int    `gorm:"column:year;index"`
	Published    time.Time `gorm:"column:published;index"`
	LastModified time.Time `gorm:"column:last_modified;index"`
	Severity     string `gorm:"column:severity;index"`
	Translated   bool   `gorm:"column:translated;index"`
	ID16         model.UUID `gorm:"column:uuid;uniqueIndex;type:blob"`
	Data         string `gorm:"column:data;type:text"`
}

func (cveRow) TableName() string { return "cves" }

// cveBlob is the shape marshaled into cveRow.Data: everything not promoted
// to an indexed column.
type cveBlob struct {
	Assigner       string                `json:"assigner"`
	Descriptions   []model.Description   `json:"descriptions"`
	CVSS           model.CVSSBundle      `json:"cvss"`
	Weaknesses     []model.Weakness      `json:"weaknesses"`
	Configurations []model.ConfigNode    `json:"configurations"`
	References     []model.Reference     `json:"references"`
}

func toRow(c model.CVE) (cveRow, error) {
	blob := cveBlob{
		Assigner:       c.Assigner,
		Descriptions:   c.Descriptions,
		CVSS:           c.CVSS,
		Weaknesses:     c.Weaknesses,
		Configurations: c.Configurations,
		References:     c.References,
	}
	data, err := jsonutil.Marshal(blob)
	if err != nil {
		return cveRow{}, err
	}
	id := c.ID
	if id.IsZero() {
		id = model.NewUUID()
	}
	return cveRow{
		CVEID:        c.CVEID,
		Year:         c.Year,
		Published:    c.Published,
		LastModified: c.LastModified,
		Severity:     string(c.Severity),
		Translated:   c.Translated,
		ID16:         id,
		Data:         string(data),
	}, nil
}

func fromRow(r cveRow) (model.CVE, error) {
	var blob cveBlob
	if err := jsonutil.Unmarshal([]byte(r.Data), &blob); err != nil {
		return model.CVE{}, err
	}
	return model.CVE{
		ID:             r.ID16,
		CVEID:          r.CVEID,
		Year:           r.Year,
		Assigner:       blob.Assigner,
		Published:      r.Published,
		LastModified:   r.LastModified,
		Descriptions:   blob.Descriptions,
		Severity:       severityBand(r.Severity),
		CVSS:           blob.CVSS,
		Weaknesses:     blob.Weaknesses,
		Configurations: blob.Configurations,
		References:     blob.References,
		Translated:     r.Translated,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

// cweViewRow persists member IDs as a JSON column rather than a child table
// since the membership list is a flat set of strings with no attributes of
// its own.
type cweViewRow struct {
	ID        string `gorm:"column:id;primaryKey"`
	Name      string `gorm:"column:name"`
	Type      string `gorm:"column:type"`
	Objective string `gorm:"column:objective"`
	Members   string `gorm:"column:members;type:text"`
}

func (cweViewRow) TableName() string { return "cwe_views" }

func toCWEViewRow(v model.CWEView) (cweViewRow, error) {
	data, err := jsonutil.Marshal(v.MemberIDs)
	if err != nil {
		return cweViewRow{}, err
	}
	return cweViewRow{ID: v.ID, Name: v.Name, Type: v.Type, Objective: v.Objective, Members: string(data)}, nil
}

func fromCWEViewRow(r cweViewRow) (model.CWEView, error) {
	var members []string
	if r.Members != "" {
		if err := jsonutil.Unmarshal([]byte(r.Members), &members); err != nil {
			return model.CWEView{}, err
		}
	}
	return model.CWEView{ID: r.ID, Name: r.Name, Type: r.Type, Objective: r.Objective, MemberIDs: members}, nil
}
