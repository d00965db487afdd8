package gittemplates

import (
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cyw0ng95/vulnintel/pkg/model"
)

// Template is a nuclei-style vulnerability template: an ID, human-readable
// info block, and an optional CVE/CPE classification.
type Template struct {
	ID   string `yaml:"id"`
	Info struct {
		Name           string   `yaml:"name"`
		Description    string   `yaml:"description"`
		Tags           []string `yaml:"tags"`
		Classification struct {
			CVEID string `yaml:"cve-id"`
			CPE   string `yaml:"cpe"`
		} `yaml:"classification"`
	} `yaml:"info"`
}

// ParseTemplate parses a template file's YAML contents.
func ParseTemplate(data []byte) (Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Template{}, err
	}
	return t, nil
}

// ToKB maps a parsed template onto a knowledge-base entry keyed by the CVE
// ID named in its filename, falling back to the template's own
// classification when the filename doesn't carry one. source lets callers
// reuse this converter for the supplemented GitHub-PoC KB source as well as
// the primary template feed.
func ToKB(t Template, path string, source model.KBSource) model.KB {
	name := NameFromPath(path)
	if name == "" {
		name = strings.ToUpper(t.Info.Classification.CVEID)
	}
	if name == "" {
		name = t.ID
	}
	return model.KB{
		Name:        name,
		Source:      source,
		Description: t.Info.Description,
		Path:        path,
	}
}

// NameFromPath derives a KB entry's name from a template's repository path
// alone, for the removed-file case where the file's contents are no longer
// available to parse.
func NameFromPath(path string) string {
	return cveFromPath(path)
}

func cveFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	upper := strings.ToUpper(base)
	if strings.HasPrefix(upper, "CVE-") {
		return upper
	}
	return ""
}
