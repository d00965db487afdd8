package attackerkb

import (
	"fmt"
	"regexp"

	"github.com/cyw0ng95/vulnintel/pkg/model"
)

var reCVESuffix = regexp.MustCompile(`(?i)\bCVE-\d{4}-\d{4,7}\b$`)

// IsCVEName reports whether a topic name ends in a CVE identifier, the same
// suffix match the original adapter uses to decide whether a topic is worth
// ingesting as a CVE-linked knowledge-base entry.
func IsCVEName(name string) bool {
	return reCVESuffix.MatchString(name)
}

// TopicURL builds the public page URL for a topic name.
func TopicURL(name string) string {
	return fmt.Sprintf("https://attackerkb.com/topics/%s", name)
}

// ToKB maps an analyzed topic onto a knowledge-base entry. ok is false when
// the topic carries no Rapid7 analysis yet or its name isn't CVE-linked.
func ToKB(topic Topic) (kb model.KB, ok bool) {
	if topic.Rapid7Analysis == "" || !IsCVEName(topic.Name) {
		return model.KB{}, false
	}
	return model.KB{
		Name:        topic.Name,
		Source:      model.KBSourceAttackerKB,
		URL:         TopicURL(topic.Name),
		Description: topic.Document,
		Path:        TopicURL(topic.Name),
	}, true
}
