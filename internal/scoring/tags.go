package scoring

import (
	"strings"

	"golang.org/x/text/cases"
)

// MatchTags keeps the raw tags that name a vocabulary entry, compared with
// Unicode case folding. Results use the vocabulary's spelling, follow the
// order of raw, and contain no duplicates.
func MatchTags(raw, vocabulary []string) []string {
	fold := cases.Fold()
	canonical := make(map[string]string, len(vocabulary))
	for _, topic := range vocabulary {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		key := fold.String(topic)
		if _, ok := canonical[key]; !ok {
			canonical[key] = topic
		}
	}

	matched := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		key := fold.String(strings.TrimSpace(tag))
		topic, ok := canonical[key]
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		matched = append(matched, topic)
	}
	return matched
}
