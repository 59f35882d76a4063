package api

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseFeedList reads a YAML feed list. Both a top-level sequence of
// entries and a mapping with a "feeds" key are accepted:
//
//	feeds:
//	  - url: https://example.com/rss
//	    name: Example
//	    enabled: false
func ParseFeedList(data []byte) ([]CreateFeedRequest, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse feed list: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, errors.New("parse feed list: document is empty")
	}
	doc := root.Content[0]

	var entries []CreateFeedRequest
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := decodeStrict(doc, &entries); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var wrapper struct {
			Feeds []CreateFeedRequest `yaml:"feeds"`
		}
		if err := decodeStrict(doc, &wrapper); err != nil {
			return nil, err
		}
		entries = wrapper.Feeds
	default:
		return nil, errors.New("parse feed list: expected a list of feeds or a feeds: key")
	}
	for i, entry := range entries {
		if entry.URL == "" {
			return nil, fmt.Errorf("parse feed list: entry %d has no url", i+1)
		}
	}
	return entries, nil
}

// decodeStrict re-encodes node so unknown keys are rejected; yaml.Node.Decode
// has no KnownFields switch.
func decodeStrict(node *yaml.Node, target any) error {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Errorf("parse feed list: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("parse feed list: %w", err)
	}
	return nil
}
