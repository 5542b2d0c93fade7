package schema

import (
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"
)

// YAML serializes the schema with event and property keys in sorted order.
func (s *Schema) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// JSON serializes the schema indented; encoding/json sorts map keys itself.
func (s *Schema) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func (m EventMap) MarshalYAML() (any, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range names {
		value := &yaml.Node{}
		if err := value.Encode(m[name]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			value,
		)
	}
	return node, nil
}

func (m PropertyMap) MarshalYAML() (any, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range names {
		value := &yaml.Node{}
		if err := value.Encode(m[name]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			value,
		)
	}
	return node, nil
}
