package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// StageList is the ordered stage list of one pipeline.
type StageList []StageConfig

// StageConfig is one pipeline entry. In YAML it is either a bare stage name
// or a mapping carrying the stage options.
type StageConfig struct {
	Name         string   `yaml:"name"`
	Command      string   `yaml:"command,omitempty"`
	Args         []string `yaml:"args,omitempty"`
	Ext          string   `yaml:"ext,omitempty"`
	KeepComments bool     `yaml:"keep_comments,omitempty"`
}

type stageConfigFields StageConfig

// UnmarshalYAML accepts a scalar name or a mapping.
func (s *StageConfig) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*s = StageConfig{Name: n.Value}
		return nil
	case yaml.MappingNode:
		var f stageConfigFields
		if err := n.Decode(&f); err != nil {
			return err
		}
		*s = StageConfig(f)
		return nil
	default:
		return fmt.Errorf("line %d: stage must be a name or a mapping", n.Line)
	}
}

// MarshalYAML writes entries without options as bare names.
func (s StageConfig) MarshalYAML() (any, error) {
	if s.Command == "" && len(s.Args) == 0 && s.Ext == "" && !s.KeepComments {
		return s.Name, nil
	}
	return stageConfigFields(s), nil
}

// Names lists the stage names of the list.
func (l StageList) Names() []string {
	names := make([]string, 0, len(l))
	for _, s := range l {
		names = append(names, s.Name)
	}
	return names
}

// JSAttribute is one attribute added to emitted script tags.
type JSAttribute struct {
	Name  string
	Value any
}

// JSAttributes keeps the declaration order of the js_attributes mapping.
type JSAttributes []JSAttribute

// UnmarshalYAML decodes a mapping, preserving key order.
func (a *JSAttributes) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: js_attributes must be a mapping", n.Line)
	}
	attrs := make(JSAttributes, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var v any
		if err := n.Content[i+1].Decode(&v); err != nil {
			return err
		}
		attrs = append(attrs, JSAttribute{Name: n.Content[i].Value, Value: v})
	}
	*a = attrs
	return nil
}

// MarshalYAML encodes the attributes as an ordered mapping.
func (a JSAttributes) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, attr := range a {
		var v yaml.Node
		if err := v.Encode(attr.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: attr.Name}, &v)
	}
	return node, nil
}
