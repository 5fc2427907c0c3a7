package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML satisfies [yaml.Unmarshaler]. The custom unmarshalers below
// decode nested nodes with [decodeStrict] so unknown keys still fail.
func (in *Inputs) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*in = Inputs{{File: node.Value}}
		return nil
	case yaml.SequenceNode:
		var items []Input
		if err := decodeStrict(node, &items); err != nil {
			return err
		}
		*in = items
		return nil
	default:
		return fmt.Errorf("line %d: input must be a path or a list", node.Line)
	}
}

// UnmarshalYAML satisfies [yaml.Unmarshaler].
func (in *Input) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*in = Input{File: node.Value}
		return nil
	}
	type plain Input
	return decodeStrict(node, (*plain)(in))
}

// UnmarshalYAML satisfies [yaml.Unmarshaler].
func (c *Contents) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		value := node.Value
		*c = Contents{String: &value}
		return nil
	}
	type plain Contents
	return decodeStrict(node, (*plain)(c))
}
