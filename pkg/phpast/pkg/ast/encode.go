package ast

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

type jsonNode struct {
	Kind     Kind      `json:"kind"`
	Flags    Flags     `json:"flags"`
	Line     uint32    `json:"lineno"`
	EndLine  uint32    `json:"endLineno,omitempty"`
	Decl     *DeclInfo `json:"decl,omitempty"`
	Children any       `json:"children"`
}

// MarshalJSON encodes the node with its children in key order.
func (n *Node) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(jsonNode{
		Kind:     n.Kind,
		Flags:    n.Flags,
		Line:     n.Line,
		EndLine:  n.EndLine,
		Decl:     n.Decl,
		Children: n.Children,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", n.Kind, err)
	}

	return data, nil
}

// MarshalYAML encodes the node as an ordered YAML mapping.
func (n *Node) MarshalYAML() (any, error) {
	return n.yamlNode()
}

func (n *Node) yamlNode() (*yaml.Node, error) {
	out := &yaml.Node{Kind: yaml.MappingNode}

	addScalar(out, "kind", string(n.Kind), "!!str")
	addScalar(out, "flags", strconv.FormatUint(uint64(n.Flags), 10), "!!int")
	addScalar(out, "lineno", strconv.FormatUint(uint64(n.Line), 10), "!!int")

	if n.EndLine != 0 {
		addScalar(out, "endLineno", strconv.FormatUint(uint64(n.EndLine), 10), "!!int")
	}

	if n.Decl != nil {
		decl := &yaml.Node{}
		if err := decl.Encode(n.Decl); err != nil {
			return nil, fmt.Errorf("encode decl: %w", err)
		}

		out.Content = append(out.Content, scalar("decl", "!!str"), decl)
	}

	children := &yaml.Node{Kind: yaml.MappingNode}

	for pair := n.Children.Oldest(); pair != nil; pair = pair.Next() {
		value, err := yamlValue(pair.Value)
		if err != nil {
			return nil, err
		}

		children.Content = append(children.Content, scalar(pair.Key, "!!str"), value)
	}

	out.Content = append(out.Content, scalar("children", "!!str"), children)

	return out, nil
}

func yamlValue(v any) (*yaml.Node, error) {
	switch v := v.(type) {
	case nil:
		return scalar("null", "!!null"), nil
	case *Node:
		return v.yamlNode()
	case string:
		return scalar(v, "!!str"), nil
	case int64:
		return scalar(strconv.FormatInt(v, 10), "!!int"), nil
	case float64:
		return scalar(strconv.FormatFloat(v, 'g', -1, 64), "!!float"), nil
	case bool:
		return scalar(strconv.FormatBool(v), "!!bool"), nil
	default:
		return nil, fmt.Errorf("%w: %T", errUnsupportedValue, v)
	}
}

func scalar(value, tag string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func addScalar(m *yaml.Node, key, value, tag string) {
	m.Content = append(m.Content, scalar(key, "!!str"), scalar(value, tag))
}
