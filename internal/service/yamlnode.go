package service

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/toolcat/internal/value"
)

const (
	// maxNodeDepth bounds nesting, counting alias hops.
	maxNodeDepth = 1000

	// A document may expand to minExpandedNodes nodes, or to
	// maxExpansionRatio times its parsed node count when that is larger.
	minExpandedNodes  = 100_000
	maxExpansionRatio = 10
)

var (
	errTooDeep  = errors.New("document nested too deeply")
	errTooLarge = errors.New("document expands to too many nodes through aliases")
)

// toNode builds a yaml.v3 node tree for v. Mapping order is kept, and the
// encoder quotes strings that would otherwise resolve to another type.
func toNode(v *value.Value) *yaml.Node {
	switch v.Kind() {
	case value.KindBool:
		s := "false"
		if v.Bool() {
			s = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: s}

	case value.KindNumber:
		n := v.Number()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nullNode()
		}
		tag := "!!float"
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value.FormatNumber(n)}

	case value.KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str()}

	case value.KindSequence:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items() {
			node.Content = append(node.Content, toNode(item))
		}
		return node

	case value.KindMapping:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, p := range v.Pairs() {
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key}
			node.Content = append(node.Content, key, toNode(p.Value))
		}
		return node

	default:
		return nullNode()
	}
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// fromNode converts a decoded YAML document into a value. Aliases are
// expanded, merge keys applied and non-string keys stringified.
func fromNode(n *yaml.Node) (*value.Value, error) {
	d := &nodeDecoder{budget: max(minExpandedNodes, maxExpansionRatio*countNodes(n))}
	return d.convert(n, 0)
}

// countNodes counts the nodes of the parsed tree without following aliases.
func countNodes(n *yaml.Node) int {
	total := 1
	for _, c := range n.Content {
		total += countNodes(c)
	}
	return total
}

// nodeDecoder tracks how many nodes remain before alias expansion is
// refused.
type nodeDecoder struct {
	budget int
}

func (d *nodeDecoder) convert(n *yaml.Node, depth int) (*value.Value, error) {
	if depth > maxNodeDepth {
		return nil, errTooDeep
	}
	if d.budget--; d.budget < 0 {
		return nil, errTooLarge
	}

	switch n.Kind {
	case 0:
		return value.Null(), nil

	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Null(), nil
		}
		return d.convert(n.Content[0], depth+1)

	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: unresolved alias %q", n.Line, n.Value)
		}
		return d.convert(n.Alias, depth+1)

	case yaml.ScalarNode:
		return convertScalar(n)

	case yaml.SequenceNode:
		seq := value.Sequence()
		for _, c := range n.Content {
			item, err := d.convert(c, depth+1)
			if err != nil {
				return nil, err
			}
			seq.Append(item)
		}
		return seq, nil

	case yaml.MappingNode:
		return d.convertMapping(n, depth)

	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

func convertScalar(n *yaml.Node) (*value.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return value.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return value.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return value.Number(f), nil
	default:
		return value.String(n.Value), nil
	}
}

func (d *nodeDecoder) convertMapping(n *yaml.Node, depth int) (*value.Value, error) {
	m := value.Mapping()
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]

		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			if err := d.mergeInto(m, v, depth); err != nil {
				return nil, err
			}
			continue
		}

		key, err := d.keyString(k, depth)
		if err != nil {
			return nil, err
		}
		val, err := d.convert(v, depth+1)
		if err != nil {
			return nil, err
		}
		m.Set(key, val)
	}
	return m, nil
}

// mergeInto applies a "<<" merge: keys already present win.
func (d *nodeDecoder) mergeInto(m *value.Value, src *yaml.Node, depth int) error {
	merged, err := d.convert(src, depth+1)
	if err != nil {
		return err
	}

	sources := []*value.Value{merged}
	if merged.Kind() == value.KindSequence {
		sources = merged.Items()
	}
	for _, s := range sources {
		if s.Kind() != value.KindMapping {
			return fmt.Errorf("line %d: merge value must be a mapping", src.Line)
		}
		for _, p := range s.Pairs() {
			if _, ok := m.Get(p.Key); !ok {
				m.Set(p.Key, p.Value)
			}
		}
	}
	return nil
}

func (d *nodeDecoder) keyString(k *yaml.Node, depth int) (string, error) {
	if k.Kind == yaml.AliasNode && k.Alias != nil {
		k = k.Alias
	}
	if k.Kind == yaml.ScalarNode {
		return k.Value, nil
	}

	v, err := d.convert(k, depth+1)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
