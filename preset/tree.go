// Package preset parses hierarchical preset setup files and resolves them
// into flat plot setups.
//
// A preset file is a TOML document. Tables are sections, all other values
// are parameters. Every section inherits the parameters of its ancestors
// and overrides them key by key. Sections without child sections are
// branch ends and yield one setup each; a section whose child names end in
// "+" yields its own setup in addition to the children's. The wildcard
// sections "*" and "**" carry overrides merged into every sibling section
// and into every branch end below, respectively. A top-level [map_axes]
// table configures the map axes of all setups and is not a section.
package preset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
	"github.com/sardine-ai/flexpreset/model"
)

// Wildcard section names.
const (
	WildcardSiblings = "*"
	WildcardDeep     = "**"
)

// MapAxesTable is the top-level table that holds the map axes settings.
const MapAxesTable = "map_axes"

// ExtendSuffix marks a variant section that is added next to its parent
// instead of replacing it.
const ExtendSuffix = "+"

// Node is one section of a preset tree.
type Node struct {
	Name     string
	Params   model.Params
	Children []*Node
}

// IsWildcard reports whether the node is a "*" or "**" section.
func (n *Node) IsWildcard() bool {
	return n.Name == WildcardSiblings || n.Name == WildcardDeep
}

// Extends reports whether the node's name ends in "+".
func (n *Node) Extends() bool {
	return strings.HasSuffix(n.Name, ExtendSuffix)
}

// Child returns the direct child section with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (n *Node) clone() *Node {
	out := &Node{Name: n.Name, Params: n.Params.Clone()}
	for _, c := range n.Children {
		out.Children = append(out.Children, c.clone())
	}
	return out
}

// Parse decodes a preset file into its section tree. Sections keep the
// order in which they appear in the file.
func Parse(data []byte) (*Node, error) {
	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	order, err := sectionOrder(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	return buildNode("", nil, raw, order), nil
}

func buildNode(name string, path []string, raw map[string]interface{}, order map[string]int) *Node {
	n := &Node{Name: name, Params: model.Params{}}
	var children []string
	for key, value := range raw {
		if _, ok := value.(map[string]interface{}); ok {
			if path == nil && key == MapAxesTable {
				continue
			}
			children = append(children, key)
			continue
		}
		n.Params[key] = value
	}
	rank := func(key string) int {
		if i, ok := order[orderKey(append(append([]string{}, path...), key))]; ok {
			return i
		}
		return len(order)
	}
	sort.SliceStable(children, func(i, j int) bool {
		ri, rj := rank(children[i]), rank(children[j])
		if ri != rj {
			return ri < rj
		}
		return children[i] < children[j]
	})
	for _, key := range children {
		childPath := append(append([]string{}, path...), key)
		n.Children = append(n.Children, buildNode(key, childPath, raw[key].(map[string]interface{}), order))
	}
	return n
}

func orderKey(path []string) string {
	return strings.Join(path, "\x00")
}

// sectionOrder records the position at which every key path first appears
// in the document, covering both [table.headers] and dotted keys.
func sectionOrder(data []byte) (map[string]int, error) {
	order := map[string]int{}
	note := func(path []string) {
		for i := 1; i <= len(path); i++ {
			k := orderKey(path[:i])
			if _, ok := order[k]; !ok {
				order[k] = len(order)
			}
		}
	}

	p := unstable.Parser{}
	p.Reset(data)
	var current []string
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table, unstable.ArrayTable:
			current = keyParts(expr.Key())
			note(current)
		case unstable.KeyValue:
			note(append(append([]string{}, current...), keyParts(expr.Key())...))
		}
	}
	return order, p.Error()
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}
