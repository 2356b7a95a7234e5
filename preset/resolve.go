package preset

import (
	"fmt"
	"strings"

	"github.com/sardine-ai/flexpreset/model"
)

// Setups resolves the tree into flat setups, in file order, depth first.
func (n *Node) Setups() ([]model.Setup, error) {
	root := n.clone()
	if err := expand(root, nil, ""); err != nil {
		return nil, err
	}
	var setups []model.Setup
	collect(root, nil, model.Params{}, &setups)
	return setups, nil
}

// expand rewrites n in place so that no wildcard sections remain: "*"
// sections are merged into their siblings, "**" sections into every branch
// end below, and every section with a "+" child gets an unnamed child
// standing for its own setup.
func expand(n *Node, deep []*Node, path string) error {
	var regular, siblings, deeper []*Node
	for _, c := range n.Children {
		switch c.Name {
		case WildcardSiblings:
			siblings = append(siblings, c)
		case WildcardDeep:
			deeper = append(deeper, c)
		default:
			regular = append(regular, c)
		}
	}
	if len(regular) == 0 && (len(siblings) > 0 || len(deeper) > 0) {
		return fmt.Errorf("%w: %s", ErrDanglingWildcard, displayPath(path))
	}
	deep = append(append([]*Node{}, deep...), deeper...)

	for _, c := range regular {
		for _, w := range siblings {
			apply(c, w)
		}
	}
	n.Children = withSelf(regular)

	if len(n.Children) == 0 {
		// Branch end: apply the deep wildcards collected on the way down,
		// then expand whatever sections they attached.
		if len(deep) == 0 {
			return nil
		}
		for _, w := range deep {
			apply(n, w)
		}
		return expand(n, nil, path)
	}

	for _, c := range n.Children {
		if err := expand(c, deep, joinPath(path, c.Name)); err != nil {
			return err
		}
	}
	return nil
}

// apply merges a wildcard into target: the wildcard's params override the
// target's, and copies of its child sections are appended.
func apply(target, wildcard *Node) {
	if target.Params == nil {
		target.Params = model.Params{}
	}
	for k, v := range wildcard.Params {
		target.Params[k] = v
	}
	for _, c := range wildcard.Children {
		target.Children = append(target.Children, c.clone())
	}
}

// withSelf prepends an unnamed empty section if any of children extends its
// parent, so that the parent yields a setup of its own.
func withSelf(children []*Node) []*Node {
	for _, c := range children {
		if c.Extends() {
			self := &Node{Params: model.Params{}}
			return append([]*Node{self}, children...)
		}
	}
	return children
}

func collect(n *Node, path []string, inherited model.Params, out *[]model.Setup) {
	params := inherited.Clone()
	for k, v := range n.Params {
		params[k] = v
	}
	if n.Name != "" {
		path = append(append([]string{}, path...), n.Name)
	}
	if len(n.Children) == 0 {
		*out = append(*out, model.Setup{Name: strings.Join(path, "."), Params: params})
		return
	}
	for _, c := range n.Children {
		collect(c, path, params, out)
	}
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	if name == "" {
		return path
	}
	return path + "." + name
}

func displayPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}
