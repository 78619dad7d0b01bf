package widget

import "github.com/alexivanou/sportslocations/internal/model"

// Node is a labeled group of choices (Children != nil) or a selectable leaf
type Node struct {
	ID       int
	Text     string
	Disabled bool
	Children []Node
}

// IsGroup reports whether the node is a group
func (n Node) IsGroup() bool {
	return n.Children != nil
}

// Walk converts one response into choice nodes. A leaf id seen earlier in
// the same response is dropped and groups left without children are omitted.
func Walk(results []model.ResultNode) []Node {
	return walk(results, make(map[int]bool))
}

func walk(in []model.ResultNode, known map[int]bool) []Node {
	out := make([]Node, 0, len(in))
	for _, n := range in {
		if n.IsGroup() {
			children := walk(n.Children, known)
			if len(children) == 0 {
				continue
			}
			out = append(out, Node{Text: n.Text, Children: children})
			continue
		}
		if known[n.ID] {
			continue
		}
		known[n.ID] = true
		out = append(out, Node{ID: n.ID, Text: n.Text})
	}
	return out
}

// MergeGroups collapses adjacent top-level groups with the same label into
// the first one, concatenating children in order.
func MergeGroups(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if last := len(out) - 1; last >= 0 && n.IsGroup() && out[last].IsGroup() && out[last].Text == n.Text {
			out[last].Children = append(out[last].Children, n.Children...)
			continue
		}
		out = append(out, n)
	}
	return out
}

// markDisabled flags every leaf whose id is selected and clears the rest
func markDisabled(nodes []Node, selected model.Selection) {
	for i := range nodes {
		if nodes[i].IsGroup() {
			markDisabled(nodes[i].Children, selected)
			continue
		}
		nodes[i].Disabled = selected.Contains(nodes[i].ID)
	}
}

// findLeaf returns the first leaf with id
func findLeaf(nodes []Node, id int) (*Node, bool) {
	for i := range nodes {
		if nodes[i].IsGroup() {
			if n, ok := findLeaf(nodes[i].Children, id); ok {
				return n, true
			}
			continue
		}
		if nodes[i].ID == id {
			return &nodes[i], true
		}
	}
	return nil, false
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
		if n.Children != nil {
			out[i].Children = cloneNodes(n.Children)
		}
	}
	return out
}
