// Package snapshot orchestrates the three-step UI Snapshot Pipeline (C4):
// tree walk, filter, emit — pairing the surviving element tree with an
// optional raster image and optional OCR pass.
package snapshot

import (
	"strings"

	"appmcp/pkg/uia"
)

// Query is the AXQuery filter object from capture_ui_snapshot.query.
type Query struct {
	Role       string
	Title      string
	Identifier string
	Enabled    *bool // nil means "no filter"; capture_ui_snapshot defaults true
}

// matches reports whether a single node (ignoring its descendants)
// satisfies q.
func (q *Query) matches(n *uia.Node) bool {
	if q.Role != "" && !uia.RoleMatches(q.Role, n.Role) {
		return false
	}
	if q.Title != "" {
		hay := strings.ToLower(n.Title + " " + n.Value)
		if !strings.Contains(hay, strings.ToLower(q.Title)) {
			return false
		}
	}
	if q.Identifier != "" && n.Identifier != q.Identifier {
		return false
	}
	if q.Enabled != nil && n.Enabled != *q.Enabled {
		return false
	}
	return true
}

// Filter prunes root to the nodes matching q: a parent is
// retained whenever any descendant matches, and the full nesting is
// preserved so the controller retains context. The returned tree does not
// mark which of its nodes matched q and which were kept only as ancestors.
// Filter returns nil if nothing in the tree (including root) matches.
func Filter(root *uia.Node, q *Query) *uia.Node {
	if q == nil {
		return root
	}
	out, _ := filterNode(root, q)
	return out
}

func filterNode(n *uia.Node, q *Query) (*uia.Node, bool) {
	selfMatch := q.matches(n)

	var kept []*uia.Node
	childMatch := false
	for _, c := range n.Children {
		if fc, _ := filterNode(c, q); fc != nil {
			kept = append(kept, fc)
			childMatch = true
		}
	}

	if !selfMatch && !childMatch {
		return nil, false
	}

	clone := *n
	clone.Children = kept
	return &clone, selfMatch
}
