package uia

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// WalkLimits bounds a single tree walk so a pathological or hostile
// application can never make a snapshot call block or balloon forever.
type WalkLimits struct {
	MaxDepth    int
	MaxNodes    int
	AttrTimeout time.Duration
}

// DefaultWalkLimits is sized so a typical desktop application's tree fits
// comfortably under the ceilings while a pathological one cannot run away.
var DefaultWalkLimits = WalkLimits{
	MaxDepth:    24,
	MaxNodes:    2000,
	AttrTimeout: 300 * time.Millisecond,
}

// WalkResult is the output of one complete tree walk.
type WalkResult struct {
	Root      *Node
	NodeCount int
	Truncated bool
}

// Walk starts at root and recursively reads each child's attributes,
// recording each node's tree-position path, from which ElementID later
// derives its deterministic element id. A node whose attribute read times
// out still appears in the tree with zero-valued attributes; the walk is
// never aborted by a single slow element.
func Walk(w Walker, windowHandle string, root ElementRef, limits WalkLimits) (*WalkResult, error) {
	res := &WalkResult{}
	node, err := walkNode(w, windowHandle, root, "0", 0, limits, res)
	if err != nil {
		return nil, err
	}
	res.Root = node
	return res, nil
}

func walkNode(w Walker, windowHandle string, ref ElementRef, path string, depth int, limits WalkLimits, res *WalkResult) (*Node, error) {
	res.NodeCount++
	attrs, timedOut := readAttributesWithTimeout(w, ref, limits.AttrTimeout)

	node := &Node{
		Attributes: attrs,
		Path:       path,
		Ref:        ref,
	}
	_ = timedOut // a timed-out read yields the missing/zero attribute fields, not an aborted walk

	if depth >= limits.MaxDepth || res.NodeCount >= limits.MaxNodes {
		node.Truncated = true
		res.Truncated = true
		return node, nil
	}

	children, err := w.Children(ref)
	if err != nil {
		// A child enumeration failure is recorded as a leaf, not a fatal
		// walk error: the rest of the tree may still be reachable.
		return node, nil
	}

	for i, child := range children {
		if res.NodeCount >= limits.MaxNodes {
			node.Truncated = true
			res.Truncated = true
			break
		}
		childPath := fmt.Sprintf("%s.%d", path, i)
		childNode, err := walkNode(w, windowHandle, child, childPath, depth+1, limits, res)
		if err != nil {
			continue
		}
		node.Children = append(node.Children, childNode)
	}

	return node, nil
}

// readAttributesWithTimeout bounds a single attribute read. The OS call
// keeps running in its own goroutine even after the timeout fires — it
// cannot be interrupted — but the walk does not wait on it.
func readAttributesWithTimeout(w Walker, ref ElementRef, timeout time.Duration) (Attributes, bool) {
	type result struct {
		attrs Attributes
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		attrs, err := w.Attributes(ref)
		ch <- result{attrs: attrs, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return Attributes{}, false
		}
		return r.attrs, false
	case <-time.After(timeout):
		return Attributes{}, true
	}
}

// ElementID derives the deterministic id for a node so that repeated
// snapshots of an unchanged UI produce identical ids: a hash of
// (window_handle, stable_path, role), not a counter.
func ElementID(windowHandle, path, role string) string {
	h := sha256.Sum256([]byte(windowHandle + "|" + path + "|" + role))
	return "el_" + hex.EncodeToString(h[:])[:16]
}
