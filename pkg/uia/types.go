// Package uia drives the OS accessibility tree: a single STA-thread COM
// marshaler (C4's OS-facing half) plus a generic, role-table-driven tree
// walk used by the snapshot pipeline.
package uia

import "appmcp/pkg/coords"

// ElementRef is an opaque reference to a live accessibility element. Its
// concrete type is COM-specific (*ole.IDispatch on Windows) and must never
// be inspected outside this package; callers hold it only to pass back into
// Walker methods or to register in the handle registry.
type ElementRef interface{}

// Attributes is the flat set of properties the tree walk reads off one
// element, matching the UI Element fields in the data model.
type Attributes struct {
	Role       string
	Title      string
	Value      string
	Identifier string
	Enabled    bool
	Bounds     coords.Rect
}

// Node is one element of a walked tree, carrying both its attributes and
// the live reference needed to register it with the handle registry and to
// later drive input synthesis against it.
type Node struct {
	Attributes
	Path      string // stable, tree-position-derived path, e.g. "0.2.1"
	Children  []*Node
	Ref       ElementRef
	Truncated bool // depth/node-count limit was hit at or below this node
}

// Walker is the OS-facing surface the tree walk and input synthesis need.
// Implementations: marshaler_windows.go (real UI Automation via COM) and
// marshaler_stub.go (non-Windows placeholder).
type Walker interface {
	// RootElement returns the accessibility root of the window referenced
	// by hwnd (a syscall.Handle boxed as interface{} on Windows).
	RootElement(hwnd interface{}) (ElementRef, error)
	// Attributes reads role/title/value/identifier/enabled/bounds for el.
	Attributes(el ElementRef) (Attributes, error)
	// Children returns el's immediate child elements in tree order.
	Children(el ElementRef) ([]ElementRef, error)
	// Invoke fires the element's Invoke pattern, returning an error if the
	// element does not support it.
	Invoke(el ElementRef) error
	// SetValue writes text directly to el's value attribute via the value
	// pattern, returning an error if the role does not support it.
	SetValue(el ElementRef, text string) error
	// IsAlive reports whether el still answers a cheap attribute read; used
	// as the handle registry's element liveness probe.
	IsAlive(el ElementRef) bool
	// Close releases the STA thread and any COM interfaces it holds.
	Close() error
}
