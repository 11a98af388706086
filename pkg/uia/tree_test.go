package uia

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWalker builds a small fixed tree keyed by element ref identity
// (a plain int), used to exercise Walk without any OS dependency.
type fakeWalker struct {
	children map[int][]int
	attrs    map[int]Attributes
	slow     map[int]bool
}

func (f *fakeWalker) RootElement(hwnd interface{}) (ElementRef, error) { return 0, nil }

func (f *fakeWalker) Attributes(el ElementRef) (Attributes, error) {
	id := el.(int)
	if f.slow[id] {
		time.Sleep(50 * time.Millisecond)
	}
	return f.attrs[id], nil
}

func (f *fakeWalker) Children(el ElementRef) ([]ElementRef, error) {
	ids := f.children[el.(int)]
	out := make([]ElementRef, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out, nil
}

func (f *fakeWalker) Invoke(el ElementRef) error                { return nil }
func (f *fakeWalker) SetValue(el ElementRef, text string) error { return nil }
func (f *fakeWalker) IsAlive(el ElementRef) bool                { return true }
func (f *fakeWalker) Close() error                              { return nil }

func newFixtureWalker() *fakeWalker {
	return &fakeWalker{
		children: map[int][]int{
			0: {1, 2},
			1: {},
			2: {},
		},
		attrs: map[int]Attributes{
			0: {Role: "window", Title: "Root"},
			1: {Role: "button", Title: "OK"},
			2: {Role: "edit", Title: "Name"},
		},
		slow: map[int]bool{},
	}
}

func TestWalkProducesExpectedShape(t *testing.T) {
	w := newFixtureWalker()
	res, err := Walk(w, "wh_1", 0, DefaultWalkLimits)
	require.NoError(t, err)
	assert.Equal(t, 3, res.NodeCount)
	assert.False(t, res.Truncated)
	assert.Len(t, res.Root.Children, 2)
	assert.Equal(t, "button", res.Root.Children[0].Role)
}

func TestWalkRespectsMaxNodes(t *testing.T) {
	w := newFixtureWalker()
	limits := DefaultWalkLimits
	limits.MaxNodes = 2
	res, err := Walk(w, "wh_1", 0, limits)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
}

func TestWalkRespectsMaxDepth(t *testing.T) {
	w := newFixtureWalker()
	limits := DefaultWalkLimits
	limits.MaxDepth = 0
	res, err := Walk(w, "wh_1", 0, limits)
	require.NoError(t, err)
	assert.True(t, res.Root.Truncated)
	assert.Empty(t, res.Root.Children)
}

func TestWalkDoesNotAbortOnSlowAttributeRead(t *testing.T) {
	w := newFixtureWalker()
	w.slow[1] = true
	limits := DefaultWalkLimits
	limits.AttrTimeout = 5 * time.Millisecond

	res, err := Walk(w, "wh_1", 0, limits)
	require.NoError(t, err)
	// The slow node still appears in the tree, just with zero attributes.
	assert.Len(t, res.Root.Children, 2)
}

func TestElementIDIsDeterministic(t *testing.T) {
	id1 := ElementID("wh_1", "0.1", "button")
	id2 := ElementID("wh_1", "0.1", "button")
	assert.Equal(t, id1, id2)

	id3 := ElementID("wh_1", "0.2", "button")
	assert.NotEqual(t, id1, id3)
}

func TestElementIDDependsOnWindowHandle(t *testing.T) {
	id1 := ElementID("wh_1", "0.1", "button")
	id2 := ElementID("wh_2", "0.1", "button")
	assert.NotEqual(t, id1, id2)
}
