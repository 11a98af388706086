package coords

import (
	"testing"

	"appmcp/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowGlobalRoundTrip(t *testing.T) {
	origin := Point{X: 100, Y: 200}
	p := Point{X: 10, Y: 20}

	g := WindowToGlobal(origin, p)
	back := GlobalToWindow(origin, g)
	assert.Equal(t, p, back)
}

func TestScreenGlobalRoundTrip(t *testing.T) {
	d := Display{Bounds: Rect{X: 0, Y: 0, W: 1920, H: 1080}, ScreenHeight: 1080}
	p := Point{X: 50, Y: 60}

	g := ScreenToGlobal(d, p)
	back := GlobalToScreen(d, g)
	assert.Equal(t, p, back)
}

func TestResolveDisplayOutOfBounds(t *testing.T) {
	displays := []Display{
		{Bounds: Rect{X: 0, Y: 0, W: 1920, H: 1080}},
	}
	_, err := ResolveDisplay(displays, Point{X: 5000, Y: 5000})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CoordinateOutOfBounds))
}

func TestResolveDisplayPicksContainingDisplay(t *testing.T) {
	displays := []Display{
		{Bounds: Rect{X: 0, Y: 0, W: 1920, H: 1080}},
		{Bounds: Rect{X: 1920, Y: 0, W: 1920, H: 1080}},
	}
	d, err := ResolveDisplay(displays, Point{X: 2000, Y: 10})
	require.NoError(t, err)
	assert.Equal(t, displays[1], d)
}

func TestRectCenter(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 100, H: 50}
	assert.Equal(t, Point{X: 60, Y: 35}, r.Center())
}
