// Package coords converts between the three coordinate spaces the core
// recognizes and implements the wait conditions of C6.
package coords

import (
	"appmcp/pkg/errs"
)

// Point is a single coordinate in whichever space its caller documents.
type Point struct {
	X, Y int
}

// Rect is a position+size rectangle in global screen coordinates, the only
// space the rest of the core is allowed to store.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether p lies within r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Center returns the rectangle's midpoint, used by click_element and
// scroll_window to compute the point an event is posted at.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Display describes one monitor's bounds in global coordinates, plus its
// native screen-space height (needed to flip the y axis between the
// bottom-left-origin screen space and the y-down global space).
type Display struct {
	Bounds       Rect
	ScreenHeight int
}

// WindowToGlobal adds the window's top-left origin, read fresh by the
// caller, to a window-relative point.
func WindowToGlobal(windowOrigin Point, p Point) Point {
	return Point{X: windowOrigin.X + p.X, Y: windowOrigin.Y + p.Y}
}

// GlobalToWindow is the inverse of WindowToGlobal.
func GlobalToWindow(windowOrigin Point, p Point) Point {
	return Point{X: p.X - windowOrigin.X, Y: p.Y - windowOrigin.Y}
}

// ScreenToGlobal translates a point reported in a display's native
// bottom-left-origin, y-up space into the shared global, top-left-origin,
// y-down space.
func ScreenToGlobal(d Display, p Point) Point {
	return Point{
		X: d.Bounds.X + p.X,
		Y: d.Bounds.Y + (d.ScreenHeight - p.Y),
	}
}

// GlobalToScreen is the inverse of ScreenToGlobal.
func GlobalToScreen(d Display, p Point) Point {
	return Point{
		X: p.X - d.Bounds.X,
		Y: d.ScreenHeight - (p.Y - d.Bounds.Y),
	}
}

// ResolveDisplay finds the display whose bounds contain p. It returns
// COORDINATE_OUT_OF_BOUNDS when p lies outside every display.
func ResolveDisplay(displays []Display, p Point) (Display, error) {
	for _, d := range displays {
		if d.Bounds.Contains(p) {
			return d, nil
		}
	}
	return Display{}, errs.New(errs.CoordinateOutOfBounds, "point does not map to any display")
}

// ClampToWindow validates a global point against the window's bounds,
// both expressed in global coordinates.
func ClampToWindow(windowBounds Rect, globalPoint Point) error {
	if windowBounds.Contains(globalPoint) {
		return nil
	}
	return errs.New(errs.CoordinateOutOfBounds, "point does not map to the target window's client area")
}
