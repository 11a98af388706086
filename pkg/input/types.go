// Package input synthesizes pointer, keyboard and scroll-wheel events
// against UI elements (C5), falling back from high-level accessibility
// actions to low-level posted events where the former are unsupported.
package input

import "time"

// Button names accepted by click_element.
const (
	ButtonLeft   = "left"
	ButtonRight  = "right"
	ButtonCenter = "center"
)

// Input text delivery methods accepted by input_text.
const (
	MethodSetValue = "set_value"
	MethodType     = "type"
)

// ClickInterval separates successive clicks within one multi-click burst.
const ClickInterval = 100 * time.Millisecond

// ButtonHoldDelay separates a click's button-down from its button-up, so
// the target application registers a deliberate press rather than a glitch.
const ButtonHoldDelay = 50 * time.Millisecond

// KeystrokeInterval separates successive synthesized key presses when
// typing character by character.
const KeystrokeInterval = 10 * time.Millisecond

// Point is a synthesized-event target in global screen coordinates.
type Point struct{ X, Y int }

// Poster posts low-level input events to the OS. Implementations:
// poster_windows.go (SendInput-backed) and poster_stub.go.
type Poster interface {
	// Click posts one button-down/button-up pair at (x, y).
	Click(x, y int, button string) error
	// Drag posts a pointer-down at steps[0], then moves through the
	// remaining steps pacing stepDelay apart, then posts a pointer-up.
	Drag(steps []Point, stepDelay time.Duration) error
	// Wheel posts a mouse-wheel event at (x, y) with the given deltas.
	Wheel(x, y, deltaX, deltaY int) error
	// TypeText posts one key-down/key-up pair per rune in text, pacing
	// interval apart, translating newlines/tabs to Return/Tab key codes.
	TypeText(text string, interval time.Duration) error
}
