package input

import (
	"sync"
	"time"

	"appmcp/pkg/coords"
	"appmcp/pkg/errs"
	"appmcp/pkg/uia"
)

// Synthesizer drives every input-synthesis tool. It holds a single soft
// lock across an entire multi-step call (e.g. a drag's many posted
// steps) so that two submitted sequences from one controller can never
// interleave at the OS level.
type Synthesizer struct {
	walker uia.Walker
	poster Poster
	mu     sync.Mutex
}

// NewSynthesizer wires the high-level accessibility walker (for the
// Invoke/SetValue fast paths) to the low-level event poster.
func NewSynthesizer(walker uia.Walker, poster Poster) *Synthesizer {
	return &Synthesizer{walker: walker, poster: poster}
}

// Click performs click_element: count button-presses at the element's
// bounds center. The left-button, single-click case first tries the
// element's Invoke pattern, which is both faster and more reliable than a
// synthesized click for the common case (buttons, menu items); every other
// case falls back to a posted pointer event.
func (s *Synthesizer) Click(el uia.ElementRef, enabled bool, bounds coords.Rect, button string, count int) error {
	if !enabled {
		return errs.New(errs.ElementNotAccessible, "element is disabled")
	}
	if count < 1 {
		count = 1
	}
	if button == "" {
		button = ButtonLeft
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if button == ButtonLeft && count == 1 {
		if err := s.walker.Invoke(el); err == nil {
			return nil
		}
		// Fall through: role has no Invoke pattern, or it failed; try a
		// synthesized click at the element's center instead.
	}

	center := bounds.Center()
	for i := 0; i < count; i++ {
		if err := s.poster.Click(center.X, center.Y, button); err != nil {
			return errs.Wrap(errs.SystemError, "post click", err)
		}
		if i < count-1 {
			time.Sleep(ClickInterval)
		}
	}
	return nil
}

// InputText performs input_text. The set_value method writes through the
// value pattern directly, atomically and without visible keystrokes; the
// type method synthesizes one key event per rune, which is slower but
// exercises the same input path a human would and works against elements
// with no value pattern.
func (s *Synthesizer) InputText(el uia.ElementRef, enabled bool, text string, method string) error {
	if !enabled {
		return errs.New(errs.ElementNotAccessible, "element is disabled")
	}
	if method == "" {
		method = MethodSetValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if method == MethodSetValue {
		if err := s.walker.SetValue(el, text); err != nil {
			return errs.Wrap(errs.ElementNotAccessible, "set value", err)
		}
		return nil
	}

	if err := s.poster.TypeText(text, KeystrokeInterval); err != nil {
		return errs.Wrap(errs.SystemError, "post keystrokes", err)
	}
	return nil
}

// DragDrop performs drag_drop: a pointer-down at from's center, an
// interpolated move to to's center over duration, then a pointer-up.
func (s *Synthesizer) DragDrop(from, to coords.Rect, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := interpolate(from.Center(), to.Center(), dragSteps(duration))
	stepDelay := duration / time.Duration(len(steps))
	if err := s.poster.Drag(steps, stepDelay); err != nil {
		return errs.Wrap(errs.SystemError, "post drag", err)
	}
	return nil
}

// ScrollWindow performs scroll_window: a wheel event at the target
// element's bounds center.
func (s *Synthesizer) ScrollWindow(bounds coords.Rect, deltaX, deltaY int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	center := bounds.Center()
	if err := s.poster.Wheel(center.X, center.Y, deltaX, deltaY); err != nil {
		return errs.Wrap(errs.SystemError, "post wheel", err)
	}
	return nil
}

// dragSteps picks a step count proportional to duration so a longer drag
// looks like continuous motion rather than a handful of jumps.
func dragSteps(duration time.Duration) int {
	n := int(duration / (16 * time.Millisecond))
	if n < 10 {
		return 10
	}
	if n > 120 {
		return 120
	}
	return n
}

func interpolate(from, to coords.Point, steps int) []Point {
	out := make([]Point, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		out[i] = Point{
			X: from.X + int(float64(to.X-from.X)*t),
			Y: from.Y + int(float64(to.Y-from.Y)*t),
		}
	}
	return out
}
