//go:build !windows

package input

import (
	"time"

	"appmcp/pkg/errs"
)

// StubPoster reports unavailability on non-Windows builds.
type StubPoster struct{}

func NewWindowsPoster() *StubPoster { return &StubPoster{} }

func (p *StubPoster) Click(x, y int, button string) error {
	return errs.New(errs.SystemError, "input synthesis is only available on Windows")
}

func (p *StubPoster) Drag(steps []Point, stepDelay time.Duration) error {
	return errs.New(errs.SystemError, "input synthesis is only available on Windows")
}

func (p *StubPoster) Wheel(x, y, deltaX, deltaY int) error {
	return errs.New(errs.SystemError, "input synthesis is only available on Windows")
}

func (p *StubPoster) TypeText(text string, interval time.Duration) error {
	return errs.New(errs.SystemError, "input synthesis is only available on Windows")
}
