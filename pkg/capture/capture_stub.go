//go:build !windows

package capture

import (
	"image"

	"appmcp/pkg/coords"
	"appmcp/pkg/errs"
)

// StubCapturer reports unavailability on non-Windows builds.
type StubCapturer struct{}

// NewWindowsCapturer keeps the same constructor name across build tags so
// callers never need a build-tagged call site.
func NewWindowsCapturer() *StubCapturer { return &StubCapturer{} }

func (c *StubCapturer) CaptureWindow(hwnd interface{}, bounds coords.Rect) (image.Image, error) {
	return nil, errs.New(errs.SystemError, "screen capture is only available on Windows")
}
