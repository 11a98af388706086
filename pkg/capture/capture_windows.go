//go:build windows

package capture

import (
	"fmt"
	"image"
	"syscall"

	"github.com/kbinani/screenshot"

	"appmcp/pkg/coords"
)

// WindowsCapturer captures window pixels via kbinani/screenshot.
// GetWindowRect already reports in the same global/virtual-screen space
// CaptureRect expects, so no coordinate translation is needed here beyond
// what the directory already normalized.
type WindowsCapturer struct{}

// NewWindowsCapturer constructs the live capturer.
func NewWindowsCapturer() *WindowsCapturer { return &WindowsCapturer{} }

// CaptureWindow grabs the pixels within bounds, which are already in
// global screen coordinates.
func (c *WindowsCapturer) CaptureWindow(hwnd interface{}, bounds coords.Rect) (image.Image, error) {
	if _, ok := hwnd.(syscall.Handle); !ok {
		return nil, fmt.Errorf("not a window handle: %v", hwnd)
	}
	if bounds.W <= 0 || bounds.H <= 0 {
		return nil, fmt.Errorf("invalid window dimensions: %dx%d", bounds.W, bounds.H)
	}

	img, err := screenshot.CaptureRect(image.Rect(bounds.X, bounds.Y, bounds.X+bounds.W, bounds.Y+bounds.H))
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen rect: %w", err)
	}
	return img, nil
}
