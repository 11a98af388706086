//go:build !windows

package directory

import (
	"appmcp/pkg/coords"
	"appmcp/pkg/errs"
)

// WindowsEnumerator is a placeholder on non-Windows builds: the core is
// Windows-only, but the module must still typecheck elsewhere.
type WindowsEnumerator struct{}

// NewWindowsEnumerator constructs the placeholder enumerator.
func NewWindowsEnumerator() *WindowsEnumerator { return &WindowsEnumerator{} }

func (e *WindowsEnumerator) ListApplications() ([]App, error) {
	return nil, errs.New(errs.SystemError, "window enumeration is only available on Windows")
}

func (e *WindowsEnumerator) ListInstalledApplications() ([]InstalledApp, error) {
	return nil, errs.New(errs.SystemError, "application enumeration is only available on Windows")
}

func (e *WindowsEnumerator) ListWindows(pid uint32) ([]Window, error) {
	return nil, errs.New(errs.SystemError, "window enumeration is only available on Windows")
}

func (e *WindowsEnumerator) ProbeAppAlive(ref interface{}) bool    { return false }
func (e *WindowsEnumerator) ProbeWindowAlive(ref interface{}) bool { return false }

func (e *WindowsEnumerator) WindowBounds(ref interface{}) (coords.Rect, error) {
	return coords.Rect{}, errs.New(errs.SystemError, "window enumeration is only available on Windows")
}

func (e *WindowsEnumerator) WindowTitle(ref interface{}) (string, error) {
	return "", errs.New(errs.SystemError, "window enumeration is only available on Windows")
}

func (e *WindowsEnumerator) Displays() ([]coords.Display, error) {
	return nil, errs.New(errs.SystemError, "display enumeration is only available on Windows")
}
