// Package directory implements the Application/Window Directory (C3):
// enumeration of running applications and windows, and resolution of a
// user-supplied selector to a handle.
package directory

import (
	"time"

	"appmcp/pkg/coords"
)

// App is one running, UI-capable process as reported by the OS.
type App struct {
	Name      string
	BundleID  string // may be empty; not every process carries one
	PID       uint32
	IsActive  bool
	CreatedAt time.Time

	// Ref is the OS-native reference the handle registry stores; for the
	// Windows enumerator this is the pid itself, since Win32 has no single
	// stable "application object" the way macOS's NSRunningApplication does.
	Ref interface{}
}

// InstalledApp is an application found in a conventional install location,
// whether or not it is currently running.
type InstalledApp struct {
	Name     string
	BundleID string
}

// Window is one top-level window owned by exactly one App.
type Window struct {
	Title     string
	Bounds    coords.Rect
	Visible   bool
	IsMain    bool
	CreatedAt time.Time
	AppPID    uint32

	// Ref is the OS-native window reference (an HWND on Windows).
	Ref interface{}
}

// Enumerator is the OS-facing surface the directory needs. Implementations
// live in windows_directory_windows.go (real) and windows_directory_stub.go
// (non-Windows placeholder).
type Enumerator interface {
	ListApplications() ([]App, error)
	ListInstalledApplications() ([]InstalledApp, error)
	ListWindows(pid uint32) ([]Window, error)
	ProbeAppAlive(ref interface{}) bool
	ProbeWindowAlive(ref interface{}) bool
	WindowBounds(ref interface{}) (coords.Rect, error)
	WindowTitle(ref interface{}) (string, error)
	Displays() ([]coords.Display, error)
}
