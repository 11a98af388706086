package directory

import (
	"fmt"
	"regexp"
	"strings"

	"appmcp/pkg/coords"
	"appmcp/pkg/errs"
	"appmcp/pkg/handle"
)

// AppSelector names exactly one way to pick a running application.
type AppSelector struct {
	BundleID    string
	ProcessName string
	PID         *uint32
}

func (s AppSelector) describe() string {
	switch {
	case s.BundleID != "":
		return "bundle_id=" + s.BundleID
	case s.ProcessName != "":
		return "process_name=" + s.ProcessName
	case s.PID != nil:
		return fmt.Sprintf("pid=%d", *s.PID)
	default:
		return "<empty selector>"
	}
}

func (s AppSelector) count() int {
	n := 0
	if s.BundleID != "" {
		n++
	}
	if s.ProcessName != "" {
		n++
	}
	if s.PID != nil {
		n++
	}
	return n
}

// WindowSelector names either a title pattern or an index; if both are
// present the title expression wins.
type WindowSelector struct {
	TitlePattern string
	Index        *int
}

// Directory resolves selectors against a live Enumerator and registers the
// results in the handle registry.
type Directory struct {
	enum Enumerator
	reg  *handle.Registry
}

// New constructs a Directory over enum, registering handles in reg.
func New(enum Enumerator, reg *handle.Registry) *Directory {
	return &Directory{enum: enum, reg: reg}
}

// ListRunningApplications returns every UI-capable process, each paired
// with its (possibly freshly minted) app_handle.
func (d *Directory) ListRunningApplications() ([]App, []string, error) {
	apps, err := d.enum.ListApplications()
	if err != nil {
		return nil, nil, errs.Wrap(errs.SystemError, "failed to enumerate applications", err)
	}
	handles := make([]string, len(apps))
	for i, a := range apps {
		handles[i] = d.reg.AllocateApp(fmt.Sprintf("pid:%d", a.PID), a.Ref, d.enum.ProbeAppAlive)
	}
	return apps, handles, nil
}

// ListApplicationWindows returns the windows of the application behind
// appHandle, each paired with its window_handle.
func (d *Directory) ListApplicationWindows(appHandle string) ([]Window, []string, error) {
	ref, err := d.reg.LookupApp(appHandle)
	if err != nil {
		return nil, nil, err
	}
	pid, ok := ref.(uint32)
	if !ok {
		return nil, nil, errs.New(errs.AppNotFound, "app_handle does not resolve to a process")
	}

	wins, err := d.enum.ListWindows(pid)
	if err != nil {
		return nil, nil, errs.Wrap(errs.SystemError, "failed to enumerate windows", err)
	}
	handles := make([]string, len(wins))
	for i, w := range wins {
		identity := fmt.Sprintf("hwnd:%v", w.Ref)
		handles[i] = d.reg.AllocateWindow(identity, w.Ref, d.enum.ProbeWindowAlive)
	}
	return wins, handles, nil
}

// ListInstalledApplications returns every application found in the
// conventional install locations, running or not.
func (d *Directory) ListInstalledApplications() ([]InstalledApp, error) {
	apps, err := d.enum.ListInstalledApplications()
	if err != nil {
		return nil, errs.Wrap(errs.SystemError, "failed to enumerate installed applications", err)
	}
	return apps, nil
}

// ResolveApp picks the first OS-reported application matching sel and
// returns its app_handle.
func (d *Directory) ResolveApp(sel AppSelector) (string, error) {
	if sel.count() != 1 {
		return "", errs.New(errs.InvalidParams, "resolve_app requires exactly one of bundle_id, process_name, pid")
	}

	apps, err := d.enum.ListApplications()
	if err != nil {
		return "", errs.Wrap(errs.SystemError, "failed to enumerate applications", err)
	}

	for _, a := range apps {
		if matchApp(a, sel) {
			return d.reg.AllocateApp(fmt.Sprintf("pid:%d", a.PID), a.Ref, d.enum.ProbeAppAlive), nil
		}
	}
	return "", errs.New(errs.AppNotFound, "no running application matched selector: "+sel.describe())
}

func matchApp(a App, sel AppSelector) bool {
	switch {
	case sel.BundleID != "":
		return a.BundleID == sel.BundleID
	case sel.ProcessName != "":
		return strings.EqualFold(a.Name, sel.ProcessName)
	case sel.PID != nil:
		return a.PID == *sel.PID
	default:
		return false
	}
}

// ResolveWindow picks a window of the application behind appHandle per sel,
// falling back to the first main window, then the first window, when sel
// carries neither a title pattern nor an index.
func (d *Directory) ResolveWindow(appHandle string, sel WindowSelector) (string, error) {
	ref, err := d.reg.LookupApp(appHandle)
	if err != nil {
		return "", err
	}
	pid, ok := ref.(uint32)
	if !ok {
		return "", errs.New(errs.AppNotFound, "app_handle does not resolve to a process")
	}

	wins, err := d.enum.ListWindows(pid)
	if err != nil {
		return "", errs.Wrap(errs.SystemError, "failed to enumerate windows", err)
	}
	if len(wins) == 0 {
		return "", errs.New(errs.WindowNotFound, "application has no windows")
	}

	var chosen *Window
	switch {
	case sel.TitlePattern != "":
		re, err := regexp.Compile(sel.TitlePattern)
		if err != nil {
			return "", errs.Wrap(errs.InvalidParams, "invalid title_pattern", err)
		}
		for i := range wins {
			if re.MatchString(wins[i].Title) {
				chosen = &wins[i]
				break
			}
		}
	case sel.Index != nil:
		if *sel.Index < 0 || *sel.Index >= len(wins) {
			return "", errs.New(errs.WindowNotFound, "window index out of range")
		}
		chosen = &wins[*sel.Index]
	default:
		for i := range wins {
			if wins[i].IsMain {
				chosen = &wins[i]
				break
			}
		}
		if chosen == nil {
			chosen = &wins[0]
		}
	}

	if chosen == nil {
		return "", errs.New(errs.WindowNotFound, "no window matched selector")
	}

	identity := fmt.Sprintf("hwnd:%v", chosen.Ref)
	return d.reg.AllocateWindow(identity, chosen.Ref, d.enum.ProbeWindowAlive), nil
}

// WindowBounds resolves a window_handle to its current global bounds,
// read fresh from the OS so a moved or resized window is never reported
// stale.
func (d *Directory) WindowBounds(windowHandle string) (coords.Rect, error) {
	ref, err := d.reg.LookupWindow(windowHandle)
	if err != nil {
		return coords.Rect{}, err
	}
	return d.enum.WindowBounds(ref)
}

// WindowTitle resolves a window_handle to its current title text.
func (d *Directory) WindowTitle(windowHandle string) (string, error) {
	ref, err := d.reg.LookupWindow(windowHandle)
	if err != nil {
		return "", err
	}
	return d.enum.WindowTitle(ref)
}

// Displays exposes the enumerator's display list for coordinate resolution.
func (d *Directory) Displays() ([]coords.Display, error) {
	return d.enum.Displays()
}

// WindowRef exposes the live OS reference behind a window_handle, needed by
// C4/C5 to drive UI Automation and input synthesis.
func (d *Directory) WindowRef(windowHandle string) (interface{}, error) {
	return d.reg.LookupWindow(windowHandle)
}

// AppRef exposes the live OS reference (pid) behind an app_handle.
func (d *Directory) AppRef(appHandle string) (interface{}, error) {
	return d.reg.LookupApp(appHandle)
}
