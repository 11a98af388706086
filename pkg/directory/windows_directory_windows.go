//go:build windows

package directory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"appmcp/pkg/coords"
)

var (
	user32 = syscall.NewLazyDLL("user32.dll")

	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procGetWindow                = user32.NewProc("GetWindow")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procIsWindow                 = user32.NewProc("IsWindow")

	procEnumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW     = user32.NewProc("GetMonitorInfoW")
)

const gwOwner = 4

type win32Rect struct {
	Left, Top, Right, Bottom int32
}

// WindowsEnumerator implements Enumerator over raw Win32 calls:
// EnumWindows for discovery, per-window property reads for the rest.
type WindowsEnumerator struct {
	mu sync.Mutex
}

// NewWindowsEnumerator constructs the live Win32-backed enumerator.
func NewWindowsEnumerator() *WindowsEnumerator {
	return &WindowsEnumerator{}
}

// ListApplications groups the top-level windows of every process into one
// App record per distinct pid.
func (e *WindowsEnumerator) ListApplications() ([]App, error) {
	wins, err := e.enumTopLevelWindows()
	if err != nil {
		return nil, err
	}

	fg := getForegroundWindow()
	fgPID := getWindowPID(fg)

	byPID := make(map[uint32]*App)
	order := make([]uint32, 0)
	for _, hwnd := range wins {
		pid := getWindowPID(hwnd)
		if pid == 0 {
			continue
		}
		if _, ok := byPID[pid]; !ok {
			name := processExecName(pid)
			byPID[pid] = &App{
				Name:      name,
				PID:       pid,
				IsActive:  pid == fgPID,
				CreatedAt: time.Now(),
				Ref:       pid,
			}
			order = append(order, pid)
		}
	}

	apps := make([]App, 0, len(order))
	for _, pid := range order {
		apps = append(apps, *byPID[pid])
	}
	return apps, nil
}

// startMenuDirs returns the conventional Windows Start Menu shortcut
// directories: the per-machine one and the current user's.
func startMenuDirs() []string {
	dirs := make([]string, 0, 2)
	if programData := os.Getenv("ProgramData"); programData != "" {
		dirs = append(dirs, filepath.Join(programData, "Microsoft", "Windows", "Start Menu", "Programs"))
	}
	if appData := os.Getenv("AppData"); appData != "" {
		dirs = append(dirs, filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs"))
	}
	return dirs
}

// ListInstalledApplications walks the Start Menu shortcut directories,
// treating every .lnk file's base name as one installed application. Win32
// has no bundle identifier concept, so BundleID is always empty here.
func (e *WindowsEnumerator) ListInstalledApplications() ([]InstalledApp, error) {
	seen := make(map[string]bool)
	var apps []InstalledApp
	for _, root := range startMenuDirs() {
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(path), ".lnk") {
				return nil
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if seen[name] {
				return nil
			}
			seen[name] = true
			apps = append(apps, InstalledApp{Name: name})
			return nil
		})
	}
	return apps, nil
}

// ListWindows returns every top-level window owned by pid.
func (e *WindowsEnumerator) ListWindows(pid uint32) ([]Window, error) {
	wins, err := e.enumTopLevelWindows()
	if err != nil {
		return nil, err
	}

	out := make([]Window, 0)
	for _, hwnd := range wins {
		if getWindowPID(hwnd) != pid {
			continue
		}
		r, err := e.WindowBounds(hwnd)
		if err != nil {
			continue
		}
		owner, _, _ := procGetWindow.Call(uintptr(hwnd), uintptr(gwOwner))
		out = append(out, Window{
			Title:     getWindowText(hwnd),
			Bounds:    r,
			Visible:   isWindowVisible(hwnd),
			IsMain:    owner == 0,
			CreatedAt: time.Now(),
			AppPID:    pid,
			Ref:       hwnd,
		})
	}
	return out, nil
}

// ProbeAppAlive reports whether pid still names a live process. It is used
// by the handle registry as the app liveness probe.
func (e *WindowsEnumerator) ProbeAppAlive(ref interface{}) bool {
	pid, ok := ref.(uint32)
	if !ok {
		return false
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)
	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	const stillActive = 259
	return code == stillActive
}

// ProbeWindowAlive reports whether hwnd is still a valid window handle,
// used as the window liveness probe.
func (e *WindowsEnumerator) ProbeWindowAlive(ref interface{}) bool {
	hwnd, ok := ref.(syscall.Handle)
	if !ok {
		return false
	}
	ret, _, _ := procIsWindow.Call(uintptr(hwnd))
	return ret != 0
}

// WindowBounds reads the window's current rect, normalized to global
// screen coordinates (Win32 already reports GetWindowRect in virtual
// screen space, which is this core's global space).
func (e *WindowsEnumerator) WindowBounds(ref interface{}) (coords.Rect, error) {
	hwnd, ok := ref.(syscall.Handle)
	if !ok {
		return coords.Rect{}, fmt.Errorf("not a window reference: %v", ref)
	}
	var r win32Rect
	ret, _, _ := procGetWindowRect.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return coords.Rect{}, fmt.Errorf("GetWindowRect failed")
	}
	return coords.Rect{
		X: int(r.Left),
		Y: int(r.Top),
		W: int(r.Right - r.Left),
		H: int(r.Bottom - r.Top),
	}, nil
}

// WindowTitle reads a window's current title text.
func (e *WindowsEnumerator) WindowTitle(ref interface{}) (string, error) {
	hwnd, ok := ref.(syscall.Handle)
	if !ok {
		return "", fmt.Errorf("not a window reference: %v", ref)
	}
	return getWindowText(hwnd), nil
}

// Displays enumerates connected monitors for multi-display coordinate
// resolution.
func (e *WindowsEnumerator) Displays() ([]coords.Display, error) {
	var displays []coords.Display
	cb := syscall.NewCallback(func(hMonitor syscall.Handle, hdc syscall.Handle, rect *win32Rect, lparam uintptr) uintptr {
		var info struct {
			cbSize    uint32
			rcMonitor win32Rect
			rcWork    win32Rect
			flags     uint32
		}
		info.cbSize = uint32(unsafe.Sizeof(info))
		procGetMonitorInfoW.Call(uintptr(hMonitor), uintptr(unsafe.Pointer(&info)))
		b := info.rcMonitor
		displays = append(displays, coords.Display{
			Bounds: coords.Rect{
				X: int(b.Left), Y: int(b.Top),
				W: int(b.Right - b.Left), H: int(b.Bottom - b.Top),
			},
			ScreenHeight: int(b.Bottom - b.Top),
		})
		return 1
	})
	procEnumDisplayMonitors.Call(0, 0, cb, 0)
	if len(displays) == 0 {
		return nil, fmt.Errorf("no displays enumerated")
	}
	return displays, nil
}

func (e *WindowsEnumerator) enumTopLevelWindows() ([]syscall.Handle, error) {
	var hwnds []syscall.Handle
	cb := syscall.NewCallback(func(hwnd syscall.Handle, lparam uintptr) uintptr {
		hwnds = append(hwnds, hwnd)
		return 1
	})
	ret, _, _ := procEnumWindows.Call(cb, 0)
	if ret == 0 {
		return nil, fmt.Errorf("EnumWindows failed")
	}
	return hwnds, nil
}

func getForegroundWindow() syscall.Handle {
	ret, _, _ := procGetForegroundWindow.Call()
	return syscall.Handle(ret)
}

func getWindowPID(hwnd syscall.Handle) uint32 {
	var pid uint32
	procGetWindowThreadProcessId.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&pid)))
	return pid
}

func getWindowText(hwnd syscall.Handle) string {
	buf := make([]uint16, 512)
	ret, _, _ := procGetWindowTextW.Call(
		uintptr(hwnd),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if ret == 0 {
		return ""
	}
	return syscall.UTF16ToString(buf)
}

func isWindowVisible(hwnd syscall.Handle) bool {
	ret, _, _ := procIsWindowVisible.Call(uintptr(hwnd))
	return ret != 0
}

func processExecName(pid uint32) string {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "unknown"
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return "unknown"
	}
	full := syscall.UTF16ToString(buf[:size])
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == '\\' || full[i] == '/' {
			return full[i+1:]
		}
	}
	return full
}
