package dispatch

import (
	"context"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appmcp/pkg/coords"
	"appmcp/pkg/directory"
	"appmcp/pkg/errs"
	"appmcp/pkg/handle"
	"appmcp/pkg/input"
	"appmcp/pkg/snapshot"
	"appmcp/pkg/uia"
)

type fakeEnumerator struct{}

func (f *fakeEnumerator) ListApplications() ([]directory.App, error) {
	return []directory.App{{Name: "Weather", BundleID: "com.apple.weather", PID: 42, IsActive: true, Ref: uint32(42)}}, nil
}
func (f *fakeEnumerator) ListInstalledApplications() ([]directory.InstalledApp, error) {
	return []directory.InstalledApp{{Name: "Weather"}}, nil
}
func (f *fakeEnumerator) ListWindows(pid uint32) ([]directory.Window, error) {
	if pid != 42 {
		return nil, nil
	}
	return []directory.Window{{Title: "Weather", Bounds: coords.Rect{X: 0, Y: 0, W: 800, H: 600}, Visible: true, IsMain: true, AppPID: 42, Ref: 1001}}, nil
}
func (f *fakeEnumerator) ProbeAppAlive(ref interface{}) bool    { return true }
func (f *fakeEnumerator) ProbeWindowAlive(ref interface{}) bool { return true }
func (f *fakeEnumerator) WindowBounds(ref interface{}) (coords.Rect, error) {
	return coords.Rect{X: 0, Y: 0, W: 800, H: 600}, nil
}
func (f *fakeEnumerator) WindowTitle(ref interface{}) (string, error) { return "Weather", nil }
func (f *fakeEnumerator) Displays() ([]coords.Display, error) {
	return []coords.Display{{Bounds: coords.Rect{X: 0, Y: 0, W: 1920, H: 1080}, ScreenHeight: 1080}}, nil
}

type fakeWalker struct{ invoked int }

func (f *fakeWalker) RootElement(hwnd interface{}) (uia.ElementRef, error) { return 1, nil }
func (f *fakeWalker) Attributes(el uia.ElementRef) (uia.Attributes, error) {
	switch el.(int) {
	case 1:
		return uia.Attributes{Role: "window", Title: "Weather", Enabled: true, Bounds: coords.Rect{X: 0, Y: 0, W: 800, H: 600}}, nil
	case 2:
		return uia.Attributes{Role: "button", Title: "Refresh", Enabled: true, Bounds: coords.Rect{X: 10, Y: 10, W: 100, H: 40}}, nil
	}
	return uia.Attributes{}, nil
}
func (f *fakeWalker) Children(el uia.ElementRef) ([]uia.ElementRef, error) {
	if el.(int) == 1 {
		return []uia.ElementRef{2}, nil
	}
	return nil, nil
}
func (f *fakeWalker) Invoke(el uia.ElementRef) error {
	f.invoked++
	return nil
}
func (f *fakeWalker) SetValue(el uia.ElementRef, text string) error { return nil }
func (f *fakeWalker) IsAlive(el uia.ElementRef) bool                { return true }
func (f *fakeWalker) Close() error                                  { return nil }

type fakeCapturer struct{}

func (c *fakeCapturer) CaptureWindow(hwnd interface{}, bounds coords.Rect) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 80, 60)), nil
}

type fakePoster struct{ clicks int }

func (p *fakePoster) Click(x, y int, button string) error { p.clicks++; return nil }
func (p *fakePoster) Drag(steps []input.Point, stepDelay time.Duration) error {
	return nil
}
func (p *fakePoster) Wheel(x, y, deltaX, deltaY int) error               { return nil }
func (p *fakePoster) TypeText(text string, interval time.Duration) error { return nil }

func newTestServer() (*Server, *fakeWalker) {
	registry := handle.New()
	walker := &fakeWalker{}
	capturer := &fakeCapturer{}
	dir := directory.New(&fakeEnumerator{}, registry)
	pipeline := snapshot.NewPipeline(walker, capturer, nil, registry)
	synth := input.NewSynthesizer(walker, &fakePoster{})
	s := NewServer("appmcp-test", "0.0.1", Dependencies{
		Registry:  registry,
		Directory: dir,
		Walker:    walker,
		Pipeline:  pipeline,
		Synth:     synth,
	})
	return s, walker
}

func TestToolCatalogIsComplete(t *testing.T) {
	s, _ := newTestServer()
	for _, name := range []string{
		"resolve_app", "resolve_window",
		"list_running_applications", "list_application_windows",
		"capture_ui_snapshot", "elements_snapshot",
		"click_element", "input_text", "drag_drop", "scroll_window",
		"wait_time", "wait", "read_content",
	} {
		_, ok := s.tools[name]
		assert.True(t, ok, "tool %s missing from catalog", name)
	}
}

func TestResolveAppThenWindow(t *testing.T) {
	s, _ := newTestServer()
	ctx := context.Background()

	out, err := s.tools["resolve_app"].Execute(ctx, map[string]interface{}{"bundle_id": "com.apple.weather"})
	require.NoError(t, err)
	appHandle := out.(map[string]interface{})["app_handle"].(string)
	assert.True(t, strings.HasPrefix(appHandle, "ah_"))

	out, err = s.tools["resolve_window"].Execute(ctx, map[string]interface{}{"app_handle": appHandle, "index": 0})
	require.NoError(t, err)
	windowHandle := out.(map[string]interface{})["window_handle"].(string)
	assert.True(t, strings.HasPrefix(windowHandle, "wh_"))
}

func TestCaptureUISnapshotReturnsImageAndStableIDs(t *testing.T) {
	s, _ := newTestServer()
	ctx := context.Background()
	args := map[string]interface{}{"bundle_id": "com.apple.weather"}

	out, err := s.tools["capture_ui_snapshot"].Execute(ctx, args)
	require.NoError(t, err)
	first := out.(map[string]interface{})
	assert.Contains(t, first["summary"].(string), "UI Snapshot captured")
	assert.Contains(t, first["image"].(string), "data:image/jpeg;base64,")

	root := first["elements"].(*snapshot.Element)
	require.NotNil(t, root)
	assert.NotEmpty(t, root.ID)

	out, err = s.tools["capture_ui_snapshot"].Execute(ctx, args)
	require.NoError(t, err)
	second := out.(map[string]interface{})["elements"].(*snapshot.Element)
	assert.Equal(t, root.ID, second.ID)
	require.Len(t, second.Children, len(root.Children))
	for i := range root.Children {
		assert.Equal(t, root.Children[i].ID, second.Children[i].ID)
	}
}

func TestClickElementAfterSnapshotUsesInvoke(t *testing.T) {
	s, walker := newTestServer()
	ctx := context.Background()

	out, err := s.tools["elements_snapshot"].Execute(ctx, map[string]interface{}{"bundle_id": "com.apple.weather"})
	require.NoError(t, err)
	root := out.(map[string]interface{})["elements"].(*snapshot.Element)
	require.NotEmpty(t, root.Children)

	_, err = s.tools["click_element"].Execute(ctx, map[string]interface{}{"element_id": root.Children[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, walker.invoked)
}

func TestClickElementUnknownIDFails(t *testing.T) {
	s, _ := newTestServer()
	_, err := s.tools["click_element"].Execute(context.Background(), map[string]interface{}{"element_id": "bogus"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ElementNotAccessible))

	result := toolError(err)
	assert.True(t, result.IsError)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "ELEMENT_NOT_ACCESSIBLE")
}

func TestClickElementCountOutOfRange(t *testing.T) {
	s, _ := newTestServer()
	for _, count := range []int{0, 11} {
		_, err := s.tools["click_element"].Execute(context.Background(), map[string]interface{}{"element_id": "whatever", "count": count})
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.InvalidParams), "count=%d", count)
	}
}

func TestDragDropRejectsNonPositiveDuration(t *testing.T) {
	s, _ := newTestServer()
	ctx := context.Background()

	out, err := s.tools["elements_snapshot"].Execute(ctx, map[string]interface{}{"bundle_id": "com.apple.weather"})
	require.NoError(t, err)
	root := out.(map[string]interface{})["elements"].(*snapshot.Element)

	_, err = s.tools["drag_drop"].Execute(ctx, map[string]interface{}{
		"from_element_id":  root.ID,
		"to_element_id":    root.Children[0].ID,
		"duration_seconds": -1.0,
	})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidParams))
}

func TestWaitTimeRejectsNonPositiveDuration(t *testing.T) {
	s, _ := newTestServer()
	_, err := s.tools["wait_time"].Execute(context.Background(), map[string]interface{}{"duration_seconds": 0})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidParams))
}

func TestWaitRejectsOverlongDuration(t *testing.T) {
	s, _ := newTestServer()
	_, err := s.tools["wait"].Execute(context.Background(), map[string]interface{}{"condition": "time", "duration_ms": 30001})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidParams))
}

func TestWaitTimeConditionSatisfied(t *testing.T) {
	s, _ := newTestServer()
	out, err := s.tools["wait"].Execute(context.Background(), map[string]interface{}{"condition": "time", "duration_ms": 10})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "satisfied")
}

func TestWaitWindowAppearSatisfiedImmediately(t *testing.T) {
	s, _ := newTestServer()
	out, err := s.tools["wait"].Execute(context.Background(), map[string]interface{}{
		"condition":   "window_appear",
		"duration_ms": 500,
		"bundle_id":   "com.apple.weather",
	})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "satisfied")
}

func TestResolveTargetWindowRequiresBundleID(t *testing.T) {
	s, _ := newTestServer()
	_, err := s.tools["capture_ui_snapshot"].Execute(context.Background(), map[string]interface{}{})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidParams))
}

func TestListWindowsResourceRequiresAppHandle(t *testing.T) {
	s, _ := newTestServer()
	_, err := s.readListWindows(context.Background(), "appmcp://resources/list_windows")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidParams))
}

func TestRunningApplicationsResource(t *testing.T) {
	s, _ := newTestServer()
	out, err := s.readRunningApplications(context.Background(), "appmcp://resources/running_applications")
	require.NoError(t, err)
	records := out.([]map[string]interface{})
	require.Len(t, records, 1)
	assert.Equal(t, "com.apple.weather", records[0]["bundle_id"])
	assert.Equal(t, 1, records[0]["window_count"])
}
