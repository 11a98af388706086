package directory

import (
	"testing"

	"appmcp/pkg/coords"
	"appmcp/pkg/errs"
	"appmcp/pkg/handle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnumerator struct {
	apps  []App
	wins  map[uint32][]Window
	alive bool
}

func (f *fakeEnumerator) ListApplications() ([]App, error) { return f.apps, nil }
func (f *fakeEnumerator) ListInstalledApplications() ([]InstalledApp, error) {
	return []InstalledApp{{Name: "Weather"}}, nil
}
func (f *fakeEnumerator) ListWindows(pid uint32) ([]Window, error) { return f.wins[pid], nil }
func (f *fakeEnumerator) ProbeAppAlive(ref interface{}) bool       { return f.alive }
func (f *fakeEnumerator) ProbeWindowAlive(ref interface{}) bool    { return f.alive }
func (f *fakeEnumerator) WindowBounds(ref interface{}) (coords.Rect, error) {
	return coords.Rect{X: 0, Y: 0, W: 800, H: 600}, nil
}
func (f *fakeEnumerator) WindowTitle(ref interface{}) (string, error) {
	return "fixture window", nil
}
func (f *fakeEnumerator) Displays() ([]coords.Display, error) {
	return []coords.Display{{Bounds: coords.Rect{W: 1920, H: 1080}, ScreenHeight: 1080}}, nil
}

func newFixture() *Directory {
	pid := uint32(42)
	enum := &fakeEnumerator{
		alive: true,
		apps: []App{
			{Name: "weather.exe", BundleID: "com.apple.weather", PID: pid, Ref: pid},
		},
		wins: map[uint32][]Window{
			pid: {
				{Title: "Weather - Overview", IsMain: true, Ref: "hwnd1"},
				{Title: "Weather - Settings", Ref: "hwnd2"},
			},
		},
	}
	return New(enum, handle.New())
}

func TestResolveAppByBundleID(t *testing.T) {
	d := newFixture()
	h, err := d.ResolveApp(AppSelector{BundleID: "com.apple.weather"})
	require.NoError(t, err)
	assert.NotEmpty(t, h)
}

func TestResolveAppRequiresExactlyOneSelector(t *testing.T) {
	d := newFixture()
	_, err := d.ResolveApp(AppSelector{})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidParams))

	pid := uint32(1)
	_, err = d.ResolveApp(AppSelector{BundleID: "x", PID: &pid})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidParams))
}

func TestResolveAppNotFound(t *testing.T) {
	d := newFixture()
	_, err := d.ResolveApp(AppSelector{BundleID: "nonexistent"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.AppNotFound))
}

func TestResolveAppIsStableAcrossRepeatedCalls(t *testing.T) {
	d := newFixture()
	h1, err := d.ResolveApp(AppSelector{BundleID: "com.apple.weather"})
	require.NoError(t, err)
	h2, err := d.ResolveApp(AppSelector{BundleID: "com.apple.weather"})
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "resolve_app called twice in quick succession must return the same handle")
}

func TestResolveWindowDefaultsToMainWindow(t *testing.T) {
	d := newFixture()
	ah, err := d.ResolveApp(AppSelector{BundleID: "com.apple.weather"})
	require.NoError(t, err)

	wh, err := d.ResolveWindow(ah, WindowSelector{})
	require.NoError(t, err)
	assert.NotEmpty(t, wh)
}

func TestResolveWindowByIndex(t *testing.T) {
	d := newFixture()
	ah, err := d.ResolveApp(AppSelector{BundleID: "com.apple.weather"})
	require.NoError(t, err)

	idx := 1
	wh, err := d.ResolveWindow(ah, WindowSelector{Index: &idx})
	require.NoError(t, err)
	assert.NotEmpty(t, wh)
}

func TestResolveWindowTitlePatternWinsOverIndex(t *testing.T) {
	d := newFixture()
	ah, err := d.ResolveApp(AppSelector{BundleID: "com.apple.weather"})
	require.NoError(t, err)

	idx := 0
	wh1, err := d.ResolveWindow(ah, WindowSelector{TitlePattern: "Settings", Index: &idx})
	require.NoError(t, err)

	wh2, err := d.ResolveWindow(ah, WindowSelector{TitlePattern: "Settings"})
	require.NoError(t, err)
	assert.Equal(t, wh2, wh1)
}

func TestListRunningApplications(t *testing.T) {
	d := newFixture()
	apps, handles, err := d.ListRunningApplications()
	require.NoError(t, err)
	assert.Len(t, apps, 1)
	assert.Len(t, handles, 1)
}
