package input

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appmcp/pkg/coords"
	"appmcp/pkg/uia"
)

type fakeWalker struct {
	invokeErr   error
	invokeCalls int
	setValue    string
}

func (f *fakeWalker) RootElement(hwnd interface{}) (uia.ElementRef, error) { return nil, nil }
func (f *fakeWalker) Attributes(el uia.ElementRef) (uia.Attributes, error) {
	return uia.Attributes{}, nil
}
func (f *fakeWalker) Children(el uia.ElementRef) ([]uia.ElementRef, error) { return nil, nil }
func (f *fakeWalker) Invoke(el uia.ElementRef) error {
	f.invokeCalls++
	return f.invokeErr
}
func (f *fakeWalker) SetValue(el uia.ElementRef, text string) error {
	f.setValue = text
	return nil
}
func (f *fakeWalker) IsAlive(el uia.ElementRef) bool { return true }
func (f *fakeWalker) Close() error                   { return nil }

type fakePoster struct {
	clicks  []string
	typed   string
	wheeled bool
	dragged []Point
}

func (p *fakePoster) Click(x, y int, button string) error {
	p.clicks = append(p.clicks, button)
	return nil
}
func (p *fakePoster) Drag(steps []Point, stepDelay time.Duration) error {
	p.dragged = steps
	return nil
}
func (p *fakePoster) Wheel(x, y, deltaX, deltaY int) error {
	p.wheeled = true
	return nil
}
func (p *fakePoster) TypeText(text string, interval time.Duration) error {
	p.typed = text
	return nil
}

func TestClickPrefersInvokeForLeftSingleClick(t *testing.T) {
	w := &fakeWalker{}
	poster := &fakePoster{}
	s := NewSynthesizer(w, poster)

	err := s.Click(nil, true, coords.Rect{X: 0, Y: 0, W: 10, H: 10}, ButtonLeft, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, w.invokeCalls)
	assert.Empty(t, poster.clicks)
}

func TestClickFallsBackToPostedClickWhenInvokeFails(t *testing.T) {
	w := &fakeWalker{invokeErr: fmt.Errorf("no invoke pattern")}
	poster := &fakePoster{}
	s := NewSynthesizer(w, poster)

	err := s.Click(nil, true, coords.Rect{X: 0, Y: 0, W: 10, H: 10}, ButtonLeft, 1)
	require.NoError(t, err)
	assert.Len(t, poster.clicks, 1)
}

func TestClickRightButtonAlwaysPosts(t *testing.T) {
	w := &fakeWalker{}
	poster := &fakePoster{}
	s := NewSynthesizer(w, poster)

	err := s.Click(nil, true, coords.Rect{X: 0, Y: 0, W: 10, H: 10}, ButtonRight, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, w.invokeCalls)
	assert.Equal(t, []string{ButtonRight}, poster.clicks)
}

func TestClickMultiClickPostsCountTimes(t *testing.T) {
	w := &fakeWalker{}
	poster := &fakePoster{}
	s := NewSynthesizer(w, poster)

	err := s.Click(nil, true, coords.Rect{X: 0, Y: 0, W: 10, H: 10}, ButtonLeft, 2)
	require.NoError(t, err)
	assert.Len(t, poster.clicks, 2)
}

func TestClickOnDisabledElementFails(t *testing.T) {
	s := NewSynthesizer(&fakeWalker{}, &fakePoster{})
	err := s.Click(nil, false, coords.Rect{}, ButtonLeft, 1)
	assert.Error(t, err)
}

func TestInputTextSetValueUsesWalker(t *testing.T) {
	w := &fakeWalker{}
	poster := &fakePoster{}
	s := NewSynthesizer(w, poster)

	err := s.InputText(nil, true, "hello", MethodSetValue)
	require.NoError(t, err)
	assert.Equal(t, "hello", w.setValue)
	assert.Empty(t, poster.typed)
}

func TestInputTextTypeUsesPoster(t *testing.T) {
	w := &fakeWalker{}
	poster := &fakePoster{}
	s := NewSynthesizer(w, poster)

	err := s.InputText(nil, true, "hello", MethodType)
	require.NoError(t, err)
	assert.Equal(t, "hello", poster.typed)
	assert.Empty(t, w.setValue)
}

func TestDragDropInterpolatesSteps(t *testing.T) {
	poster := &fakePoster{}
	s := NewSynthesizer(&fakeWalker{}, poster)

	err := s.DragDrop(coords.Rect{X: 0, Y: 0, W: 10, H: 10}, coords.Rect{X: 100, Y: 100, W: 10, H: 10}, 200*time.Millisecond)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(poster.dragged), 10)
	assert.Equal(t, 5, poster.dragged[0].X)
	last := poster.dragged[len(poster.dragged)-1]
	assert.Equal(t, 105, last.X)
}

func TestScrollWindowPostsWheel(t *testing.T) {
	poster := &fakePoster{}
	s := NewSynthesizer(&fakeWalker{}, poster)

	err := s.ScrollWindow(coords.Rect{X: 0, Y: 0, W: 10, H: 10}, 0, -3)
	require.NoError(t, err)
	assert.True(t, poster.wheeled)
}
