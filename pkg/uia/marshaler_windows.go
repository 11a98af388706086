//go:build windows

package uia

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"appmcp/pkg/coords"
)

// comInitFlags selects apartment-threaded initialization: every UI
// Automation call in this process funnels through one goroutine pinned to
// an OS thread with COM initialized this way, because UI Automation's COM
// interfaces are apartment-threaded and cannot be called from an arbitrary
// goroutine.
const comInitFlags = 0x2 | 0x4 // COINIT_APARTMENTTHREADED | COINIT_DISABLE_OLE1DDE

// staRequest is one unit of work handed to the STA thread.
type staRequest struct {
	op       string
	hwnd     interface{}
	el       ElementRef
	text     string
	response chan *staResponse
}

// staResponse carries back whichever result field op implies.
type staResponse struct {
	ref      ElementRef
	attrs    Attributes
	children []ElementRef
	alive    bool
	err      error
}

// Marshaler is the STA-thread COM marshaler: the sole goroutine through
// which this process ever calls into UI Automation, driven by a small
// dispatch table covering the tree walk and the input-synthesis high-level
// actions.
type Marshaler struct {
	automation *ole.IDispatch

	requests chan *staRequest
	quit     chan struct{}
	doneChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	running  bool
	closed   atomic.Bool
}

// NewMarshaler starts the dedicated STA thread and returns without waiting
// for it to initialize; a COM initialization failure surfaces as an error
// on the requests sent afterwards, never from NewMarshaler itself.
func NewMarshaler() (*Marshaler, error) {
	m := &Marshaler{
		requests: make(chan *staRequest, 100),
		quit:     make(chan struct{}),
		doneChan: make(chan struct{}),
	}

	m.wg.Add(1)
	go m.staThread()

	m.mu.Lock()
	m.running = true
	m.mu.Unlock()

	return m, nil
}

func (m *Marshaler) staThread() {
	defer m.wg.Done()
	defer close(m.doneChan)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, comInitFlags); err != nil {
		m.drainWithError(fmt.Errorf("COM initialization failed: %w", err))
		return
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("UIAutomation.CUIAutomation")
	if err != nil {
		m.drainWithError(fmt.Errorf("failed to create UI Automation object: %w", err))
		return
	}
	automation, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		m.drainWithError(fmt.Errorf("failed to query IDispatch: %w", err))
		return
	}
	m.automation = automation
	defer automation.Release()

	for {
		select {
		case req := <-m.requests:
			m.handle(req)
		case <-m.quit:
			m.drainPendingRequests()
			return
		}
	}
}

func (m *Marshaler) drainWithError(err error) {
	for {
		select {
		case req := <-m.requests:
			req.response <- &staResponse{err: err}
		case <-m.quit:
			return
		default:
			return
		}
	}
}

func (m *Marshaler) drainPendingRequests() {
	for {
		select {
		case req := <-m.requests:
			req.response <- &staResponse{err: fmt.Errorf("marshaler shutting down")}
		default:
			return
		}
	}
}

// handle dispatches one request on the STA thread. Panic recovery matters
// here specifically: COM calls into a non-responsive application can panic
// rather than return an HRESULT error.
func (m *Marshaler) handle(req *staRequest) {
	defer func() {
		if r := recover(); r != nil {
			req.response <- &staResponse{err: fmt.Errorf("UIA panic recovered: %v", r)}
		}
	}()

	switch req.op {
	case "root":
		ref, err := m.rootElementSTA(req.hwnd)
		req.response <- &staResponse{ref: ref, err: err}
	case "attrs":
		attrs, err := m.attributesSTA(req.el)
		req.response <- &staResponse{attrs: attrs, err: err}
	case "children":
		children, err := m.childrenSTA(req.el)
		req.response <- &staResponse{children: children, err: err}
	case "invoke":
		err := m.invokeSTA(req.el)
		req.response <- &staResponse{err: err}
	case "setvalue":
		err := m.setValueSTA(req.el, req.text)
		req.response <- &staResponse{err: err}
	case "alive":
		req.response <- &staResponse{alive: m.aliveSTA(req.el)}
	default:
		req.response <- &staResponse{err: fmt.Errorf("unknown operation: %s", req.op)}
	}
}

func (m *Marshaler) rootElementSTA(hwnd interface{}) (ElementRef, error) {
	h, ok := hwnd.(syscall.Handle)
	if !ok {
		return nil, fmt.Errorf("not a window handle: %v", hwnd)
	}
	result, err := oleutil.CallMethod(m.automation, "ElementFromHandle", uintptr(h))
	if err != nil {
		return nil, fmt.Errorf("ElementFromHandle failed: %w", err)
	}
	el := result.ToIDispatch()
	if el == nil {
		return nil, fmt.Errorf("ElementFromHandle returned null")
	}
	return el, nil
}

func (m *Marshaler) attributesSTA(el ElementRef) (Attributes, error) {
	dispatch, ok := el.(*ole.IDispatch)
	if !ok {
		return Attributes{}, fmt.Errorf("not an element reference")
	}

	name := stringProperty(dispatch, "CurrentName")
	value := stringProperty(dispatch, "CurrentValue")
	identifier := stringProperty(dispatch, "CurrentAutomationId")
	controlType := stringProperty(dispatch, "CurrentLocalizedControlType")

	enabledResult, err := oleutil.GetProperty(dispatch, "CurrentIsEnabled")
	enabled := true
	if err == nil {
		enabled = enabledResult.Value() == true
	}

	bounds, _ := boundsProperty(dispatch)

	return Attributes{
		Role:       controlType,
		Title:      name,
		Value:      value,
		Identifier: identifier,
		Enabled:    enabled,
		Bounds:     bounds,
	}, nil
}

func stringProperty(dispatch *ole.IDispatch, name string) string {
	result, err := oleutil.GetProperty(dispatch, name)
	if err != nil || result == nil {
		return ""
	}
	return result.ToString()
}

func boundsProperty(dispatch *ole.IDispatch) (coords.Rect, error) {
	result, err := oleutil.GetProperty(dispatch, "CurrentBoundingRectangle")
	if err != nil || result == nil {
		return coords.Rect{}, err
	}
	// CurrentBoundingRectangle returns a SAFEARRAY of four doubles:
	// left, top, width, height.
	arr := result.ToArray()
	if arr == nil {
		return coords.Rect{}, fmt.Errorf("bounding rectangle not an array")
	}
	vals := arr.ToValueArray()
	if len(vals) < 4 {
		return coords.Rect{}, fmt.Errorf("unexpected bounding rectangle shape")
	}
	toInt := func(v interface{}) int {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int32:
			return int(n)
		default:
			return 0
		}
	}
	return coords.Rect{
		X: toInt(vals[0]),
		Y: toInt(vals[1]),
		W: toInt(vals[2]),
		H: toInt(vals[3]),
	}, nil
}

const treeScopeChildren = 2

func (m *Marshaler) childrenSTA(el ElementRef) ([]ElementRef, error) {
	dispatch, ok := el.(*ole.IDispatch)
	if !ok {
		return nil, fmt.Errorf("not an element reference")
	}

	condResult, err := oleutil.CallMethod(m.automation, "CreateTrueCondition")
	if err != nil {
		return nil, fmt.Errorf("CreateTrueCondition failed: %w", err)
	}
	cond := condResult.ToIDispatch()

	result, err := oleutil.CallMethod(dispatch, "FindAll", treeScopeChildren, cond)
	if err != nil {
		return nil, fmt.Errorf("FindAll failed: %w", err)
	}
	arr := result.ToIDispatch()
	if arr == nil {
		return nil, nil
	}
	defer arr.Release()

	lengthResult, err := oleutil.GetProperty(arr, "Length")
	if err != nil {
		return nil, fmt.Errorf("failed to read element array length: %w", err)
	}
	length := int(lengthResult.Val)

	out := make([]ElementRef, 0, length)
	for i := 0; i < length; i++ {
		itemResult, err := oleutil.CallMethod(arr, "GetElement", i)
		if err != nil {
			continue
		}
		item := itemResult.ToIDispatch()
		if item != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *Marshaler) invokeSTA(el ElementRef) error {
	dispatch, ok := el.(*ole.IDispatch)
	if !ok {
		return fmt.Errorf("not an element reference")
	}
	patternResult, err := oleutil.CallMethod(dispatch, "GetCurrentPattern", invokePatternID)
	if err != nil {
		return fmt.Errorf("GetCurrentPattern(Invoke) failed: %w", err)
	}
	pattern := patternResult.ToIDispatch()
	if pattern == nil {
		return fmt.Errorf("element has no invoke pattern")
	}
	defer pattern.Release()

	if _, err := oleutil.CallMethod(pattern, "Invoke"); err != nil {
		return fmt.Errorf("Invoke failed: %w", err)
	}
	return nil
}

func (m *Marshaler) setValueSTA(el ElementRef, text string) error {
	dispatch, ok := el.(*ole.IDispatch)
	if !ok {
		return fmt.Errorf("not an element reference")
	}
	patternResult, err := oleutil.CallMethod(dispatch, "GetCurrentPattern", valuePatternID)
	if err != nil {
		return fmt.Errorf("GetCurrentPattern(Value) failed: %w", err)
	}
	pattern := patternResult.ToIDispatch()
	if pattern == nil {
		return fmt.Errorf("element has no value pattern")
	}
	defer pattern.Release()

	if _, err := oleutil.CallMethod(pattern, "SetValue", text); err != nil {
		return fmt.Errorf("SetValue failed: %w", err)
	}
	return nil
}

func (m *Marshaler) aliveSTA(el ElementRef) bool {
	dispatch, ok := el.(*ole.IDispatch)
	if !ok {
		return false
	}
	_, err := oleutil.GetProperty(dispatch, "CurrentIsEnabled")
	return err == nil
}

// UI Automation pattern identifiers (from UIAutomationClient.h).
const (
	invokePatternID = 10000
	valuePatternID  = 10002
)

// send marshals req to the STA thread: a buffered response channel to
// avoid a deadlock if the STA thread answers before we start reading, a
// bounded send timeout, and a bounded response timeout.
func (m *Marshaler) send(req *staRequest) (*staResponse, error) {
	if m.closed.Load() {
		return nil, fmt.Errorf("marshaler is closed")
	}
	m.mu.RLock()
	if !m.running {
		m.mu.RUnlock()
		return nil, fmt.Errorf("marshaler not running")
	}
	m.mu.RUnlock()

	select {
	case m.requests <- req:
	case <-m.doneChan:
		return nil, fmt.Errorf("marshaler closed during request")
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("request queue full or timeout")
	}

	select {
	case resp := <-req.response:
		return resp, resp.err
	case <-m.doneChan:
		return nil, fmt.Errorf("marshaler closed while waiting for response")
	case <-time.After(10 * time.Second):
		return nil, fmt.Errorf("response timeout")
	}
}

func (m *Marshaler) RootElement(hwnd interface{}) (ElementRef, error) {
	resp, err := m.send(&staRequest{op: "root", hwnd: hwnd, response: make(chan *staResponse, 1)})
	if err != nil {
		return nil, err
	}
	return resp.ref, nil
}

func (m *Marshaler) Attributes(el ElementRef) (Attributes, error) {
	resp, err := m.send(&staRequest{op: "attrs", el: el, response: make(chan *staResponse, 1)})
	if err != nil {
		return Attributes{}, err
	}
	return resp.attrs, nil
}

func (m *Marshaler) Children(el ElementRef) ([]ElementRef, error) {
	resp, err := m.send(&staRequest{op: "children", el: el, response: make(chan *staResponse, 1)})
	if err != nil {
		return nil, err
	}
	return resp.children, nil
}

func (m *Marshaler) Invoke(el ElementRef) error {
	_, err := m.send(&staRequest{op: "invoke", el: el, response: make(chan *staResponse, 1)})
	return err
}

func (m *Marshaler) SetValue(el ElementRef, text string) error {
	_, err := m.send(&staRequest{op: "setvalue", el: el, text: text, response: make(chan *staResponse, 1)})
	return err
}

func (m *Marshaler) IsAlive(el ElementRef) bool {
	resp, err := m.send(&staRequest{op: "alive", el: el, response: make(chan *staResponse, 1)})
	if err != nil {
		return false
	}
	return resp.alive
}

// Close stops the STA thread and releases the UI Automation interface.
func (m *Marshaler) Close() error {
	if m.closed.Swap(true) {
		return nil
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	close(m.quit)

	select {
	case <-m.doneChan:
	case <-time.After(5 * time.Second):
	}

	m.wg.Wait()
	close(m.requests)
	return nil
}
