//go:build windows

package directory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tekert/golang-etw/etw"

	"appmcp/pkg/logx"
)

// WindowLifecycleEventType distinguishes window creation from destruction.
type WindowLifecycleEventType int

const (
	WindowCreated WindowLifecycleEventType = iota
	WindowDestroyed
)

// WindowLifecycleEvent is emitted when the Win32k provider reports a
// top-level window coming into or out of existence.
type WindowLifecycleEvent struct {
	Timestamp time.Time
	ProcessID uint32
	EventType WindowLifecycleEventType
}

// eventBufferSize bounds the lifecycle event channel; once full, the
// oldest event is dropped in favor of the newest.
const eventBufferSize = 1000

// win32kProviderGUID is Microsoft-Windows-Win32k, the provider that
// reports top-level window lifecycle.
const win32kProviderGUID = "{8c416c79-d49b-4f01-a467-e56d3aa8234c}"

// WindowWatcher subscribes to Win32k ETW events to give the wait tool's
// window_appear/window_disappear conditions a low-latency fast path,
// falling back to plain polling when ETW cannot be initialized (commonly
// because the process lacks administrator privileges).
type WindowWatcher struct {
	session  *etw.RealTimeSession
	consumer *etw.Consumer
	ctx      context.Context
	cancel   context.CancelFunc

	events       chan WindowLifecycleEvent
	dropped      atomic.Int64
	fallbackMode bool

	mu      sync.Mutex
	running bool
}

// NewWindowWatcher attempts to create an ETW session and consumer. On any
// failure it returns a watcher already in fallback mode rather than an
// error, so callers always get a usable (if degraded) watcher.
func NewWindowWatcher() *WindowWatcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &WindowWatcher{
		ctx:    ctx,
		cancel: cancel,
		events: make(chan WindowLifecycleEvent, eventBufferSize),
	}

	session := etw.NewRealTimeSession("appmcpWindowWatch")
	if session == nil {
		w.fallbackMode = true
		return w
	}
	w.session = session

	consumer := etw.NewConsumer(ctx)
	if consumer == nil {
		w.fallbackMode = true
		return w
	}
	w.consumer = consumer
	return w
}

// Start enables the Win32k provider and begins consuming events in the
// background. It never blocks; failures flip the watcher into fallback
// mode instead of returning an error, since callers treat polling as an
// acceptable degraded path rather than a fatal one.
func (w *WindowWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true

	if w.fallbackMode {
		return
	}

	if err := w.session.EnableProvider(etw.MustParseProvider(win32kProviderGUID)); err != nil {
		logx.Warnf("ETW provider enable failed (running without admin?): %v", err)
		w.fallbackMode = true
		return
	}

	w.consumer.FromSessions(w.session)
	w.consumer.ProcessEvents(w.handleEvent)

	go func() {
		if err := w.consumer.Start(); err != nil {
			logx.Warnf("ETW consumer stopped, window watch falling back to polling: %v", err)
			w.mu.Lock()
			w.fallbackMode = true
			w.mu.Unlock()
		}
	}()
}

func (w *WindowWatcher) handleEvent(e *etw.Event) {
	defer e.Release()

	evt := WindowLifecycleEvent{
		Timestamp: e.System.TimeCreated.SystemTime,
		ProcessID: e.System.Execution.ProcessID,
		EventType: WindowCreated,
	}
	if e.System.Opcode.Name == "Stop" {
		evt.EventType = WindowDestroyed
	}

	select {
	case w.events <- evt:
	default:
		select {
		case <-w.events:
			w.dropped.Add(1)
		default:
		}
		select {
		case w.events <- evt:
		default:
			w.dropped.Add(1)
		}
	}
}

// Events returns the channel of window lifecycle notifications. In
// fallback mode the channel is simply never written to; callers should
// check IsFallbackMode before relying on it.
func (w *WindowWatcher) Events() <-chan WindowLifecycleEvent {
	return w.events
}

// IsFallbackMode reports whether ETW failed to initialize and pollers
// should be used instead.
func (w *WindowWatcher) IsFallbackMode() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fallbackMode
}

// DroppedEvents reports how many events were discarded under backpressure.
func (w *WindowWatcher) DroppedEvents() int64 {
	return w.dropped.Load()
}

// Close stops the ETW session/consumer, if any, and releases resources.
func (w *WindowWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	w.cancel()

	if !w.fallbackMode {
		if w.consumer != nil {
			w.consumer.Stop()
		}
		if w.session != nil {
			w.session.Stop()
		}
	}
	close(w.events)
	return nil
}
