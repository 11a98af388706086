// Package handle implements the process-wide handle registry (C2): the sole
// mutable global state in the server, converting opaque app/window/element
// handles into live references to OS accessibility objects.
package handle

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"appmcp/pkg/errs"
)

// Kind identifies which of the three handle families an entry belongs to.
type Kind int

const (
	AppKind Kind = iota
	WindowKind
	ElementKind
)

func (k Kind) prefix() string {
	switch k {
	case AppKind:
		return "ah"
	case WindowKind:
		return "wh"
	default:
		return "el"
	}
}

// DefaultTTL is applied to app and window handles.
const DefaultTTL = time.Hour

// LivenessProbe reports whether the live OS reference an entry wraps still
// answers a basic attribute read. The registry does not recover from a
// panicking probe; the pkg/uia element probe runs under the STA thread's
// panic recovery and reports a panic as dead.
type LivenessProbe func(ref interface{}) bool

// entry is one row of the registry's map.
type entry struct {
	handle   string
	kind     Kind
	ref      interface{}
	identity string // de-dup key: pid for apps, OS window reference for windows
	parent   string // owning window handle, for element entries
	birth    time.Time
	ttl      time.Duration
	probe    LivenessProbe
}

func (e *entry) expired(now time.Time) bool {
	if e.ttl == 0 {
		return false
	}
	return now.Sub(e.birth) > e.ttl
}

// Registry is the single exclusive-access boundary through which every
// handle mutation and lookup in the process is serialized.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	byIdent map[Kind]map[string]string // kind -> identity -> handle, for de-dup
	counter uint64
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		byIdent: map[Kind]map[string]string{
			AppKind:    make(map[string]string),
			WindowKind: make(map[string]string),
		},
	}
}

func (r *Registry) nextHandle(kind Kind) string {
	r.counter++
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure is effectively unreachable on supported hosts;
		// fall back to the counter alone so allocation never fails.
		return fmt.Sprintf("%s_%08X", kind.prefix(), r.counter)
	}
	return fmt.Sprintf("%s_%08X%X", kind.prefix(), r.counter, buf)
}

// AllocateApp returns the existing handle for identity if one is live, or
// mints a new one. identity is typically the process id formatted as a
// string; ref is the live OS reference the handle stands for.
func (r *Registry) AllocateApp(identity string, ref interface{}, probe LivenessProbe) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocate(AppKind, identity, ref, probe, DefaultTTL)
}

// AllocateWindow mirrors AllocateApp for window handles. identity is the
// OS-provided stable window reference formatted as a string, so redundant
// resolves of the same window within one TTL return the same handle.
func (r *Registry) AllocateWindow(identity string, ref interface{}, probe LivenessProbe) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocate(WindowKind, identity, ref, probe, DefaultTTL)
}

func (r *Registry) allocate(kind Kind, identity string, ref interface{}, probe LivenessProbe, ttl time.Duration) string {
	now := time.Now()
	if existing, ok := r.byIdent[kind][identity]; ok {
		if e, ok := r.entries[existing]; ok && !e.expired(now) {
			return e.handle
		}
		delete(r.byIdent[kind], identity)
	}

	h := r.nextHandle(kind)
	r.entries[h] = &entry{
		handle:   h,
		kind:     kind,
		ref:      ref,
		identity: identity,
		birth:    now,
		ttl:      ttl,
		probe:    probe,
	}
	r.byIdent[kind][identity] = h
	return h
}

// RegisterElement binds an externally computed, deterministic element id to
// a live reference scoped to windowHandle. Unlike apps and windows, element
// ids are not minted by the registry — the snapshot pipeline derives them
// from (window_handle, stable_path, role) so repeated snapshots agree.
func (r *Registry) RegisterElement(elementID, windowHandle string, ref interface{}, probe LivenessProbe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[elementID] = &entry{
		handle: elementID,
		kind:   ElementKind,
		ref:    ref,
		parent: windowHandle,
		birth:  time.Now(),
		probe:  probe,
	}
}

// LookupApp resolves an app_handle to its live reference, checking both TTL
// and liveness. A dead or unknown handle is never silently reused.
func (r *Registry) LookupApp(h string) (interface{}, error) {
	return r.lookup(h, AppKind, errs.AppNotFound)
}

// LookupWindow resolves a window_handle.
func (r *Registry) LookupWindow(h string) (interface{}, error) {
	return r.lookup(h, WindowKind, errs.WindowNotFound)
}

// LookupElement resolves an element_id, additionally requiring the owning
// window handle to still be live.
func (r *Registry) LookupElement(id string) (interface{}, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return nil, errs.New(errs.ElementNotFound, "unknown element_id: "+id)
	}
	parent := e.parent
	r.mu.Unlock()

	if parent != "" {
		if _, err := r.LookupWindow(parent); err != nil {
			r.mu.Lock()
			delete(r.entries, id)
			r.mu.Unlock()
			return nil, errs.New(errs.ElementNotAccessible, "owning window is gone for element_id: "+id)
		}
	}

	return r.lookup(id, ElementKind, errs.ElementNotAccessible)
}

func (r *Registry) lookup(h string, kind Kind, notFound errs.Kind) (interface{}, error) {
	r.mu.Lock()
	e, ok := r.entries[h]
	if !ok || e.kind != kind {
		r.mu.Unlock()
		return nil, errs.New(notFound, "handle not found: "+h)
	}
	if e.expired(time.Now()) {
		delete(r.entries, h)
		if e.identity != "" {
			delete(r.byIdent[kind], e.identity)
		}
		r.mu.Unlock()
		return nil, errs.New(notFound, "handle expired: "+h)
	}
	ref, probe := e.ref, e.probe
	r.mu.Unlock()

	if probe != nil && !probe(ref) {
		r.mu.Lock()
		delete(r.entries, h)
		if e.identity != "" {
			delete(r.byIdent[kind], e.identity)
		}
		r.mu.Unlock()
		return nil, errs.New(notFound, "liveness probe failed: "+h)
	}
	return ref, nil
}

// SweepExpired drops every entry past its TTL or failing its liveness probe.
// It takes the exclusive lock only long enough to copy-and-filter the
// entries; the probes themselves run unlocked.
func (r *Registry) SweepExpired() int {
	r.mu.Lock()
	now := time.Now()
	snapshot := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		snapshot = append(snapshot, e)
	}
	r.mu.Unlock()

	stale := make([]*entry, 0)
	for _, e := range snapshot {
		if e.expired(now) {
			stale = append(stale, e)
			continue
		}
		// Liveness probes run outside the lock: they may call into the OS
		// and must not block other lookups.
		if e.probe != nil && !e.probe(e.ref) {
			stale = append(stale, e)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	seen := make(map[string]bool)
	for _, e := range stale {
		if seen[e.handle] {
			continue
		}
		seen[e.handle] = true
		if cur, ok := r.entries[e.handle]; ok && cur == e {
			delete(r.entries, e.handle)
			if e.identity != "" {
				delete(r.byIdent[e.kind], e.identity)
			}
			dropped++
		}
	}

	// Elements whose owning window was just dropped are purged too.
	liveWindows := make(map[string]bool)
	for h, e := range r.entries {
		if e.kind == WindowKind {
			liveWindows[h] = true
		}
	}
	for h, e := range r.entries {
		if e.kind == ElementKind && e.parent != "" && !liveWindows[e.parent] {
			delete(r.entries, h)
			dropped++
		}
	}

	return dropped
}

// Len reports the current entry count, used by tests and diagnostics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
