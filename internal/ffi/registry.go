package ffi

import (
	"sync"

	"github.com/maxleiko/oxcc"
)

type entry struct {
	t      *oxcc.Transpiler
	busy   bool
	closed bool
}

// Registry maps handles to transpilers. All methods are safe for concurrent
// use; a single handle still runs one call at a time.
type Registry struct {
	opts []oxcc.Option

	mu      sync.Mutex
	next    Handle
	entries map[Handle]*entry
}

// NewRegistry creates a registry whose transpilers are built with opts.
func NewRegistry(opts ...oxcc.Option) *Registry {
	return &Registry{opts: opts, entries: make(map[Handle]*entry)}
}

// New creates a transpiler and returns its handle.
func (r *Registry) New() Handle {
	t := oxcc.New(r.opts...)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	h := r.next
	r.entries[h] = &entry{t: t}
	return h
}

// Free destroys the transpiler behind h. Unknown handles, including the zero
// handle and handles already freed, are ignored. A transpiler that is in the
// middle of a call is closed when the call returns.
func (r *Registry) Free(h Handle) {
	r.mu.Lock()
	e, ok := r.entries[h]
	closeNow := false
	if ok {
		delete(r.entries, h)
		e.closed = true
		closeNow = !e.busy
	}
	r.mu.Unlock()
	if closeNow {
		e.t.Close()
	}
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Transpile runs the transpiler behind h on path. An unknown handle, or one
// already running a call, yields Invalid.
func (r *Registry) Transpile(h Handle, path []byte) (string, Code) {
	e, ok := r.acquire(h)
	if !ok {
		return "", Invalid
	}
	defer r.release(e)
	return run(e.t, path)
}

func (r *Registry) acquire(h Handle) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[h]
	if !ok || e.busy {
		return nil, false
	}
	e.busy = true
	return e, true
}

func (r *Registry) release(e *entry) {
	r.mu.Lock()
	e.busy = false
	closed := e.closed
	r.mu.Unlock()
	if closed {
		e.t.Close()
	}
}
