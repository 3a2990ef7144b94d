package executor

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// Placeholder marks a response-tree position whose value has not arrived yet.
// It is a single-assignment cell: exactly one Resolve (or Fail) transitions it
// from pending to done, after which any number of consumers read the same
// value through Await. Resolving twice is a programming error and panics.
type Placeholder struct {
	path Path

	mu    sync.Mutex
	done  chan struct{}
	value any
	err   error
	state placeholderState
}

type placeholderState int

const (
	pending placeholderState = iota
	resolved
	failed
)

func newPlaceholder(path Path) *Placeholder {
	return &Placeholder{path: path, done: make(chan struct{})}
}

// Path returns the response-tree position this placeholder occupies.
func (p *Placeholder) Path() Path { return p.path }

func (p *Placeholder) resolve(v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != pending {
		panic("executor: placeholder at " + p.path.String() + " resolved twice")
	}
	p.value = v
	p.state = resolved
	close(p.done)
}

func (p *Placeholder) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != pending {
		return
	}
	p.err = err
	p.state = failed
	close(p.done)
}

// Value returns the resolved value, or ok=false while still pending.
func (p *Placeholder) Value() (v any, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.state == resolved
}

// MarshalJSON renders the resolved value, or null while pending, so an
// in-progress snapshot serializes cleanly.
func (p *Placeholder) MarshalJSON() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != resolved {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}

// Await blocks until the placeholder resolves or ctx is done. A stream
// aborted before completion fails outstanding placeholders, so waiters are
// never stranded without a way to detect it.
func (p *Placeholder) Await(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Registry tracks every pending placeholder of one request by its response
// path. The executor creates and resolves placeholders through it; the
// incremental session uses it to report and fail outstanding positions.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*Placeholder
}

func NewRegistry() *Registry {
	return &Registry{pending: make(map[string]*Placeholder)}
}

func (r *Registry) create(path Path) *Placeholder {
	p := newPlaceholder(path)
	r.mu.Lock()
	r.pending[path.String()] = p
	r.mu.Unlock()
	return p
}

func (r *Registry) resolve(p *Placeholder, v any) {
	p.resolve(v)
	r.mu.Lock()
	delete(r.pending, p.path.String())
	r.mu.Unlock()
}

// Pending returns the paths still awaiting data, in stable order.
func (r *Registry) Pending() []Path {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.pending))
	for k := range r.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Path, len(keys))
	for i, k := range keys {
		out[i] = r.pending[k].path
	}
	return out
}

// Lookup returns the pending placeholder registered at path, or nil.
func (r *Registry) Lookup(path Path) *Placeholder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending[path.String()]
}

// FailAll fails every pending placeholder with err. Used when the transport
// closes before the stream completed.
func (r *Registry) FailAll(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, p := range r.pending {
		p.fail(err)
		delete(r.pending, k)
	}
}
