package inmemorybackend

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vk/liveui/internal/backend"
	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/value"
)

// Op names a recorded backend call.
type Op string

const (
	OpCreate       Op = "create"
	OpUpdate       Op = "update"
	OpDestroy      Op = "destroy"
	OpRequestFrame Op = "request_frame"
)

// Call is one recorded invocation.
type Call struct {
	Op    Op
	ID    nodeid.ID
	Type  string
	Props value.Props
}

// FailFunc decides whether a call should fail. It is consulted before the
// call has any effect.
type FailFunc func(c Call) error

type resource struct {
	handle backend.Handle
	typ    string
	props  value.Props
}

// Backend records calls and tracks live resources.
type Backend struct {
	mu        sync.Mutex
	resources map[nodeid.ID]*resource
	calls     []Call
	frames    int
	fail      FailFunc
	keep      int
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{resources: make(map[nodeid.ID]*resource)}
}

// NewBounded creates a backend that keeps only the last keep calls. It is
// meant for long-running headless sessions.
func NewBounded(keep int) *Backend {
	b := New()
	b.keep = keep
	return b
}

var _ backend.Backend = (*Backend)(nil)

// FailWith installs a failure injector; nil removes it.
func (b *Backend) FailWith(f FailFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = f
}

func (b *Backend) record(c Call) error {
	if b.fail != nil {
		if err := b.fail(c); err != nil {
			return err
		}
	}
	b.calls = append(b.calls, c)
	if b.keep > 0 && len(b.calls) > b.keep {
		b.calls = append(b.calls[:0], b.calls[len(b.calls)-b.keep:]...)
	}
	return nil
}

// Create allocates a resource with a fresh handle.
func (b *Backend) Create(_ context.Context, id nodeid.ID, typeTag string) (backend.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(Call{Op: OpCreate, ID: id, Type: typeTag}); err != nil {
		return "", err
	}
	if _, ok := b.resources[id]; ok {
		return "", fmt.Errorf("inmemorybackend: %s already exists", id)
	}
	h := backend.Handle(uuid.NewString())
	b.resources[id] = &resource{handle: h, typ: typeTag}
	return h, nil
}

// UpdateProperties merges props into the resource's state.
func (b *Backend) UpdateProperties(_ context.Context, id nodeid.ID, props value.Props) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(Call{Op: OpUpdate, ID: id, Props: props.Clone()}); err != nil {
		return err
	}
	r, ok := b.resources[id]
	if !ok {
		return fmt.Errorf("inmemorybackend: %s does not exist", id)
	}
	r.props = r.props.Merge(props)
	return nil
}

// Destroy releases the resource.
func (b *Backend) Destroy(_ context.Context, id nodeid.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(Call{Op: OpDestroy, ID: id}); err != nil {
		return err
	}
	if _, ok := b.resources[id]; !ok {
		return fmt.Errorf("inmemorybackend: %s does not exist", id)
	}
	delete(b.resources, id)
	return nil
}

// RequestFrame counts frame requests.
func (b *Backend) RequestFrame(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(Call{Op: OpRequestFrame}); err != nil {
		return err
	}
	b.frames++
	return nil
}

// Calls returns a copy of the recorded calls.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Reset forgets recorded calls but keeps live resources.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// Frames is the number of successful frame requests.
func (b *Backend) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// Len is the number of live resources.
func (b *Backend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.resources)
}

// Props returns the accumulated properties of a live resource.
func (b *Backend) Props(id nodeid.ID) (value.Props, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.resources[id]
	if !ok {
		return nil, false
	}
	return r.props.Clone(), true
}

// Handle returns the handle of a live resource.
func (b *Backend) Handle(id nodeid.ID) (backend.Handle, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.resources[id]
	if !ok {
		return "", false
	}
	return r.handle, true
}
