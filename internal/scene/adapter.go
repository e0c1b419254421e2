package scene

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/liveui/internal/backend"
	"github.com/vk/liveui/internal/ctxlog"
	"github.com/vk/liveui/internal/edit"
	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/tree"
)

// Adapter owns the live scene nodes.
type Adapter struct {
	backend backend.Backend

	mu    sync.Mutex
	nodes map[nodeid.ID]*Node
	root  nodeid.ID

	dirty   atomic.Bool
	batches atomic.Int64
	applied atomic.Int64
	failed  atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	Nodes   int   `json:"nodes"`
	Batches int64 `json:"batches"`
	Applied int64 `json:"applied"`
	Failed  int64 `json:"failed"`
}

// New creates an empty scene driven by b.
func New(b backend.Backend) *Adapter {
	return &Adapter{backend: b, nodes: make(map[nodeid.ID]*Node)}
}

// Apply replays edits in order. Every edit is attempted; the returned error
// joins one *ApplyError per failed edit.
func (a *Adapter) Apply(ctx context.Context, edits []edit.Edit) error {
	if len(edits) == 0 {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for i, e := range edits {
		if err := a.apply(ctx, e); err != nil {
			a.failed.Add(1)
			errs = append(errs, &ApplyError{Index: i, Edit: e, Err: err})
			logger.Warn("Scene edit failed.", "index", i, "edit", e.String(), "error", err)
			continue
		}
		a.applied.Add(1)
	}
	a.batches.Add(1)

	a.dirty.Store(true)
	if err := a.backend.RequestFrame(ctx); err != nil {
		errs = append(errs, fmt.Errorf("request frame: %w", err))
	}
	logger.Debug("Applied scene edits.", "edits", len(edits), "failed", len(errs))
	return errors.Join(errs...)
}

func (a *Adapter) apply(ctx context.Context, e edit.Edit) error {
	switch e := e.(type) {
	case edit.Added:
		return a.add(ctx, e)
	case edit.Updated:
		return a.update(ctx, e)
	case edit.Removed:
		return a.remove(ctx, e)
	case edit.Reordered:
		return a.reorder(e)
	default:
		return fmt.Errorf("unsupported edit %T", e)
	}
}

func (a *Adapter) add(ctx context.Context, e edit.Added) error {
	if _, ok := a.nodes[e.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, e.ID)
	}
	var parent *Node
	if e.Parent == "" {
		if a.root != "" {
			return fmt.Errorf("%w: scene already has root %s", ErrDuplicateNode, a.root)
		}
	} else {
		p, ok := a.nodes[e.Parent]
		if !ok {
			return fmt.Errorf("%w: parent %s", ErrUnknownNode, e.Parent)
		}
		if e.Index < 0 || e.Index > len(p.Children) {
			return fmt.Errorf("%w: %d not in [0,%d]", ErrBadIndex, e.Index, len(p.Children))
		}
		parent = p
	}

	h, err := a.backend.Create(ctx, e.ID, e.Type)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	n := &Node{ID: e.ID, Type: e.Type, Props: e.Props.Clone(), Parent: e.Parent, Handle: h}
	a.nodes[e.ID] = n
	if parent == nil {
		a.root = e.ID
	} else {
		parent.Children = append(parent.Children, "")
		copy(parent.Children[e.Index+1:], parent.Children[e.Index:])
		parent.Children[e.Index] = e.ID
	}

	if len(e.Props) > 0 {
		if err := a.backend.UpdateProperties(ctx, e.ID, e.Props); err != nil {
			return fmt.Errorf("initial properties: %w", err)
		}
	}
	return nil
}

func (a *Adapter) update(ctx context.Context, e edit.Updated) error {
	n, ok := a.nodes[e.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, e.ID)
	}
	if err := a.backend.UpdateProperties(ctx, e.ID, e.New); err != nil {
		return fmt.Errorf("update properties: %w", err)
	}
	n.Props = n.Props.Merge(e.New)
	n.LayoutValid = false
	return nil
}

func (a *Adapter) remove(ctx context.Context, e edit.Removed) error {
	n, ok := a.nodes[e.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, e.ID)
	}
	if n.Parent != e.Parent {
		return fmt.Errorf("%w: %s is a child of %q, not %q", ErrUnknownNode, e.ID, n.Parent, e.Parent)
	}

	var errs []error
	var destroy func(id nodeid.ID)
	destroy = func(id nodeid.ID) {
		node, ok := a.nodes[id]
		if !ok {
			return
		}
		for _, ch := range node.Children {
			destroy(ch)
		}
		if err := a.backend.Destroy(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("destroy %s: %w", id, err))
		}
		delete(a.nodes, id)
	}
	destroy(e.ID)

	if n.Parent == "" {
		a.root = ""
	} else if p, ok := a.nodes[n.Parent]; ok {
		if i := p.indexOf(e.ID); i >= 0 {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
		}
	}
	return errors.Join(errs...)
}

func (a *Adapter) reorder(e edit.Reordered) error {
	p, ok := a.nodes[e.Parent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, e.Parent)
	}
	if len(p.Children) != len(e.New) {
		return fmt.Errorf("%w: %d children, %d in new order", ErrChildSet, len(p.Children), len(e.New))
	}
	current := make(map[nodeid.ID]struct{}, len(p.Children))
	for _, id := range p.Children {
		current[id] = struct{}{}
	}
	for _, id := range e.New {
		if _, ok := current[id]; !ok {
			return fmt.Errorf("%w: %s", ErrChildSet, id)
		}
		delete(current, id)
	}
	p.Children = append([]nodeid.ID(nil), e.New...)
	for _, id := range p.Children {
		if ch, ok := a.nodes[id]; ok {
			ch.LayoutValid = false
		}
	}
	return nil
}

// FrameDirty reports whether edits were applied since the last TakeFrame.
func (a *Adapter) FrameDirty() bool {
	return a.dirty.Load()
}

// TakeFrame clears the dirty flag and reports whether it was set. A render
// loop calls it once per frame.
func (a *Adapter) TakeFrame() bool {
	return a.dirty.Swap(false)
}

// Node returns a copy of the scene node with the given identity.
func (a *Adapter) Node(id nodeid.ID) (*Node, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, ok := a.nodes[id]
	if !ok {
		return nil, false
	}
	return n.clone(), true
}

// SetLayout caches the layout rectangle computed for a node.
func (a *Adapter) SetLayout(id nodeid.ID, r Rect) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, ok := a.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	n.Layout = r
	n.LayoutValid = true
	return nil
}

// Len is the number of live scene nodes.
func (a *Adapter) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.nodes)
}

// Stats returns the current counters.
func (a *Adapter) Stats() Stats {
	return Stats{
		Nodes:   a.Len(),
		Batches: a.batches.Load(),
		Applied: a.applied.Load(),
		Failed:  a.failed.Load(),
	}
}

// ValidateHierarchy checks that every parent reference agrees with exactly
// one child list, that there are no cycles, that every node is reachable
// from the root, and that every identity is well formed and nested under
// its parent's identity.
func (a *Adapter) ValidateHierarchy() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.root == "" {
		if len(a.nodes) > 0 {
			return &tree.HierarchyError{Reason: fmt.Sprintf("%d nodes without a root", len(a.nodes))}
		}
		return nil
	}
	root, ok := a.nodes[a.root]
	if !ok {
		return &tree.HierarchyError{ID: a.root, Reason: "root is not a scene node"}
	}
	if root.Parent != "" {
		return &tree.HierarchyError{ID: a.root, Reason: "root has a parent"}
	}
	if _, err := nodeid.Parse(string(a.root)); err != nil {
		return &tree.HierarchyError{ID: a.root, Reason: fmt.Sprintf("malformed identity: %v", err)}
	}

	seen := make(map[nodeid.ID]struct{}, len(a.nodes))
	var visit func(n *Node) error
	visit = func(n *Node) error {
		if _, ok := seen[n.ID]; ok {
			return &tree.HierarchyError{ID: n.ID, Reason: "reached twice"}
		}
		seen[n.ID] = struct{}{}
		for _, id := range n.Children {
			ch, ok := a.nodes[id]
			if !ok {
				return &tree.HierarchyError{ID: n.ID, Reason: fmt.Sprintf("child %s does not exist", id)}
			}
			if ch.Parent != n.ID {
				return &tree.HierarchyError{ID: id, Reason: fmt.Sprintf("listed under %s but parent is %q", n.ID, ch.Parent)}
			}
			if _, err := nodeid.Parse(string(id)); err != nil {
				return &tree.HierarchyError{ID: id, Reason: fmt.Sprintf("malformed identity: %v", err)}
			}
			if !id.Within(n.ID) {
				return &tree.HierarchyError{ID: id, Reason: fmt.Sprintf("identity is not nested under parent %s", n.ID)}
			}
			if err := visit(ch); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(root); err != nil {
		return err
	}
	if len(seen) != len(a.nodes) {
		for id := range a.nodes {
			if _, ok := seen[id]; !ok {
				return &tree.HierarchyError{ID: id, Reason: "unreachable from root"}
			}
		}
	}
	return nil
}

// Tree exports the scene as a widget tree whose node attributes are the
// scene properties. It is used to resynchronize the scene by diffing.
func (a *Adapter) Tree() (*tree.Tree, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.root == "" {
		return nil, nil
	}
	seen := make(map[nodeid.ID]struct{}, len(a.nodes))
	var build func(id nodeid.ID) (*tree.Node, error)
	build = func(id nodeid.ID) (*tree.Node, error) {
		n, ok := a.nodes[id]
		if !ok {
			return nil, &tree.HierarchyError{ID: id, Reason: "missing scene node"}
		}
		if _, dup := seen[id]; dup {
			return nil, &tree.HierarchyError{ID: id, Reason: "reached twice"}
		}
		seen[id] = struct{}{}
		out := &tree.Node{ID: n.ID, Type: n.Type, Props: n.Props.Clone()}
		for _, ch := range n.Children {
			c, err := build(ch)
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, c)
		}
		return out, nil
	}
	root, err := build(a.root)
	if err != nil {
		return nil, err
	}
	return tree.New(root)
}
