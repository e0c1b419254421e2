package scene

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/liveui/internal/bus"
	"github.com/vk/liveui/internal/ctxlog"
	"github.com/vk/liveui/internal/differ"
	"github.com/vk/liveui/internal/inmemorybackend"
	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/tree"
)

func runApplier(t *testing.T, p *Applier) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(ctxlog.Discard(context.Background()))
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("applier did not stop")
		}
	}
}

func TestApplier_AppliesUpdates(t *testing.T) {
	b := bus.New(10)
	a := New(inmemorybackend.New())
	stop := runApplier(t, NewApplier(a, b))
	defer stop()

	first := fixture(tree.Leaf(panel.Keyed("a"), "Text", text("one")))
	b.Publish(bus.Rebuild{Files: []string{"main.ui"}})
	b.Publish(bus.Update{Edits: differ.Diff(nil, first), Tree: first})

	second := fixture(tree.Leaf(panel.Keyed("a"), "Text", text("two")))
	b.Publish(bus.Update{Edits: differ.Diff(first, second), Tree: second})

	assert.Eventually(t, func() bool {
		n, ok := a.Node(panel.Keyed("a"))
		if !ok {
			return false
		}
		v, _ := n.Props.Get("text")
		s, _ := v.AsString()
		return s == "two"
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, a.ValidateHierarchy())
}

func TestApplier_ResyncsAfterLag(t *testing.T) {
	b := bus.New(2)
	a := New(inmemorybackend.New())
	p := NewApplier(a, b)

	// Publish more than the log retains before the applier reads anything.
	var prev *tree.Tree
	for _, s := range []string{"one", "two", "three", "four"} {
		next := fixture(tree.Leaf(panel.Keyed("a"), "Text", text(s)))
		b.Publish(bus.Update{Edits: differ.Diff(prev, next), Tree: next})
		prev = next
	}
	b.Close()

	require.NoError(t, p.Run(ctxlog.Discard(context.Background())))

	got, err := a.Tree()
	require.NoError(t, err)
	assert.Empty(t, differ.Diff(got, prev))
	require.NoError(t, a.ValidateHierarchy())
}

func TestApplier_ResyncsAfterFailedBatch(t *testing.T) {
	b := bus.New(10)
	a := New(inmemorybackend.New())
	p := NewApplier(a, b)

	first := fixture(tree.Leaf(panel.Keyed("a"), "Text", text("one")))
	// Edits that do not match the scene: the panel does not exist yet.
	b.Publish(bus.Update{Edits: differ.Diff(fixture(), first)[:1], Tree: first})
	second := fixture(tree.Leaf(panel.Keyed("a"), "Text", text("two")))
	b.Publish(bus.Update{Edits: differ.Diff(first, second), Tree: second})
	b.Close()

	require.NoError(t, p.Run(ctxlog.Discard(context.Background())))

	got, err := a.Tree()
	require.NoError(t, err)
	assert.Empty(t, differ.Diff(got, second))
}

func TestApplier_StopsCleanlyAtDeadline(t *testing.T) {
	b := bus.New(10)
	p := NewApplier(New(inmemorybackend.New()), b)

	ctx, cancel := context.WithTimeout(ctxlog.Discard(context.Background()), 20*time.Millisecond)
	defer cancel()

	assert.NoError(t, p.Run(ctx))
}

func TestApplier_ResyncsAcrossRootRemoval(t *testing.T) {
	b := bus.New(2)
	first := fixture(tree.Leaf(panel.Keyed("a"), "Text", text("one")))
	a, _ := loaded(t, first)
	p := NewApplier(a, b)

	second := fixture(tree.Leaf(panel.Keyed("a"), "Text", text("two")))
	empty := tree.MustNew(nil)
	replacement := tree.MustNew(&tree.Node{ID: nodeid.Root, Type: "Screen", Children: []*tree.Node{
		tree.Leaf(nodeid.Root.Keyed("title"), "Text", text("new")),
	}})
	// The first update falls out of the log before the applier reads it.
	b.Publish(bus.Update{Edits: differ.Diff(first, second), Tree: second})
	b.Publish(bus.Update{Edits: differ.Diff(second, empty), Tree: empty})
	b.Publish(bus.Update{Edits: differ.Diff(empty, replacement), Tree: replacement})
	b.Close()

	require.NoError(t, p.Run(ctxlog.Discard(context.Background())))

	got, err := a.Tree()
	require.NoError(t, err)
	assert.Empty(t, differ.Diff(got, replacement))
	_, ok := a.Node(panel)
	assert.False(t, ok)
	require.NoError(t, a.ValidateHierarchy())
}
