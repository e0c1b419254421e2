package restorer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/liveui/internal/ctxlog"
	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/snapshot"
	"github.com/vk/liveui/internal/tree"
	"github.com/vk/liveui/internal/value"
)

func counter(count float64) *tree.Tree {
	return tree.MustNew(&tree.Node{ID: nodeid.Root, Type: tree.RootType, Children: []*tree.Node{{
		ID:    "root.main.counter",
		Type:  "Counter",
		State: []tree.StateVar{{Name: "count", Value: value.Number(count), Persistent: true}},
	}}})
}

func countOf(t *testing.T, tr *tree.Tree) value.Value {
	t.Helper()
	n, ok := tr.Find("root.main.counter")
	require.True(t, ok)
	sv, ok := n.StateVar("count")
	require.True(t, ok)
	return sv.Value
}

func TestApply_RestoresIntoCopy(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	snap, err := snapshot.Capture(counter(5), time.Now())
	require.NoError(t, err)
	fresh := counter(0)

	out, report, err := Apply(ctx, fresh, snap)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Restored)
	assert.True(t, countOf(t, out).Equal(value.Number(5)))
	assert.True(t, countOf(t, fresh).Equal(value.Number(0)), "input tree must not change")
	assert.Zero(t, snap.Len(), "entries are discarded after the pass")
}

func TestApply_SnapshotIsConsumedOnce(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	snap, err := snapshot.Capture(counter(5), time.Now())
	require.NoError(t, err)

	_, _, err = Apply(ctx, counter(0), snap)
	require.NoError(t, err)

	_, _, err = Apply(ctx, counter(0), snap)
	assert.ErrorIs(t, err, ErrConsumed)
}

func TestApply_NilSnapshot(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	fresh := counter(3)

	out, report, err := Apply(ctx, fresh, nil)
	require.NoError(t, err)

	assert.Zero(t, report.Restored)
	assert.NotSame(t, fresh.Root, out.Root)
	assert.True(t, countOf(t, out).Equal(value.Number(3)))
}
