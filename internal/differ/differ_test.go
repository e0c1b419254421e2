package differ

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/liveui/internal/edit"
	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/tree"
	"github.com/vk/liveui/internal/value"
)

func text(s string) value.Prop {
	return value.Prop{Name: "text", Value: value.String(s)}
}

// withRoot wraps children of a Container under the synthetic root.
func withRoot(children ...*tree.Node) *tree.Tree {
	container := &tree.Node{ID: "root.main.Container[0]", Type: "Container", Children: children}
	return tree.MustNew(&tree.Node{ID: nodeid.Root, Type: tree.RootType, Children: []*tree.Node{container}})
}

const container nodeid.ID = "root.main.Container[0]"

func child(typeTag string, n int, props ...value.Prop) *tree.Node {
	return tree.Leaf(container.Positional(typeTag, n), typeTag, props...)
}

func assertEdits(t *testing.T, want, got []edit.Edit) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("edits mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_Identical(t *testing.T) {
	old := withRoot(child("Text", 0, text("A")), child("Button", 0))
	assert.Empty(t, Diff(old, old.Clone()))
}

func TestDiff_SinglePropertyChangeIsOneUpdate(t *testing.T) {
	old := withRoot(child("Text", 0, text("A"), value.Prop{Name: "size", Value: value.Number(12)}), child("Button", 0))
	new := withRoot(child("Text", 0, text("A"), value.Prop{Name: "size", Value: value.Number(14)}), child("Button", 0))

	got := Diff(old, new)

	assertEdits(t, []edit.Edit{
		edit.Updated{
			ID:  "root.main.Container[0].Text[0]",
			Old: value.Props{{Name: "size", Value: value.Number(12)}},
			New: value.Props{{Name: "size", Value: value.Number(14)}},
		},
	}, got)
}

func TestDiff_ReorderIsOneEdit(t *testing.T) {
	a := func() *tree.Node { return tree.Leaf(container.Keyed("a"), "Item") }
	b := func() *tree.Node { return tree.Leaf(container.Keyed("b"), "Item") }
	c := func() *tree.Node { return tree.Leaf(container.Keyed("c"), "Item") }

	got := Diff(withRoot(a(), b(), c()), withRoot(c(), a(), b()))

	assertEdits(t, []edit.Edit{
		edit.Reordered{
			Parent: container,
			Old:    []nodeid.ID{container.Keyed("a"), container.Keyed("b"), container.Keyed("c")},
			New:    []nodeid.ID{container.Keyed("c"), container.Keyed("a"), container.Keyed("b")},
		},
	}, got)
}

func TestDiff_Scenario(t *testing.T) {
	old := withRoot(child("Text", 0, text("A")), child("Button", 0))
	new := withRoot(child("Text", 0, text("A_NEW")), child("Button", 0), child("Text", 1, text("B")))

	got := Diff(old, new)

	assertEdits(t, []edit.Edit{
		edit.Updated{
			ID:  "root.main.Container[0].Text[0]",
			Old: value.Props{text("A")},
			New: value.Props{text("A_NEW")},
		},
		edit.Added{
			ID:     "root.main.Container[0].Text[1]",
			Type:   "Text",
			Parent: container,
			Index:  2,
			Props:  value.Props{text("B")},
		},
	}, got)
}

func TestDiff_RemovedChildAndDeletedProperty(t *testing.T) {
	old := withRoot(child("Text", 0, text("A"), value.Prop{Name: "bold", Value: value.Bool(true)}), child("Button", 0))
	new := withRoot(child("Text", 0, text("A")))

	got := Diff(old, new)

	assertEdits(t, []edit.Edit{
		edit.Removed{ID: "root.main.Container[0].Button[0]", Parent: container},
		edit.Updated{
			ID:  "root.main.Container[0].Text[0]",
			Old: value.Props{{Name: "bold", Value: value.Bool(true)}},
			New: value.Props{{Name: "bold", Value: value.Null}},
		},
	}, got)
}

func TestDiff_TypeChangeIsReplacement(t *testing.T) {
	id := container.Keyed("x")
	old := withRoot(tree.Leaf(id, "Text"))
	new := withRoot(tree.Leaf(id, "Image"))

	got := Diff(old, new)

	assertEdits(t, []edit.Edit{
		edit.Removed{ID: id, Parent: container},
		edit.Added{ID: id, Type: "Image", Parent: container, Index: 0, Props: value.Props{}},
	}, got)
}

func TestDiff_AddedSubtreeIsPreOrder(t *testing.T) {
	panel := &tree.Node{
		ID:   container.Keyed("panel"),
		Type: "Panel",
		Children: []*tree.Node{
			tree.Leaf(container.Keyed("panel").Positional("Text", 0), "Text", text("x")),
			tree.Leaf(container.Keyed("panel").Positional("Text", 1), "Text", text("y")),
		},
	}
	got := Diff(withRoot(), withRoot(panel))

	require.Len(t, got, 3)
	assert.Equal(t, edit.Added{ID: panel.ID, Type: "Panel", Parent: container, Index: 0, Props: value.Props{}}, got[0])
	assert.Equal(t, panel.Children[0].ID, got[1].Target())
	assert.Equal(t, 1, got[2].(edit.Added).Index)
	assert.Equal(t, panel.ID, got[2].(edit.Added).Parent)
}

func TestDiff_RootReplacement(t *testing.T) {
	old := tree.MustNew(tree.Leaf("root", "Root"))
	new := tree.MustNew(tree.Leaf("other", "Root"))

	got := Diff(old, new)

	require.Len(t, got, 2)
	assert.Equal(t, edit.Removed{ID: "root"}, got[0])
	assert.Equal(t, nodeid.ID("other"), got[1].Target())
}

func TestDiff_FromEmpty(t *testing.T) {
	got := Diff(nil, withRoot(child("Text", 0)))

	assert.Equal(t, map[edit.Kind]int{edit.KindAdded: 3}, edit.Count(got))
	assert.Equal(t, nodeid.ID("root"), got[0].Target())
}

func TestDiff_RuntimeStateShowsUpAsAttributes(t *testing.T) {
	oldNode := child("Counter", 0)
	oldNode.State = []tree.StateVar{{Name: "count", Value: value.Number(1), Persistent: true}}
	newNode := child("Counter", 0)
	newNode.State = []tree.StateVar{{Name: "count", Value: value.Number(2), Persistent: true}}

	got := Diff(withRoot(oldNode), withRoot(newNode))

	require.Len(t, got, 1)
	upd := got[0].(edit.Updated)
	v, ok := upd.New.Get("state.count")
	require.True(t, ok)
	assert.True(t, v.Equal(value.Number(2)))
}
