// Package tree holds the declarative widget tree: the structure the differ
// compares, the snapshot store walks and the restorer rewrites.
//
// A Node is identified by a nodeid.ID assigned from declaration position or
// key (see Build). Two nodes in different trees are the same logical widget
// when both ID and Type match; that pair is the join key for diffing and for
// state restoration.
//
// Trees built by Build are never mutated by the pipeline. The restorer
// works on a Clone, and the engine only mutates the tree it currently
// holds as live, under its own lock.
package tree
