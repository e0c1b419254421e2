package detector

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op is the kind of change observed for a path.
type Op uint8

const (
	OpCreate Op = iota + 1
	OpWrite
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	}
	return "unknown"
}

// opFromEvent maps an fsnotify event. Chmod-only events map to 0.
func opFromEvent(ev fsnotify.Event) Op {
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return OpRemove
	case ev.Has(fsnotify.Create):
		return OpCreate
	case ev.Has(fsnotify.Write):
		return OpWrite
	}
	return 0
}

// merge folds a later op for the same path into an earlier one.
func merge(prev, next Op) Op {
	switch {
	case prev == OpCreate && next == OpWrite:
		return OpCreate
	case prev == OpRemove && next != OpRemove:
		return OpWrite
	}
	return next
}

// Change is one changed path.
type Change struct {
	Path string
	Op   Op
}

// Batch is a settled set of changes, one entry per path in first-seen order.
type Batch struct {
	Changes []Change
	At      time.Time
}

// Paths lists the changed paths.
func (b Batch) Paths() []string {
	out := make([]string, len(b.Changes))
	for i, c := range b.Changes {
		out[i] = c.Path
	}
	return out
}

// accumulator collects changes between flushes.
type accumulator struct {
	order []string
	ops   map[string]Op
}

func newAccumulator() *accumulator {
	return &accumulator{ops: make(map[string]Op)}
}

func (a *accumulator) add(c Change) {
	if prev, ok := a.ops[c.Path]; ok {
		a.ops[c.Path] = merge(prev, c.Op)
		return
	}
	a.order = append(a.order, c.Path)
	a.ops[c.Path] = c.Op
}

func (a *accumulator) len() int { return len(a.order) }

// peek builds a batch without emptying the accumulator.
func (a *accumulator) peek(at time.Time) Batch {
	b := Batch{Changes: make([]Change, len(a.order)), At: at}
	for i, p := range a.order {
		b.Changes[i] = Change{Path: p, Op: a.ops[p]}
	}
	return b
}

// take empties the accumulator into a batch.
func (a *accumulator) take(at time.Time) Batch {
	b := a.peek(at)
	a.order = nil
	a.ops = make(map[string]Op)
	return b
}
