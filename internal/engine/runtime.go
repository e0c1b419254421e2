package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/liveui/internal/bus"
	"github.com/vk/liveui/internal/ctxlog"
	"github.com/vk/liveui/internal/edit"
	"github.com/vk/liveui/internal/nodeid"
	"github.com/vk/liveui/internal/tree"
	"github.com/vk/liveui/internal/value"
)

// springStep is the largest integration step AdvanceSprings takes.
const springStep = time.Second / 120

var (
	ErrNotLoaded    = errors.New("engine: nothing loaded")
	ErrUnknownNode  = errors.New("engine: unknown widget")
	ErrUnknownState = errors.New("engine: unknown attribute")
	ErrNoTransition = errors.New("engine: no transition")
)

// SetState assigns a state variable of a live widget and publishes the
// resulting Update.
func (e *Engine) SetState(ctx context.Context, id nodeid.ID, name string, v value.Value) error {
	if v.IsNull() {
		return fmt.Errorf("engine: state %s of %s cannot be set to null", name, id)
	}
	return e.mutate(ctx, id, func(n *tree.Node) error {
		sv, ok := n.StateVar(name)
		if !ok {
			return fmt.Errorf("%w: state %s of %s", ErrUnknownState, name, id)
		}
		sv.Value = v
		return nil
	})
}

// SetSpringTarget sends a spring of a live widget toward target. The spring
// then moves on each AdvanceSprings call until it comes to rest.
func (e *Engine) SetSpringTarget(ctx context.Context, id nodeid.ID, name string, target float64) error {
	return e.mutate(ctx, id, func(n *tree.Node) error {
		sp, ok := n.Spring(name)
		if !ok {
			return fmt.Errorf("%w: spring %s of %s", ErrUnknownState, name, id)
		}
		sp.Target = target
		return nil
	})
}

// AdvanceSprings steps every moving spring of the live tree by dt and
// publishes one Update covering all of them. It returns the number of
// springs still in flight.
func (e *Engine) AdvanceSprings(ctx context.Context, dt time.Duration) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.live == nil {
		return 0, ErrNotLoaded
	}

	var (
		edits    []edit.Edit
		inFlight int
	)
	steps := int(dt / springStep)
	rem := (dt % springStep).Seconds()
	e.live.Walk(func(n, _ *tree.Node) bool {
		if len(n.Springs) == 0 {
			return true
		}
		before := n.Attributes()
		for i := range n.Springs {
			sp := &n.Springs[i]
			for j := 0; j < steps && sp.InFlight(); j++ {
				sp.Step(springStep.Seconds())
			}
			sp.Step(rem)
			if sp.InFlight() {
				inFlight++
			}
		}
		if old, changed := value.Changes(before, n.Attributes()); len(changed) > 0 {
			edits = append(edits, edit.Updated{ID: n.ID, Old: old, New: changed})
		}
		return true
	})
	if len(edits) > 0 {
		e.bus.Publish(bus.Update{Edits: edits, Tree: e.live.Clone()})
		ctxlog.FromContext(ctx).Debug("Springs advanced.", "widgets", len(edits), "in_flight", inFlight)
	}
	return inFlight, nil
}

// SetAnimationProgress moves an animation of a live widget. Progress is
// clamped to [0,1].
func (e *Engine) SetAnimationProgress(ctx context.Context, id nodeid.ID, name string, progress float64) error {
	progress = min(max(progress, 0), 1)
	return e.mutate(ctx, id, func(n *tree.Node) error {
		a, ok := n.Animation(name)
		if !ok {
			return fmt.Errorf("%w: animation %s of %s", ErrUnknownState, name, id)
		}
		a.Progress = progress
		return nil
	})
}

// Fire delivers event to a machine of a live widget and returns the new
// machine state.
func (e *Engine) Fire(ctx context.Context, id nodeid.ID, machine, event string) (string, error) {
	var to string
	err := e.mutate(ctx, id, func(n *tree.Node) error {
		m, ok := n.Machine(machine)
		if !ok {
			return fmt.Errorf("%w: machine %s of %s", ErrUnknownState, machine, id)
		}
		next, ok := m.Decl.Next(m.Current, event)
		if !ok {
			return fmt.Errorf("%w: %s has no %q transition from %q", ErrNoTransition, machine, event, m.Current)
		}
		m.Current = next
		to = next
		return nil
	})
	return to, err
}

func (e *Engine) mutate(ctx context.Context, id nodeid.ID, fn func(n *tree.Node) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.live == nil {
		return ErrNotLoaded
	}
	n, ok := e.live.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	before := n.Attributes()
	if err := fn(n); err != nil {
		return err
	}
	if err := n.Recompute(); err != nil {
		ctxlog.FromContext(ctx).Warn("Derived value could not be computed.", "id", id, "error", err)
	}
	old, changed := value.Changes(before, n.Attributes())
	if len(changed) == 0 {
		return nil
	}
	e.bus.Publish(bus.Update{
		Edits: []edit.Edit{edit.Updated{ID: id, Old: old, New: changed}},
		Tree:  e.live.Clone(),
	})
	ctxlog.FromContext(ctx).Debug("Runtime state changed.", "id", id, "attributes", changed.Names())
	return nil
}
