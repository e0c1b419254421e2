// Package restorer reinjects captured runtime state into a freshly built
// widget tree before that tree is diffed against the live one, so that
// Updated edits already carry restored values instead of declared defaults.
package restorer

import (
	"context"
	"errors"

	"github.com/vk/liveui/internal/ctxlog"
	"github.com/vk/liveui/internal/snapshot"
	"github.com/vk/liveui/internal/tree"
)

// ErrConsumed is returned when a snapshot is restored a second time.
var ErrConsumed = errors.New("restorer: snapshot already consumed")

// Apply returns a copy of newTree carrying the values captured in snap.
// newTree itself is left untouched. The snapshot is consumed: its entries
// are discarded and any later Apply with it fails with ErrConsumed.
func Apply(ctx context.Context, newTree *tree.Tree, snap *snapshot.Snapshot) (*tree.Tree, snapshot.Report, error) {
	if snap == nil {
		return newTree.Clone(), snapshot.Report{}, nil
	}
	if !snap.MarkConsumed() {
		return nil, snapshot.Report{}, ErrConsumed
	}
	defer snap.Discard()

	out := newTree.Clone()
	report := snapshot.Restore(out, snap)

	logger := ctxlog.FromContext(ctx)
	logger.Debug("State restored.", "snapshot", snap.ID, "restored", report.Restored, "dropped", report.Dropped)
	for _, k := range report.Lost {
		logger.Debug("Dropped state that no longer fits the tree.", "id", k.ID, "attribute", k.Name)
	}
	return out, report, nil
}
