package scene

import (
	"context"
	"errors"

	"github.com/vk/liveui/internal/bus"
	"github.com/vk/liveui/internal/ctxlog"
	"github.com/vk/liveui/internal/differ"
)

// Applier feeds Update messages from a bus subscription into an Adapter.
type Applier struct {
	adapter *Adapter
	sub     *bus.Subscription
	resync  bool
}

// NewApplier subscribes to b on behalf of a. Messages published before this
// call are not seen.
func NewApplier(a *Adapter, b *bus.Bus) *Applier {
	return &Applier{adapter: a, sub: b.Subscribe()}
}

// Run applies updates until ctx is done (cancelled or past its deadline)
// or the bus is closed. Apply
// failures are logged and trigger a resync on the next update; they do not
// stop the loop.
func (p *Applier) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("scene: applier started.")
	for {
		env, err := p.sub.Next(ctx)
		var lagged *bus.LaggedError
		switch {
		case errors.As(err, &lagged):
			logger.Warn("scene: applier lagged, will resync.", "missed", lagged.Missed)
			p.resync = true
			continue
		case errors.Is(err, bus.ErrClosed), err != nil && ctx.Err() != nil:
			logger.Debug("scene: applier stopped.")
			return nil
		case err != nil:
			return err
		}
		p.handle(ctx, env)
	}
}

func (p *Applier) handle(ctx context.Context, env bus.Envelope) {
	logger := ctxlog.FromContext(ctx)
	switch m := env.Msg.(type) {
	case bus.Update:
		edits := m.Edits
		if p.resync {
			current, err := p.adapter.Tree()
			if err != nil {
				logger.Error("scene: cannot export scene for resync.", "error", err)
				return
			}
			edits = differ.Diff(current, m.Tree)
			logger.Info("scene: resynchronizing.", "seq", env.Seq, "edits", len(edits))
		}
		if err := p.adapter.Apply(ctx, edits); err != nil {
			logger.Warn("scene: update applied partially.", "seq", env.Seq, "error", err)
			p.resync = true
			return
		}
		p.resync = false
	case bus.Error:
		logger.Warn("scene: pipeline reported an error, keeping current scene.", "path", m.Path, "message", m.Message)
	default:
		logger.Debug("scene: lifecycle message.", "seq", env.Seq, "type", env.Msg.Type())
	}
}
