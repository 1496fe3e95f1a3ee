package store

import (
	"context"
	"fmt"

	"github.com/vango-dev/vstate/pkg/atom"
)

// Reset returns the store's atoms to their initial values and deletes
// their persisted entries. ResetValues(false) and ClearPersisted(false)
// skip either half; Only restricts the reset to named cells. Derivations
// are not reset directly: they follow their sources.
//
// Values are reset one atom at a time, in registration order. Reset then
// waits until every delete settled or ctx is done.
func (b *Base) Reset(ctx context.Context, opts ...ResetOption) {
	cfg := resetConfig{values: true, persisted: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var pending []<-chan struct{}
	for _, nc := range b.resetTargets(cfg.only) {
		r, ok := nc.cell.(atom.Resetter)
		if !ok {
			continue
		}
		if ch := b.resetCell(nc.name, r, cfg); ch != nil {
			pending = append(pending, ch)
		}
	}

	for _, ch := range pending {
		select {
		case <-ch:
		case <-ctx.Done():
			b.logger.Warn("reset: context done before storage settled", "error", ctx.Err())
			return
		}
	}
}

func (b *Base) resetTargets(only []string) []namedCell {
	cells := b.cellList()
	if len(only) == 0 {
		return cells
	}

	byName := make(map[string]namedCell, len(cells))
	for _, nc := range cells {
		byName[nc.name] = nc
	}
	out := make([]namedCell, 0, len(only))
	for _, name := range only {
		nc, ok := byName[name]
		if !ok {
			b.logger.Debug("reset: unknown cell skipped", "cell", name)
			continue
		}
		out = append(out, nc)
	}
	return out
}

// resetCell isolates a failing atom so the others still reset.
func (b *Base) resetCell(name string, r atom.Resetter, cfg resetConfig) (ch <-chan struct{}) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("reset: atom failed", "cell", name, "error", fmt.Sprint(rec))
			ch = nil
		}
	}()
	return r.ResetAsync(atom.ResetValue(cfg.values), atom.ClearPersisted(cfg.persisted))
}

// ClearPersistedData deletes persisted entries without touching values.
// With no names every atom is cleared.
func (b *Base) ClearPersistedData(ctx context.Context, names ...string) {
	b.Reset(ctx, ResetValues(false), Only(names...))
}

// ResetValues restores initial values without touching storage. With no
// names every atom is reset.
func (b *Base) ResetValues(ctx context.Context, names ...string) {
	b.Reset(ctx, ClearPersisted(false), Only(names...))
}
