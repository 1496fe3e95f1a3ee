package store

import (
	"time"

	"github.com/vango-dev/vstate/pkg/atom"
)

// EnableDebug logs every change of every registered cell, including cells
// registered later. Calling it again is a no-op.
func (b *Base) EnableDebug() {
	b.mu.Lock()
	if b.debug {
		b.mu.Unlock()
		return
	}
	b.debug = true
	cells := append([]namedCell(nil), b.cells...)
	b.mu.Unlock()

	for _, nc := range cells {
		b.watchDebug(nc.name, nc.cell)
	}
}

// DebugEnabled reports whether EnableDebug was called.
func (b *Base) DebugEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.debug
}

func (b *Base) watchDebug(name string, cell atom.Cell) {
	b.watchAny(cell, func(value, previous any) {
		b.logger.Info("atom changed",
			"atom", name,
			"previous", previous,
			"value", value,
			"at", time.Now().Format(time.RFC3339Nano))
	})
}
