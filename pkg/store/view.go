package store

import (
	"encoding/json"
	"maps"
	"sync"

	"github.com/vango-dev/vstate/pkg/atom"
)

// Snapshot is one generation of a store's view.
type Snapshot struct {
	Store   string         `json:"store"`
	ID      string         `json:"id"`
	Version uint64         `json:"version"`
	Values  map[string]any `json:"values"`
	Actions []string       `json:"actions,omitempty"`
}

// View is a read-only projection of a store: the current value of every
// registered cell plus the registered actions. It is regenerated every
// time one of the cells changes.
type View struct {
	base *Base

	mu        sync.RWMutex
	version   uint64
	values    map[string]any
	listeners map[int]func(Snapshot)
	nextID    int
	closed    bool
}

// View returns the store's view, creating it on first use.
func (b *Base) View() *View {
	b.mu.Lock()
	if b.view != nil {
		v := b.view
		b.mu.Unlock()
		return v
	}
	v := &View{base: b, listeners: make(map[int]func(Snapshot))}
	b.view = v
	cells := append([]namedCell(nil), b.cells...)
	b.mu.Unlock()

	for _, nc := range cells {
		v.watch(nc.cell)
	}
	v.refresh()
	return v
}

func (v *View) watch(cell atom.Cell) {
	v.base.watchAny(cell, func(_, _ any) { v.refresh() })
}

// attach adds a cell registered after the view was created.
func (v *View) attach(cell atom.Cell) {
	v.watch(cell)
	v.refresh()
}

// refresh regenerates the values from every registered cell. Cells are
// read under v.mu so a later version never holds older values.
func (v *View) refresh() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	values := make(map[string]any)
	for _, nc := range v.base.cellList() {
		values[nc.name] = nc.cell.Any()
	}
	v.version++
	v.values = values
	listeners := make([]func(Snapshot), 0, len(v.listeners))
	for _, fn := range v.listeners {
		listeners = append(listeners, fn)
	}
	v.mu.Unlock()

	if len(listeners) == 0 {
		return
	}
	snap := v.Snapshot()
	for _, fn := range listeners {
		fn(snap)
	}
}

func (v *View) close() {
	v.mu.Lock()
	v.closed = true
	v.listeners = make(map[int]func(Snapshot))
	v.mu.Unlock()
}

// Value returns the current value of the cell called name.
func (v *View) Value(name string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.values[name]
	return val, ok
}

// Values returns a copy of every cell value keyed by name.
func (v *View) Values() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return maps.Clone(v.values)
}

// Version increases every time the view is regenerated.
func (v *View) Version() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.version
}

// Snapshot returns the current generation.
func (v *View) Snapshot() Snapshot {
	id := v.base.identity
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Snapshot{
		Store:   id.Name,
		ID:      id.ID,
		Version: v.version,
		Values:  maps.Clone(v.values),
		Actions: v.base.actionNames(),
	}
}

// Action returns the action registered under name. The result is the
// method value passed to Base.Action; callers type-assert it.
func (v *View) Action(name string) (any, bool) {
	return v.base.action(name)
}

// ActionNames lists the registered actions in registration order.
func (v *View) ActionNames() []string {
	return v.base.actionNames()
}

// Set always fails: views are read-only. Write through the store's atoms.
func (v *View) Set(name string, _ any) bool {
	v.base.logger.Warn("view is read-only, write ignored", "cell", name)
	return false
}

// OnChange registers fn to receive every new generation. The returned
// func unregisters it.
func (v *View) OnChange(fn func(Snapshot)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || fn == nil {
		return func() {}
	}
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	return func() {
		v.mu.Lock()
		delete(v.listeners, id)
		v.mu.Unlock()
	}
}

// MarshalJSON encodes the current Snapshot.
func (v *View) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Snapshot())
}
