package store

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/vstate/internal/telemetry"
)

// ErrContainerExists is returned by NewContainer once a container exists.
// A second registry would split store singletons in two.
var ErrContainerExists = errors.New("vstate/store: container already constructed")

// instance is the process-wide container.
var instance atomic.Pointer[Container]

// Container is the process-wide registry of reference-counted store
// singletons. Get and Remove are safe for concurrent use.
type Container struct {
	mu      sync.Mutex
	records map[string]*record

	// pending holds identities under construction; waiters block on the
	// channel and retry once it closes.
	pending map[string]chan struct{}

	// root is handed to stores without their own logger.
	root   *slog.Logger
	logger *slog.Logger
}

type record struct {
	identity Identity
	instance Store
	refCount int
}

// NewContainer constructs the process-wide container. It fails with
// ErrContainerExists when a container was already constructed, either by
// an earlier NewContainer or by Default.
func NewContainer(opts ...ContainerOption) (*Container, error) {
	c := newContainer(opts)
	if !instance.CompareAndSwap(nil, c) {
		return nil, ErrContainerExists
	}
	return c, nil
}

// Default returns the process-wide container, constructing it on first use.
func Default() *Container {
	if c := instance.Load(); c != nil {
		return c
	}
	instance.CompareAndSwap(nil, newContainer(nil))
	return instance.Load()
}

func newContainer(opts []ContainerOption) *Container {
	c := &Container{
		records: make(map[string]*record),
		pending: make(map[string]chan struct{}),
		root:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.root.With("component", "container")
	return c
}

// Get resolves def, constructing the store on first use, and takes one
// reference on it. Every Get must be matched by one Remove.
func Get[S Store](c *Container, def *Definition[S]) S {
	return c.acquire(def, nil).(S)
}

// acquire increments the reference count of ref's record, constructing the
// instance when no record exists. chain lists the identities whose
// constructors are running on this call path.
func (c *Container) acquire(ref Ref, chain []string) Store {
	id := ref.Identity()
	for {
		c.mu.Lock()
		if rec, ok := c.records[id.ID]; ok {
			rec.refCount++
			inst := rec.instance
			c.mu.Unlock()
			return inst
		}
		if slices.Contains(chain, id.ID) {
			c.mu.Unlock()
			panic(fmt.Sprintf("vstate: injection cycle while constructing store %q", id.Name))
		}
		if wait, ok := c.pending[id.ID]; ok {
			c.mu.Unlock()
			<-wait
			continue
		}
		done := make(chan struct{})
		c.pending[id.ID] = done
		c.mu.Unlock()

		return c.construct(ref, id, chain, done)
	}
}

func (c *Container) construct(ref Ref, id Identity, chain []string, done chan struct{}) (inst Store) {
	built := false
	defer func() {
		c.mu.Lock()
		delete(c.pending, id.ID)
		if built {
			c.records[id.ID] = &record{identity: id, instance: inst, refCount: 1}
		}
		c.mu.Unlock()
		close(done)
	}()

	inst = ref.construct(c, append(slices.Clone(chain), id.ID))
	built = true

	m := telemetry.Default()
	m.StoreConstructions.Inc()
	m.LiveStores.Inc()
	c.logger.Debug("store constructed", "store", id.Name, "id", id.ID)
	return inst
}

// Remove drops one reference on ref. The last reference destroys the
// instance and deletes the record. Removing an unknown store logs a
// warning and returns false.
func (c *Container) Remove(ref Ref) bool {
	return c.release(ref.Identity())
}

func (c *Container) release(id Identity) bool {
	c.mu.Lock()
	rec, ok := c.records[id.ID]
	if !ok {
		c.mu.Unlock()
		c.logger.Warn("remove: store not registered", "store", id.Name, "id", id.ID)
		return false
	}
	if rec.refCount > 1 {
		rec.refCount--
		c.mu.Unlock()
		return true
	}
	delete(c.records, id.ID)
	c.mu.Unlock()

	telemetry.Default().LiveStores.Dec()
	rec.instance.Destroy()
	c.logger.Debug("store destroyed", "store", id.Name, "id", id.ID)
	return true
}

// RefCount returns the number of references held on ref, 0 when absent.
func (c *Container) RefCount(ref Ref) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.records[ref.Identity().ID]; ok {
		return rec.refCount
	}
	return 0
}

// Has reports whether ref currently has a live instance.
func (c *Container) Has(ref Ref) bool {
	return c.RefCount(ref) > 0
}

// Record describes a live store.
type Record struct {
	Identity Identity
	RefCount int
	store    Store
}

// View returns the store's read-only view.
func (r Record) View() *View {
	return r.store.storeBase().View()
}

// Records returns the live stores ordered by name, then id.
func (c *Container) Records() []Record {
	c.mu.Lock()
	out := make([]Record, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, Record{Identity: rec.identity, RefCount: rec.refCount, store: rec.instance})
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Identity.Name != out[j].Identity.Name {
			return out[i].Identity.Name < out[j].Identity.Name
		}
		return out[i].Identity.ID < out[j].Identity.ID
	})
	return out
}

// Lookup finds a live store by identity id.
func (c *Container) Lookup(id string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[id]
	if !ok {
		return Record{}, false
	}
	return Record{Identity: rec.identity, RefCount: rec.refCount, store: rec.instance}, true
}
