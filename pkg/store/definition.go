package store

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Store is implemented by every concrete store through its embedded *Base.
// A store may define its own Destroy; it must call Base.Destroy.
type Store interface {
	Destroy()
	storeBase() *Base
}

// Identity names a store definition. It is generated once per Definition
// and stays stable for the life of the process.
type Identity struct {
	ID   string
	Name string
	Type reflect.Type
}

// String returns "name#id".
func (i Identity) String() string {
	return i.Name + "#" + i.ID
}

// Ref is anything the Container can resolve: in practice a *Definition.
type Ref interface {
	Identity() Identity
	construct(c *Container, chain []string) Store
}

// Definition describes how to build one kind of store. Declare it once,
// usually as a package-level variable, and resolve it through a Container.
type Definition[S Store] struct {
	name string
	ctor func(b *Base) S
	opts []Option

	once     sync.Once
	identity Identity
}

// Define declares a store. ctor receives the Base the store must embed.
func Define[S Store](name string, ctor func(b *Base) S, opts ...Option) *Definition[S] {
	return &Definition[S]{
		name: name,
		ctor: ctor,
		opts: opts,
	}
}

// Name returns the definition's name.
func (d *Definition[S]) Name() string {
	return d.name
}

// Identity returns the definition's identity, generating it on first use.
func (d *Definition[S]) Identity() Identity {
	d.once.Do(func() {
		d.identity = Identity{
			ID:   uuid.NewString(),
			Name: d.name,
			Type: reflect.TypeFor[S](),
		}
	})
	return d.identity
}

func (d *Definition[S]) construct(c *Container, chain []string) Store {
	b := newBase(c, d.Identity(), chain, d.opts)

	built := false
	defer func() {
		if !built {
			// Release whatever the constructor injected before failing.
			b.Destroy()
		}
	}()

	s := d.ctor(b)
	if s.storeBase() != b {
		panic(fmt.Sprintf("vstate: store %q must embed the *store.Base passed to its constructor", d.name))
	}
	built = true
	return s
}
