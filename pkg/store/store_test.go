package store

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vstate/pkg/atom"
	"github.com/vango-dev/vstate/pkg/storage"
)

type counterStore struct {
	*Base
	Count  *atom.Atom[int]
	Double *atom.Derived[int]
}

func (s *counterStore) Increment() {
	s.Count.Update(func(n int) int { return n + 1 })
}

func counterDef(opts ...Option) *Definition[*counterStore] {
	return Define("counter", func(b *Base) *counterStore {
		s := &counterStore{Base: b}
		s.Count = NewAtom(b, "count", 0)
		s.Double = Derive1(b, "double", s.Count, func(n int) int { return n * 2 })
		b.Action("increment", s.Increment)
		return s
	}, opts...)
}

type plainStore struct {
	*Base
}

func plainDef(name string) *Definition[*plainStore] {
	return Define(name, func(b *Base) *plainStore { return &plainStore{Base: b} })
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func testContainer(opts ...ContainerOption) *Container {
	return newContainer(opts)
}

func TestDefinitionIdentityIsStable(t *testing.T) {
	def := counterDef()
	id := def.Identity()

	assert.NotEmpty(t, id.ID)
	assert.Equal(t, "counter", id.Name)
	assert.Equal(t, id, def.Identity())
	assert.NotEqual(t, id.ID, counterDef().Identity().ID)
	assert.Equal(t, "*store.counterStore", id.Type.String())
}

func TestStoreFactoriesRegisterCells(t *testing.T) {
	c := testContainer()
	def := counterDef()
	s := Get(c, def)
	defer c.Remove(def)

	assert.Equal(t, []string{"count", "double"}, s.Cells())
	cell, ok := s.Cell("double")
	require.True(t, ok)
	assert.Equal(t, 0, cell.Any())
	assert.Equal(t, "counter.count", s.Count.Name())

	s.Increment()
	assert.Equal(t, 2, s.Double.Get())
}

func TestStoreDuplicateCellPanics(t *testing.T) {
	c := testContainer()
	def := Define("dup", func(b *Base) *plainStore {
		NewAtom(b, "x", 1)
		NewAtom(b, "x", 2)
		return &plainStore{Base: b}
	})

	assert.Panics(t, func() { Get(c, def) })
	assert.Zero(t, c.RefCount(def))
}

func TestStoreMustEmbedItsBase(t *testing.T) {
	c := testContainer()
	def := Define("foreign", func(b *Base) *plainStore {
		return &plainStore{Base: &Base{}}
	})

	assert.Panics(t, func() { Get(c, def) })
}

func TestStoreDestroyCancelsSubscriptions(t *testing.T) {
	c := testContainer()
	def := counterDef()
	s := Get(c, def)

	var seen []int
	Watch(s.Base, s.Count, func(v int) { seen = append(seen, v) })
	s.View()
	assert.Positive(t, s.Count.SubscriberCount())
	assert.Positive(t, s.Subscriptions())

	require.True(t, c.Remove(def))
	assert.True(t, s.IsDestroyed())
	assert.Zero(t, s.Count.SubscriberCount())
	assert.Zero(t, s.Double.SubscriberCount())
	assert.Zero(t, s.Subscriptions())

	s.Count.Set(5)
	assert.Equal(t, 0, s.Double.Get(), "destroyed derivation must not recompute")
	assert.Empty(t, seen)

	s.Destroy()
}

func TestStoreRefusesSubscriptionsAfterDestroy(t *testing.T) {
	logger, buf := bufferLogger()
	c := testContainer()
	def := counterDef(WithLogger(logger))
	s := Get(c, def)
	c.Remove(def)

	sub := Watch(s.Base, s.Count, func(int) {})
	assert.Equal(t, atom.Subscription{}, sub)
	assert.Zero(t, s.Count.SubscriberCount())
	assert.Contains(t, buf.String(), "subscription refused: store destroyed")

	d := Derive1(s.Base, "late", s.Count, func(n int) int { return n })
	assert.Zero(t, s.Count.SubscriberCount())
	s.Count.Set(9)
	assert.Equal(t, 0, d.Get())
}

func TestStoreUnwatch(t *testing.T) {
	c := testContainer()
	def := counterDef()
	s := Get(c, def)
	defer c.Remove(def)

	calls := 0
	sub := WatchChange(s.Base, s.Count, func(_, _ int) { calls++ })
	s.Count.Set(1)
	require.True(t, s.Unwatch(sub))
	s.Count.Set(2)

	assert.Equal(t, 1, calls)
	assert.False(t, s.Unwatch(sub))
}

func TestStoreDefaultStorage(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryAdapter()
	other := storage.NewMemoryAdapter()

	type prefs struct {
		*Base
		Count *atom.Atom[int]
		Theme *atom.Atom[string]
	}
	def := Define("prefs", func(b *Base) *prefs {
		s := &prefs{Base: b}
		s.Count = NewAtom(b, "count", 0, atom.Persist("k"))
		s.Theme = NewAtom(b, "theme", "light", atom.Persist("theme"), atom.WithStorage(other))
		return s
	}, WithStorage(mem))

	c := testContainer()
	s := Get(c, def)
	defer c.Remove(def)

	s.Count.Set(3)
	s.Theme.Set("dark")
	require.NoError(t, s.Flush(ctx))

	raw, ok, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3", string(raw))

	_, ok, _ = mem.Get(ctx, "theme")
	assert.False(t, ok, "explicit adapter must win over the store default")
	raw, ok, _ = other.Get(ctx, "theme")
	require.True(t, ok)
	assert.Equal(t, `"dark"`, string(raw))
}

type settingsStore struct {
	*Base
	A *atom.Atom[int]
	B *atom.Atom[string]
}

func settingsDef(mem storage.Adapter, opts ...Option) *Definition[*settingsStore] {
	opts = append([]Option{WithStorage(mem)}, opts...)
	return Define("settings", func(b *Base) *settingsStore {
		s := &settingsStore{Base: b}
		s.A = NewAtom(b, "a", 1, atom.Persist("settings.a"))
		s.B = NewAtom(b, "b", "x", atom.Persist("settings.b"))
		Derive2(b, "summary", s.A, s.B, func(a int, b string) string { return b })
		return s
	}, opts...)
}

func has(t *testing.T, a storage.Adapter, key string) bool {
	t.Helper()
	_, ok, err := a.Get(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func TestStoreReset(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryAdapter()
	c := testContainer()
	def := settingsDef(mem)
	s := Get(c, def)
	defer c.Remove(def)

	s.A.Set(7)
	s.B.Set("y")
	require.NoError(t, s.Flush(ctx))

	s.Reset(ctx)

	assert.Equal(t, 1, s.A.Get())
	assert.Equal(t, "x", s.B.Get())
	assert.False(t, has(t, mem, "settings.a"))
	assert.False(t, has(t, mem, "settings.b"))
}

func TestStoreResetOnly(t *testing.T) {
	ctx := context.Background()
	logger, buf := bufferLogger()
	mem := storage.NewMemoryAdapter()
	c := testContainer()
	def := settingsDef(mem, WithLogger(logger))
	s := Get(c, def)
	defer c.Remove(def)

	s.A.Set(7)
	s.B.Set("y")
	require.NoError(t, s.Flush(ctx))

	s.Reset(ctx, Only("a", "missing"))

	assert.Equal(t, 1, s.A.Get())
	assert.Equal(t, "y", s.B.Get())
	assert.False(t, has(t, mem, "settings.a"))
	assert.True(t, has(t, mem, "settings.b"))
	assert.Contains(t, buf.String(), "reset: unknown cell skipped")
}

func TestStoreResetHalves(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryAdapter()
	c := testContainer()
	def := settingsDef(mem)
	s := Get(c, def)
	defer c.Remove(def)

	s.A.Set(7)
	require.NoError(t, s.Flush(ctx))

	s.ResetValues(ctx, "a")
	assert.Equal(t, 1, s.A.Get())
	assert.True(t, has(t, mem, "settings.a"))

	s.A.Set(8)
	require.NoError(t, s.Flush(ctx))
	s.ClearPersistedData(ctx)
	assert.Equal(t, 8, s.A.Get())
	assert.False(t, has(t, mem, "settings.a"))
	assert.False(t, has(t, mem, "settings.b"))
}

func TestStoreResetNotifiesDerivations(t *testing.T) {
	ctx := context.Background()
	c := testContainer()
	def := counterDef()
	s := Get(c, def)
	defer c.Remove(def)

	s.Count.Set(4)
	require.Equal(t, 8, s.Double.Get())

	s.Reset(ctx)
	assert.Equal(t, 0, s.Count.Get())
	assert.Equal(t, 0, s.Double.Get())
}

func TestStoreView(t *testing.T) {
	c := testContainer()
	def := counterDef()
	s := Get(c, def)
	defer c.Remove(def)

	v := s.View()
	assert.Same(t, v, s.View())
	assert.Equal(t, map[string]any{"count": 0, "double": 0}, v.Values())
	before := v.Version()

	var snaps []Snapshot
	cancel := v.OnChange(func(snap Snapshot) { snaps = append(snaps, snap) })

	s.Count.Set(2)
	got, ok := v.Value("double")
	require.True(t, ok)
	assert.Equal(t, 4, got)
	assert.Greater(t, v.Version(), before)
	require.NotEmpty(t, snaps)
	assert.Equal(t, 2, snaps[len(snaps)-1].Values["count"])

	cancel()
	n := len(snaps)
	s.Count.Set(3)
	assert.Len(t, snaps, n)

	assert.False(t, v.Set("count", 10))
	assert.Equal(t, 3, s.Count.Get())
}

func TestStoreViewActions(t *testing.T) {
	c := testContainer()
	def := counterDef()
	s := Get(c, def)
	defer c.Remove(def)

	v := s.View()
	assert.Equal(t, []string{"increment"}, v.ActionNames())

	fn, ok := v.Action("increment")
	require.True(t, ok)
	fn.(func())()
	assert.Equal(t, 1, s.Count.Get())

	raw, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"count":1`)
	assert.Contains(t, string(raw), `"double":2`)
	assert.Contains(t, string(raw), `"actions":["increment"]`)
}

func TestStoreViewSeesLateCells(t *testing.T) {
	c := testContainer()
	def := counterDef()
	s := Get(c, def)
	defer c.Remove(def)

	v := s.View()
	late := NewAtom(s.Base, "late", "a")
	got, _ := v.Value("late")
	assert.Equal(t, "a", got)

	late.Set("b")
	got, _ = v.Value("late")
	assert.Equal(t, "b", got)
}

func TestStoreEnableDebug(t *testing.T) {
	logger, buf := bufferLogger()
	c := testContainer()
	def := counterDef(WithLogger(logger))
	s := Get(c, def)
	defer c.Remove(def)

	s.EnableDebug()
	s.EnableDebug()
	assert.True(t, s.DebugEnabled())

	s.Count.Set(1)
	out := buf.String()
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte(`msg="atom changed"`)))
	assert.Contains(t, out, "atom=count")
	assert.Contains(t, out, "previous=0")
	assert.Contains(t, out, "atom=double")

	late := NewAtom(s.Base, "late", 0)
	late.Set(1)
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte(`msg="atom changed"`)))
}

func TestStoreViewSettlesOnLatestValues(t *testing.T) {
	c := testContainer()
	def := counterDef()
	s := Get(c, def)
	defer c.Remove(def)

	v := s.View()
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Count.Set(i)
		}()
	}
	wg.Wait()

	count, _ := v.Value("count")
	assert.Equal(t, s.Count.Get(), count)
}
