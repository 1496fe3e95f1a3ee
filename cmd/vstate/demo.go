package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vstate/pkg/atom"
	"github.com/vango-dev/vstate/pkg/storage"
	"github.com/vango-dev/vstate/pkg/store"
)

// Todo is one entry of the demo todo list.
type Todo struct {
	Text string `json:"text" yaml:"text"`
	Done bool   `json:"done" yaml:"done"`
}

type counterStore struct {
	*store.Base
	Count   *atom.Atom[int]
	Doubled *atom.Derived[int]
}

func (s *counterStore) Increment() {
	s.Count.Update(func(n int) int { return n + 1 })
}

type todoStore struct {
	*store.Base
	Counter   *counterStore
	Items     *atom.Atom[[]Todo]
	Remaining *atom.Derived[int]
	Summary   *atom.Derived[string]
}

// Add appends a todo and counts it on the counter store.
func (s *todoStore) Add(text string) {
	s.Items.Update(func(items []Todo) []Todo {
		return append(append([]Todo(nil), items...), Todo{Text: text})
	})
	s.Counter.Increment()
}

// Complete marks the first open todo matching text as done.
func (s *todoStore) Complete(text string) bool {
	found := false
	s.Items.Update(func(items []Todo) []Todo {
		next := append([]Todo(nil), items...)
		for i := range next {
			if !next[i].Done && next[i].Text == text {
				next[i].Done = true
				found = true
				break
			}
		}
		return next
	})
	return found
}

// demoStores holds the definitions of one demo run. Definitions carry
// the adapter chosen at runtime.
type demoStores struct {
	counter *store.Definition[*counterStore]
	todos   *store.Definition[*todoStore]
}

func newDemoStores(adapter storage.Adapter, codec storage.Codec) *demoStores {
	d := &demoStores{}
	d.counter = store.Define("counter", func(b *store.Base) *counterStore {
		s := &counterStore{Base: b}
		s.Count = store.NewAtom(b, "count", 0, atom.Persist("counter.count"), atom.WithCodec(codec))
		s.Doubled = store.Derive1(b, "doubled", s.Count, func(n int) int { return n * 2 })
		b.Action("increment", s.Increment)
		return s
	}, store.WithStorage(adapter))

	d.todos = store.Define("todos", func(b *store.Base) *todoStore {
		s := &todoStore{Base: b, Counter: store.Inject(b, d.counter)}
		s.Items = store.NewAtom(b, "items", []Todo{},
			atom.Persist("todos.items"), atom.WithCodec(codec), atom.Deep())
		s.Remaining = store.Derive1(b, "remaining", s.Items, func(items []Todo) int {
			n := 0
			for _, t := range items {
				if !t.Done {
					n++
				}
			}
			return n
		})
		s.Summary = store.Derive2(b, "summary", s.Remaining, s.Counter.Count, func(open, added int) string {
			return fmt.Sprintf("%d open of %d added", open, added)
		})
		b.Action("add", s.Add)
		b.Action("complete", s.Complete)
		return s
	}, store.WithStorage(adapter))
	return d
}

func (a *app) demoCmd() *cobra.Command {
	var (
		add      []string
		complete []string
		bumps    int
		debug    bool
		reset    bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the counter and todo demo stores against the configured backend",
		Long: `Run two demo stores: a persisted counter with a derived double,
and a todo list that injects the counter and derives a summary.
State survives between runs on persistent backends.

Examples:
  vstate demo --add "buy milk" --add "walk dog"
  vstate demo --complete "buy milk" --debug
  vstate demo --reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}

			c := store.Default()
			defs := newDemoStores(adapter, a.cfg.Codec())
			todos := store.Get(c, defs.todos)
			defer c.Remove(defs.todos)

			ctx := cmd.Context()
			<-todos.Items.Hydrated()
			<-todos.Counter.Count.Hydrated()

			if debug {
				todos.EnableDebug()
				todos.Counter.EnableDebug()
			}
			if reset {
				todos.Reset(ctx)
				todos.Counter.Reset(ctx)
				a.success("demo state reset")
			}
			for i := 0; i < bumps; i++ {
				todos.Counter.Increment()
			}
			for _, text := range add {
				todos.Add(text)
			}
			for _, text := range complete {
				if !todos.Complete(text) {
					a.printf("no open todo %q\n", text)
				}
			}

			if err := todos.Flush(ctx); err != nil {
				return err
			}
			if err := todos.Counter.Flush(ctx); err != nil {
				return err
			}
			return a.printViews(todos.Counter.View(), todos.View())
		},
	}

	cmd.Flags().StringArrayVar(&add, "add", nil, "Add a todo (repeatable)")
	cmd.Flags().StringArrayVar(&complete, "complete", nil, "Complete a todo by text (repeatable)")
	cmd.Flags().IntVar(&bumps, "increment", 0, "Increment the counter N times")
	cmd.Flags().BoolVar(&debug, "debug", false, "Log every atom change")
	cmd.Flags().BoolVar(&reset, "reset", false, "Reset both stores and clear their persisted data first")

	return cmd
}

func (a *app) printViews(views ...*store.View) error {
	for _, v := range views {
		snap := v.Snapshot()
		data, err := json.MarshalIndent(snap.Values, "  ", "  ")
		if err != nil {
			return err
		}
		a.printf("%s (actions: %s)\n  %s\n", snap.Store, strings.Join(snap.Actions, ", "), data)
	}
	return nil
}
