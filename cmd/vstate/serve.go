package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vstate/internal/errors"
	"github.com/vango-dev/vstate/internal/telemetry"
	"github.com/vango-dev/vstate/pkg/debughttp"
	"github.com/vango-dev/vstate/pkg/store"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		addr string
		demo bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only debug endpoints",
		Long: `Serve the debug endpoints of the process-wide store container:

  GET /stores                      live stores
  GET /stores/{id}                 one store's view
  GET /stores/{id}/cells/{name}    one cell value
  GET /metrics                     Prometheus metrics

With --demo the counter and todo demo stores are kept alive so
there is something to look at.

Examples:
  vstate serve
  vstate serve --addr=:7070 --demo=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			telemetry.Default()

			c := store.Default()
			if demo {
				adapter, err := a.storage(cmd.Context())
				if err != nil {
					return err
				}
				defs := newDemoStores(adapter, a.cfg.Codec())
				todos := store.Get(c, defs.todos)
				defer c.Remove(defs.todos)
				todos.EnableDebug()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h := debughttp.New(c, debughttp.WithLogger(a.logger))
			err := debughttp.Serve(ctx, addr, h, func(bound net.Addr) {
				a.success("serving debug endpoints on http://%s", bound)
			})
			if err != nil && ctx.Err() == nil {
				return errors.New("E301").WithDetail("listen on " + addr).Wrap(err)
			}
			a.logger.Info("debug server stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&demo, "demo", true, "Keep the demo stores alive")

	return cmd
}
