package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vstate/internal/errors"
	"github.com/vango-dev/vstate/pkg/storage"
)

func (a *app) keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List persisted keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := a.opContext(cmd.Context())
			defer cancel()

			keys, ok, err := storage.Keys(ctx, adapter)
			if !ok {
				return errors.New("E203").WithSuggestion("Use the memory, file, sqlite or s3 backend")
			}
			if err != nil {
				return errors.New("E202").WithDetail("list keys").Wrap(err)
			}
			for _, k := range keys {
				a.printf("%s\n", k)
			}
			return nil
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the stored value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := a.opContext(cmd.Context())
			defer cancel()

			raw, ok, err := adapter.Get(ctx, args[0])
			if err != nil {
				return errors.New("E202").WithDetailf("get %q", args[0]).Wrap(err)
			}
			if !ok {
				return errors.New("E201").WithDetailf("%q is not stored", args[0])
			}
			a.printf("%s\n", raw)
			return nil
		},
	}
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store a value; VALUE is JSON",
		Long: `Store a value under KEY. VALUE is parsed as JSON and written
with the configured codec, so atoms hydrating from KEY decode it.

Examples:
  vstate set counter.count 3
  vstate set settings.theme '"dark"'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				return errors.New("E300").
					WithDetail("VALUE is not valid JSON").
					WithSuggestion(`Quote strings twice in the shell, e.g. '"dark"'`).
					Wrap(err)
			}
			raw, err := a.cfg.Codec().Marshal(value)
			if err != nil {
				return errors.New("E300").WithDetail("encode VALUE").Wrap(err)
			}

			adapter, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := a.opContext(cmd.Context())
			defer cancel()

			if err := adapter.Set(ctx, args[0], raw); err != nil {
				return errors.New("E202").WithDetailf("set %q", args[0]).Wrap(err)
			}
			a.success("set %s", args[0])
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete KEY",
		Aliases: []string{"rm"},
		Short:   "Delete a stored key",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := a.storage(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := a.opContext(cmd.Context())
			defer cancel()

			if err := adapter.Delete(ctx, args[0]); err != nil {
				return errors.New("E202").WithDetailf("delete %q", args[0]).Wrap(err)
			}
			a.success("deleted %s", args[0])
			return nil
		},
	}
}
