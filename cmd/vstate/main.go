package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vstate/internal/config"
	"github.com/vango-dev/vstate/internal/errors"
	"github.com/vango-dev/vstate/pkg/storage"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := a.execute(os.Args[1:]); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the state shared by every command.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	backend    string
	logLevel   string

	cfg     *config.Config
	logger  *slog.Logger
	adapter storage.Adapter
	closer  io.Closer
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut}
}

func (a *app) root() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vstate",
		Short: "Inspect and exercise persisted vstate atoms",
		Long: `vstate works with the storage behind persisted atoms.

It reads vstate.json (or --config) and VSTATE_* environment
variables to pick a backend: memory, file, sqlite or s3.

Examples:
  vstate keys
  vstate get counter.count
  vstate set settings.theme '"dark"'
  vstate demo --backend=sqlite
  vstate serve`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to vstate.json (default ./vstate.json)")
	rootCmd.PersistentFlags().StringVarP(&a.backend, "backend", "b", "", "Storage backend override: memory, file, sqlite or s3")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override: debug, info, warn or error")

	rootCmd.AddCommand(
		a.keysCmd(),
		a.getCmd(),
		a.setCmd(),
		a.deleteCmd(),
		a.demoCmd(),
		a.serveCmd(),
		a.versionCmd(),
	)
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)
	return rootCmd
}

// execute runs the command line and releases the storage backend
// whether or not the command failed.
func (a *app) execute(args []string) error {
	cmd := a.root()
	cmd.SetArgs(args)
	err := cmd.Execute()
	if cerr := a.teardown(); err == nil && cerr != nil {
		err = errors.New("E202").WithDetail("close storage").Wrap(cerr)
	}
	return err
}

// setup resolves configuration and installs the process logger.
func (a *app) setup() error {
	cfg, err := config.Resolve(a.configPath)
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.Storage.Backend = a.backend
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(a.errOut, opts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(a.errOut, opts)
	}
	a.logger = slog.New(handler)
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) teardown() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer, a.adapter = nil, nil
	return err
}

// storage opens the configured backend on first use.
func (a *app) storage(ctx context.Context) (storage.Adapter, error) {
	if a.adapter != nil {
		return a.adapter, nil
	}
	adapter, closer, err := openBackend(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	a.adapter, a.closer = adapter, closer
	a.logger.Debug("storage opened", "backend", a.cfg.Storage.Backend)
	return adapter, nil
}

// opContext bounds one storage call by the configured timeout.
func (a *app) opContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.cfg.Timeout())
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// success prints a success message.
func (a *app) success(format string, args ...any) {
	fmt.Fprintf(a.out, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
