// Package cmd implements the ripple CLI commands.
//
// The root command carries the flags shared by every subcommand (project
// directory, config file, logging) and resolves them against ripple.yaml
// before a subcommand runs.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-drift/ripple/cmd/ripple/internal/config"
	"github.com/go-drift/ripple/cmd/ripple/internal/logging"
	"github.com/go-drift/ripple/examples/todo"
	"github.com/go-drift/ripple/pkg/errors"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// globals holds the persistent flags.
type globals struct {
	dir        string
	configPath string
	logLevel   string
	logFormat  string
	storePath  string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "ripple",
		Short: "Ripple - incremental UI reconciliation in Go",
		Long: `Ripple keeps a host tree in sync with declarative descriptions,
re-running only the components whose state changed.

The CLI drives the bundled todo application: "render" prints it once,
"run" opens it in the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&g.dir, "dir", ".", "project directory holding ripple.yaml")
	f.StringVar(&g.configPath, "config", "", "configuration file (default <dir>/ripple.yaml)")
	f.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&g.logFormat, "log-format", "", "log format: text or json")
	f.StringVar(&g.storePath, "store", "", "bbolt database holding the todos (default in memory)")

	root.AddCommand(newRenderCmd(g), newRunCmd(g), newVersionCmd())
	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// resolve loads the configuration and applies flag overrides.
func (g *globals) resolve() (*config.Resolved, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.Load(g.configPath)
	} else {
		cfg, err = config.LoadOptional(g.dir)
	}
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if g.storePath != "" {
		cfg.Store.Path = g.storePath
	}
	return cfg.Resolve(g.dir)
}

// newLogger builds the logger for r and routes engine errors through it.
func newLogger(r *config.Resolved, w io.Writer) *slog.Logger {
	logger := logging.New(w, r.LogLevel, r.LogFormat).With("app", r.AppName)
	errors.SetHandler(&errors.LogHandler{Logger: logger, Verbose: r.LogLevel <= slog.LevelDebug})
	return logger
}

func openStore(path string) (todo.Store, error) {
	if path == "" {
		return todo.NewMemoryStore(), nil
	}
	return todo.NewBoltStore(path)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ripple",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ripple version %s (built %s)\n", Version, BuildTime)
		},
	}
}

// logFile opens the log destination of "run". Without a path logs are
// dropped, since the terminal UI owns the screen.
func logFile(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
