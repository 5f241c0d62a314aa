package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/go-drift/ripple/cmd/ripple/internal/config"
	"github.com/go-drift/ripple/examples/todo"
	"github.com/go-drift/ripple/pkg/core"
	"github.com/go-drift/ripple/pkg/dom"
	"github.com/go-drift/ripple/pkg/engine"
	"github.com/go-drift/ripple/pkg/tui"
)

// newScreen opens the terminal. Tests swap it for a simulation screen.
var newScreen = tcell.NewScreen

type runOptions struct {
	view      string
	mode      string
	budget    time.Duration
	tick      time.Duration
	debugAddr string
	logFile   string
}

func newRunCmd(g *globals) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the todo app in the terminal",
		Long: `Run opens the todo application full screen.

Keys:
  Tab, Shift-Tab   move focus
  Enter            add a todo, press a button or follow a link
  Space            toggle a checkbox
  Ctrl-C           quit

With --debug-addr (or debug.addr in ripple.yaml) a debug server exposes
/metrics, /debug/passes, /debug/tree and /debug/runtime.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, g, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.view, "view", string(todo.ViewAll), "initial view: all, active or completed")
	f.StringVar(&o.mode, "mode", "", "scheduler mode: loop or sync")
	f.DurationVar(&o.budget, "budget", 0, "work budget per tick in loop mode")
	f.DurationVar(&o.tick, "tick", 0, "tick interval in loop mode")
	f.StringVar(&o.debugAddr, "debug-addr", "", "listen address of the debug server")
	f.StringVar(&o.logFile, "log-file", "", "append logs to this file (logs are dropped otherwise)")
	return cmd
}

func runRun(cmd *cobra.Command, g *globals, o *runOptions) error {
	r, err := g.resolve()
	if err != nil {
		return err
	}
	if err := applyRunFlags(r, o); err != nil {
		return err
	}

	w, closeLog, err := logFile(o.logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := newLogger(r, w)

	view, err := todo.ParseView(o.view)
	if err != nil {
		return err
	}
	store, err := openStore(r.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	screen, err := newScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := engine.NewLoop(engine.WithBudget(r.Budget), engine.WithTick(r.Tick), engine.WithLogger(logger))
	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)
	trace := engine.NewPassTrace(0, 0)
	container := dom.NewContainer("div")
	tv := tui.NewView(screen, container, loop)
	observers := core.Observers{tv, metrics, trace}

	if r.DebugAddr != "" {
		samples := engine.NewRuntimeStats(0, time.Second)
		observers = append(observers, samples)
		go samples.Run(ctx)
		srv := engine.NewDebugServer(engine.DebugConfig{
			Root:     container,
			Loop:     loop,
			Trace:    trace,
			Runtime:  samples,
			Gatherer: reg,
			Logger:   logger,
		})
		addr, err := srv.Start(r.DebugAddr)
		if err != nil {
			return err
		}
		logger.Info("debug server listening", "addr", addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("debug server shutdown", "error", err)
			}
		}()
	}

	scheduler := core.Scheduler(loop.Schedule)
	if r.Mode == config.ModeSync {
		scheduler = core.Synchronous
	}
	core.Render(core.CreateElement(todo.App, core.Props{"store": store, "view": view}), container,
		core.WithScheduler(scheduler),
		core.WithObserver(observers),
		core.WithLogger(logger))
	defer core.Unmount(container)

	logger.Info("running", "mode", r.Mode, "budget", r.Budget, "tick", r.Tick)
	return tv.Run(ctx)
}

// applyRunFlags lets explicit flags win over ripple.yaml.
func applyRunFlags(r *config.Resolved, o *runOptions) error {
	switch o.mode {
	case "":
	case config.ModeLoop, config.ModeSync:
		r.Mode = o.mode
	default:
		return fmt.Errorf("unknown mode %q (use %s or %s)", o.mode, config.ModeLoop, config.ModeSync)
	}
	if o.budget > 0 {
		r.Budget = o.budget
	}
	if o.tick > 0 {
		r.Tick = o.tick
	}
	if o.debugAddr != "" {
		r.DebugAddr = o.debugAddr
	}
	return nil
}
