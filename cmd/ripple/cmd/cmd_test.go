package cmd

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/ripple/examples/todo"
	"github.com/go-drift/ripple/pkg/errors"
)

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { errors.SetHandler(nil) })
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func seedStore(t *testing.T, todos ...todo.Todo) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todos.db")
	store, err := todo.NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(todos))
	require.NoError(t, store.Close())
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "ripple version 0.1.0-dev (built unknown)\n", out)
}

func TestRender_HTML(t *testing.T) {
	out, err := execute(t, "render", "--dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>todos</h1>")
	assert.Contains(t, out, `placeholder="What needs to be done?"`)
	assert.NotContains(t, out, `class="footer"`)
}

func TestRender_TextWithStore(t *testing.T) {
	path := seedStore(t,
		todo.Todo{ID: "1", Body: "milk"},
		todo.Todo{ID: "2", Body: "eggs", Completed: true},
	)
	out, err := execute(t, "render", "--dir", t.TempDir(), "--store", path, "--format", "text", "--view", "active")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "todos", lines[0])
	assert.Contains(t, lines, "• [ ] milk <>")
	assert.Contains(t, lines, "1 item left")
	assert.NotContains(t, out, "eggs")
}

func TestRender_PNGToFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "todo.png")
	_, err := execute(t, "render", "--dir", t.TempDir(), "--format", "png", "--width", "40", "--out", dest)
	require.NoError(t, err)

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 40*7+8, cfg.Width)
}

func TestRender_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := seedStore(t, todo.Todo{ID: "1", Body: "from config"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ripple.yaml"), []byte("store:\n  path: "+path+"\n"), 0o644))

	out, err := execute(t, "render", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "<label>from config</label>")
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"view", []string{"--view", "done"}, "unknown view"},
		{"format", []string{"--format", "pdf"}, "unknown format"},
		{"log level", []string{"--log-level", "loud"}, "log.level"},
		{"missing config", []string{"--config", "/nonexistent/ripple.yaml"}, "failed to read"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", "--dir", t.TempDir()}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// quitScreen is a simulation screen that receives Ctrl-C right after Init.
type quitScreen struct {
	tcell.SimulationScreen
}

func (s quitScreen) Init() error {
	if err := s.SimulationScreen.Init(); err != nil {
		return err
	}
	s.SetSize(60, 20)
	s.InjectKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)
	return nil
}

func useSimulationScreen(t *testing.T) {
	t.Helper()
	prev := newScreen
	newScreen = func() (tcell.Screen, error) {
		return quitScreen{tcell.NewSimulationScreen("UTF-8")}, nil
	}
	t.Cleanup(func() { newScreen = prev })
}

func TestRun_QuitsOnCtrlC(t *testing.T) {
	for _, mode := range []string{"loop", "sync"} {
		t.Run(mode, func(t *testing.T) {
			useSimulationScreen(t)
			path := filepath.Join(t.TempDir(), "todos.db")
			logPath := filepath.Join(t.TempDir(), "ripple.log")

			_, err := execute(t, "run", "--dir", t.TempDir(), "--mode", mode, "--store", path,
				"--debug-addr", "127.0.0.1:0", "--log-file", logPath, "--log-level", "debug")
			require.NoError(t, err)

			log, err := os.ReadFile(logPath)
			require.NoError(t, err)
			assert.Contains(t, string(log), "debug server listening")
			assert.FileExists(t, path)
		})
	}
}

func TestRun_BadMode(t *testing.T) {
	useSimulationScreen(t)
	_, err := execute(t, "run", "--dir", t.TempDir(), "--mode", "eager")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
