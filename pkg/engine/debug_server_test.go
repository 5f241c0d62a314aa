package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/ripple/pkg/core"
	"github.com/go-drift/ripple/pkg/dom"
	"github.com/go-drift/ripple/pkg/host"
)

// waitForServer polls the health endpoint until ready or timeout.
func waitForServer(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("http://%s/health", addr)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}

// waitForServerDown polls until the server stops responding or timeout.
func waitForServerDown(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("http://%s/health", addr)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err != nil {
			return nil // Connection refused = server is down
		}
		resp.Body.Close()
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("server still running after %v", timeout)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDebugServer_StartStop(t *testing.T) {
	srv := NewDebugServer(DebugConfig{Gatherer: prometheus.NewRegistry()})
	addr, err := srv.Start("127.0.0.1:0")
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	require.NoError(t, waitForServer(addr, 2*time.Second))

	resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, waitForServerDown(addr, 2*time.Second))
	assert.NoError(t, srv.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestDebugServer_FailFastOnPortConflict(t *testing.T) {
	// Occupy a port with a plain listener
	blocker, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer blocker.Close()

	srv := NewDebugServer(DebugConfig{})
	_, err = srv.Start(blocker.Addr().String())
	if err == nil {
		srv.Shutdown(context.Background())
		t.Error("expected error when binding to occupied port, got nil")
	}
}

func TestDebugServer_AlreadyRunningReturnsAddr(t *testing.T) {
	srv := NewDebugServer(DebugConfig{})
	addr1, err := srv.Start("127.0.0.1:0")
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	addr2, err := srv.Start("127.0.0.1:0")
	require.NoError(t, err)
	assert.Equal(t, addr1, addr2)
}

func TestDebugServer_MethodNotAllowed(t *testing.T) {
	srv := NewDebugServer(DebugConfig{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDebugServer_DisabledEndpoints(t *testing.T) {
	srv := NewDebugServer(DebugConfig{})
	for _, path := range []string{"/debug/tree", "/debug/passes", "/debug/runtime"} {
		assert.Equal(t, http.StatusServiceUnavailable, get(t, srv.Handler(), path).Code, path)
	}
}

func TestDebugServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	container := dom.NewContainer("div")
	defer core.Unmount(container)
	core.Render(list(2), container, core.WithScheduler(core.Synchronous), core.WithObserver(metrics))

	rec := get(t, NewDebugServer(DebugConfig{Gatherer: reg}).Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `ripple_passes_total{outcome="committed"} 1`)
	assert.Contains(t, string(body), `ripple_mutations_total{kind="insert"} 5`)
}

func TestDebugServer_Passes(t *testing.T) {
	trace := NewPassTrace(16, time.Millisecond)
	a, b := dom.NewContainer("div"), dom.NewContainer("div")
	for i := 0; i < 4; i++ {
		trace.PassCommitted(a, core.PassStats{Units: i, Duration: time.Duration(i) * time.Millisecond})
	}
	trace.PassCommitted(b, core.PassStats{Units: 99})
	h := NewDebugServer(DebugConfig{Trace: trace}).Handler()

	decode := func(target string) PassTimeline {
		rec := get(t, h, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		var timeline PassTimeline
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &timeline))
		return timeline
	}

	assert.Len(t, decode("/debug/passes").Samples, 5)
	assert.Len(t, decode("/debug/passes?limit=2").Samples, 2)

	slow := decode("/debug/passes?min_ms=2")
	require.Len(t, slow.Samples, 2)
	assert.Equal(t, 2, slow.Samples[0].Counts.Units)

	onlyB := decode("/debug/passes?container=" + containerLabel(b))
	require.Len(t, onlyB.Samples, 1)
	assert.Equal(t, 99, onlyB.Samples[0].Counts.Units)
}

func TestDebugServer_Tree(t *testing.T) {
	container := dom.NewContainer("main")
	defer core.Unmount(container)
	core.Render(core.CreateElement("button", core.Props{
		"className": "primary",
		"onClick":   func(*host.Event) {},
	}, "Go"), container, core.WithScheduler(core.Synchronous))
	h := NewDebugServer(DebugConfig{Root: container}).Handler()

	rec := get(t, h, "/debug/tree")
	require.Equal(t, http.StatusOK, rec.Code)
	var tree TreeNode
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tree))
	assert.Equal(t, "main", tree.Tag)
	require.Len(t, tree.Children, 1)
	button := tree.Children[0]
	assert.Equal(t, map[string]string{"class": "primary"}, button.Attributes)
	assert.Equal(t, []string{"click"}, button.Listeners)
	assert.Equal(t, 1, button.Depth)
	require.Len(t, button.Children, 1)
	assert.Equal(t, "Go", button.Children[0].Text)

	rec = get(t, h, "/debug/tree?format=html")
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Equal(t, `<main><button class="primary">Go</button></main>`, rec.Body.String())
}

func TestDebugServer_TreeReadsOnLoop(t *testing.T) {
	loop := NewLoop(WithTick(0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	container := dom.NewContainer("div")
	loop.Call(func() {
		core.Render("from the loop", container, core.WithScheduler(loop.Schedule))
	})
	h := NewDebugServer(DebugConfig{Root: container, Loop: loop}).Handler()

	require.Eventually(t, func() bool {
		return get(t, h, "/debug/tree?format=html").Body.String() == "<div>from the loop</div>"
	}, 2*time.Second, 5*time.Millisecond)
	loop.Call(func() { core.Unmount(container) })
}

func TestDebugServer_Runtime(t *testing.T) {
	stats := NewRuntimeStats(10, time.Second)
	stats.Sample()
	stats.PassStarted(nil)
	stats.PassCommitted(nil, core.PassStats{Units: 4})
	stats.Sample()

	h := NewDebugServer(DebugConfig{Runtime: stats}).Handler()
	var resp struct {
		Samples    []RuntimeSample `json:"samples"`
		IntervalMs float64         `json:"intervalMs"`
		Capacity   int             `json:"capacity"`
	}
	rec := get(t, h, "/debug/runtime?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Samples, 1)
	assert.Equal(t, SourceInterval, resp.Samples[0].Source)
	assert.Equal(t, 1000.0, resp.IntervalMs)
	assert.Equal(t, 10, resp.Capacity)

	rec = get(t, h, "/debug/runtime?source=pass")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Samples, 1)
	assert.Equal(t, 4, resp.Samples[0].PassUnits)
}
