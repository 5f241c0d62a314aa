package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-drift/ripple/pkg/dom"
	"github.com/go-drift/ripple/pkg/host"
)

// maxTreeDepth limits recursion depth to prevent stack overflow from malformed trees.
const maxTreeDepth = 500

// treeReadTimeout bounds how long a tree request waits for the loop.
const treeReadTimeout = 2 * time.Second

// DebugConfig selects what a DebugServer exposes. Nil fields disable the
// matching endpoint.
type DebugConfig struct {
	// Root is the container served by /debug/tree.
	Root *dom.Element
	// Loop drives Root. Tree reads are marshalled onto it when set.
	Loop *Loop
	// Trace backs /debug/passes.
	Trace *PassTrace
	// Runtime backs /debug/runtime.
	Runtime *RuntimeStats
	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// TreeNode represents a node in the serialized host tree.
type TreeNode struct {
	Tag        string            `json:"tag"`
	Text       string            `json:"text,omitempty"`
	Attributes map[string]string `json:"attrs,omitempty"`
	Listeners  []string          `json:"listeners,omitempty"`
	Depth      int               `json:"depth"`
	Children   []TreeNode        `json:"children,omitempty"`
}

// DebugServer serves pass diagnostics over HTTP.
type DebugServer struct {
	cfg    DebugConfig
	router chi.Router

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewDebugServer builds the routes for cfg. Call Start to listen, or mount
// Handler on an existing server.
func NewDebugServer(cfg DebugConfig) *DebugServer {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &DebugServer{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	r.Route("/debug", func(r chi.Router) {
		r.Get("/passes", s.handlePasses)
		r.Get("/tree", s.handleTree)
		r.Get("/runtime", s.handleRuntime)
	})
	s.router = r
	return s
}

// Handler returns the debug routes.
func (s *DebugServer) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves in the background. It returns the bound
// address, which differs from addr when addr asks for an ephemeral port.
// Starting a running server returns its current address.
func (s *DebugServer) Start(addr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.listener.Addr().String(), nil
	}

	// Bind listener first to fail fast on port conflicts
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("debug server listen: %w", err)
	}
	server := &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	s.server = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			// Server failed - clear state so it can be restarted
			s.mu.Lock()
			if s.server == server {
				s.server = nil
				s.listener = nil
			}
			s.mu.Unlock()
			s.cfg.Logger.Error("debug server stopped", "error", err)
		}
	}()

	s.cfg.Logger.Info("debug server listening", "addr", listener.Addr().String())
	return listener.Addr().String(), nil
}

// Shutdown gracefully stops the server. It is a no-op when not running.
func (s *DebugServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (s *DebugServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handlePasses returns recent pass samples. Query parameters: limit keeps
// the newest N samples, min_ms keeps passes at least that long, container
// keeps one container's passes.
func (s *DebugServer) handlePasses(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Trace == nil {
		http.Error(w, "pass tracing disabled", http.StatusServiceUnavailable)
		return
	}
	resp := s.cfg.Trace.Snapshot()
	applyPassFilters(r, &resp)
	writeJSON(w, resp)
}

// handleTree returns the host tree under Root as JSON, or as markup with
// format=html.
func (s *DebugServer) handleTree(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Root == nil {
		http.Error(w, "no host tree", http.StatusServiceUnavailable)
		return
	}

	asHTML := r.URL.Query().Get("format") == "html"
	var (
		tree   TreeNode
		markup string
	)
	read := func() {
		if asHTML {
			markup = s.cfg.Root.OuterHTML()
			return
		}
		tree = serializeTree(s.cfg.Root, 0)
	}
	if s.cfg.Loop != nil {
		ctx, cancel := context.WithTimeout(r.Context(), treeReadTimeout)
		defer cancel()
		if err := s.cfg.Loop.CallContext(ctx, read); err != nil {
			http.Error(w, fmt.Sprintf("loop busy: %v", err), http.StatusServiceUnavailable)
			return
		}
	} else {
		read()
	}

	if asHTML {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(markup))
		return
	}
	writeJSON(w, tree)
}

func (s *DebugServer) handleRuntime(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Runtime == nil {
		http.Error(w, "runtime sampling disabled", http.StatusServiceUnavailable)
		return
	}
	samples := s.cfg.Runtime.Snapshot()
	if source := r.URL.Query().Get("source"); source != "" {
		samples = slices.DeleteFunc(samples, func(rs RuntimeSample) bool { return rs.Source != source })
	}
	if limit := parseLimit(r); limit > 0 && len(samples) > limit {
		samples = samples[len(samples)-limit:]
	}
	writeJSON(w, struct {
		Samples    []RuntimeSample `json:"samples"`
		IntervalMs float64         `json:"intervalMs"`
		Capacity   int             `json:"capacity"`
	}{
		Samples:    samples,
		IntervalMs: durationToMillis(s.cfg.Runtime.Interval()),
		Capacity:   s.cfg.Runtime.Capacity(),
	})
}

func applyPassFilters(r *http.Request, resp *PassTimeline) {
	var filters []func(PassSample) bool
	if v := parseFloatQuery(r, "min_ms"); v > 0 {
		filters = append(filters, func(s PassSample) bool { return s.PassMs >= v })
	}
	if c := r.URL.Query().Get("container"); c != "" {
		filters = append(filters, func(s PassSample) bool { return s.Container == c })
	}

	if len(filters) > 0 {
		filtered := make([]PassSample, 0, len(resp.Samples))
	outer:
		for _, sample := range resp.Samples {
			for _, f := range filters {
				if !f(sample) {
					continue outer
				}
			}
			filtered = append(filtered, sample)
		}
		resp.Samples = filtered
	}

	if limit := parseLimit(r); limit > 0 && len(resp.Samples) > limit {
		resp.Samples = resp.Samples[len(resp.Samples)-limit:]
	}
}

func parseLimit(r *http.Request) int {
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 0
}

func parseFloatQuery(r *http.Request, name string) float64 {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func serializeTree(n host.Node, depth int) TreeNode {
	switch n := n.(type) {
	case host.Text:
		return TreeNode{Tag: "#text", Text: n.Data(), Depth: depth}
	case *dom.Element:
		node := TreeNode{Tag: n.TagName(), Depth: depth}
		for _, name := range n.AttributeNames() {
			if node.Attributes == nil {
				node.Attributes = make(map[string]string)
			}
			node.Attributes[name], _ = n.Attribute(name)
		}
		node.Listeners = n.ListenerEvents()
		if depth >= maxTreeDepth {
			return node
		}
		for _, child := range n.ChildNodes() {
			node.Children = append(node.Children, serializeTree(child, depth+1))
		}
		return node
	}
	return TreeNode{Tag: fmt.Sprintf("%T", n), Depth: depth}
}

// writeJSON encodes to a buffer first so encode errors become a 500.
func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
