package testing

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/ripple/pkg/dom"
	"github.com/go-drift/ripple/pkg/host"
)

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the host tree and the mutations of the last pass.
type Snapshot struct {
	Tree []*SnapshotNode `yaml:"tree"`
	Pass *PassSummary    `yaml:"pass,omitempty"`
}

// SnapshotNode represents a host node in the serialized tree. Text nodes
// have the tag "#text".
type SnapshotNode struct {
	Tag        string            `yaml:"tag"`
	Text       string            `yaml:"text,omitempty"`
	Attributes map[string]string `yaml:"attrs,omitempty"`
	Properties map[string]any    `yaml:"props,omitempty"`
	Children   []*SnapshotNode   `yaml:"children,omitempty"`
}

// PassSummary holds the deterministic counters of a committed pass.
type PassSummary struct {
	Inserts int `yaml:"inserts"`
	Updates int `yaml:"updates"`
	Removes int `yaml:"removes"`
	Moves   int `yaml:"moves"`
}

// propertyWhitelist lists the live properties worth recording. Everything
// else is visible through attributes.
var propertyWhitelist = []string{"value", "checked"}

// CaptureSnapshot captures the container's children and the last pass.
func (t *Tester) CaptureSnapshot() *Snapshot {
	snap := &Snapshot{Tree: captureChildren(t.container)}
	if len(t.passes) > 0 {
		last := t.LastPass()
		snap.Pass = &PassSummary{
			Inserts: last.Inserts,
			Updates: last.Updates,
			Removes: last.Removes,
			Moves:   last.Moves,
		}
	}
	return snap
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When RIPPLE_UPDATE_SNAPSHOTS=1
// is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv("RIPPLE_UPDATE_SNAPSHOTS") == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: RIPPLE_UPDATE_SNAPSHOTS=1 go test -run %s", path, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: RIPPLE_UPDATE_SNAPSHOTS=1 go test -run %s", path, diff, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a diff from other (expected) to this snapshot (actual) in
// YAML form. Returns empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return cmp.Diff(string(b), string(a))
}

// --- Internal ---

func captureChildren(e *dom.Element) []*SnapshotNode {
	var out []*SnapshotNode
	for _, child := range e.ChildNodes() {
		if node := captureNode(child); node != nil {
			out = append(out, node)
		}
	}
	return out
}

func captureNode(n host.Node) *SnapshotNode {
	switch n := n.(type) {
	case host.Text:
		return &SnapshotNode{Tag: "#text", Text: n.Data()}
	case *dom.Element:
		node := &SnapshotNode{Tag: n.TagName()}
		for _, name := range n.AttributeNames() {
			if node.Attributes == nil {
				node.Attributes = make(map[string]string)
			}
			node.Attributes[name], _ = n.Attribute(name)
		}
		for _, name := range propertyWhitelist {
			if v := n.Property(name); v != nil {
				if node.Properties == nil {
					node.Properties = make(map[string]any)
				}
				node.Properties[name] = v
			}
		}
		node.Children = captureChildren(n)
		return node
	}
	return nil
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot YAML: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
