// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"errors"
	"slices"
	"testing"
)

func TestTopologicalSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(g *Graph)
		want  []string
	}{
		{name: "empty graph", build: func(*Graph) {}, want: nil},
		{name: "single node", build: func(g *Graph) { g.AddNode("A") }, want: []string{"A"}},
		{
			name: "linear chain",
			build: func(g *Graph) {
				g.AddEdge("compileJs", "assembleJsNpmPublication")
				g.AddEdge("assembleJsNpmPublication", "packJsNpmPublication")
			},
			want: []string{"compileJs", "assembleJsNpmPublication", "packJsNpmPublication"},
		},
		{
			name: "diamond keeps insertion order per level",
			build: func(g *Graph) {
				g.AddEdge("A", "B")
				g.AddEdge("A", "C")
				g.AddEdge("B", "D")
				g.AddEdge("C", "D")
			},
			want: []string{"A", "B", "C", "D"},
		},
		{
			name: "duplicate edges",
			build: func(g *Graph) {
				g.AddEdge("A", "B")
				g.AddEdge("A", "B")
			},
			want: []string{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := NewGraph()
			tt.build(g)
			order, err := g.TopologicalSort()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(order, tt.want) {
				t.Errorf("order = %v, want %v", order, tt.want)
			}
		})
	}
}

func TestTopologicalSort_Cycles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		edges    [][2]string
		minNodes int
	}{
		{name: "self loop", edges: [][2]string{{"A", "A"}}, minNodes: 1},
		{name: "simple cycle", edges: [][2]string{{"A", "B"}, {"B", "A"}}, minNodes: 2},
		{name: "three node cycle", edges: [][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}}, minNodes: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := NewGraph()
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1])
			}
			_, err := g.TopologicalSort()
			var cycleErr *CycleError
			if !errors.As(err, &cycleErr) {
				t.Fatalf("expected *CycleError, got %T: %v", err, err)
			}
			if !errors.Is(err, ErrCycle) {
				t.Error("CycleError should wrap ErrCycle")
			}
			if len(cycleErr.Cycle) < tt.minNodes {
				t.Errorf("cycle = %v, want at least %d nodes", cycleErr.Cycle, tt.minNodes)
			}
		})
	}
}

func TestCycleError_Message(t *testing.T) {
	t.Parallel()

	err := &CycleError{Cycle: []string{"A", "B", "C"}}
	if want := "dependency cycle detected: A -> B -> C"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
