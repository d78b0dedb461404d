// SPDX-License-Identifier: MPL-2.0

// Package dag implements the component dependency graph: cycle detection,
// topological ordering, dependents closures and transitive dependency sets.
//
// Edges point from a dependency to its dependent, so an edge A -> B reads
// "B requires A" and A sorts before B.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError reports components whose requirements form a cycle.
	CycleError struct {
		// Cycle lists the nodes left unsorted once every acyclic node has been
		// removed, in insertion order.
		Cycle []string
	}

	// Graph is a directed graph over string node names.
	Graph struct {
		out   map[string][]string
		in    map[string][]string
		nodes []string
		index map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		out:   make(map[string][]string),
		in:    make(map[string][]string),
		index: make(map[string]bool),
	}
}

// AddNode adds name if it is not already present.
func (g *Graph) AddNode(name string) {
	if g.index[name] {
		return
	}
	g.index[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge records that to depends on from. Missing nodes are added and
// repeated edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if slices.Contains(g.out[from], to) {
		return
	}
	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)
}

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name string) bool { return g.index[name] }

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []string { return slices.Clone(g.nodes) }

// DirectDependencies returns the nodes with an edge into name.
func (g *Graph) DirectDependencies(name string) []string { return slices.Clone(g.in[name]) }

// TopologicalSort orders nodes so that every dependency precedes its
// dependents (Kahn's algorithm). Ties keep insertion order. A cycle yields a
// *CycleError.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	pending := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		pending[n] = len(g.in[n])
	}

	var ready []string
	for _, n := range g.nodes {
		if pending[n] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, next := range g.out[n] {
			pending[next]--
			if pending[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(order) != len(g.nodes) {
		var cycle []string
		for _, n := range g.nodes {
			if pending[n] > 0 {
				cycle = append(cycle, n)
			}
		}
		return nil, &CycleError{Cycle: cycle}
	}
	return order, nil
}

// Dependents returns root and every node that transitively depends on it, in
// insertion order. It returns nil when root is not in the graph.
func (g *Graph) Dependents(root string) []string {
	if !g.index[root] {
		return nil
	}
	return g.ordered(g.reach(root, g.out))
}

// Dependencies returns the nodes name transitively depends on, excluding
// name itself, in insertion order.
func (g *Graph) Dependencies(name string) []string {
	seen := g.reach(name, g.in)
	delete(seen, name)
	return g.ordered(seen)
}

// DependsOn reports whether dependent transitively requires dependency.
func (g *Graph) DependsOn(dependent, dependency string) bool {
	if dependent == dependency {
		return false
	}
	return g.reach(dependent, g.in)[dependency]
}

// DependencyCount returns the number of nodes name transitively depends on.
func (g *Graph) DependencyCount(name string) int {
	return len(g.reach(name, g.in)) - 1
}

// reach collects start and every node reachable from it through edges.
func (g *Graph) reach(start string, edges map[string][]string) map[string]bool {
	seen := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range edges[n] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return seen
}

func (g *Graph) ordered(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for _, n := range g.nodes {
		if set[n] {
			out = append(out, n)
		}
	}
	return out
}
