// Package graph is a directed graph over integer vertices with
// breadth-first traversal.
package graph

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrUnknownVertex = errors.New("unknown vertex")

// Color marks a vertex's state during a traversal.
type Color int

const (
	White Color = iota // not yet discovered
	Gray               // discovered, neighbours pending
	Black              // finished
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Gray:
		return "gray"
	case Black:
		return "black"
	default:
		return fmt.Sprintf("color(%d)", int(c))
	}
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Graph is not safe for concurrent mutation.
type Graph struct {
	adjacent map[int]map[int]struct{}
}

func New() *Graph {
	return &Graph{adjacent: make(map[int]map[int]struct{})}
}

// AddEdge adds a directed edge, creating both vertices if needed.
// Adding an existing edge is a no-op.
func (g *Graph) AddEdge(from, to int) {
	g.addVertex(from)
	g.addVertex(to)
	g.adjacent[from][to] = struct{}{}
}

func (g *Graph) addVertex(v int) {
	if _, ok := g.adjacent[v]; !ok {
		g.adjacent[v] = make(map[int]struct{})
	}
}

func (g *Graph) HasVertex(v int) bool {
	_, ok := g.adjacent[v]
	return ok
}

// Vertices returns all vertices in ascending order.
func (g *Graph) Vertices() []int {
	vs := make([]int, 0, len(g.adjacent))
	for v := range g.adjacent {
		vs = append(vs, v)
	}
	slices.Sort(vs)
	return vs
}

// Neighbours returns the successors of v in ascending order.
func (g *Graph) Neighbours(v int) []int {
	ns := make([]int, 0, len(g.adjacent[v]))
	for n := range g.adjacent[v] {
		ns = append(ns, n)
	}
	slices.Sort(ns)
	return ns
}

// Traversal is the state left by a breadth-first search.
type Traversal struct {
	Source   int           `json:"source"`
	Color    map[int]Color `json:"color"`
	Distance map[int]int   `json:"distance"`
	Pred     map[int]int   `json:"pred"`
	Order    []int         `json:"order"`
}

// Reached reports whether v was discovered from the source.
func (t *Traversal) Reached(v int) bool {
	return t.Color[v] == Black
}

// Path returns the vertices from the source to v, or nil if v was not reached.
func (t *Traversal) Path(v int) []int {
	if !t.Reached(v) {
		return nil
	}
	path := []int{v}
	for v != t.Source {
		v = t.Pred[v]
		path = append(path, v)
	}
	slices.Reverse(path)
	return path
}

// BFS runs a breadth-first search from source. Neighbours are visited in
// ascending order so the result is deterministic.
func (g *Graph) BFS(source int) (*Traversal, error) {
	if !g.HasVertex(source) {
		return nil, fmt.Errorf("bfs from %d: %w", source, ErrUnknownVertex)
	}

	t := &Traversal{
		Source:   source,
		Color:    make(map[int]Color, len(g.adjacent)),
		Distance: make(map[int]int, len(g.adjacent)),
		Pred:     make(map[int]int),
	}
	for v := range g.adjacent {
		t.Color[v] = White
		t.Distance[v] = 0
	}

	t.Color[source] = Gray
	queue := []int{source}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		for _, w := range g.Neighbours(v) {
			if t.Color[w] != White {
				continue
			}
			t.Color[w] = Gray
			t.Distance[w] = t.Distance[v] + 1
			t.Pred[w] = v
			queue = append(queue, w)
		}

		t.Color[v] = Black
		t.Order = append(t.Order, v)
	}

	return t, nil
}

// String renders one line per vertex: colour, distance and predecessor.
func (t *Traversal) String() string {
	vs := make([]int, 0, len(t.Color))
	for v := range t.Color {
		vs = append(vs, v)
	}
	slices.Sort(vs)

	var b strings.Builder
	for _, v := range vs {
		fmt.Fprintf(&b, "%d: color=%s distance=%d", v, t.Color[v], t.Distance[v])
		if p, ok := t.Pred[v]; ok {
			fmt.Fprintf(&b, " pred=%d", p)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
