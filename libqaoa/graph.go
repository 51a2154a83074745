package libqaoa

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ansatz-systems/goqaoa/goqaoa"
	"gonum.org/v1/gonum/graph/simple"
)

// Graph is the problem graph for a Max-Cut run: undirected, unweighted,
// nodes labeled 0..NumNodes-1, edges kept as a canonical sorted EdgeList.
type Graph struct {
	nodeCount int32
	edgeCount int32
	edges     [goqaoa.MaxEdges]EdgeID
}

func NewGraph(Xsrc *Graph) *Graph {
	X := graphPool.Get().(*Graph)
	X.Init(Xsrc)
	return X
}

func (X *Graph) Init(Xsrc *Graph) {
	if X == Xsrc {
		return
	}

	if Xsrc == nil {
		X.nodeCount = 0
		X.edgeCount = 0
		return
	}
	X.nodeCount = Xsrc.nodeCount
	X.edgeCount = Xsrc.edgeCount
	copy(X.Edges(), Xsrc.Edges())
}

// Reclaim recycles this Graph into a pool for reuse.
// Caller asserts that no more references to this instance will persist.
func (X *Graph) Reclaim() {
	if X != nil {
		graphPool.Put(X)
	}
}

var graphPool = sync.Pool{
	New: func() interface{} {
		return new(Graph)
	},
}

func (X *Graph) NumNodes() int32 {
	return X.nodeCount
}

func (X *Graph) NumEdges() int32 {
	return X.edgeCount
}

func (X *Graph) Edges() EdgeList {
	return X.edges[:X.edgeCount]
}

// AddNode ensures node n exists, growing the node count as needed.
func (X *Graph) AddNode(n NodeID) error {
	if n < 0 || n >= goqaoa.MaxNodes {
		return goqaoa.ErrBadNodeID
	}
	if X.nodeCount < int32(n)+1 {
		X.nodeCount = int32(n) + 1
	}
	return nil
}

// AddEdge adds the unordered edge {a, b}. Re-adding an existing edge is a
// no-op (the graph is unweighted), and self edges are rejected since they
// can never be cut.
func (X *Graph) AddEdge(a, b NodeID) error {
	if a == b {
		return goqaoa.ErrBadEdge
	}
	if err := X.AddNode(a); err != nil {
		return err
	}
	if err := X.AddNode(b); err != nil {
		return err
	}

	edge := FormEdge(a, b)
	for _, ei := range X.Edges() {
		if ei == edge {
			return nil
		}
	}

	// Insert in place, keeping the edge list canonical.
	i := X.edgeCount
	for i > 0 && X.edges[i-1] > edge {
		X.edges[i] = X.edges[i-1]
		i--
	}
	X.edges[i] = edge
	X.edgeCount++
	return nil
}

// AddPath adds an edge between each consecutive node pair.
func (X *Graph) AddPath(nodes ...NodeID) error {
	if len(nodes) == 0 {
		return goqaoa.ErrBadNodeID
	}
	if err := X.AddNode(nodes[0]); err != nil {
		return err
	}
	for i := 1; i < len(nodes); i++ {
		if err := X.AddEdge(nodes[i-1], nodes[i]); err != nil {
			return err
		}
	}
	return nil
}

// CutSize returns the number of edges whose endpoints land on opposite
// partition sides of the given assignment.
func (X *Graph) CutSize(bits goqaoa.Bitstring) (int32, error) {
	if X == nil {
		return 0, goqaoa.ErrNilGraph
	}
	if int32(len(bits)) != X.nodeCount {
		return 0, goqaoa.ErrBadBitstring
	}
	if _, err := bits.StateIndex(); err != nil {
		return 0, err
	}

	cut := int32(0)
	for _, edge := range X.Edges() {
		if edge.IsCut(bits) {
			cut++
		}
	}
	return cut, nil
}

// Objective is the Max-Cut objective surfaced to the minimizer: the negated
// cut size, so that smaller is better.
func (X *Graph) Objective(bits goqaoa.Bitstring) (float64, error) {
	cut, err := X.CutSize(bits)
	if err != nil {
		return 0, err
	}
	return -float64(cut), nil
}

// CutFunc returns a stream scorer for this graph.
// Assignments that don't fit the graph score -1 (unscored).
func (X *Graph) CutFunc() goqaoa.CutFunc {
	return func(bits goqaoa.Bitstring) int32 {
		cut, err := X.CutSize(bits)
		if err != nil {
			return -1
		}
		return cut
	}
}

// Undirected exports this graph as a gonum graph for DOT export and layout.
func (X *Graph) Undirected() *simple.UndirectedGraph {
	dst := simple.NewUndirectedGraph()
	for n := int64(0); n < int64(X.nodeCount); n++ {
		dst.AddNode(simple.Node(n))
	}
	for _, edge := range X.Edges() {
		a, b := edge.NodeIdx()
		dst.SetEdge(simple.Edge{F: simple.Node(a), T: simple.Node(b)})
	}
	return dst
}

var comma = []byte(", ")

// WriteAsString writes this graph as a construction expression, combining
// edges into runs where possible (e.g. "0-1-2-0").
func (X *Graph) WriteAsString(out io.Writer) {
	var onRun [goqaoa.MaxNodes]bool
	for _, edge := range X.Edges() {
		a, b := edge.NodeIdx()
		onRun[a] = true
		onRun[b] = true
	}

	// Isolated nodes first
	needsBreak := false
	for n := int32(0); n < X.nodeCount; n++ {
		if !onRun[n] {
			if needsBreak {
				out.Write(comma)
			}
			fmt.Fprintf(out, "%d", n)
			needsBreak = true
		}
	}

	// Print edges -- chain into runs where consecutive edges share a node
	{
		Ne := X.edgeCount
		e := make(EdgeList, Ne)
		copy(e, X.Edges())

		prev := NodeID(-1)
		for i := int32(0); i < Ne; i++ {

			// Look for an edge we can chain onto the previous endpoint
			edge := e[i]
			if prev >= 0 {
				for j := i; j < Ne; j++ {
					aj, bj := e[j].NodeA(), e[j].NodeB()
					if aj == prev || bj == prev {
						edge = e[j]
						e[j] = e[i]
						break
					}
				}
			}

			a, b := edge.NodeA(), edge.NodeB()
			if b == prev {
				a, b = b, a
			}

			// If we can't chain, print a sep then the first node
			if a != prev {
				if needsBreak {
					out.Write(comma)
				}
				fmt.Fprintf(out, "%d", a)
			}
			fmt.Fprintf(out, "-%d", b)
			prev = b
			needsBreak = true
		}
	}
}

// ExprString returns the construction expression form of this graph.
func (X *Graph) ExprString() string {
	b := strings.Builder{}
	b.Grow(128)
	X.WriteAsString(&b)
	return b.String()
}
