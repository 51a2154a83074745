package libqaoa_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ansatz-systems/goqaoa/goqaoa"
	"github.com/ansatz-systems/goqaoa/libqaoa"
)

var gT *testing.T

func newGraph(graphExpr string) *libqaoa.Graph {
	X, err := libqaoa.NewGraphFromExpr(graphExpr)
	if err != nil {
		gT.Fatalf("parse %q failed: %v", graphExpr, err)
	}
	return X
}

func checkObjective(X *libqaoa.Graph, bits goqaoa.Bitstring, want float64) {
	obj, err := X.Objective(bits)
	if err != nil {
		gT.Fatalf("Objective(%q) failed: %v", bits, err)
	}
	if obj != want {
		gT.Fatalf("Objective(%q):\n got: %v\nwant: %v", bits, obj, want)
	}
}

func TestTriangleObjective(t *testing.T) {
	gT = t

	X := newGraph("0-1-2-0")
	defer X.Reclaim()

	if X.NumNodes() != 3 || X.NumEdges() != 3 {
		t.Fatalf("triangle parsed to %d nodes, %d edges", X.NumNodes(), X.NumEdges())
	}

	// Only the two monochrome assignments cut nothing.
	checkObjective(X, "000", 0)
	checkObjective(X, "100", -2)
	checkObjective(X, "010", -2)
	checkObjective(X, "110", -2)
	checkObjective(X, "001", -2)
	checkObjective(X, "101", -2)
	checkObjective(X, "011", -2)
	checkObjective(X, "111", 0)

	// Scoring is a pure function of the assignment.
	checkObjective(X, "010", -2)

	if _, err := X.CutSize("01"); !errors.Is(err, goqaoa.ErrBadBitstring) {
		t.Fatalf("short bitstring: got %v, want ErrBadBitstring", err)
	}
	if _, err := X.CutSize("01x"); !errors.Is(err, goqaoa.ErrBadBitstring) {
		t.Fatalf("junk bitstring: got %v, want ErrBadBitstring", err)
	}

	var nilX *libqaoa.Graph
	if _, err := nilX.CutSize("000"); !errors.Is(err, goqaoa.ErrNilGraph) {
		t.Fatalf("nil graph: got %v, want ErrNilGraph", err)
	}
}

func checkExpr(graphExpr, canonic string, numNodes, numEdges int32) {
	X := newGraph(graphExpr)
	defer X.Reclaim()

	if X.NumNodes() != numNodes || X.NumEdges() != numEdges {
		gT.Fatalf("%q parsed to %d nodes, %d edges:\nwant %d nodes, %d edges",
			graphExpr, X.NumNodes(), X.NumEdges(), numNodes, numEdges)
	}
	if got := X.ExprString(); got != canonic {
		gT.Fatalf("%q printed as %q, want %q", graphExpr, got, canonic)
	}

	// The canonic form reparses to itself.
	X2 := newGraph(canonic)
	defer X2.Reclaim()
	if got := X2.ExprString(); got != canonic {
		gT.Fatalf("canonic %q reprinted as %q", canonic, got)
	}
}

func checkBadExpr(graphExpr string, want error) {
	X, err := libqaoa.NewGraphFromExpr(graphExpr)
	if err == nil {
		X.Reclaim()
		gT.Fatalf("%q parsed but should have failed", graphExpr)
	}
	if !errors.Is(err, want) {
		gT.Fatalf("%q failed with %v, want %v", graphExpr, err, want)
	}
}

func TestGraphExprs(t *testing.T) {
	gT = t

	checkExpr("0-1-2-0", "0-1-2-0", 3, 3)
	checkExpr("0-1-2-3-4-5-0, 0-2", "0-1-2-0-5-4-3-2", 6, 7)
	checkExpr("1-0", "0-1", 2, 1)
	checkExpr("0, 2", "0, 1, 2", 3, 0)
	checkExpr("0-1, 1-0, 0-1", "0-1", 2, 1)
	checkExpr("", "", 0, 0)

	checkBadExpr("0-", goqaoa.ErrBadGraphExpr)
	checkBadExpr("a-b", goqaoa.ErrBadGraphExpr)
	checkBadExpr("0-0", goqaoa.ErrBadEdge)
	checkBadExpr("0-48", goqaoa.ErrBadNodeID)
}

func TestEdgePacking(t *testing.T) {
	gT = t

	edge := libqaoa.FormEdge(5, 2)
	if edge.NodeA() != 2 || edge.NodeB() != 5 {
		t.Fatalf("FormEdge(5,2) unpacked to (%d,%d)", edge.NodeA(), edge.NodeB())
	}
	if libqaoa.FormEdge(2, 5) != edge {
		t.Fatal("edge packing is not canonical")
	}

	if !edge.IsCut("001000") {
		t.Fatal("edge 2-5 should be cut by 001000")
	}
	if edge.IsCut("001001") {
		t.Fatal("edge 2-5 should not be cut by 001001")
	}
}

func TestPrintHistogram(t *testing.T) {
	gT = t

	X := newGraph("0-1")
	defer X.Reclaim()

	counts := goqaoa.Counts{"00": 5, "01": 7}
	b := strings.Builder{}
	n := libqaoa.PrintHistogram(&b, X, counts, goqaoa.PrintOpts{
		Ordinals: true,
		Cuts:     true,
		Counts:   true,
	})
	if n != 2 {
		t.Fatalf("printed %d lines, want 2", n)
	}

	want := "000001,00,cut=0,n=5\n000002,01,cut=1,n=7\n"
	if got := b.String(); got != want {
		t.Fatalf("histogram printed:\n%q\nwant:\n%q", got, want)
	}
}
