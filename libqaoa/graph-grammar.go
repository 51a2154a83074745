package libqaoa

import (
	"github.com/alecthomas/participle/v2"
	"github.com/ansatz-systems/goqaoa/goqaoa"
	"github.com/pkg/errors"
)

// GraphExpr is the parsed form of a graph construction expression:
// comma-separated runs of node IDs chained by edges, e.g. "0-1-2-3-4-5-0, 0-2".
// A run of a single node declares the node without adding an edge.
type GraphExpr struct {
	Runs []*EdgeRun `parser:"(@@ (\",\" @@)*)?"`
}

type EdgeRun struct {
	StartNode *Node  `parser:"@@"`
	Hops      []*Hop `parser:"@@*"`
}

type Hop struct {
	EndNode *Node `parser:"\"-\" @@"`
}

type Node struct {
	ID int64 `parser:"@Int"`
}

var parseGraphExpr = participle.MustBuild[GraphExpr]()

type graphBuilder struct {
	X *Graph
}

func nodeIDOf(node *Node) (NodeID, error) {
	if node.ID < 0 || node.ID >= goqaoa.MaxNodes {
		return 0, goqaoa.ErrBadNodeID
	}
	return NodeID(node.ID), nil
}

func (Xb *graphBuilder) applyRun(run *EdgeRun) error {
	onNode, err := nodeIDOf(run.StartNode)
	if err != nil {
		return err
	}
	if len(run.Hops) == 0 {
		return Xb.X.AddNode(onNode)
	}

	for _, hop := range run.Hops {
		nextNode, err := nodeIDOf(hop.EndNode)
		if err != nil {
			return err
		}
		if err := Xb.X.AddEdge(onNode, nextNode); err != nil {
			return err
		}
		onNode = nextNode
	}
	return nil
}

// InitFromExpr assigns this Graph from a construction expression.
func (X *Graph) InitFromExpr(graphExpr string) error {
	X.Init(nil)

	Xexpr, err := parseGraphExpr.ParseString("", graphExpr)
	if err != nil {
		return errors.Wrap(goqaoa.ErrBadGraphExpr, err.Error())
	}

	Xb := graphBuilder{X: X}
	for _, run := range Xexpr.Runs {
		if err := Xb.applyRun(run); err != nil {
			return err
		}
	}
	return nil
}

func NewGraphFromExpr(graphExpr string) (*Graph, error) {
	X := NewGraph(nil)
	if err := X.InitFromExpr(graphExpr); err != nil {
		X.Reclaim()
		return nil, err
	}
	return X, nil
}
