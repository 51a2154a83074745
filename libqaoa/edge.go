package libqaoa

import (
	"sort"

	"github.com/ansatz-systems/goqaoa/goqaoa"
)

// NodeID indexes a graph node (zero-based).
type NodeID int32

// EdgeID packs an unordered node pair into (lo << 8) | hi, where lo < hi.
// Ascending EdgeID order is therefore canonical: by lower node, then higher.
type EdgeID uint16

// FormEdge forms the canonical EdgeID for the unordered pair {a, b}.
func FormEdge(a, b NodeID) EdgeID {
	if a > b {
		a, b = b, a
	}
	return (EdgeID(a) << 8) | EdgeID(b)
}

func (edge EdgeID) NodeA() NodeID {
	return NodeID(edge >> 8)
}

func (edge EdgeID) NodeB() NodeID {
	return NodeID(edge & 0xFF)
}

// NodeIdx returns both endpoints as 0-based ints for direct indexing.
func (edge EdgeID) NodeIdx() (a, b int) {
	a = int(edge >> 8)
	b = int(edge & 0xFF)
	return
}

// IsCut returns whether this edge's endpoints land on opposite partition sides.
func (edge EdgeID) IsCut(bits goqaoa.Bitstring) bool {
	a, b := edge.NodeIdx()
	return bits[a] != bits[b]
}

type EdgeList []EdgeID

func (es EdgeList) Len() int           { return len(es) }
func (es EdgeList) Swap(i, j int)      { es[i], es[j] = es[j], es[i] }
func (es EdgeList) Less(i, j int) bool { return es[i] < es[j] }

// Canonicalize sorts this list and drops duplicate pairs, returning the
// (possibly shortened) canonical list.
func (es EdgeList) Canonicalize() EdgeList {
	sort.Sort(es)
	D := 0
	for i, edge := range es {
		if i > 0 && edge == es[D-1] {
			continue
		}
		es[D] = edge
		D++
	}
	return es[:D]
}
