package libqaoa

import (
	"github.com/ansatz-systems/goqaoa/goqaoa"
)

// BuildCircuit lays down the QAOA ansatz for a graph and angle set:
//
//	H on every qubit, then for each layer i:
//	    RZZ(2*gamma[i]) across every edge,
//	    RX(2*beta[i]) on every qubit,
//	and a final measurement of all qubits.
//
// Qubit q carries node q's side of the partition, so a sampled bitstring is
// read directly as a cut assignment.
func BuildCircuit(X *Graph, params goqaoa.Params) (*goqaoa.Circuit, error) {
	if X == nil {
		return nil, goqaoa.ErrNilGraph
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	numQubits := X.NumNodes()
	circ, err := goqaoa.NewCircuit(numQubits)
	if err != nil {
		return nil, err
	}

	for q := int32(0); q < numQubits; q++ {
		circ.AddH(q)
	}

	beta, gamma := params.Split()
	for layer := range beta {
		for _, edge := range X.Edges() {
			a, b := edge.NodeIdx()
			circ.AddRZZ(int32(a), int32(b), 2*gamma[layer])
		}
		for q := int32(0); q < numQubits; q++ {
			circ.AddRX(q, 2*beta[layer])
		}
	}

	circ.MeasureAll()
	return circ, nil
}
