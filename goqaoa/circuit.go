package goqaoa

import (
	"fmt"
	"io"
	"math"
)

// GateKind enumerates the gate set a QAOA circuit emits.
type GateKind int32

const (
	GateNil     GateKind = iota
	GateH                // Hadamard
	GateRX               // rotation about X
	GateRZZ              // two-qubit ZZ interaction
	GateMeasure          // measure all qubits
)

func (kind GateKind) String() string {
	switch kind {
	case GateH:
		return "h"
	case GateRX:
		return "rx"
	case GateRZZ:
		return "rzz"
	case GateMeasure:
		return "measure"
	}
	return "nil"
}

// GateOp is one gate application.
type GateOp struct {
	Kind  GateKind
	Qa    int32   // first (or only) qubit operand
	Qb    int32   // second qubit operand (GateRZZ only)
	Theta float64 // rotation angle (GateRX, GateRZZ)
}

// Circuit is pure data: an ordered gate list over a fixed qubit count.
// Backends interpret it; nothing here executes.
type Circuit struct {
	NumQubits int32
	Ops       []GateOp
}

func NewCircuit(numQubits int32) (*Circuit, error) {
	if numQubits <= 0 || numQubits > MaxNodes {
		return nil, ErrBadCircuit
	}
	return &Circuit{
		NumQubits: numQubits,
		Ops:       make([]GateOp, 0, 8*numQubits),
	}, nil
}

func (circ *Circuit) AddH(q int32) {
	circ.Ops = append(circ.Ops, GateOp{Kind: GateH, Qa: q})
}

func (circ *Circuit) AddRX(q int32, theta float64) {
	circ.Ops = append(circ.Ops, GateOp{Kind: GateRX, Qa: q, Theta: theta})
}

func (circ *Circuit) AddRZZ(qa, qb int32, theta float64) {
	circ.Ops = append(circ.Ops, GateOp{Kind: GateRZZ, Qa: qa, Qb: qb, Theta: theta})
}

func (circ *Circuit) MeasureAll() {
	circ.Ops = append(circ.Ops, GateOp{Kind: GateMeasure})
}

// GateCounts tallies ops by kind.
func (circ *Circuit) GateCounts() map[GateKind]int {
	counts := make(map[GateKind]int, 4)
	for _, op := range circ.Ops {
		counts[op.Kind]++
	}
	return counts
}

func (circ *Circuit) Validate() error {
	if circ == nil || circ.NumQubits <= 0 || circ.NumQubits > MaxNodes {
		return ErrBadCircuit
	}
	for _, op := range circ.Ops {
		switch op.Kind {
		case GateH:
			if op.Qa < 0 || op.Qa >= circ.NumQubits {
				return ErrBadCircuit
			}
		case GateRX:
			if op.Qa < 0 || op.Qa >= circ.NumQubits || !isFiniteAngle(op.Theta) {
				return ErrBadCircuit
			}
		case GateRZZ:
			if op.Qa < 0 || op.Qa >= circ.NumQubits ||
				op.Qb < 0 || op.Qb >= circ.NumQubits ||
				op.Qa == op.Qb || !isFiniteAngle(op.Theta) {
				return ErrBadCircuit
			}
		case GateMeasure:
		default:
			return ErrBadCircuit
		}
	}
	return nil
}

func isFiniteAngle(theta float64) bool {
	return !math.IsNaN(theta) && !math.IsInf(theta, 0)
}

// WriteQASM writes this circuit as OpenQASM 2.0 for submission to remote devices.
// All three gate kinds are qelib1 primitives, so no custom gate defs are emitted.
func (circ *Circuit) WriteQASM(out io.Writer) error {
	if err := circ.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(out, "OPENQASM 2.0;\ninclude \"qelib1.inc\";\n")
	fmt.Fprintf(out, "qreg q[%d];\ncreg c[%d];\n", circ.NumQubits, circ.NumQubits)
	for _, op := range circ.Ops {
		switch op.Kind {
		case GateH:
			fmt.Fprintf(out, "h q[%d];\n", op.Qa)
		case GateRX:
			fmt.Fprintf(out, "rx(%.12g) q[%d];\n", op.Theta, op.Qa)
		case GateRZZ:
			fmt.Fprintf(out, "rzz(%.12g) q[%d],q[%d];\n", op.Theta, op.Qa, op.Qb)
		case GateMeasure:
			fmt.Fprintf(out, "measure q -> c;\n")
		}
	}
	return nil
}
