package libqaoa

import (
	"context"
	"math"
	"math/cmplx"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/ansatz-systems/goqaoa/goqaoa"
)

// SimMaxQubits is the widest circuit the local simulator accepts.
// A 24 qubit state is 2^24 amplitudes (256 MiB), the practical ceiling
// for a dense statevector on a workstation.
const SimMaxQubits = 24

// Simulator is a dense statevector Backend: it applies each gate to the full
// 2^n amplitude vector and samples the final distribution.
type Simulator struct{}

func NewSimulator() *Simulator {
	return &Simulator{}
}

func (sim *Simulator) Desig() string {
	return "sim"
}

func (sim *Simulator) MaxQubits() int {
	return SimMaxQubits
}

func (sim *Simulator) IsSimulator() bool {
	return true
}

// Run executes circ and returns a histogram of opts.Shots samples drawn from
// the final state. Measurement ops carry no state change here; the sample is
// always taken once the gate list is exhausted.
//
// A zero opts.Seed samples from the clock; any other seed makes the histogram
// reproducible.
func (sim *Simulator) Run(ctx context.Context, circ *goqaoa.Circuit, opts goqaoa.RunOpts) (goqaoa.Counts, error) {
	if err := circ.Validate(); err != nil {
		return nil, err
	}
	if int(circ.NumQubits) > SimMaxQubits {
		return nil, goqaoa.ErrTooManyQubits
	}
	if opts.Shots <= 0 {
		return nil, goqaoa.ErrBadShotCount
	}

	psi := newStatevector(circ.NumQubits)
	defer psi.Reclaim()

	for _, op := range circ.Ops {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		switch op.Kind {
		case goqaoa.GateH:
			psi.applyH(int(op.Qa))
		case goqaoa.GateRX:
			psi.applyRX(int(op.Qa), op.Theta)
		case goqaoa.GateRZZ:
			psi.applyRZZ(int(op.Qa), int(op.Qb), op.Theta)
		case goqaoa.GateMeasure:
		}
	}

	return psi.sample(opts), nil
}

// statevector holds 2^numQubits amplitudes, qubit q at bit q of the index.
type statevector struct {
	numQubits int32
	amps      []complex128
}

var psiPool = sync.Pool{
	New: func() interface{} {
		return new(statevector)
	},
}

// newStatevector fetches a pooled vector initialized to |00..0>.
func newStatevector(numQubits int32) *statevector {
	psi := psiPool.Get().(*statevector)
	dim := 1 << numQubits
	if cap(psi.amps) < dim {
		psi.amps = make([]complex128, dim)
	} else {
		psi.amps = psi.amps[:dim]
		for i := range psi.amps {
			psi.amps[i] = 0
		}
	}
	psi.numQubits = numQubits
	psi.amps[0] = 1
	return psi
}

func (psi *statevector) Reclaim() {
	if psi != nil {
		psiPool.Put(psi)
	}
}

func (psi *statevector) applyH(q int) {
	mask := 1 << q
	rt2 := complex(math.Sqrt2/2, 0)
	for i := range psi.amps {
		if i&mask == 0 {
			a0 := psi.amps[i]
			a1 := psi.amps[i|mask]
			psi.amps[i] = rt2 * (a0 + a1)
			psi.amps[i|mask] = rt2 * (a0 - a1)
		}
	}
}

func (psi *statevector) applyRX(q int, theta float64) {
	mask := 1 << q
	cosT := complex(math.Cos(theta/2), 0)
	sinT := complex(0, -math.Sin(theta/2))
	for i := range psi.amps {
		if i&mask == 0 {
			a0 := psi.amps[i]
			a1 := psi.amps[i|mask]
			psi.amps[i] = cosT*a0 + sinT*a1
			psi.amps[i|mask] = sinT*a0 + cosT*a1
		}
	}
}

// applyRZZ phases each basis state by -theta/2 when qubits qa and qb agree
// and +theta/2 when they differ.
func (psi *statevector) applyRZZ(qa, qb int, theta float64) {
	maskA := 1 << qa
	maskB := 1 << qb
	same := cmplx.Exp(complex(0, -theta/2))
	diff := cmplx.Exp(complex(0, theta/2))
	for i := range psi.amps {
		if (i&maskA == 0) == (i&maskB == 0) {
			psi.amps[i] *= same
		} else {
			psi.amps[i] *= diff
		}
	}
}

// sample draws opts.Shots basis states from |amp|^2 via the cumulative
// distribution. Summing to the observed total (rather than assuming 1.0)
// absorbs rounding drift from long gate sequences.
func (psi *statevector) sample(opts goqaoa.RunOpts) goqaoa.Counts {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))

	cumul := make([]float64, len(psi.amps))
	total := 0.0
	for i, a := range psi.amps {
		total += real(a)*real(a) + imag(a)*imag(a)
		cumul[i] = total
	}

	counts := make(goqaoa.Counts, 32)
	numNodes := byte(psi.numQubits)
	for s := 0; s < opts.Shots; s++ {
		r := rnd.Float64() * total
		idx := sort.SearchFloat64s(cumul, r)
		if idx >= len(cumul) {
			idx = len(cumul) - 1
		}
		counts[goqaoa.FormatBits(uint64(idx), numNodes)]++
	}
	return counts
}
