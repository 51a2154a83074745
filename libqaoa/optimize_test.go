package libqaoa_test

import (
	"context"
	"errors"
	"testing"

	"gonum.org/v1/gonum/optimize"

	"github.com/ansatz-systems/goqaoa/goqaoa"
	"github.com/ansatz-systems/goqaoa/libqaoa"
)

func TestOptimizeSingleEdge(t *testing.T) {
	gT = t

	X := newGraph("0-1")
	defer X.Reclaim()

	ctx := context.Background()
	sim := libqaoa.NewSimulator()
	opts := libqaoa.OptimizeOpts{
		Layers:   1,
		Shots:    4096,
		Seed:     10,
		Init:     1.0,
		MaxEvals: 300,
	}

	res, err := libqaoa.OptimizeAngles(ctx, X, sim, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Params) != 2 {
		t.Fatalf("one layer should yield 2 angles, got %v", res.Params)
	}
	if res.Evals < 3 || res.Evals > opts.MaxEvals+10 {
		t.Fatalf("optimizer spent %d evaluations against a cap of %d", res.Evals, opts.MaxEvals)
	}
	if res.Status == optimize.NotTerminated {
		t.Fatal("optimizer returned without a terminal status")
	}

	// One layer on a lone edge can cut every shot; anything above -0.9 means
	// the search never left the starting plateau.
	if res.Value > -0.9 {
		t.Fatalf("optimizer stalled at %v", res.Value)
	}

	// Nelder-Mead keeps the best vertex, so the result never loses to the
	// starting guess.
	f0, _, err := libqaoa.EvalObjective(ctx, X, sim, goqaoa.FormParams(opts.Layers, opts.Init),
		goqaoa.RunOpts{Shots: opts.Shots, Seed: opts.Seed})
	if err != nil {
		t.Fatal(err)
	}
	if res.Value > f0+1e-12 {
		t.Fatalf("optimizer ended at %v, worse than the start %v", res.Value, f0)
	}

	// The returned histogram is the one behind the returned value.
	again, err := libqaoa.Expectation(X, res.Counts)
	if err != nil {
		t.Fatal(err)
	}
	if again != res.Value {
		t.Fatalf("histogram refolds to %v, result claims %v", again, res.Value)
	}
}

func TestOptimizeCancel(t *testing.T) {
	gT = t

	X := newGraph("0-1-2-0")
	defer X.Reclaim()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := libqaoa.OptimizeAngles(ctx, X, libqaoa.NewSimulator(), libqaoa.DefaultOptimizeOpts)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled optimize: got %v, want context.Canceled", err)
	}
}

func TestOptimizeBadOpts(t *testing.T) {
	gT = t

	X := newGraph("0-1")
	defer X.Reclaim()

	ctx := context.Background()
	sim := libqaoa.NewSimulator()

	if _, err := libqaoa.OptimizeAngles(ctx, X, sim, libqaoa.OptimizeOpts{Layers: 0, Shots: 64, MaxEvals: 10}); !errors.Is(err, goqaoa.ErrBadParams) {
		t.Fatalf("zero layers: got %v, want ErrBadParams", err)
	}
	if _, err := libqaoa.OptimizeAngles(ctx, X, sim, libqaoa.OptimizeOpts{Layers: 1, Shots: 0, MaxEvals: 10}); !errors.Is(err, goqaoa.ErrBadShotCount) {
		t.Fatalf("zero shots: got %v, want ErrBadShotCount", err)
	}
	if _, err := libqaoa.OptimizeAngles(ctx, nil, sim, libqaoa.DefaultOptimizeOpts); !errors.Is(err, goqaoa.ErrNilGraph) {
		t.Fatalf("nil graph: got %v, want ErrNilGraph", err)
	}
}

func TestEvalObjectiveRepeatable(t *testing.T) {
	gT = t

	X := newGraph("0-1-2-0")
	defer X.Reclaim()

	ctx := context.Background()
	sim := libqaoa.NewSimulator()
	params := goqaoa.Params{1.0, 1.0}
	opts := goqaoa.RunOpts{Shots: 1024, Seed: 10}

	v1, c1, err := libqaoa.EvalObjective(ctx, X, sim, params, opts)
	if err != nil {
		t.Fatal(err)
	}
	v2, c2, err := libqaoa.EvalObjective(ctx, X, sim, params, opts)
	if err != nil {
		t.Fatal(err)
	}

	if v1 != v2 {
		t.Fatalf("same seed evaluated to %v then %v", v1, v2)
	}
	if len(c1) != len(c2) {
		t.Fatalf("same seed sampled %d then %d distinct outcomes", len(c1), len(c2))
	}
	for bits, n := range c1 {
		if c2[bits] != n {
			t.Fatalf("same seed disagreed on %q: %d vs %d", bits, n, c2[bits])
		}
	}
}
