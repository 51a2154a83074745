package libqaoa

import (
	"context"
	"time"

	"github.com/ansatz-systems/goqaoa/goqaoa"
	"gonum.org/v1/gonum/optimize"
)

// EvalObjective builds the ansatz for the given angles, runs it on be, and
// folds the sampled histogram into the Max-Cut expectation. The histogram is
// returned alongside so callers keeping the best run don't pay for a re-run.
func EvalObjective(ctx context.Context, X *Graph, be goqaoa.Backend, params goqaoa.Params, opts goqaoa.RunOpts) (float64, goqaoa.Counts, error) {
	circ, err := BuildCircuit(X, params)
	if err != nil {
		return 0, nil, err
	}
	counts, err := be.Run(ctx, circ, opts)
	if err != nil {
		return 0, nil, err
	}
	value, err := Expectation(X, counts)
	if err != nil {
		return 0, nil, err
	}
	return value, counts, nil
}

// OptimizeOpts sets up an angle search.
type OptimizeOpts struct {
	Layers   int     // ansatz depth p (2p angles are optimized)
	Shots    int     // samples per objective evaluation
	Seed     int64   // 0 draws a seed from the clock, else reproducible
	Init     float64 // initial value for every angle
	MaxEvals int     // objective evaluation budget
}

var DefaultOptimizeOpts = OptimizeOpts{
	Layers:   1,
	Shots:    1024,
	Init:     1.0,
	MaxEvals: 200,
}

// OptimizeResult is what an angle search produced.
type OptimizeResult struct {
	Params goqaoa.Params   // best angles found
	Value  float64         // expectation at Params
	Counts goqaoa.Counts   // histogram sampled at Params
	Status optimize.Status // terminal optimizer status, unmapped
	Evals  int             // objective evaluations spent
}

// OptimizeAngles searches for angles minimizing the Max-Cut expectation with
// derivative-free Nelder-Mead, starting from the flat all-Init guess.
//
// Every evaluation reuses one seed, so the sampled objective is a fixed
// deterministic function of the angles and the search (and its result) is
// reproducible. When opts.Seed is 0 that seed is drawn from the clock once,
// up front.
func OptimizeAngles(ctx context.Context, X *Graph, be goqaoa.Backend, opts OptimizeOpts) (*OptimizeResult, error) {
	if X == nil {
		return nil, goqaoa.ErrNilGraph
	}
	if opts.Layers < 1 || opts.MaxEvals < 1 {
		return nil, goqaoa.ErrBadParams
	}
	if opts.Shots <= 0 {
		return nil, goqaoa.ErrBadShotCount
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	runOpts := goqaoa.RunOpts{
		Shots: opts.Shots,
		Seed:  seed,
	}

	var evalErr error
	prob := optimize.Problem{
		Func: func(x []float64) float64 {
			if evalErr != nil {
				return 0
			}
			value, _, err := EvalObjective(ctx, X, be, goqaoa.Params(x), runOpts)
			if err != nil {
				evalErr = err
				return 0
			}
			return value
		},
		Status: func() (optimize.Status, error) {
			if evalErr != nil {
				return optimize.Failure, evalErr
			}
			select {
			case <-ctx.Done():
				return optimize.Failure, ctx.Err()
			default:
				return optimize.NotTerminated, nil
			}
		},
	}

	x0 := goqaoa.FormParams(opts.Layers, opts.Init)
	settings := &optimize.Settings{
		FuncEvaluations: opts.MaxEvals,
	}

	res, err := optimize.Minimize(prob, x0, settings, &optimize.NelderMead{})
	if evalErr != nil {
		return nil, evalErr
	}
	if err != nil {
		return nil, err
	}

	best := goqaoa.Params(append([]float64(nil), res.X...))

	// One more run at the chosen angles captures the histogram they produce.
	// Same seed, so its expectation is exactly the optimizer's final F.
	value, counts, err := EvalObjective(ctx, X, be, best, runOpts)
	if err != nil {
		return nil, err
	}

	return &OptimizeResult{
		Params: best,
		Value:  value,
		Counts: counts,
		Status: res.Status,
		Evals:  res.Stats.FuncEvaluations,
	}, nil
}
