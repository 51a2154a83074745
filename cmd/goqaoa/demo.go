package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/plan-systems/klog"

	"github.com/ansatz-systems/goqaoa/goqaoa"
	"github.com/ansatz-systems/goqaoa/libqaoa"
	"github.com/ansatz-systems/goqaoa/libqaoa/catalog"
	"github.com/ansatz-systems/goqaoa/libqaoa/cloud"
	"github.com/ansatz-systems/goqaoa/libqaoa/config"
)

// loadRunConfig resolves defaults, then the config file, then GOQAOA_* env
// values, then CLI flags (which win).
func loadRunConfig() config.Config {
	cfg, err := config.Load(*cfgFile)
	if err != nil {
		klog.Fatalf("config: %v", err)
	}

	if *graph != "" {
		cfg.GraphExpr = *graph
	}
	if *layers > 0 {
		cfg.Layers = *layers
	}
	if *shots > 0 {
		cfg.Shots = *shots
	}
	if *seed != 0 {
		cfg.Seed = *seed
		if cfg.Seed < 0 {
			cfg.Seed = 0
		}
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *catPath != "" {
		cfg.CatalogPath = *catPath
	}
	if *histPng != "" {
		cfg.HistPath = *histPng
	}
	if *dotPath != "" {
		cfg.DotPath = *dotPath
	}
	if *topK > 0 {
		cfg.TopK = *topK
	}

	if err := cfg.Validate(); err != nil {
		klog.Fatalf("config: %v", err)
	}
	return cfg
}

func pickBackend(ctx context.Context, cfg config.Config) (goqaoa.Backend, error) {
	if cfg.Backend == config.BackendSim {
		return libqaoa.NewSimulator(), nil
	}

	pv, err := cloud.NewProvider(cloud.ProviderOpts{
		APIRoot:   cfg.Cloud.APIRoot,
		PollEvery: cfg.Cloud.PollEvery,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return pv.LeastBusy(ctx, cfg.Cloud.MinQubits)
}

func runDemo() {
	cfg := loadRunConfig()
	ctx := context.Background()

	X, err := libqaoa.NewGraphFromExpr(cfg.GraphExpr)
	if err != nil {
		klog.Fatalf("graph %q: %v", cfg.GraphExpr, err)
	}

	be, err := pickBackend(ctx, cfg)
	if err != nil {
		klog.Fatalf("backend: %v", err)
	}

	klog.Infof("optimizing %q on %s: p=%d, %d shots/eval, seed %d",
		cfg.GraphExpr, be.Desig(), cfg.Layers, cfg.Shots, cfg.Seed)

	opts := libqaoa.DefaultOptimizeOpts
	opts.Layers = cfg.Layers
	opts.Shots = cfg.Shots
	opts.Seed = cfg.Seed

	startTime := time.Now()
	result, err := libqaoa.OptimizeAngles(ctx, X, be, opts)
	if err != nil {
		klog.Fatalf("optimize: %v", err)
	}
	klog.Infof("search done in %v: %d evals, <C> = %.4f",
		time.Since(startTime), result.Evals, result.Value)

	// Final sample at the best angles found
	circ, err := libqaoa.BuildCircuit(X, result.Params)
	if err != nil {
		klog.Fatalf("circuit: %v", err)
	}
	counts, err := be.Run(ctx, circ, goqaoa.RunOpts{Shots: cfg.Shots, Seed: cfg.Seed})
	if err != nil {
		klog.Fatalf("final sample: %v", err)
	}

	best, err := libqaoa.BestObserved(X, counts)
	if err != nil {
		klog.Fatalf("scoring: %v", err)
	}

	beta, gamma := result.Params.Split()
	fmt.Printf("graph      %s   (%d nodes, %d edges)\n", cfg.GraphExpr, X.NumNodes(), X.NumEdges())
	fmt.Printf("angles     beta %.4f  gamma %.4f\n", beta, gamma)
	fmt.Printf("<C>        %.4f after %d evals (%v)\n", result.Value, result.Evals, result.Status)
	fmt.Printf("best cut   %d by %s (%d of %d shots)\n", best.Cut, best.Bits, best.Count, counts.NumSamples())

	if X.NumNodes() <= libqaoa.MaxBruteNodes {
		exact, numBest, err := X.MaxCutBrute()
		if err == nil {
			fmt.Printf("exact      %d, achieved by %d of %d assignments\n",
				exact, numBest, int64(1)<<X.NumNodes())
		}
	}

	lb := libqaoa.NewLeaderboard(cfg.TopK)
	goqaoa.StreamCounts(counts, X.CutFunc()).AddTo(lb).PullAll()

	fmt.Printf("\ntop %d of %d distinct assignments:\n", lb.Size(), len(counts))
	lb.Emit().Print(goqaoa.NopWriteCloser(os.Stdout), goqaoa.PrintOpts{
		Ordinals: true,
		Cuts:     true,
		Counts:   true,
	}).PullAll()

	writeArtifacts(cfg, X, counts)

	if cfg.CatalogPath != "" {
		storeRun(cfg, X, be, result, best, counts)
	}
}

func writeArtifacts(cfg config.Config, X *libqaoa.Graph, counts goqaoa.Counts) {
	if cfg.HistPath != "" {
		if err := libqaoa.RenderHistogram(counts, cfg.TopK, cfg.HistPath); err != nil {
			klog.Errorf("histogram: %v", err)
		} else {
			klog.Infof("wrote %s", cfg.HistPath)
		}
	}

	if cfg.DotPath != "" {
		out, err := os.Create(cfg.DotPath)
		if err != nil {
			klog.Errorf("dot: %v", err)
			return
		}
		if err := libqaoa.WriteDOT(X, "maxcut", out); err != nil {
			klog.Errorf("dot: %v", err)
		}
		out.Close()
		klog.Infof("wrote %s", cfg.DotPath)
	}
}

func storeRun(
	cfg config.Config,
	X *libqaoa.Graph,
	be goqaoa.Backend,
	result *libqaoa.OptimizeResult,
	best goqaoa.Outcome,
	counts goqaoa.Counts) {

	catCtx := goqaoa.NewCatalogContext()
	defer func() {
		catCtx.Close()
		<-catCtx.Done()
	}()

	cat, err := catalog.OpenCatalog(catCtx, goqaoa.CatalogOpts{
		DbPathName: cfg.CatalogPath,
	})
	if err != nil {
		klog.Errorf("catalog: %v", err)
		return
	}

	rec := &goqaoa.RunRecord{
		CreatedAt:  time.Now().Unix(),
		GraphExpr:  X.ExprString(),
		NumNodes:   X.NumNodes(),
		NumEdges:   X.NumEdges(),
		Layers:     int32(cfg.Layers),
		Shots:      int32(cfg.Shots),
		Seed:       cfg.Seed,
		Backend:    be.Desig(),
		BestParams: result.Params,
		BestValue:  result.Value,
		BestCut:    best.Cut,
		OptStatus:  result.Status.String(),
		NumEvals:   int32(result.Evals),
	}
	if err := rec.SetCounts(counts); err != nil {
		klog.Errorf("catalog: %v", err)
		return
	}

	runID, err := cat.AddRun(rec)
	if err != nil {
		klog.Errorf("catalog: %v", err)
		return
	}

	added := goqaoa.StreamCounts(counts, X.CutFunc()).AddTo(cat).PullAll()
	klog.Infof("stored run #%d (+%d new outcomes) in %s", runID, added, cfg.CatalogPath)
}
