package main

import (
	"fmt"
	"os"
	"time"

	"github.com/plan-systems/klog"

	"github.com/ansatz-systems/goqaoa/goqaoa"
	"github.com/ansatz-systems/goqaoa/libqaoa"
	"github.com/ansatz-systems/goqaoa/libqaoa/catalog"
)

// runReport walks a catalog read-only: every stored run first, then the
// best outcomes seen across all of them.
func runReport() {
	cfg := loadRunConfig()
	if cfg.CatalogPath == "" {
		klog.Fatalf("report needs a catalog (-catalog or GOQAOA_CATALOG)")
	}

	catCtx := goqaoa.NewCatalogContext()
	defer func() {
		catCtx.Close()
		<-catCtx.Done()
	}()

	cat, err := catalog.OpenCatalog(catCtx, goqaoa.CatalogOpts{
		DbPathName: cfg.CatalogPath,
		ReadOnly:   true,
	})
	if err != nil {
		klog.Fatalf("catalog: %v", err)
	}

	// -graph and -backend narrow the report when given
	sel := goqaoa.RunSelector{
		GraphExpr: *graph,
		Backend:   *backend,
	}

	fmt.Printf("%s: %d runs\n", cfg.CatalogPath, cat.NumRuns())

	hits := make(chan *goqaoa.RunRecord, 16)
	go func() {
		cat.SelectRuns(sel, hits)
		close(hits)
	}()
	for rec := range hits {
		printRun(rec)
	}

	lb := libqaoa.NewLeaderboard(cfg.TopK)
	goqaoa.SelectFromCatalog(cat, goqaoa.DefaultOutcomeSelector).AddTo(lb).PullAll()

	fmt.Printf("\ntop %d stored outcomes:\n", lb.Size())
	lb.Emit().Print(goqaoa.NopWriteCloser(os.Stdout), goqaoa.PrintOpts{
		Ordinals: true,
		Cuts:     true,
		Counts:   true,
	}).PullAll()

	fmt.Println()
	for n := byte(1); n <= goqaoa.MaxNodes; n++ {
		if N := cat.NumOutcomes(n); N > 0 {
			fmt.Printf("%8d outcomes at %d nodes\n", N, n)
		}
	}
}

func printRun(rec *goqaoa.RunRecord) {
	when := time.Unix(rec.CreatedAt, 0).UTC().Format("2006-01-02 15:04")
	fmt.Printf("run %05d  %s  %q  p=%d shots=%d %s  best cut %d  <C> %.4f  (%s, %d evals)\n",
		rec.RunID, when, rec.GraphExpr, rec.Layers, rec.Shots, rec.Backend,
		rec.BestCut, rec.BestValue, rec.OptStatus, rec.NumEvals)
}
