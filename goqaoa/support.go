package goqaoa

import (
	"math"
	"sync"
)

func NewCatalogContext() CatalogContext {
	ctx := &catalogContext{
		openCatalogs: make(map[Catalog]struct{}),
		closing:      make(chan struct{}),
		closed:       make(chan struct{}),
	}
	ctx.openCount.Add(1)
	go func() {
		<-ctx.Closing()
		ctx.openCount.Done()
		ctx.openCount.Wait()
		close(ctx.closed)
	}()
	return ctx
}

type catalogContext struct {
	mu           sync.Mutex
	openCount    sync.WaitGroup
	openCatalogs map[Catalog]struct{}
	closing      chan struct{}
	closed       chan struct{}
}

func (ctx *catalogContext) AttachCatalog(cat Catalog) {
	ctx.openCount.Add(1)
	ctx.mu.Lock()
	ctx.openCatalogs[cat] = struct{}{}
	ctx.mu.Unlock()
}

func (ctx *catalogContext) DetachCatalog(cat Catalog) {
	ctx.mu.Lock()
	if _, exists := ctx.openCatalogs[cat]; exists {
		delete(ctx.openCatalogs, cat)
		ctx.openCount.Done()
	}
	ctx.mu.Unlock()
}

func (ctx *catalogContext) Closing() <-chan struct{} {
	return ctx.closing
}

func (ctx *catalogContext) Done() <-chan struct{} {
	return ctx.closed
}

func (ctx *catalogContext) Close() {
	close(ctx.closing)
	ctx.mu.Lock()
	for cat := range ctx.openCatalogs {
		go cat.Close()
	}
	ctx.mu.Unlock()
}

// DefaultOutcomeSelector selects every valid outcome, scored or not.
var DefaultOutcomeSelector = OutcomeSelector{
	Min: OutcomeInfo{
		Cut: -1,
	},
	Max: OutcomeInfo{
		NumNodes: MaxNodes,
		Cut:      math.MaxInt32,
		Count:    math.MaxInt64,
	},
}

// AllowOutcome is a convenience function used to see if an Outcome is selected according to an OutcomeSelector.
func (sel *OutcomeSelector) AllowOutcome(oc Outcome) bool {
	numNodes := byte(len(oc.Bits))
	if numNodes < sel.Min.NumNodes || oc.Cut < sel.Min.Cut || oc.Count < sel.Min.Count {
		return false
	}
	if numNodes > sel.Max.NumNodes || oc.Cut > sel.Max.Cut || oc.Count > sel.Max.Count {
		return false
	}
	return true
}

// AllowRun is a convenience function used to see if a RunRecord is selected according to a RunSelector.
func (sel *RunSelector) AllowRun(rec *RunRecord) bool {
	if rec == nil {
		return false
	}
	if sel.MinRunID != 0 && rec.RunID < sel.MinRunID {
		return false
	}
	if sel.MaxRunID != 0 && rec.RunID > sel.MaxRunID {
		return false
	}
	if len(sel.Backend) > 0 && rec.Backend != sel.Backend {
		return false
	}
	if len(sel.GraphExpr) > 0 && rec.GraphExpr != sel.GraphExpr {
		return false
	}
	return true
}
