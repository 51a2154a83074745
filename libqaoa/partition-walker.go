package libqaoa

import (
	"sync"
	"sync/atomic"

	"github.com/arcspace/go-arc-sdk/stdlib/symbol"
	"github.com/arcspace/go-arc-sdk/stdlib/symbol/memory_table"

	"github.com/ansatz-systems/goqaoa/goqaoa"
)

// MaxBruteNodes caps exhaustive partition walks (2^23 emitted assignments).
const MaxBruteNodes = 24

// WalkOpts configures a partition enumeration.
type WalkOpts struct {
	// UniqueCuts emits only the first assignment seen for each distinct set
	// of cut edges.
	UniqueCuts bool
}

// EnumPartitions streams every two-sided partition of X's nodes as an
// Outcome (Count 1, Cut scored). Node 0 is pinned to side 0, so each
// partition is walked exactly once and its mirror-image complement never.
func EnumPartitions(X *Graph, opts WalkOpts) (*goqaoa.OutcomeStream, error) {
	if X == nil {
		return nil, goqaoa.ErrNilGraph
	}
	if X.NumNodes() > MaxBruteNodes {
		return nil, goqaoa.ErrGraphTooLarge
	}

	tableOpts := memory_table.DefaultOpts()
	emitted, err := tableOpts.CreateTable()
	if err != nil {
		return nil, err
	}

	pw := &partitionWalker{
		opts:        opts,
		graph:       NewGraph(X),
		walkingNode: 1,
		emitted:     emitted,
		EnumStream:  goqaoa.NewOutcomeStream(),
	}

	// Seed the walk with node 0 on side 0.
	if pw.graph.NumNodes() > 0 {
		pw.tryEmitFork(nil, '0')
	}

	go func() {
		pw.emitPartitions()
		pw.graph.Reclaim()
	}()

	return pw.EnumStream, nil
}

// MaxCutBrute exhaustively scores every partition of X, returning the best
// cut and how many assignments achieve it. Each walked partition stands for
// itself and its complement, so the achiever count spans the full 2^n
// assignment space.
func (X *Graph) MaxCutBrute() (bestCut int32, numBest int64, err error) {
	stream, err := EnumPartitions(X, WalkOpts{})
	if err != nil {
		return 0, 0, err
	}

	for oc := range stream.Outlet {
		switch {
		case oc.Cut > bestCut:
			bestCut = oc.Cut
			numBest = 2
		case oc.Cut == bestCut:
			numBest += 2
		}
	}
	return bestCut, numBest, nil
}

type partitionWalker struct {
	EnumStream *goqaoa.OutcomeStream
	forkCount  atomic.Uint64
	opts       WalkOpts
	graph      *Graph
	emitted    symbol.Table

	walkingNode   int       // assignment length currently being drained
	walkingQueue  partQueue // states at the current length
	deferredQueue partQueue // states one node deeper
}

// partState is a partial assignment: side[i] holds node i's side as '0'/'1'.
type partState struct {
	ParentID uint64
	ForkID   uint64
	side     []byte
	Next     *partState // next in linked queue
}

var partPool = sync.Pool{
	New: func() any {
		return &partState{
			side: make([]byte, 0, 32),
		}
	},
}

func newPartState(Xsrc *partState) *partState {
	ps := partPool.Get().(*partState)
	ps.Next = nil
	if Xsrc != nil {
		ps.ForkID = Xsrc.ForkID
		ps.ParentID = Xsrc.ForkID
		ps.side = append(ps.side[:0], Xsrc.side...)
	} else {
		ps.ForkID = 0
		ps.ParentID = 0
		ps.side = ps.side[:0]
	}
	return ps
}

// Recycles this state (and any chained after it) into a pool for reuse.
// Caller asserts that no more references to this instance will persist.
func (ps *partState) Reclaim() {
	for ps != nil {
		next := ps.Next
		ps.Next = nil
		partPool.Put(ps)
		ps = next
	}
}

func (pw *partitionWalker) tryEmitFork(X0 *partState, sideRune byte) {
	X := newPartState(X0)
	X.side = append(X.side, sideRune)

	Nv := len(X.side)
	if Nv > int(pw.graph.NumNodes()) {
		X.Reclaim()
		return
	}
	X.ForkID = pw.forkCount.Add(1)

	if Nv <= pw.walkingNode {
		pw.walkingQueue.Enqueue(X)
	} else {
		pw.deferredQueue.Enqueue(X)
	}
}

func (pw *partitionWalker) emitPartitions() {
	numNodes := int(pw.graph.NumNodes())

	for X := pw.dequeueNext(); X != nil; X = pw.dequeueNext() {

		// Incomplete assignments fork on the next node's two sides.
		if len(X.side) < numNodes {
			pw.tryEmitFork(X, '0')
			pw.tryEmitFork(X, '1')
			X.Reclaim()
			continue
		}

		bits := goqaoa.Bitstring(X.side)
		if pw.opts.UniqueCuts && !pw.isUniqueCut(bits) {
			X.Reclaim()
			continue
		}

		cut, err := pw.graph.CutSize(bits)
		if err != nil {
			panic(err)
		}
		pw.EnumStream.Outlet <- goqaoa.Outcome{
			Bits:  bits,
			Count: 1,
			Cut:   cut,
		}
		X.Reclaim()
	}

	pw.EnumStream.Close()
}

func (pw *partitionWalker) dequeueNext() *partState {
	if pw.walkingQueue.Count == 0 && pw.deferredQueue.Count > 0 {
		pw.walkingNode++
		pw.deferredQueue, pw.walkingQueue = pw.walkingQueue, pw.deferredQueue
	}
	return pw.walkingQueue.Dequeue()
}

// Returns true if no earlier assignment cut this exact edge set.
func (pw *partitionWalker) isUniqueCut(bits goqaoa.Bitstring) bool {
	var scrap [128]byte
	sig := pw.graph.appendCutSig(scrap[:0], bits)
	newlyIssued := pw.emitted.GetSymbolID(sig, false) == 0
	if newlyIssued {
		pw.emitted.GetSymbolID(sig, true)
	}
	return newlyIssued
}

// appendCutSig packs each edge's cut/uncut bit into out, edges in canonical
// order, 8 per byte.
func (X *Graph) appendCutSig(out []byte, bits goqaoa.Bitstring) []byte {
	accum := byte(0)
	nbits := 0
	for _, edge := range X.Edges() {
		accum <<= 1
		if edge.IsCut(bits) {
			accum |= 1
		}
		nbits++
		if nbits == 8 {
			out = append(out, accum)
			accum, nbits = 0, 0
		}
	}
	if nbits > 0 {
		out = append(out, accum<<(8-nbits))
	}
	return out
}

type partQueue struct {
	Head  *partState
	Tail  *partState
	Count int
}

func (queue *partQueue) Enqueue(X *partState) {
	X.Next = nil
	if queue.Tail != nil {
		queue.Tail.Next = X
	}
	queue.Tail = X
	if queue.Head == nil {
		queue.Head = X
	}
	queue.Count++
}

func (queue *partQueue) Dequeue() *partState {
	X := queue.Head
	if X == nil {
		return nil
	}
	queue.Head = X.Next
	X.Next = nil
	if queue.Tail == X {
		queue.Tail = nil
	}
	queue.Count--
	return X
}
