package goqaoa

import (
	"context"
)

const (

	// MaxNodes is the max number of nodes in a graph, chosen so that any
	// partition assignment packs into the low bits of an OutcomeID.
	MaxNodes = 48

	// MaxEdges is the max possible edge count for the largest graph possible.
	MaxEdges = MaxNodes * (MaxNodes - 1) / 2
)

// Bitstring is a measured basis state: character i is '0' or '1' and gives
// the partition side of node (qubit) i.
type Bitstring string

// Counts is a measurement histogram: each observed Bitstring and how many
// shots returned it.
type Counts map[Bitstring]int64

// CountsLSM is the canonical LSM binary encoding of a Counts.
type CountsLSM []byte

// OutcomeID uniquely identifies a measured assignment: node count in the
// high byte, basis state index in the low 48 bits.
type OutcomeID uint64

// Params is a flat QAOA angle vector: the first half are the mixer angles
// (beta), the second half the phase separation angles (gamma), one
// (beta, gamma) pair per circuit layer.
type Params []float64

// Outcome is one sampled assignment traveling through an OutcomeStream.
type Outcome struct {
	Bits  Bitstring // measured assignment
	Count int64     // number of shots that returned Bits
	Cut   int32     // cut size of Bits, or -1 if not scored
}

// CutFunc scores an assignment, returning the number of edges it cuts.
type CutFunc func(bits Bitstring) int32

// OnOutcomeHit is a callback chan used to return Outcomes meeting a set of selection criteria.
// Ownership of an Outcome travels through the channel.
type OnOutcomeHit chan<- Outcome

// OnRunHit is a callback chan used to return RunRecords meeting a set of selection criteria.
type OnRunHit chan<- *RunRecord

// RunOpts specifies how a Backend executes a Circuit.
type RunOpts struct {
	Shots int   // number of samples to draw
	Seed  int64 // sampling seed; 0 seeds from the clock
}

// DefaultRunOpts{}
var DefaultRunOpts = RunOpts{
	Shots: 1024,
}

// Backend executes circuits and returns measurement histograms.
//
// A Backend may be a local simulator or a remote device; the pipeline does
// not distinguish.
type Backend interface {

	// Desig returns a short designation for this backend (e.g. "sim").
	Desig() string

	// MaxQubits returns the widest circuit this backend accepts.
	MaxQubits() int

	IsSimulator() bool

	// Run executes the given circuit, blocking until the histogram is
	// complete, an error occurs, or ctx is canceled.
	Run(ctx context.Context, circ *Circuit, opts RunOpts) (Counts, error)
}

// CatalogContext is a container for open / active Catalog instances.
type CatalogContext interface {

	// Attaches the given Catalog to this context.
	AttachCatalog(cat Catalog)

	// Detaches the given Catalog from this context.
	DetachCatalog(cat Catalog)

	// Closes all open catalogs then closes this context.
	Close()

	// Signals when Close() completed and all open Catalogs have been closed
	Done() <-chan struct{}
}

// CatalogOpts specifies params for opening a run Catalog.
type CatalogOpts struct {
	DbPathName string // omit for an in-memory db
	ReadOnly   bool   // open in read-only mode
}

type OutcomeAdder interface {

	// Tries to add the given outcome to this container.
	// If true is returned, the assignment did not exist and was added.
	TryAddOutcome(oc Outcome) bool
}

// Catalog wraps a database of QAOA runs and the unique outcomes they observed.
type Catalog interface {
	OutcomeAdder

	// Returns true if this catalog was opened for read-only access.
	IsReadOnly() bool

	// NumRuns returns the number of runs recorded in this catalog.
	NumRuns() int64

	// NumOutcomes returns the number of unique outcomes in this catalog for a
	// given node count. An out of bounds node count returns 0.
	NumOutcomes(forNodeCount byte) int64

	// AddRun appends the given run record, issuing and returning its RunID.
	AddRun(rec *RunRecord) (uint64, error)

	// GetRun loads a run record by ID.
	GetRun(runID uint64) (*RunRecord, error)

	// SelectRuns fires onHit with each recorded run meeting the selection criteria.
	SelectRuns(sel RunSelector, onHit OnRunHit)

	// SelectOutcomes fires onHit with each stored outcome meeting the selection criteria.
	SelectOutcomes(sel OutcomeSelector, onHit OnOutcomeHit)

	Close() error
}

// OutcomeInfo bounds an Outcome for selection.
type OutcomeInfo struct {
	NumNodes byte
	Cut      int32
	Count    int64
}

// OutcomeSelector is an operator that either selects a given Outcome or not.
type OutcomeSelector struct {
	Min OutcomeInfo // lower select bounds
	Max OutcomeInfo // upper select bounds
}

// RunSelector is an operator that either selects a given RunRecord or not.
type RunSelector struct {
	MinRunID  uint64 // lowest RunID selected; 0 denotes no lower bound
	MaxRunID  uint64 // highest RunID selected; 0 denotes no upper bound
	Backend   string // if set, only runs executed on this backend desig
	GraphExpr string // if set, only runs of this graph expression
}

// PrintOpts specifies what is printed when printing an outcome.
type PrintOpts struct {
	Label    string // prefix label
	Ordinals bool   // if set, prints a one-based ordinal for each line
	Cuts     bool   // if set, prints the cut size of each outcome
	Counts   bool   // if set, prints observed counts
}

// DefaultPrintOpts{}
var DefaultPrintOpts = PrintOpts{
	Ordinals: true,
	Cuts:     true,
}
