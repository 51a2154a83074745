package goqaoa

import (
	"github.com/gogo/protobuf/proto"
)

// CatalogState is the root state row of a run catalog db.
//
// These are hand-maintained wire structs: proto struct tags drive marshaling,
// so there is no generated code to keep in sync with a .proto.
type CatalogState struct {
	MajorVers   int32   `protobuf:"varint,1,opt,name=major_vers,proto3" json:"major_vers,omitempty"`
	MinorVers   int32   `protobuf:"varint,2,opt,name=minor_vers,proto3" json:"minor_vers,omitempty"`
	NextRunID   uint64  `protobuf:"varint,3,opt,name=next_run_id,proto3" json:"next_run_id,omitempty"`
	NumRuns     int64   `protobuf:"varint,4,opt,name=num_runs,proto3" json:"num_runs,omitempty"`
	NumOutcomes []int64 `protobuf:"varint,5,rep,packed,name=num_outcomes,proto3" json:"num_outcomes,omitempty"`
}

func (m *CatalogState) Reset()         { *m = CatalogState{} }
func (m *CatalogState) String() string { return proto.CompactTextString(m) }
func (*CatalogState) ProtoMessage()    {}

// RunRecord captures one completed (or failed) optimization run.
type RunRecord struct {
	RunID      uint64    `protobuf:"varint,1,opt,name=run_id,proto3" json:"run_id,omitempty"`
	CreatedAt  int64     `protobuf:"varint,2,opt,name=created_at,proto3" json:"created_at,omitempty"`
	GraphExpr  string    `protobuf:"bytes,3,opt,name=graph_expr,proto3" json:"graph_expr,omitempty"`
	NumNodes   int32     `protobuf:"varint,4,opt,name=num_nodes,proto3" json:"num_nodes,omitempty"`
	NumEdges   int32     `protobuf:"varint,5,opt,name=num_edges,proto3" json:"num_edges,omitempty"`
	Layers     int32     `protobuf:"varint,6,opt,name=layers,proto3" json:"layers,omitempty"`
	Shots      int32     `protobuf:"varint,7,opt,name=shots,proto3" json:"shots,omitempty"`
	Seed       int64     `protobuf:"varint,8,opt,name=seed,proto3" json:"seed,omitempty"`
	Backend    string    `protobuf:"bytes,9,opt,name=backend,proto3" json:"backend,omitempty"`
	BestParams []float64 `protobuf:"fixed64,10,rep,packed,name=best_params,proto3" json:"best_params,omitempty"`
	BestValue  float64   `protobuf:"fixed64,11,opt,name=best_value,proto3" json:"best_value,omitempty"`
	BestCut    int32     `protobuf:"varint,12,opt,name=best_cut,proto3" json:"best_cut,omitempty"`
	OptStatus  string    `protobuf:"bytes,13,opt,name=opt_status,proto3" json:"opt_status,omitempty"`
	NumEvals   int32     `protobuf:"varint,14,opt,name=num_evals,proto3" json:"num_evals,omitempty"`
	Counts     []byte    `protobuf:"bytes,15,opt,name=counts,proto3" json:"counts,omitempty"`
}

func (m *RunRecord) Reset()         { *m = RunRecord{} }
func (m *RunRecord) String() string { return proto.CompactTextString(m) }
func (*RunRecord) ProtoMessage()    {}

// SetCounts stores the run's final histogram in its canonical LSM encoding.
func (m *RunRecord) SetCounts(counts Counts) error {
	lsm, err := counts.AppendCountsLSM(nil)
	if err != nil {
		return err
	}
	m.Counts = lsm
	return nil
}

// ReadCounts decodes the run's stored histogram.
func (m *RunRecord) ReadCounts() (Counts, error) {
	var counts Counts
	if err := counts.InitFromCountsLSM(m.Counts); err != nil {
		return nil, err
	}
	return counts, nil
}
