package goqaoa

import "errors"

// Errors
var (
	ErrUnmarshal       = errors.New("unmarshal failed")
	ErrBadCatalogParam = errors.New("bad catalog param")
	ErrCatalogReadOnly = errors.New("catalog is read-only")
	ErrRunNotFound     = errors.New("run not found")
	ErrBadGraphExpr    = errors.New("bad graph expression")
	ErrBadNodeID       = errors.New("bad graph node ID")
	ErrBadEdge         = errors.New("bad graph edge")
	ErrGraphTooLarge   = errors.New("graph exceeds node limit")
	ErrNilGraph        = errors.New("nil graph")
	ErrBadBitstring    = errors.New("bitstring does not match graph")
	ErrNoSamples       = errors.New("histogram contains no samples")
	ErrBadParams       = errors.New("params must be non-empty with an even length")
	ErrBadCircuit      = errors.New("bad circuit")
	ErrBadShotCount    = errors.New("shot count must be positive")
	ErrTooManyQubits   = errors.New("circuit exceeds backend qubit limit")
	ErrNoToken         = errors.New("no access token found in environment")
	ErrNoDevice        = errors.New("no eligible device")
	ErrJobFailed       = errors.New("job failed")
)
