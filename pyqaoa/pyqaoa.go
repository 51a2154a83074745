package pyqaoa

// Copyright 2018 The go-python Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/ansatz-systems/goqaoa/goqaoa"
	"github.com/ansatz-systems/goqaoa/libqaoa"
	"github.com/ansatz-systems/goqaoa/libqaoa/catalog"
	"github.com/go-python/gpython/py"
)

var (
	LIB_VERSION = "v1.2026.1"
)

var (
	pyGraphType         = py.NewType("Graph", "an undirected Max-Cut problem graph")
	pyOutcomeStreamType = py.NewType("OutcomeStream", "goqaoa.OutcomeStream")
	pyCatalogType       = py.NewType("Catalog", "goqaoa.Catalog")
	pyWorkspaceType     = py.NewType("Workspace", "collects active session resources and catalogs")
)

// Arg 1 (Graph or str): graph to enumerate
// Arg 2 (bool, optional): emit only one assignment per distinct cut set
func py_EnumPartitions(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "EnumPartitions expects a Graph or graph expression")
	}
	X, err := getGraphArg(args[0])
	if err != nil {
		return nil, err
	}

	opts := libqaoa.WalkOpts{}
	if len(args) > 1 {
		py.LoadTuple(args[1:], []interface{}{&opts.UniqueCuts})
	}

	stream, err := libqaoa.EnumPartitions(X, opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return wrapOutcomeStream(stream), nil
}

// getGraphArg accepts either a Graph object or a graph construction expression.
func getGraphArg(obj py.Object) (*libqaoa.Graph, error) {
	switch v := obj.(type) {
	case py.String:
		X, err := libqaoa.NewGraphFromExpr(string(v))
		if err != nil {
			return nil, py.ExceptionNewf(py.ValueError, "%v", err)
		}
		return X, nil
	case pyGraph:
		return v.Graph, nil
	}
	return nil, py.ExceptionNewf(py.TypeError, "expected Graph object or graph expression (got %v)", obj.Type().Name)
}

type pyGraph struct {
	*libqaoa.Graph
}

func (X pyGraph) Type() *py.Type {
	return pyGraphType
}

func (X pyGraph) M__str__() (py.Object, error) {
	writer := strings.Builder{}
	X.WriteAsString(&writer)
	return py.String(writer.String()), nil
}

func (X pyGraph) M__repr__() (py.Object, error) {
	return X.M__str__()
}

func py_NewGraph(module py.Object, args py.Tuple) (py.Object, error) {
	X := libqaoa.NewGraph(nil)

	var expr string
	py.LoadTuple(args, []interface{}{&expr})
	if expr != "" {
		if err := X.InitFromExpr(expr); err != nil {
			return nil, py.ExceptionNewf(py.ValueError, "%v", err)
		}
	}
	return py.Object(pyGraph{X}), nil
}

func py_Graph_NumNodes(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	return py.Object(py.Int(X.NumNodes())), nil
}

func py_Graph_NumEdges(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	return py.Object(py.Int(X.NumEdges())), nil
}

func py_Graph_Expr(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	return py.String(X.ExprString()), nil
}

func py_Graph_AddEdge(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	var a, b py.Object
	err := py.ParseTuple(args, "ii", &a, &b)
	if err != nil {
		return nil, err
	}

	err = X.AddEdge(libqaoa.NodeID(a.(py.Int)), libqaoa.NodeID(b.(py.Int)))
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.Object(X), nil
}

func py_Graph_AddPath(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	nodes := make([]libqaoa.NodeID, 0, len(args))
	for _, arg := range args {
		n, err := py.GetInt(arg)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, libqaoa.NodeID(n))
	}

	if err := X.AddPath(nodes...); err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.Object(X), nil
}

func py_Graph_CutSize(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	var bits string
	err := py.LoadTuple(args, []interface{}{&bits})
	if err != nil {
		return nil, err
	}

	cut, err := X.CutSize(goqaoa.Bitstring(bits))
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.Int(cut), nil
}

func py_Graph_Objective(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	var bits string
	err := py.LoadTuple(args, []interface{}{&bits})
	if err != nil {
		return nil, err
	}

	obj, err := X.Objective(goqaoa.Bitstring(bits))
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.Float(obj), nil
}

// Arg 1: sequence of (bits, count) pairs forming a histogram
func py_Graph_Expectation(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Expectation expects a sequence of (bits, count) pairs")
	}

	counts, err := getCountsArg(args[0])
	if err != nil {
		return nil, err
	}

	ev, err := libqaoa.Expectation(X.Graph, counts)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.Float(ev), nil
}

func py_Graph_MaxCut(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyGraph)
	bestCut, numBest, err := X.MaxCutBrute()
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.Tuple{py.Int(bestCut), py.Int(numBest)}, nil
}

const (
	READ_ONLY = 0x01

	kWorkspaceAttr = "_Workspace"
)

type Workspace struct {
	CatalogCtx goqaoa.CatalogContext
}

func (ws *Workspace) Close() {
	ws.CatalogCtx.Close()
	<-ws.CatalogCtx.Done()
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

func py_GetWorkspace(module py.Object, args py.Tuple) (py.Object, error) {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj == nil {
		ws := &Workspace{
			CatalogCtx: goqaoa.NewCatalogContext(),
		}
		wsObj = ws
		py.SetAttrString(module, kWorkspaceAttr, wsObj)
	}
	return wsObj, nil
}

func py_Workspace_CatalogExists(self py.Object, args py.Tuple) (py.Object, error) {
	_ = self.(*Workspace)

	var pathname string
	err := py.LoadTuple(args, []interface{}{&pathname})
	if err != nil {
		return nil, err
	}
	_, err = os.Stat(pathname)
	if os.IsNotExist(err) {
		return py.False, nil
	}
	return py.True, nil
}

func py_Workspace_OpenCatalog(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)

	var pathname string
	var flags int32
	err := py.LoadTuple(args, []interface{}{&pathname, &flags})
	if err != nil {
		return nil, err
	}

	opts := goqaoa.CatalogOpts{
		ReadOnly:   (flags & READ_ONLY) != 0,
		DbPathName: pathname,
	}

	cat, err := catalog.OpenCatalog(ws.CatalogCtx, opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}

	pyCat := pyCatalog{cat}
	return py.Object(pyCat), nil
}

type pyCatalog struct {
	goqaoa.Catalog
}

func (cat pyCatalog) Type() *py.Type {
	return pyCatalogType
}

func py_Catalog_Close(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	if cat.Catalog != nil {
		cat.Close()
	}
	return py.None, nil
}

func py_Catalog_Select(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	cat := self.(pyCatalog)
	sel := goqaoa.DefaultOutcomeSelector
	loadSelector(kwargs, &sel)

	next := goqaoa.SelectFromCatalog(cat, sel)
	return wrapOutcomeStream(next), nil
}

func py_Catalog_NumRuns(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	return py.Int(cat.NumRuns()), nil
}

func py_Catalog_NumOutcomes(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)

	Nn, err := py.GetInt(args[0])
	if err != nil {
		return nil, err
	}

	numOutcomes := cat.NumOutcomes(byte(Nn))
	return py.Int(numOutcomes), nil
}

func py_OutcomeStream_Go(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(outcomeStream)
	count := stream.PullAll()
	return py.Int(count), nil
}

type echoToWriter struct {
	stdout *os.File
	to     io.WriteCloser
}

func (echo *echoToWriter) Write(buf []byte) (int, error) {
	var (
		n   int
		err error
	)
	if echo.to == nil {
		n, err = echo.stdout.Write(buf)
	} else {
		n, err = echo.to.Write(buf)
	}
	return n, err
}

func (echo *echoToWriter) Close() error {
	if echo.to != nil {
		return echo.to.Close()
	}
	return nil
}

var gOutCount = int32(0)

// See lib/_REPL_startup.py Print() docs
func py_OutcomeStream_Print(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(outcomeStream)
	var pathname string

	opts := goqaoa.DefaultPrintOpts

	py.LoadTuple(args, []interface{}{&opts.Label})
	if opts.Label == "" {
		py.LoadAttr(kwargs, "label", &opts.Label)
	}

	// TODO: hang the output counter off the Workspace so back-to-back scripts don't share numbering
	atomic.AddInt32(&gOutCount, 1)
	if opts.Label == "" {
		opts.Label = fmt.Sprintf("out[%d]", gOutCount)
	}

	py.LoadAttr(kwargs, "ordinals", &opts.Ordinals)
	py.LoadAttr(kwargs, "cuts", &opts.Cuts)
	py.LoadAttr(kwargs, "counts", &opts.Counts)
	py.LoadAttr(kwargs, "file", &pathname)

	writer := &echoToWriter{
		stdout: os.Stdout,
	}
	if len(pathname) > 0 {
		os.MkdirAll(filepath.Dir(pathname), 0700)

		file, err := os.OpenFile(pathname, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
		}
		writer.to = file
	}

	next := stream.Print(writer, opts)
	return wrapOutcomeStream(next), nil
}

type outcomeStream struct {
	*goqaoa.OutcomeStream
}

func (stream outcomeStream) Type() *py.Type {
	return pyOutcomeStreamType
}

func wrapOutcomeStream(stream *goqaoa.OutcomeStream) py.Object {
	return py.Object(outcomeStream{stream})
}

func py_OutcomeStream_AddTo(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(outcomeStream)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "AddTo expects a Catalog")
	}
	cat, ok := args[0].(pyCatalog)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected Catalog object (got %v)", args[0].Type().Name)
	}
	if cat.IsReadOnly() {
		return nil, py.ExceptionNewf(py.PermissionError, "%v", errors.New("catalog is in read-only mode"))
	}

	next := stream.AddTo(cat)
	return wrapOutcomeStream(next), nil
}

func py_OutcomeStream_DropDupes(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(outcomeStream)

	// Create a memory resident dupe filter that lives for the life of the stream
	dupes := libqaoa.NewDropDupes(libqaoa.DropDupeOpts{})
	next := stream.AddTo(dupes)
	return wrapOutcomeStream(next), nil
}

func py_OutcomeStream_Select(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(outcomeStream)
	sel := goqaoa.DefaultOutcomeSelector
	loadSelector(kwargs, &sel)

	next := stream.SelectFromStream(sel)
	return wrapOutcomeStream(next), nil
}

// Arg 1 (Graph or str): graph to optimize angles for
// Kwargs: layers, shots, seed, max_evals
//
// Returns (params, value, best_cut, evals).
func py_Optimize(module py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Optimize expects a Graph or graph expression")
	}
	X, err := getGraphArg(args[0])
	if err != nil {
		return nil, err
	}

	opts := libqaoa.DefaultOptimizeOpts
	py.LoadAttr(kwargs, "layers", &opts.Layers)
	py.LoadAttr(kwargs, "shots", &opts.Shots)
	py.LoadAttr(kwargs, "seed", &opts.Seed)
	py.LoadAttr(kwargs, "max_evals", &opts.MaxEvals)

	result, err := libqaoa.OptimizeAngles(context.Background(), X, libqaoa.NewSimulator(), opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}

	best, err := libqaoa.BestObserved(X, result.Counts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}

	params := make(py.Tuple, len(result.Params))
	for i, angle := range result.Params {
		params[i] = py.Float(angle)
	}
	return py.Tuple{params, py.Float(result.Value), py.Int(best.Cut), py.Int(result.Evals)}, nil
}

// Arg 1 (Graph or str): graph to sample
// Arg 2: sequence of mixer angles (beta), one per layer
// Arg 3: sequence of phase separation angles (gamma), one per layer
// Kwargs: shots, seed
func py_Sample(module py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	if len(args) < 3 {
		return nil, py.ExceptionNewf(py.TypeError, "Sample expects a graph, betas, and gammas")
	}
	X, err := getGraphArg(args[0])
	if err != nil {
		return nil, err
	}

	betas, err := getFloatsArg(args[1])
	if err != nil {
		return nil, err
	}
	gammas, err := getFloatsArg(args[2])
	if err != nil {
		return nil, err
	}
	if len(betas) == 0 || len(betas) != len(gammas) {
		return nil, py.ExceptionNewf(py.ValueError, "betas and gammas must pair up, one (beta, gamma) per layer")
	}

	params := make(goqaoa.Params, 0, 2*len(betas))
	params = append(params, betas...)
	params = append(params, gammas...)

	circ, err := libqaoa.BuildCircuit(X, params)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}

	ropts := goqaoa.DefaultRunOpts
	py.LoadAttr(kwargs, "shots", &ropts.Shots)
	py.LoadAttr(kwargs, "seed", &ropts.Seed)

	counts, err := libqaoa.NewSimulator().Run(context.Background(), circ, ropts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}

	next := goqaoa.StreamCounts(counts, X.CutFunc())
	return wrapOutcomeStream(next), nil
}

// Arg 1 (Graph or str): graph to build a circuit for
// Arg 2 (int, optional): layer count, default 1
//
// Returns (qubits, h, rzz, rx, measure) op counts.
func py_CircuitInfo(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "CircuitInfo expects a Graph or graph expression")
	}
	X, err := getGraphArg(args[0])
	if err != nil {
		return nil, err
	}

	layers := 1
	if len(args) > 1 {
		n, err := py.GetInt(args[1])
		if err != nil {
			return nil, err
		}
		layers = int(n)
	}

	circ, err := libqaoa.BuildCircuit(X, goqaoa.FormParams(layers, 0))
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}

	gates := circ.GateCounts()
	return py.Tuple{
		py.Int(circ.NumQubits),
		py.Int(gates[goqaoa.GateH]),
		py.Int(gates[goqaoa.GateRZZ]),
		py.Int(gates[goqaoa.GateRX]),
		py.Int(gates[goqaoa.GateMeasure]),
	}, nil
}

func init() {

	/////////////////////////////////
	// Graph
	{
		pyGraphType.Dict["NumNodes"] = py.MustNewMethod("NumNodes", py_Graph_NumNodes, 0, "")
		pyGraphType.Dict["NumEdges"] = py.MustNewMethod("NumEdges", py_Graph_NumEdges, 0, "")
		pyGraphType.Dict["Expr"] = py.MustNewMethod("Expr", py_Graph_Expr, 0, "")
		pyGraphType.Dict["AddEdge"] = py.MustNewMethod("AddEdge", py_Graph_AddEdge, 0, "")
		pyGraphType.Dict["AddPath"] = py.MustNewMethod("AddPath", py_Graph_AddPath, 0, "")
		pyGraphType.Dict["CutSize"] = py.MustNewMethod("CutSize", py_Graph_CutSize, 0, "counts the edges crossing the given partition")
		pyGraphType.Dict["Objective"] = py.MustNewMethod("Objective", py_Graph_Objective, 0, "")
		pyGraphType.Dict["Expectation"] = py.MustNewMethod("Expectation", py_Graph_Expectation, 0, "count-weighted mean objective of a histogram")
		pyGraphType.Dict["MaxCut"] = py.MustNewMethod("MaxCut", py_Graph_MaxCut, 0, "")
	}

	/////////////////////////////////
	// Catalog
	{
		pyCatalogType.Dict["Select"] = py.MustNewMethod("Select", py_Catalog_Select, 0, "")
		pyCatalogType.Dict["NumRuns"] = py.MustNewMethod("NumRuns", py_Catalog_NumRuns, 0, "")
		pyCatalogType.Dict["NumOutcomes"] = py.MustNewMethod("NumOutcomes", py_Catalog_NumOutcomes, 0, "")
		pyCatalogType.Dict["Close"] = py.MustNewMethod("Close", py_Catalog_Close, 0, "")
	}

	/////////////////////////////////
	// Workspace
	{
		pyWorkspaceType.Dict["OpenCatalog"] = py.MustNewMethod("OpenCatalog", py_Workspace_OpenCatalog, 0, "")
		pyWorkspaceType.Dict["CatalogExists"] = py.MustNewMethod("CatalogExists", py_Workspace_CatalogExists, 0, "")
	}

	/////////////////////////////////
	// OutcomeStream
	{
		pyOutcomeStreamType.Dict["Go"] = py.MustNewMethod("Go", py_OutcomeStream_Go, 0, "counts the number of outcomes output from the OutcomeStream")
		pyOutcomeStreamType.Dict["Print"] = py.MustNewMethod("Print", py_OutcomeStream_Print, 0, "prints each outcome from the OutcomeStream")
		pyOutcomeStreamType.Dict["AddTo"] = py.MustNewMethod("AddTo", py_OutcomeStream_AddTo, 0, "")
		pyOutcomeStreamType.Dict["DropDupes"] = py.MustNewMethod("DropDupes", py_OutcomeStream_DropDupes, 0, "")
		pyOutcomeStreamType.Dict["Select"] = py.MustNewMethod("Select", py_OutcomeStream_Select, 0, "")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("NewGraph", py_NewGraph, 0, ""),
			py.MustNewMethod("EnumPartitions", py_EnumPartitions, 0, ""),
			py.MustNewMethod("CircuitInfo", py_CircuitInfo, 0, ""),
			py.MustNewMethod("Optimize", py_Optimize, 0, ""),
			py.MustNewMethod("Sample", py_Sample, 0, ""),
			py.MustNewMethod("GetWorkspace", py_GetWorkspace, 0, ""),
		}

		globals := py.StringDict{
			"LIB_VERSION": py.String(LIB_VERSION),
			"PY_VERSION":  py.String("v3.4.0"),
			"MAX_NODES":   py.Int(goqaoa.MaxNodes),
			"READ_ONLY":   py.Int(READ_ONLY),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "_pyqaoa",
				Doc:  "QAOA Max-Cut gpython module",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})

	}
}

func getSequenceItems(obj py.Object) ([]py.Object, error) {
	switch seq := obj.(type) {
	case py.Tuple:
		return seq, nil
	case *py.List:
		return seq.Items, nil
	}
	return nil, py.ExceptionNewf(py.TypeError, "expected a tuple or list (got %v)", obj.Type().Name)
}

func getFloatsArg(obj py.Object) ([]float64, error) {
	items, err := getSequenceItems(obj)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case py.Float:
			vals[i] = float64(v)
		case py.Int:
			vals[i] = float64(v)
		default:
			return nil, py.ExceptionNewf(py.TypeError, "expected a number (got %v)", item.Type().Name)
		}
	}
	return vals, nil
}

func getCountsArg(obj py.Object) (goqaoa.Counts, error) {
	items, err := getSequenceItems(obj)
	if err != nil {
		return nil, err
	}

	counts := make(goqaoa.Counts, len(items))
	for _, item := range items {
		pair, err := getSequenceItems(item)
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, py.ExceptionNewf(py.TypeError, "expected a (bits, count) pair")
		}
		bits, ok := pair[0].(py.String)
		if !ok {
			return nil, py.ExceptionNewf(py.TypeError, "expected a bitstring (got %v)", pair[0].Type().Name)
		}
		ni, err := py.GetInt(pair[1])
		if err != nil {
			return nil, err
		}
		counts[goqaoa.Bitstring(bits)] += int64(ni)
	}
	return counts, nil
}

func loadSelector(kwargs py.StringDict, sel *goqaoa.OutcomeSelector) {
	minNodes, maxNodes := int32(sel.Min.NumNodes), int32(sel.Max.NumNodes)
	py.LoadAttr(kwargs, "min_nodes", &minNodes)
	py.LoadAttr(kwargs, "max_nodes", &maxNodes)
	sel.Min.NumNodes = byte(minNodes)
	sel.Max.NumNodes = byte(maxNodes)

	py.LoadAttr(kwargs, "min_cut", &sel.Min.Cut)
	py.LoadAttr(kwargs, "max_cut", &sel.Max.Cut)
	py.LoadAttr(kwargs, "min_count", &sel.Min.Count)
	py.LoadAttr(kwargs, "max_count", &sel.Max.Count)
}
