package main

import (
	"flag"

	"github.com/plan-systems/klog"
)

var (
	demo    = flag.Bool("demo", false, "run the QAOA pipeline per config and exit")
	report  = flag.Bool("report", false, "print stored runs and their top outcomes, then exit")
	cfgFile = flag.String("config", "", "YAML config file; GOQAOA_* env values win over file values")
	graph   = flag.String("graph", "", "graph construction expression, e.g. \"0-1-2-0\"")
	layers  = flag.Int("layers", 0, "circuit layer count p")
	shots   = flag.Int("shots", 0, "samples per circuit execution")
	seed    = flag.Int64("seed", 0, "sampling seed; negative draws from the clock")
	backend = flag.String("backend", "", "\"sim\" or \"cloud\"")
	catPath = flag.String("catalog", "", "run catalog db dir; empty runs without persistence")
	histPng = flag.String("hist", "", "write the final sample histogram to this PNG")
	dotPath = flag.String("dot", "", "write the problem graph as graphviz DOT to this file")
	topK    = flag.Int("top", 0, "leaderboard depth for demo and report output")
)

func main() {

	flag.Set("logtostderr", "true")
	flag.Set("v", "2")

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	flag.Parse()

	switch {
	case *demo:
		runDemo()
	case *report:
		runReport()
	default:
		go_gpython(flag.Arg(0))
	}

	klog.Flush()
}
