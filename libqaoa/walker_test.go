package libqaoa

import (
	"bytes"
	"testing"

	"github.com/ansatz-systems/goqaoa/goqaoa"
)

func TestEnumPartitions(t *testing.T) {
	X, err := NewGraphFromExpr("0-1-2-0")
	if err != nil {
		t.Fatal(err)
	}
	defer X.Reclaim()

	stream, err := EnumPartitions(X, WalkOpts{})
	if err != nil {
		t.Fatal(err)
	}

	tally := map[goqaoa.Bitstring]int32{}
	for oc := range stream.Outlet {
		if oc.Bits[0] != '0' {
			t.Fatalf("node 0 left its pinned side: %q", oc.Bits)
		}
		if oc.Count != 1 {
			t.Fatalf("partition %q emitted with count %d", oc.Bits, oc.Count)
		}
		tally[oc.Bits] = oc.Cut
	}

	want := map[goqaoa.Bitstring]int32{
		"000": 0,
		"010": 2,
		"001": 2,
		"011": 2,
	}
	if len(tally) != len(want) {
		t.Fatalf("walked %d partitions, want %d", len(tally), len(want))
	}
	for bits, cut := range want {
		got, hit := tally[bits]
		if !hit || got != cut {
			t.Fatalf("partition %q scored %d (seen=%v), want %d", bits, got, hit, cut)
		}
	}
}

func TestUniqueCuts(t *testing.T) {
	// Two disjoint edges: 8 pinned assignments but only 4 distinct cut sets.
	X, err := NewGraphFromExpr("0-1, 2-3")
	if err != nil {
		t.Fatal(err)
	}
	defer X.Reclaim()

	plain, err := EnumPartitions(X, WalkOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if n := plain.PullAll(); n != 8 {
		t.Fatalf("walked %d partitions, want 8", n)
	}

	unique, err := EnumPartitions(X, WalkOpts{UniqueCuts: true})
	if err != nil {
		t.Fatal(err)
	}
	if n := unique.PullAll(); n != 4 {
		t.Fatalf("walked %d unique cut sets, want 4", n)
	}
}

func TestCutSig(t *testing.T) {
	X, err := NewGraphFromExpr("0-1")
	if err != nil {
		t.Fatal(err)
	}
	defer X.Reclaim()

	var scrap [8]byte
	uncut := X.appendCutSig(scrap[:0], "00")
	cut := X.appendCutSig(scrap[4:4], "01")
	if !bytes.Equal(uncut, []byte{0x00}) || !bytes.Equal(cut, []byte{0x80}) {
		t.Fatalf("cut signatures %x / %x, want 00 / 80", uncut, cut)
	}
}

func TestMaxCutBrute(t *testing.T) {
	tri, err := NewGraphFromExpr("0-1-2-0")
	if err != nil {
		t.Fatal(err)
	}
	defer tri.Reclaim()

	bestCut, numBest, err := tri.MaxCutBrute()
	if err != nil {
		t.Fatal(err)
	}
	if bestCut != 2 || numBest != 6 {
		t.Fatalf("triangle brute force found cut %d x%d, want 2 x6", bestCut, numBest)
	}

	ring, err := NewGraphFromExpr("0-1-2-3-4-5-0, 0-2")
	if err != nil {
		t.Fatal(err)
	}
	defer ring.Reclaim()

	bestCut, numBest, err = ring.MaxCutBrute()
	if err != nil {
		t.Fatal(err)
	}
	if bestCut != 6 || numBest != 2 {
		t.Fatalf("demo graph brute force found cut %d x%d, want 6 x2", bestCut, numBest)
	}

	// Past the cap the walk refuses outright.
	big := NewGraph(nil)
	defer big.Reclaim()
	if err := big.AddNode(MaxBruteNodes); err != nil {
		t.Fatal(err)
	}
	if _, _, err := big.MaxCutBrute(); err != goqaoa.ErrGraphTooLarge {
		t.Fatalf("oversize graph: got %v, want ErrGraphTooLarge", err)
	}
}
