package goqaoa

import (
	"testing"
)

var gT *testing.T

func TestOutcomeIDEnc(t *testing.T) {
	gT = t

	oids := []OutcomeID{
		FormOutcomeID(1, 0),
		FormOutcomeID(3, 5),
		FormOutcomeID(6, 21),
		FormOutcomeID(MaxNodes, (uint64(1)<<MaxNodes)-1),
	}

	for _, oid := range oids {
		var scrap [16]byte
		enc := oid.Marshal(scrap[:0])
		if len(enc) != OutcomeIDSz {
			t.Fatalf("OutcomeID marshal size: expected %d, got %d", OutcomeIDSz, len(enc))
		}

		var dec OutcomeID
		if err := dec.Unmarshal(enc); err != nil {
			t.Fatalf("OutcomeID unmarshal error: %v", err)
		}
		if dec != oid {
			t.Fatalf("OutcomeID encoding failed, should be:\n    %v\ngot:\n    %v", oid, dec)
		}
	}

	var dec OutcomeID
	if err := dec.Unmarshal([]byte{1, 2, 3}); err != ErrUnmarshal {
		t.Fatalf("short unmarshal: expected ErrUnmarshal, got %v", err)
	}
}

func TestBitFormatting(t *testing.T) {
	gT = t

	bits := FormatBits(6, 3)
	if bits != "011" {
		t.Fatalf("FormatBits(6, 3): expected 011, got %s", bits)
	}

	idx, err := bits.StateIndex()
	if err != nil || idx != 6 {
		t.Fatalf("StateIndex: expected 6, got %d (err %v)", idx, err)
	}

	if bits.Complement() != "100" {
		t.Fatalf("Complement: expected 100, got %s", bits.Complement())
	}
	if bits.OnesCount() != 2 {
		t.Fatalf("OnesCount: expected 2, got %d", bits.OnesCount())
	}

	if _, err := Bitstring("01x").StateIndex(); err != ErrBadBitstring {
		t.Fatalf("bad char: expected ErrBadBitstring, got %v", err)
	}
}

func TestCountsLSM(t *testing.T) {
	gT = t

	counts := Counts{
		"000": 17,
		"110": 1,
		"011": 94,
		"101": 23,
	}

	{
		var scrap [4]byte
		checkCountsEnc(counts, scrap[:])
	}

	{
		var scrap [200]byte
		checkCountsEnc(counts, scrap[:])
	}

	if _, err := (Counts{}).AppendCountsLSM(nil); err != ErrNoSamples {
		gT.Fatalf("empty histogram: expected ErrNoSamples, got %v", err)
	}
	if _, err := (Counts{"01": 1, "011": 2}).AppendCountsLSM(nil); err != ErrBadBitstring {
		gT.Fatalf("mixed widths: expected ErrBadBitstring, got %v", err)
	}

	var empty Counts
	if err := empty.InitFromCountsLSM(nil); err != nil {
		gT.Fatalf("empty LSM decode error: %v", err)
	}
	if len(empty) != 0 {
		gT.Fatalf("empty LSM should decode to an empty histogram")
	}
}

func checkCountsEnc(counts Counts, scrap []byte) {

	enc, err := counts.AppendCountsLSM(scrap[:0])
	if err != nil {
		gT.Fatalf("Counts encoding error: %v", err)
	}

	var dec Counts
	if err := dec.InitFromCountsLSM(enc); err != nil {
		gT.Fatalf("Counts decoding error: %v", err)
	}

	if len(dec) != len(counts) {
		gT.Fatalf("Counts encoding failed, should be:\n    %v\ngot:\n    %v", counts, dec)
	}
	for bits, ni := range counts {
		if dec[bits] != ni {
			gT.Fatalf("Counts encoding failed, should be:\n    %v\ngot:\n    %v", counts, dec)
		}
	}
}

func TestParams(t *testing.T) {
	gT = t

	p := FormParams(2, 1.0)
	if len(p) != 4 || p.Layers() != 2 {
		t.Fatalf("FormParams(2, 1.0): got %v", p)
	}
	beta, gamma := p.Split()
	if len(beta) != 2 || len(gamma) != 2 {
		t.Fatalf("Split: got %v / %v", beta, gamma)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if err := (Params{1, 2, 3}).Validate(); err != ErrBadParams {
		t.Fatalf("odd params: expected ErrBadParams, got %v", err)
	}
	if err := (Params{}).Validate(); err != ErrBadParams {
		t.Fatalf("empty params: expected ErrBadParams, got %v", err)
	}
}

type testAdder map[Bitstring]struct{}

func (set testAdder) TryAddOutcome(oc Outcome) bool {
	if _, exists := set[oc.Bits]; exists {
		return false
	}
	set[oc.Bits] = struct{}{}
	return true
}

func TestOutcomeStream(t *testing.T) {
	gT = t

	counts := Counts{"00": 5, "11": 5, "10": 3, "01": 7}
	cutOneEdge := func(bits Bitstring) int32 {
		if bits[0] != bits[1] {
			return 1
		}
		return 0
	}

	// StreamCounts emits in ascending state index order: 00, 10, 01, 11
	want := []Outcome{
		{"00", 5, 0},
		{"10", 3, 1},
		{"01", 7, 1},
		{"11", 5, 0},
	}
	i := 0
	for oc := range StreamCounts(counts, cutOneEdge).Outlet {
		if i >= len(want) || oc != want[i] {
			t.Fatalf("stream outcome %d: expected %v, got %v", i, want[i], oc)
		}
		i++
	}
	if i != len(want) {
		t.Fatalf("stream emitted %d outcomes, expected %d", i, len(want))
	}

	// AddTo forwards only newly added outcomes
	dupes := NewOutcomeStream()
	go func() {
		dupes.Push(Outcome{Bits: "01", Count: 1, Cut: 1})
		dupes.Push(Outcome{Bits: "01", Count: 1, Cut: 1})
		dupes.Push(Outcome{Bits: "10", Count: 1, Cut: 1})
		dupes.Close()
	}()
	if added := dupes.AddTo(make(testAdder)).PullAll(); added != 2 {
		t.Fatalf("AddTo: expected 2 added, got %d", added)
	}

	// SelectFromStream drops outcomes outside the selector bounds
	sel := DefaultOutcomeSelector
	sel.Min.Cut = 1
	if kept := StreamCounts(counts, cutOneEdge).SelectFromStream(sel).PullAll(); kept != 2 {
		t.Fatalf("SelectFromStream: expected 2 kept, got %d", kept)
	}
}
