package libqaoa_test

import (
	"errors"
	"testing"

	"github.com/ansatz-systems/goqaoa/goqaoa"
	"github.com/ansatz-systems/goqaoa/libqaoa"
)

func checkExpectation(X *libqaoa.Graph, counts goqaoa.Counts, want float64) {
	got, err := libqaoa.Expectation(X, counts)
	if err != nil {
		gT.Fatalf("Expectation(%v) failed: %v", counts, err)
	}
	if got != want {
		gT.Fatalf("Expectation(%v):\n got: %v\nwant: %v", counts, got, want)
	}
}

func TestExpectation(t *testing.T) {
	gT = t

	X := newGraph("0-1")
	defer X.Reclaim()

	// A histogram split between the two uncut assignments averages to zero.
	checkExpectation(X, goqaoa.Counts{"00": 5, "11": 5}, 0)

	// A single entry is exactly that assignment's objective.
	checkExpectation(X, goqaoa.Counts{"01": 7}, -1)

	// Count-weighted: (0*1 + -1*3) / 4.
	checkExpectation(X, goqaoa.Counts{"00": 1, "01": 3}, -0.75)

	if _, err := libqaoa.Expectation(X, goqaoa.Counts{}); !errors.Is(err, goqaoa.ErrNoSamples) {
		t.Fatalf("empty histogram: got %v, want ErrNoSamples", err)
	}
	if _, err := libqaoa.Expectation(X, nil); !errors.Is(err, goqaoa.ErrNoSamples) {
		t.Fatalf("nil histogram: got %v, want ErrNoSamples", err)
	}
	if _, err := libqaoa.Expectation(X, goqaoa.Counts{"0": 1, "00": 1}); !errors.Is(err, goqaoa.ErrBadBitstring) {
		t.Fatalf("mixed widths: got %v, want ErrBadBitstring", err)
	}
	if _, err := libqaoa.Expectation(X, goqaoa.Counts{"000": 4}); !errors.Is(err, goqaoa.ErrBadBitstring) {
		t.Fatalf("width mismatch: got %v, want ErrBadBitstring", err)
	}
	if _, err := libqaoa.Expectation(nil, goqaoa.Counts{"00": 1}); !errors.Is(err, goqaoa.ErrNilGraph) {
		t.Fatalf("nil graph: got %v, want ErrNilGraph", err)
	}
}

func TestBestObserved(t *testing.T) {
	gT = t

	X := newGraph("0-1")
	defer X.Reclaim()

	best, err := libqaoa.BestObserved(X, goqaoa.Counts{"00": 5, "01": 2, "10": 9})
	if err != nil {
		t.Fatal(err)
	}
	want := goqaoa.Outcome{Bits: "10", Count: 9, Cut: 1}
	if best != want {
		t.Fatalf("best observed:\n got: %v\nwant: %v", best, want)
	}

	if _, err := libqaoa.BestObserved(X, nil); !errors.Is(err, goqaoa.ErrNoSamples) {
		t.Fatalf("nil histogram: got %v, want ErrNoSamples", err)
	}
}
