package libqaoa

import (
	"github.com/ansatz-systems/goqaoa/goqaoa"
	"gonum.org/v1/gonum/stat"
)

// Expectation returns the count-weighted mean of the Max-Cut objective over
// an observed histogram: sum_b counts[b] * (-CutSize(b)) / sum_b counts[b].
//
// Assignments are folded in ascending state index order, so the same histogram
// always produces the same float64 (map iteration order never leaks in).
// An empty histogram has no mean and returns ErrNoSamples.
func Expectation(X *Graph, counts goqaoa.Counts) (float64, error) {
	if X == nil {
		return 0, goqaoa.ErrNilGraph
	}
	if counts.NumSamples() == 0 {
		return 0, goqaoa.ErrNoSamples
	}

	oids, err := counts.SortedIDs()
	if err != nil {
		return 0, err
	}

	values := make([]float64, 0, len(oids))
	weights := make([]float64, 0, len(oids))
	for _, oid := range oids {
		bits := oid.Bits()
		obj, err := X.Objective(bits)
		if err != nil {
			return 0, err
		}
		values = append(values, obj)
		weights = append(weights, float64(counts[bits]))
	}
	return stat.Mean(values, weights), nil
}

// BestObserved scans a histogram for the assignment with the largest cut,
// breaking ties by higher count and then by lower state index.
func BestObserved(X *Graph, counts goqaoa.Counts) (goqaoa.Outcome, error) {
	var best goqaoa.Outcome

	if X == nil {
		return best, goqaoa.ErrNilGraph
	}
	if counts.NumSamples() == 0 {
		return best, goqaoa.ErrNoSamples
	}

	oids, err := counts.SortedIDs()
	if err != nil {
		return best, err
	}

	best.Cut = -1
	for _, oid := range oids {
		bits := oid.Bits()
		cut, err := X.CutSize(bits)
		if err != nil {
			return goqaoa.Outcome{}, err
		}
		count := counts[bits]
		if cut > best.Cut || (cut == best.Cut && count > best.Count) {
			best = goqaoa.Outcome{
				Bits:  bits,
				Count: count,
				Cut:   cut,
			}
		}
	}
	return best, nil
}
