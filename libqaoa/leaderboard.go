package libqaoa

import (
	"strings"

	"github.com/emirpasic/gods/trees/redblacktree"

	"github.com/ansatz-systems/goqaoa/goqaoa"
)

// OutcomeComparator orders outcomes best-first: larger cut, then larger
// count, then lexicographically smaller assignment.
func OutcomeComparator(A, B goqaoa.Outcome) int {
	if A.Cut != B.Cut {
		return int(B.Cut - A.Cut)
	}
	if A.Count != B.Count {
		if A.Count > B.Count {
			return -1
		}
		return 1
	}
	return strings.Compare(string(A.Bits), string(B.Bits))
}

// Leaderboard keeps the best outcomes fed to it, ranked by OutcomeComparator.
// A limit of 0 keeps everything. Feeders are expected to emit each assignment
// once (streams already do); population and iteration must not overlap.
type Leaderboard struct {
	ranked redblacktree.Tree
	limit  int
}

func NewLeaderboard(limit int) *Leaderboard {
	return &Leaderboard{
		ranked: redblacktree.Tree{
			Comparator: func(A, B interface{}) int {
				return OutcomeComparator(A.(goqaoa.Outcome), B.(goqaoa.Outcome))
			},
		},
		limit: limit,
	}
}

// TryAddOutcome admits oc unless it is already ranked or the board is full
// of strictly better entries, evicting the current worst to make room.
func (lb *Leaderboard) TryAddOutcome(oc goqaoa.Outcome) bool {
	if _, found := lb.ranked.Get(oc); found {
		return false
	}

	if lb.limit > 0 && lb.ranked.Size() >= lb.limit {
		worst := lb.ranked.Right()
		if OutcomeComparator(oc, worst.Key.(goqaoa.Outcome)) >= 0 {
			return false
		}
		lb.ranked.Remove(worst.Key)
	}

	lb.ranked.Put(oc, nil)
	return true
}

func (lb *Leaderboard) Size() int {
	return lb.ranked.Size()
}

// Best returns the top-ranked outcome, if any.
func (lb *Leaderboard) Best() (goqaoa.Outcome, bool) {
	node := lb.ranked.Left()
	if node == nil {
		return goqaoa.Outcome{}, false
	}
	return node.Key.(goqaoa.Outcome), true
}

// Top returns up to k outcomes, best first.
func (lb *Leaderboard) Top(k int) []goqaoa.Outcome {
	if k <= 0 {
		return nil
	}
	top := make([]goqaoa.Outcome, 0, k)
	itr := lb.ranked.Iterator()
	for len(top) < k && itr.Next() {
		top = append(top, itr.Key().(goqaoa.Outcome))
	}
	return top
}

// Emit streams the ranked outcomes best-first. Call only once the board is
// fully populated.
func (lb *Leaderboard) Emit() *goqaoa.OutcomeStream {
	stream := goqaoa.NewOutcomeStream()

	go func() {
		itr := lb.ranked.Iterator()
		for itr.Next() {
			stream.Outlet <- itr.Key().(goqaoa.Outcome)
		}
		stream.Close()
	}()

	return stream
}
