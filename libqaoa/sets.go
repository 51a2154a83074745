package libqaoa

import (
	"github.com/dgraph-io/badger/v3"

	"github.com/ansatz-systems/goqaoa/goqaoa"
)

// OutcomeSet allows adding sampled assignments to an internal set and
// returning if a given assignment has already been added.
type OutcomeSet interface {

	// TryAdd adds the given assignment if it is not already present.
	//
	// If bits is already in this OutcomeSet, false is returned and this call
	// has no effect. If bits isn't in this set, it is added and true is
	// returned. Malformed strings are refused with false.
	//
	// After one or more calls to TryAdd(), be sure to call Close() for cleanup.
	TryAdd(bits goqaoa.Bitstring) bool

	// Close removes all previously added items from this set.
	//
	// If you make subsequent calls to TryAdd(), call Close() when you're done.
	Close()
}

func NewOutcomeSet() OutcomeSet {
	return &outcomeSet{}
}

type outcomeSet struct {
	lsmSet
}

func (set *outcomeSet) TryAdd(bits goqaoa.Bitstring) bool {
	oid, err := bits.OutcomeID()
	if err != nil {
		return false
	}
	var buf [goqaoa.OutcomeIDSz]byte
	key := oid.Marshal(buf[:0])
	return set.tryAdd(key)
}

type lsmSet struct {
	db *badger.DB
}

func (set *lsmSet) autoOpen() {
	if set.db == nil {
		dbOpts := badger.DefaultOptions("").WithInMemory(true)
		dbOpts.Logger = nil
		dbOpts.MetricsEnabled = false

		var err error
		set.db, err = badger.Open(dbOpts)
		if err != nil {
			panic(err)
		}
	}
}

func (set *lsmSet) tryAdd(key []byte) bool {
	set.autoOpen()

	txn := set.db.NewTransaction(true)
	defer txn.Commit()

	added := false
	_, err := txn.Get(key)
	if err == nil {
		// no-op since the key is already in the db
	} else if err == badger.ErrKeyNotFound {
		err = txn.Set(key, nil)
		added = true
	}

	if err != nil {
		panic(err)
	}

	return added
}

func (set *lsmSet) Close() {
	if set.db != nil {
		set.db.Close()
		set.db = nil
	}
}
