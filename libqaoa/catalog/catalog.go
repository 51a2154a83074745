package catalog

import (
	"encoding/binary"
	"runtime"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"

	"github.com/ansatz-systems/goqaoa/goqaoa"
)

/***  catalog db format  ***

Everything lives in a single badger key space:

	gCatalogStateKey                        => CatalogState
	kRunRowPrefix,     RunID (8 bytes, BE)  => RunRecord
	kOutcomeRowPrefix, OutcomeID (7 bytes)  => count, cut+1 (uvarints)

An OutcomeID leads with its node count byte, so outcome rows sort grouped
by graph size and a scan can seek straight to any node count.

The above structure allows to:
	1) resume RunID issue exactly where a prior session left off
	2) enumerate runs in the order they were recorded
	3) enumerate witnessed assignments over any node count range
	4) test if an assignment was ever witnessed with a single point read

***/

const (
	kCatalogVersMajor = 2026
	kCatalogVersMinor = 1
)

// Every key in the db leads with one of these prefixes.
const (
	kRunRowPrefix     = byte(0x01)
	kOutcomeRowPrefix = byte(0x02)
)

// kFlagScored marks outcome rows whose cut size was known when added.
const kFlagScored = byte(1 << 0)

var gCatalogStateKey = []byte{0x00, 0x00, 0x01}

// catalog wraps a badger db of recorded runs and witnessed outcomes.
//
// A catalog tolerates one writer at a time: stream stages that feed it run a
// single pump goroutine, and run rows are appended after the stream drains.
type catalog struct {
	ctx        goqaoa.CatalogContext
	opts       goqaoa.CatalogOpts
	db         *badger.DB
	state      goqaoa.CatalogState
	stateDirty bool
}

// OpenCatalog opens a run catalog db with the given options.
//
// An empty CatalogOpts.DbPathName opens a throwaway in-memory db.
func OpenCatalog(ctx goqaoa.CatalogContext, opts goqaoa.CatalogOpts) (goqaoa.Catalog, error) {
	cat := &catalog{
		ctx:  ctx,
		opts: opts,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // not needed so disable for performance
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger on windows does not support read-only mode, so open writable
	// there and refuse mutation at this layer instead.
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(goqaoa.ErrBadCatalogParam, "read-only catalog requires a DbPathName")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	// Once the db is open, the catalog ctx waits on this catalog to close.
	ctx.AttachCatalog(cat)

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.state = goqaoa.CatalogState{
			MajorVers:   kCatalogVersMajor,
			MinorVers:   kCatalogVersMinor,
			NextRunID:   1,
			NumOutcomes: make([]int64, goqaoa.MaxNodes+1),
		}
		cat.stateDirty = true
	}

	if err == nil && cat.state.MajorVers != kCatalogVersMajor {
		err = errors.Errorf("catalog version is incompatible (%d.%d)", cat.state.MajorVers, cat.state.MinorVers)
	}

	if err != nil {
		cat.Close()
		return nil, err
	}

	return cat, nil
}

func (cat *catalog) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &cat.state)
		})
	})
}

func (cat *catalog) flushState() {
	if cat.stateDirty && !cat.opts.ReadOnly {
		err := cat.db.Update(func(txn *badger.Txn) error {
			stateBuf, err := proto.Marshal(&cat.state)
			if err != nil {
				return err
			}
			return txn.Set(gCatalogStateKey, stateBuf)
		})
		if err != nil {
			panic(err)
		}
		cat.stateDirty = false
	}
}

func (cat *catalog) Close() error {
	var err error
	if cat.db != nil {
		cat.flushState()
		err = cat.db.Close()
		cat.db = nil
	}
	if cat.ctx != nil {
		cat.ctx.DetachCatalog(cat)
		cat.ctx = nil
	}
	return err
}

func (cat *catalog) IsReadOnly() bool {
	return cat.opts.ReadOnly
}

func (cat *catalog) NumRuns() int64 {
	return cat.state.NumRuns
}

func (cat *catalog) NumOutcomes(forNodeCount byte) int64 {
	if forNodeCount == 0 || int(forNodeCount) >= len(cat.state.NumOutcomes) {
		return 0
	}
	return cat.state.NumOutcomes[forNodeCount]
}

func (cat *catalog) bumpOutcomeCount(numNodes byte) {
	for int(numNodes) >= len(cat.state.NumOutcomes) {
		cat.state.NumOutcomes = append(cat.state.NumOutcomes, 0)
	}
	cat.state.NumOutcomes[numNodes]++
	cat.stateDirty = true
}

// TryAddOutcome checks if the given assignment is already in this catalog and
// adds it if not. This is the catalog's OutcomeAdder entry, so a stream stage
// can pour sampled outcomes straight into the db.
//
// Outcome rows are insert-only: re-witnessing an assignment is a no-op even
// when the new Outcome carries a different count.
func (cat *catalog) TryAddOutcome(oc goqaoa.Outcome) bool {
	if cat.opts.ReadOnly {
		return false
	}
	oid, err := oc.Bits.OutcomeID()
	if err != nil || oid.NumNodes() == 0 {
		return false
	}

	txn := cat.db.NewTransaction(true)
	defer txn.Commit()

	var keyBuf [16]byte
	key := append(keyBuf[:0], kOutcomeRowPrefix)
	key = oid.Marshal(key)

	_, err = txn.Get(key)
	if err == nil {
		return false // assignment already witnessed
	}
	if err != badger.ErrKeyNotFound {
		panic(err)
	}

	var flags byte
	if oc.Cut >= 0 {
		flags |= kFlagScored
	}

	var valBuf [24]byte
	row := badger.NewEntry(key, appendOutcomeVal(valBuf[:0], oc)).WithMeta(flags)
	if err = txn.SetEntry(row); err != nil {
		panic(err)
	}

	cat.bumpOutcomeCount(oid.NumNodes())
	return true
}

// AddRun appends the given record under a freshly issued RunID.
//
// Run rows are rare, so the issued ID is made durable right away rather than
// waiting for Close.
func (cat *catalog) AddRun(rec *goqaoa.RunRecord) (uint64, error) {
	if cat.opts.ReadOnly {
		return 0, goqaoa.ErrCatalogReadOnly
	}
	if rec == nil {
		return 0, errors.Wrap(goqaoa.ErrBadCatalogParam, "missing run record")
	}

	rec.RunID = cat.state.NextRunID
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}

	val, err := proto.Marshal(rec)
	if err != nil {
		return 0, err
	}

	var keyBuf [16]byte
	key := appendRunKey(keyBuf[:0], rec.RunID)
	err = cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		return 0, err
	}

	cat.state.NextRunID++
	cat.state.NumRuns++
	cat.stateDirty = true
	cat.flushState()
	return rec.RunID, nil
}

func (cat *catalog) GetRun(runID uint64) (*goqaoa.RunRecord, error) {
	rec := &goqaoa.RunRecord{}

	err := cat.db.View(func(txn *badger.Txn) error {
		var keyBuf [16]byte
		item, err := txn.Get(appendRunKey(keyBuf[:0], runID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, rec)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, errors.Wrapf(goqaoa.ErrRunNotFound, "RunID %d", runID)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// SelectRuns sends each recorded run meeting the selection criteria to onHit,
// in ascending RunID order, returning after the last hit is sent.
func (cat *catalog) SelectRuns(sel goqaoa.RunSelector, onHit goqaoa.OnRunHit) {
	txn := cat.db.NewTransaction(false)
	defer txn.Discard()

	itr := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   100,
		Prefix:         []byte{kRunRowPrefix},
	})
	defer itr.Close()

	var seekBuf [16]byte
	seekKey := appendRunKey(seekBuf[:0], sel.MinRunID)

	for itr.Seek(seekKey); itr.Valid(); itr.Next() {
		item := itr.Item()
		runID := binary.BigEndian.Uint64(item.Key()[1:])
		if sel.MaxRunID != 0 && runID > sel.MaxRunID {
			break
		}

		rec := &goqaoa.RunRecord{}
		err := item.Value(func(val []byte) error {
			return proto.Unmarshal(val, rec)
		})
		if err != nil {
			panic(err)
		}

		if sel.AllowRun(rec) {
			onHit <- rec
		}
	}
}

// SelectOutcomes sends each stored outcome meeting the selection criteria to
// onHit, in ascending OutcomeID order, returning after the last hit is sent.
func (cat *catalog) SelectOutcomes(sel goqaoa.OutcomeSelector, onHit goqaoa.OnOutcomeHit) {
	txn := cat.db.NewTransaction(false)
	defer txn.Discard()

	itr := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   300,
		Prefix:         []byte{kOutcomeRowPrefix},
	})
	defer itr.Close()

	seekKey := []byte{kOutcomeRowPrefix, sel.Min.NumNodes}

	for itr.Seek(seekKey); itr.Valid(); itr.Next() {
		item := itr.Item()
		key := item.Key()
		if key[1] > sel.Max.NumNodes {
			break
		}

		// Unscored rows can't meet a scored lower bound, so the meta flag
		// lets us skip them without touching the value.
		if sel.Min.Cut >= 0 && item.UserMeta()&kFlagScored == 0 {
			continue
		}

		var oid goqaoa.OutcomeID
		if err := oid.Unmarshal(key[1:]); err != nil {
			panic(err)
		}

		oc := goqaoa.Outcome{
			Bits: oid.Bits(),
		}
		err := item.Value(func(val []byte) error {
			return readOutcomeVal(val, &oc)
		})
		if err != nil {
			panic(err)
		}

		if sel.AllowOutcome(oc) {
			onHit <- oc
		}
	}
}

func appendRunKey(in []byte, runID uint64) []byte {
	out := append(in, kRunRowPrefix)
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], runID)
	return append(out, idBuf[:]...)
}

func appendOutcomeVal(in []byte, oc goqaoa.Outcome) []byte {
	var scrap [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scrap[:], uint64(oc.Count))
	out := append(in, scrap[:n]...)
	n = binary.PutUvarint(scrap[:], uint64(oc.Cut+1))
	return append(out, scrap[:n]...)
}

func readOutcomeVal(val []byte, oc *goqaoa.Outcome) error {
	count, n := binary.Uvarint(val)
	if n <= 0 {
		return goqaoa.ErrUnmarshal
	}
	cutPlus1, m := binary.Uvarint(val[n:])
	if m <= 0 {
		return goqaoa.ErrUnmarshal
	}
	oc.Count = int64(count)
	oc.Cut = int32(cutPlus1) - 1
	return nil
}
