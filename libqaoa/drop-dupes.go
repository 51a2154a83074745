package libqaoa

import (
	"bytes"
	"hash/maphash"

	"github.com/ansatz-systems/goqaoa/goqaoa"
)

// dropDupes is an OutcomeAdder admitting each assignment once, for wiring
// into OutcomeStream.AddTo as a dedupe stage.
type dropDupes struct {
	hashMap   map[uint64][]byte
	hasher    maphash.Hash
	bufPool   []byte
	bufPoolSz int
	opts      DropDupeOpts
}

const DefaultPoolSz = 32 * 1024

type DropDupeOpts struct {
	PoolSz int // 0 denotes DefaultPoolSz (32k)
}

func NewDropDupes(opts DropDupeOpts) goqaoa.OutcomeAdder {
	if opts.PoolSz <= 0 {
		opts.PoolSz = DefaultPoolSz
	}
	return &dropDupes{
		hashMap: make(map[uint64][]byte),
		opts:    opts,
	}
}

func (dd *dropDupes) Reset() {
	dd.bufPoolSz = 0
	for k := range dd.hashMap {
		delete(dd.hashMap, k)
	}
}

func (dd *dropDupes) Close() {
	dd.Reset()
	dd.hashMap = nil
}

func (dd *dropDupes) TryAddOutcome(oc goqaoa.Outcome) bool {
	var keyBuf [512]byte
	key := append(keyBuf[:0], oc.Bits...)

	dd.hasher.Reset()
	dd.hasher.Write(key)
	hash := dd.hasher.Sum64()

	// Open addressing: walk forward past hash collisions with unequal keys.
	existing, found := dd.hashMap[hash]
	for found {
		if bytes.Equal(existing, key) {
			return false
		}
		hash++
		existing, found = dd.hashMap[hash]
	}

	// New entry: back the key bytes in our pool so the map doesn't pin
	// per-entry allocations. A full pool just starts a fresh one.
	pos := dd.bufPoolSz
	itemLen := len(key)
	if pos+itemLen > cap(dd.bufPool) {
		allocSz := dd.opts.PoolSz
		if itemLen > allocSz {
			allocSz = itemLen
		}
		dd.bufPool = make([]byte, allocSz)
		dd.bufPoolSz = 0
		pos = 0
	}

	dd.hashMap[hash] = append(dd.bufPool[pos:pos], key...)
	dd.bufPoolSz += itemLen
	return true
}
