package goqaoa

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// FormatBits renders a basis state index as a Bitstring of the given width.
// Character i carries bit i, so node i always lands at bits[i] regardless of width.
func FormatBits(stateIdx uint64, numNodes byte) Bitstring {
	str := make([]byte, numNodes)
	for i := range str {
		str[i] = '0' + byte((stateIdx>>i)&1)
	}
	return Bitstring(str)
}

// StateIndex parses this Bitstring back into a basis state index.
func (bits Bitstring) StateIndex() (uint64, error) {
	if len(bits) > MaxNodes {
		return 0, ErrGraphTooLarge
	}
	idx := uint64(0)
	for i := 0; i < len(bits); i++ {
		switch bits[i] {
		case '1':
			idx |= uint64(1) << i
		case '0':
		default:
			return 0, ErrBadBitstring
		}
	}
	return idx, nil
}

// Complement returns the assignment with both partition sides swapped.
// A Bitstring and its Complement always cut the same edges.
func (bits Bitstring) Complement() Bitstring {
	str := make([]byte, len(bits))
	for i := 0; i < len(bits); i++ {
		str[i] = '0' + '1' - bits[i]
	}
	return Bitstring(str)
}

// OnesCount returns the size of the '1' partition side.
func (bits Bitstring) OnesCount() int {
	n := 0
	for i := 0; i < len(bits); i++ {
		if bits[i] == '1' {
			n++
		}
	}
	return n
}

// OutcomeID forms the packed ID of this assignment.
func (bits Bitstring) OutcomeID() (OutcomeID, error) {
	stateIdx, err := bits.StateIndex()
	if err != nil {
		return 0, err
	}
	return FormOutcomeID(byte(len(bits)), stateIdx), nil
}

const OutcomeIDSz = 7

func FormOutcomeID(numNodes byte, stateIdx uint64) OutcomeID {
	return OutcomeID((uint64(numNodes) << 48) | stateIdx)
}

func (oid OutcomeID) Marshal(in []byte) []byte {
	return append(in,
		byte(oid>>48),
		byte(oid>>40),
		byte(oid>>32),
		byte(oid>>24),
		byte(oid>>16),
		byte(oid>>8),
		byte(oid),
	)
}

func (oid *OutcomeID) Unmarshal(in []byte) error {
	if len(in) < OutcomeIDSz {
		*oid = 0
		return ErrUnmarshal
	}
	*oid = OutcomeID(
		(uint64(in[0]) << 48) | // MSB is the node count
			(uint64(in[1]) << 40) |
			(uint64(in[2]) << 32) |
			(uint64(in[3]) << 24) |
			(uint64(in[4]) << 16) |
			(uint64(in[5]) << 8) |
			(uint64(in[6])))
	return nil
}

func (oid OutcomeID) NumNodes() byte {
	return byte(oid >> 48)
}

func (oid OutcomeID) StateIndex() uint64 {
	return 0xFFFFFFFFFFFF & uint64(oid)
}

func (oid OutcomeID) Bits() Bitstring {
	return FormatBits(oid.StateIndex(), oid.NumNodes())
}

func (oid OutcomeID) WriteAsString(out io.Writer) {
	fmt.Fprintf(out, "%d:%s", oid.NumNodes(), oid.Bits())
}

// WriteAsString writes one outcome the way stream printing expects it.
func (oc *Outcome) WriteAsString(out io.Writer, opts PrintOpts) {
	io.WriteString(out, string(oc.Bits))
	if opts.Cuts && oc.Cut >= 0 {
		fmt.Fprintf(out, ",cut=%d", oc.Cut)
	}
	if opts.Counts {
		fmt.Fprintf(out, ",n=%d", oc.Count)
	}
}

// NumSamples returns the total number of shots this histogram observed.
func (counts Counts) NumSamples() int64 {
	N := int64(0)
	for _, ni := range counts {
		N += ni
	}
	return N
}

// NumNodes returns the common width of this histogram's bitstrings.
// An empty histogram returns ErrNoSamples; mixed widths return ErrBadBitstring.
func (counts Counts) NumNodes() (byte, error) {
	numNodes := -1
	for bits := range counts {
		if numNodes < 0 {
			numNodes = len(bits)
		} else if numNodes != len(bits) {
			return 0, ErrBadBitstring
		}
	}
	if numNodes < 0 {
		return 0, ErrNoSamples
	}
	if numNodes > MaxNodes {
		return 0, ErrGraphTooLarge
	}
	return byte(numNodes), nil
}

// SortedIDs returns this histogram's assignments as ascending OutcomeIDs,
// giving every consumer the same deterministic visit order.
func (counts Counts) SortedIDs() ([]OutcomeID, error) {
	oids := make([]OutcomeID, 0, len(counts))
	for bits := range counts {
		oid, err := bits.OutcomeID()
		if err != nil {
			return nil, err
		}
		oids = append(oids, oid)
	}
	sort.Slice(oids, func(i, j int) bool {
		return oids[i] < oids[j]
	})
	return oids, nil
}

// AppendCountsLSM appends a canonical binary encoding of this histogram to out.
//
// Layout: node count, entry count, then each (state index, count) pair in
// ascending OutcomeID order, all as unsigned varints.
func (counts Counts) AppendCountsLSM(out []byte) (CountsLSM, error) {
	numNodes, err := counts.NumNodes()
	if err != nil {
		return nil, err
	}
	oids, err := counts.SortedIDs()
	if err != nil {
		return nil, err
	}

	var scrap [12]byte
	key := out
	n := binary.PutUvarint(scrap[:], uint64(numNodes))
	key = append(key, scrap[:n]...)
	n = binary.PutUvarint(scrap[:], uint64(len(oids)))
	key = append(key, scrap[:n]...)

	for _, oid := range oids {
		n = binary.PutUvarint(scrap[:], oid.StateIndex())
		key = append(key, scrap[:n]...)
		n = binary.PutUvarint(scrap[:], uint64(counts[oid.Bits()]))
		key = append(key, scrap[:n]...)
	}
	return key, nil
}

// InitFromCountsLSM assigns this Counts from a binary encoding made from AppendCountsLSM().
// A zero-length encoding yields an empty histogram.
func (counts *Counts) InitFromCountsLSM(lsm CountsLSM) error {
	out := make(Counts, 8)
	*counts = out
	if len(lsm) == 0 {
		return nil
	}

	rdr := bytes.NewReader(lsm)
	numNodes, err := binary.ReadUvarint(rdr)
	if err != nil || numNodes > MaxNodes {
		return ErrUnmarshal
	}
	numEntries, err := binary.ReadUvarint(rdr)
	if err != nil {
		return ErrUnmarshal
	}

	for i := uint64(0); i < numEntries; i++ {
		stateIdx, err := binary.ReadUvarint(rdr)
		if err != nil {
			return ErrUnmarshal
		}
		ni, err := binary.ReadUvarint(rdr)
		if err != nil {
			return ErrUnmarshal
		}
		out[FormatBits(stateIdx, byte(numNodes))] = int64(ni)
	}
	return nil
}

// Layers returns the number of circuit layers this param vector drives.
func (p Params) Layers() int {
	return len(p) / 2
}

func (p Params) Validate() error {
	if len(p) == 0 || len(p)&1 != 0 {
		return ErrBadParams
	}
	return nil
}

// Split returns the mixer (beta) and phase separation (gamma) halves.
func (p Params) Split() (beta, gamma []float64) {
	n := len(p) / 2
	return p[:n], p[n:]
}

// FormParams returns a param vector for the given layer count with every angle set to init.
func FormParams(numLayers int, init float64) Params {
	p := make(Params, 2*numLayers)
	for i := range p {
		p[i] = init
	}
	return p
}
