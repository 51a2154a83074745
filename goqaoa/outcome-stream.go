package goqaoa

import (
	"fmt"
	"io"
	"strings"
)

// OutcomeStream is a chain of channel stages, each a goroutine feeding the next.
type OutcomeStream struct {
	Outlet chan Outcome
}

func NewOutcomeStream() *OutcomeStream {
	stream := &OutcomeStream{
		Outlet: make(chan Outcome),
	}
	return stream
}

// StreamCounts emits a histogram's outcomes in ascending OutcomeID order,
// scoring each with cut (which may be nil, leaving Cut at -1).
func StreamCounts(counts Counts, cut CutFunc) *OutcomeStream {
	next := NewOutcomeStream()

	go func() {
		oids, err := counts.SortedIDs()
		if err != nil {
			panic(err)
		}
		for _, oid := range oids {
			oc := Outcome{
				Bits:  oid.Bits(),
				Count: counts[oid.Bits()],
				Cut:   -1,
			}
			if cut != nil {
				oc.Cut = cut(oc.Bits)
			}
			next.Outlet <- oc
		}
		next.Close()
	}()

	return next
}

func (stream *OutcomeStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *OutcomeStream) Push(oc Outcome) {
	stream.Outlet <- oc
}

func (stream *OutcomeStream) PullOutcome() Outcome {
	oc := <-stream.Outlet
	return oc
}

// PullAll drains this stream, returning how many outcomes flowed through.
func (stream *OutcomeStream) PullAll() int {
	count := int(0)
	for range stream.Outlet {
		count++
	}
	return count
}

func (stream *OutcomeStream) Print(
	out io.WriteCloser,
	opts PrintOpts) *OutcomeStream {

	next := &OutcomeStream{
		Outlet: make(chan Outcome, 1),
	}

	go func() {
		buf := strings.Builder{}
		buf.Grow(128)

		count := 0
		for oc := range stream.Outlet {
			if len(opts.Label) > 0 {
				buf.WriteString(opts.Label)
				buf.WriteByte(',')
			}
			count++
			if opts.Ordinals {
				fmt.Fprintf(&buf, "%06d,", count)
			}
			oc.WriteAsString(&buf, opts)
			buf.WriteByte('\n')
			out.Write([]byte(buf.String()))
			buf.Reset()
			next.Outlet <- oc
		}
		out.Close()
		next.Close()
	}()

	return next
}

// AddTo forwards only the outcomes that target newly admits.
func (stream *OutcomeStream) AddTo(target OutcomeAdder) *OutcomeStream {
	next := &OutcomeStream{
		Outlet: make(chan Outcome, 1),
	}

	go func() {
		for oc := range stream.Outlet {
			wasAdded := target.TryAddOutcome(oc)
			if wasAdded {
				next.Outlet <- oc
			}
		}
		next.Close()
	}()

	return next
}

func SelectFromCatalog(cat Catalog, sel OutcomeSelector) *OutcomeStream {
	next := &OutcomeStream{
		Outlet: make(chan Outcome, 1),
	}

	onHit := make(chan Outcome, 4)

	go func() {
		cat.SelectOutcomes(sel, onHit)
		close(onHit)
	}()

	go func() {
		for oc := range onHit {
			if sel.AllowOutcome(oc) {
				next.Outlet <- oc
			}
		}
		next.Close()
	}()

	return next
}

func (stream *OutcomeStream) SelectFromStream(sel OutcomeSelector) *OutcomeStream {
	next := &OutcomeStream{
		Outlet: make(chan Outcome, 1),
	}

	go func() {
		for oc := range stream.Outlet {
			if sel.AllowOutcome(oc) {
				next.Outlet <- oc
			}
		}
		next.Close()
	}()

	return next
}

// NopWriteCloser adapts out for stream printing when out must stay open (e.g. os.Stdout).
func NopWriteCloser(out io.Writer) io.WriteCloser {
	return nopWriteCloser{out}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
