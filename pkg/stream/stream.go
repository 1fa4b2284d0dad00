// Package stream has helpers for consuming decoded record sequences.
package stream

import (
	"iter"

	"tickvault/pkg/tvz"
)

// Merge combines record sequences into one sequence ordered by event time.
// Each input must itself be ordered by event time. When events tie, records
// come out in the order their sequences were passed in. The first error
// from any input ends the merged sequence with that error.
//
// Merge lets several historical pulls replay as one feed, for example the
// same session pulled from more than one dataset.
func Merge(seqs ...iter.Seq2[tvz.Record, error]) iter.Seq2[tvz.Record, error] {
	return func(yield func(tvz.Record, error) bool) {
		type cursor struct {
			next func() (tvz.Record, error, bool)
			rec  tvz.Record
		}

		stops := make([]func(), 0, len(seqs))
		defer func() {
			for _, stop := range stops {
				stop()
			}
		}()

		live := make([]*cursor, 0, len(seqs))
		for _, seq := range seqs {
			next, stop := iter.Pull2(seq)
			stops = append(stops, stop)
			rec, err, ok := next()
			if !ok {
				continue
			}
			if err != nil {
				yield(nil, err)
				return
			}
			live = append(live, &cursor{next: next, rec: rec})
		}

		for len(live) > 0 {
			// Strict less keeps the earliest argument on ties.
			lead := 0
			for i := 1; i < len(live); i++ {
				if live[i].rec.Header().TsEvent < live[lead].rec.Header().TsEvent {
					lead = i
				}
			}
			c := live[lead]
			if !yield(c.rec, nil) {
				return
			}
			rec, err, ok := c.next()
			if !ok {
				live = append(live[:lead], live[lead+1:]...)
				continue
			}
			if err != nil {
				yield(nil, err)
				return
			}
			c.rec = rec
		}
	}
}

// Collect drains seq into a slice. On error it returns the records
// delivered before the failure alongside the error.
func Collect(seq iter.Seq2[tvz.Record, error]) ([]tvz.Record, error) {
	var recs []tvz.Record
	for rec, err := range seq {
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
