package hist

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"tickvault/pkg/core"
	"tickvault/pkg/tvz"
)

// MetadataFunc receives the stream metadata once, before the first record.
type MetadataFunc func(md tvz.Metadata)

// RecordFunc receives each record in arrival order. Returning false stops
// the stream promptly and without error.
type RecordFunc func(rec tvz.Record) bool

// TimeseriesParams describes a streaming record request.
type TimeseriesParams struct {
	// Dataset is the dataset code to pull from.
	Dataset string `validate:"required"`
	// Symbols are the instruments to include, all when empty.
	Symbols []string
	// Schema selects the record schema.
	Schema core.Schema
	// Start is the inclusive start of the range.
	Start time.Time `validate:"required"`
	// End is the exclusive end of the range, open ended when zero.
	End time.Time
	// Limit caps the number of records, zero meaning no cap.
	Limit uint64
	// STypeIn is the symbology type of Symbols.
	STypeIn core.SType
	// STypeOut is the symbology type of the records.
	STypeOut core.SType
}

// streamPhase is where a timeseries call sits in its lifecycle.
type streamPhase int32

const (
	phaseAwaitingMetadata streamPhase = iota
	phaseStreaming
	phaseDrained
	phaseCancelled
	phaseJoined
)

func (p streamPhase) String() string {
	switch p {
	case phaseAwaitingMetadata:
		return "awaiting_metadata"
	case phaseStreaming:
		return "streaming"
	case phaseDrained:
		return "drained"
	case phaseCancelled:
		return "cancelled"
	case phaseJoined:
		return "joined"
	}
	return "unknown"
}

// phaseTracker records lifecycle transitions for the debug log.
type phaseTracker struct {
	phase  atomic.Int32
	logger zerolog.Logger
}

func (t *phaseTracker) to(p streamPhase) {
	t.phase.Store(int32(p))
	t.logger.Debug().Str("phase", p.String()).Msg("timeseries stream")
}

// starved reports whether err is a decode failure caused by the input
// ending early. A producer transport error explains such a failure better
// and takes its place.
func starved(err error) bool {
	return core.IsDecodeError(err) && (errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF))
}

// TimeseriesStream pulls a range of records over HTTP and hands them to
// the callbacks as they arrive. Records are decoded one at a time off the
// wire; the payload is never buffered whole. onMetadata may be nil.
//
// The call returns once the stream is drained, the record callback stops
// it, ctx is done, or an error ends it. The underlying request is always
// cleaned up before returning.
func (c *Client) TimeseriesStream(ctx context.Context, params TimeseriesParams, onMetadata MetadataFunc, onRecord RecordFunc) (err error) {
	const op = core.OpTimeseriesStream
	if err := validateParams(op, &params); err != nil {
		return err
	}
	if onRecord == nil {
		return &core.InvalidArgumentError{Op: op.String(), Param: "onRecord", Detail: "must not be nil"}
	}

	query := map[string]string{
		"dataset":   params.Dataset,
		"schema":    params.Schema.String(),
		"stype_in":  params.STypeIn.String(),
		"stype_out": params.STypeOut.String(),
		"start":     fmtTime(params.Start),
	}
	setIfNotEmpty(query, "end", fmtTime(params.End))
	setIfPositive(query, "limit", params.Limit)
	setIfNotEmptyList(query, "symbols", params.Symbols)

	phases := &phaseTracker{logger: c.logger}
	dec := tvz.NewDecoder()
	var stopped bool
	var keepGoing atomic.Bool
	keepGoing.Store(true)

	// The producer feeds response bytes into the decoder as they arrive
	// and reports the transport outcome exactly once.
	producer := make(chan error, 1)
	go func() {
		perr := c.api.GetRawStream(ctx, op, pathTimeseriesStream, query, func(chunk []byte) bool {
			if !keepGoing.Load() {
				return false
			}
			_, werr := dec.Write(chunk)
			return werr == nil
		})
		dec.Close()
		producer <- perr
	}()

	defer func() {
		dec.CloseRead()
		perr := <-producer
		// A deliberate stop returns nil even when tearing the request
		// down surfaces a late transport failure. Otherwise a transport
		// failure outranks the starved-decoder error it caused, while
		// any other decode error keeps priority.
		if !stopped && perr != nil && (err == nil || starved(err)) {
			err = perr
		}
		phases.to(phaseJoined)
	}()

	phases.to(phaseAwaitingMetadata)
	md, err := dec.DecodeMetadata()
	if err != nil {
		return err
	}
	c.logger.Debug().
		Str("dataset", md.Dataset).
		Str("schema", md.Schema.String()).
		Uint64("record_count", md.RecordCount).
		Msg("stream metadata decoded")
	if onMetadata != nil {
		onMetadata(*md)
	}

	phases.to(phaseStreaming)
	for {
		rec, derr := dec.DecodeRecord()
		if derr == io.EOF {
			phases.to(phaseDrained)
			return nil
		}
		if derr != nil {
			return derr
		}
		if !onRecord(rec) {
			stopped = true
			keepGoing.Store(false)
			phases.to(phaseCancelled)
			return nil
		}
	}
}

// TimeseriesRecords returns the requested range as a record iterator.
// Breaking out of the range stops the underlying request. A terminal
// failure is yielded as the final pair, with a nil record.
func (c *Client) TimeseriesRecords(ctx context.Context, params TimeseriesParams) iter.Seq2[tvz.Record, error] {
	return func(yield func(tvz.Record, error) bool) {
		err := c.TimeseriesStream(ctx, params, nil, func(rec tvz.Record) bool {
			return yield(rec, nil)
		})
		if err != nil {
			yield(nil, err)
		}
	}
}
