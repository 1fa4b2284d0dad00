package hist

import (
	"encoding"
	"fmt"
	"strconv"

	"tickvault/pkg/core"
	"tickvault/pkg/dynjson"
)

// enumText maps a string from the response through an enum's text table.
// An unrecognized name is reported as a type mismatch at the given
// context, under the given key.
func enumText[E any, PE interface {
	*E
	encoding.TextUnmarshaler
}](c dynjson.Ctx, text, key string) (E, error) {
	var e E
	if err := PE(&e).UnmarshalText([]byte(text)); err != nil {
		return e, &core.TypeMismatchError{
			Path:     c.Path(),
			Expected: fmt.Sprintf("%T", e),
			Actual:   dynjson.KindString.String(),
			Value:    strconv.Quote(text),
			Key:      key,
		}
	}
	return e, nil
}

// parseBatchJob decodes one batch job object, checking fields in the
// gateway's canonical order. Every field except bill_id is required.
func parseBatchJob(c dynjson.Ctx, doc dynjson.Value) (*core.BatchJob, error) {
	var (
		job core.BatchJob
		err error
	)
	if job.ID, err = c.String(doc, "id"); err != nil {
		return nil, err
	}
	if job.UserID, err = c.String(doc, "user_id"); err != nil {
		return nil, err
	}
	if job.BillID, err = c.StringOr(doc, "bill_id", ""); err != nil {
		return nil, err
	}
	if job.Dataset, err = c.String(doc, "dataset"); err != nil {
		return nil, err
	}
	if job.Symbols, err = c.Strings(doc, "symbols"); err != nil {
		return nil, err
	}
	if job.STypeIn, err = dynjson.Enum[core.SType](c, doc, "stype_in"); err != nil {
		return nil, err
	}
	if job.STypeOut, err = dynjson.Enum[core.SType](c, doc, "stype_out"); err != nil {
		return nil, err
	}
	if job.Schema, err = dynjson.Enum[core.Schema](c, doc, "schema"); err != nil {
		return nil, err
	}
	if job.Start, err = c.TimeNanos(doc, "start"); err != nil {
		return nil, err
	}
	if job.End, err = c.TimeNanos(doc, "end"); err != nil {
		return nil, err
	}
	if job.Limit, err = c.Uint(doc, "limit"); err != nil {
		return nil, err
	}
	if job.Compression, err = dynjson.Enum[core.Compression](c, doc, "compression"); err != nil {
		return nil, err
	}
	if job.SplitDuration, err = dynjson.Enum[core.DurationInterval](c, doc, "split_duration"); err != nil {
		return nil, err
	}
	if job.SplitSize, err = c.Uint(doc, "split_size"); err != nil {
		return nil, err
	}
	if job.SplitSymbols, err = c.Bool(doc, "split_symbols"); err != nil {
		return nil, err
	}
	if job.Packaging, err = dynjson.Enum[core.Packaging](c, doc, "packaging"); err != nil {
		return nil, err
	}
	if job.Delivery, err = dynjson.Enum[core.Delivery](c, doc, "delivery"); err != nil {
		return nil, err
	}
	if job.IsFullBook, err = c.Bool(doc, "is_full_book"); err != nil {
		return nil, err
	}
	if job.IsExample, err = c.Bool(doc, "is_example"); err != nil {
		return nil, err
	}
	if job.State, err = dynjson.Enum[core.BatchState](c, doc, "state"); err != nil {
		return nil, err
	}
	if job.RecordCount, err = c.Uint(doc, "record_count"); err != nil {
		return nil, err
	}
	if job.BilledSize, err = c.Uint(doc, "billed_size"); err != nil {
		return nil, err
	}
	if job.ActualSize, err = c.Uint(doc, "actual_size"); err != nil {
		return nil, err
	}
	if job.PackageSize, err = c.Uint(doc, "package_size"); err != nil {
		return nil, err
	}
	return &job, nil
}

// parseSymbologyResolution decodes a symbology.resolve response: a result
// object keyed by requested symbol, each holding an array of mapping
// intervals, plus the partial and not_found symbol lists.
func parseSymbologyResolution(c dynjson.Ctx, doc dynjson.Value) (*core.SymbologyResolution, error) {
	resultDoc, err := c.Object(doc, "result")
	if err != nil {
		return nil, err
	}
	resultCtx := c.At("result")
	bySymbol, err := resultCtx.Fields(resultDoc)
	if err != nil {
		return nil, err
	}

	res := &core.SymbologyResolution{
		Mappings: make(map[string][]core.MappingInterval, len(bySymbol)),
	}
	for symbol := range bySymbol {
		intervalDocs, err := resultCtx.Array(resultDoc, symbol)
		if err != nil {
			return nil, err
		}
		symbolCtx := resultCtx.At(symbol)
		intervals := make([]core.MappingInterval, len(intervalDocs))
		for i, intervalDoc := range intervalDocs {
			ic := symbolCtx.Index(i)
			if intervals[i].StartDate, err = ic.String(intervalDoc, "d0"); err != nil {
				return nil, err
			}
			if intervals[i].EndDate, err = ic.String(intervalDoc, "d1"); err != nil {
				return nil, err
			}
			if intervals[i].Symbol, err = ic.String(intervalDoc, "s"); err != nil {
				return nil, err
			}
		}
		res.Mappings[symbol] = intervals
	}

	if res.Partial, err = c.Strings(doc, "partial"); err != nil {
		return nil, err
	}
	if res.NotFound, err = c.Strings(doc, "not_found"); err != nil {
		return nil, err
	}
	return res, nil
}
