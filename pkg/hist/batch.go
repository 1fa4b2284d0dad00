package hist

import (
	"context"
	"strings"
	"time"

	"tickvault/pkg/core"
	"tickvault/pkg/dynjson"
)

// BatchSubmitParams describes a batch download job request.
type BatchSubmitParams struct {
	// Dataset is the dataset code to pull from.
	Dataset string `validate:"required"`
	// Symbols are the instruments to include.
	Symbols []string `validate:"required,min=1"`
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
	// STypeOut is the symbology type of the result records.
	STypeOut core.SType
	// SplitDuration is the time span each result file covers.
	SplitDuration core.DurationInterval
	// SplitSize further splits files at the given byte size, zero meaning
	// no size split.
	SplitSize uint64
	// Packaging is how the result files are bundled.
	Packaging core.Packaging
	// Delivery is how the result files reach the user.
	Delivery core.Delivery
}

// BatchSubmitJob submits a new batch download job and returns its initial
// state. Jobs run asynchronously; poll BatchListJobs to track progress.
func (c *Client) BatchSubmitJob(ctx context.Context, params BatchSubmitParams) (*core.BatchJob, error) {
	const op = core.OpBatchSubmitJob
	if err := validateParams(op, &params); err != nil {
		return nil, err
	}

	form := map[string]string{
		"dataset":        params.Dataset,
		"schema":         params.Schema.String(),
		"encoding":       encodingTVZ,
		"start":          fmtTime(params.Start),
		"split_duration": params.SplitDuration.String(),
		"packaging":      params.Packaging.String(),
		"delivery":       params.Delivery.String(),
		"stype_in":       params.STypeIn.String(),
		"stype_out":      params.STypeOut.String(),
	}
	setIfNotEmpty(form, "end", fmtTime(params.End))
	setIfPositive(form, "split_size", params.SplitSize)
	setIfPositive(form, "limit", params.Limit)
	setIfNotEmptyList(form, "symbols", params.Symbols)

	doc, err := c.api.PostJSON(ctx, op, pathBatchSubmitJob, form)
	if err != nil {
		return nil, err
	}
	return parseBatchJob(dynjson.Op(op.String()), doc)
}

// BatchListParams filters BatchListJobs. The zero value lists every job.
type BatchListParams struct {
	// States keeps only jobs in the given states, all states when empty.
	States []core.BatchState
	// Since keeps only jobs modified at or after the given time.
	Since time.Time
}

// BatchListJobs lists the account's batch jobs.
func (c *Client) BatchListJobs(ctx context.Context, params BatchListParams) ([]core.BatchJob, error) {
	const op = core.OpBatchListJobs

	query := map[string]string{}
	if len(params.States) > 0 {
		states := make([]string, len(params.States))
		for i, s := range params.States {
			states[i] = s.String()
		}
		query["states"] = strings.Join(states, ",")
	}
	setIfNotEmpty(query, "since", fmtTime(params.Since))

	doc, err := c.api.GetJSON(ctx, op, pathBatchListJobs, query)
	if err != nil {
		return nil, err
	}

	root := dynjson.Op(op.String())
	items, err := root.Elements(doc)
	if err != nil {
		return nil, err
	}
	jobs := make([]core.BatchJob, 0, len(items))
	for i, item := range items {
		job, err := parseBatchJob(root.Index(i), item)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}
