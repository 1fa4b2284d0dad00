package core

// Operation labels an endpoint operation for diagnostics. Decode errors use
// the label as the root of their path, so an error names the operation whose
// response it came from.
type Operation int

// Operation constants define all supported endpoint operations.
const (
	// OpBatchSubmitJob submits a new batch download job.
	OpBatchSubmitJob Operation = iota
	// OpBatchListJobs lists batch jobs, optionally filtered by state.
	OpBatchListJobs
	// OpListPublishers lists publishers and their identifiers.
	OpListPublishers
	// OpListDatasets lists dataset codes available over a date range.
	OpListDatasets
	// OpListSchemas lists schemas available for a dataset.
	OpListSchemas
	// OpListUnitPrices lists unit prices per feed mode and schema.
	OpListUnitPrices
	// OpGetBillableSize computes the billable size of a data request.
	OpGetBillableSize
	// OpGetCost computes the cost of a data request.
	OpGetCost
	// OpSymbologyResolve resolves symbols between symbology types.
	OpSymbologyResolve
	// OpTimeseriesStream streams a time range of records.
	OpTimeseriesStream
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return [...]string{
		"BATCH_SUBMIT_JOB",
		"BATCH_LIST_JOBS",
		"LIST_PUBLISHERS",
		"LIST_DATASETS",
		"LIST_SCHEMAS",
		"LIST_UNIT_PRICES",
		"GET_BILLABLE_SIZE",
		"GET_COST",
		"SYMBOLOGY_RESOLVE",
		"TIMESERIES_STREAM",
	}[o]
}
