package core

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// BatchJob describes a batch download job as reported by the service.
// All fields are populated from the response; a BatchJob is never mutated
// after it is produced.
type BatchJob struct {
	// ID is the service-assigned job identifier.
	ID string `json:"id"`
	// UserID identifies the user that submitted the job.
	UserID string `json:"user_id"`
	// BillID links the job to a billing record. Example jobs carry none.
	BillID string `json:"bill_id,omitempty"`
	// Dataset is the dataset code the job draws from.
	Dataset string `json:"dataset"`
	// Symbols are the requested symbols.
	Symbols []string `json:"symbols"`
	// STypeIn is the symbology type of the requested symbols.
	STypeIn SType `json:"stype_in"`
	// STypeOut is the symbology type of the result.
	STypeOut SType `json:"stype_out"`
	// Schema is the record schema of the result.
	Schema Schema `json:"schema"`
	// Start is the inclusive start of the requested range.
	Start time.Time `json:"start"`
	// End is the exclusive end of the requested range.
	End time.Time `json:"end"`
	// Limit caps the number of records, zero meaning no cap.
	Limit uint64 `json:"limit"`
	// Compression is how the result files are compressed.
	Compression Compression `json:"compression"`
	// SplitDuration is the time span each result file covers.
	SplitDuration DurationInterval `json:"split_duration"`
	// SplitSize caps the size of each result file, zero meaning no cap.
	SplitSize uint64 `json:"split_size"`
	// SplitSymbols indicates one result file per symbol.
	SplitSymbols bool `json:"split_symbols"`
	// Packaging is how the result files are bundled.
	Packaging Packaging `json:"packaging"`
	// Delivery is how the result files reach the user.
	Delivery Delivery `json:"delivery"`
	// IsFullBook indicates the schema covers the full order book.
	IsFullBook bool `json:"is_full_book"`
	// IsExample indicates a free example job.
	IsExample bool `json:"is_example"`
	// State is where the job sits in its lifecycle.
	State BatchState `json:"state"`
	// RecordCount is the number of records in the result.
	RecordCount uint64 `json:"record_count"`
	// BilledSize is the number of bytes billed for.
	BilledSize uint64 `json:"billed_size"`
	// ActualSize is the number of bytes in the result.
	ActualSize uint64 `json:"actual_size"`
	// PackageSize is the number of bytes after packaging.
	PackageSize uint64 `json:"package_size"`
}

// MappingInterval is one date interval of a symbol mapping: within
// [StartDate, EndDate) the requested symbol resolves to Symbol.
type MappingInterval struct {
	// StartDate is the inclusive first day, as an ISO 8601 date.
	StartDate string `json:"d0"`
	// EndDate is the exclusive last day, as an ISO 8601 date.
	EndDate string `json:"d1"`
	// Symbol is the resolved symbol for the interval.
	Symbol string `json:"s"`
}

// SymbologyResolution is the result of resolving symbols between two
// symbology types over a date range.
type SymbologyResolution struct {
	// Mappings holds, per requested symbol, the intervals it resolves over.
	Mappings map[string][]MappingInterval `json:"result"`
	// Partial lists symbols that resolved for only part of the range.
	Partial []string `json:"partial"`
	// NotFound lists symbols that did not resolve at all.
	NotFound []string `json:"not_found"`
}

// PriceBySchema maps record schemas to a unit price in US dollars per
// gigabyte.
type PriceBySchema = map[Schema]apd.Decimal

// PriceByFeedMode maps feed modes to schema unit prices.
type PriceByFeedMode = map[FeedMode]PriceBySchema
