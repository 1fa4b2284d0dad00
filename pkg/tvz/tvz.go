// Package tvz implements the TVZ framed binary record format the service
// streams market data in: a fixed metadata header, a symbol table, and a
// sequence of length-prefixed records, zstd-compressed when the metadata
// says so.
//
// The package offers two layers. ReadMetadata and ReadRecord decode from any
// io.Reader and block until enough bytes arrive. Decoder couples them to an
// in-memory pipe so a transport can feed bytes chunk by chunk from one
// goroutine while another decodes.
package tvz

import (
	"time"

	"tickvault/pkg/core"
)

// Wire layout constants. All integers are little-endian.
const (
	// FormatVersion is the newest TVZ version this package understands.
	FormatVersion = 1

	magic           = "TVZ"
	metadataLen     = 64
	datasetLen      = 16
	symbolLen       = 22
	recordHeaderLen = 16
	lengthUnit      = 4

	maxSymbolCount = 1 << 20
)

// NoRecordCount in Metadata.RecordCount marks a stream of unknown length,
// such as a live session. Historical streams always announce their count.
const NoRecordCount = ^uint64(0)

// Metadata describes the record stream that follows it on the wire.
type Metadata struct {
	// Version is the TVZ format version of the stream.
	Version uint8
	// Dataset is the dataset code the records come from.
	Dataset string
	// Schema is the record schema of the stream.
	Schema core.Schema
	// STypeIn is the symbology type the symbols were requested in.
	STypeIn core.SType
	// STypeOut is the symbology type of the records.
	STypeOut core.SType
	// Compression is how the record stream is compressed. The metadata
	// header and symbol table are never compressed.
	Compression core.Compression
	// Start is the inclusive start of the range, zero when unset.
	Start time.Time
	// End is the exclusive end of the range, zero when unset.
	End time.Time
	// Limit caps the number of records, zero meaning no cap.
	Limit uint64
	// RecordCount is the number of records in the stream, or NoRecordCount
	// when the stream is unbounded.
	RecordCount uint64
	// Symbols are the requested symbols.
	Symbols []string
}
