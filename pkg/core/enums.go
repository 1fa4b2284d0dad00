package core

import "fmt"

// Schema identifies the shape of records in a dataset. The string form is
// what the service accepts in request parameters and returns in responses.
type Schema int

// Schema constants define the record schemas the service can serve.
const (
	// SchemaMbo is market-by-order: every order book event.
	SchemaMbo Schema = iota
	// SchemaMbp1 is market-by-price with one book level.
	SchemaMbp1
	// SchemaMbp10 is market-by-price with ten book levels.
	SchemaMbp10
	// SchemaTbbo is trades joined with the best bid/offer at trade time.
	SchemaTbbo
	// SchemaTrades is every trade event.
	SchemaTrades
	// SchemaOhlcv1S is one-second aggregates.
	SchemaOhlcv1S
	// SchemaOhlcv1M is one-minute aggregates.
	SchemaOhlcv1M
	// SchemaOhlcv1H is one-hour aggregates.
	SchemaOhlcv1H
	// SchemaOhlcv1D is one-day aggregates.
	SchemaOhlcv1D
	// SchemaDefinition is instrument definitions.
	SchemaDefinition
	// SchemaStatistics is venue-published statistics.
	SchemaStatistics
)

// String returns the service's string representation of the schema.
func (s Schema) String() string {
	return [...]string{
		"mbo",
		"mbp-1",
		"mbp-10",
		"tbbo",
		"trades",
		"ohlcv-1s",
		"ohlcv-1m",
		"ohlcv-1h",
		"ohlcv-1d",
		"definition",
		"statistics",
	}[s]
}

// MarshalText implements encoding.TextMarshaler for Schema.
func (s Schema) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for Schema.
// Unrecognized text is an error; the mapping is bijective.
func (s *Schema) UnmarshalText(text []byte) error {
	switch string(text) {
	case "mbo":
		*s = SchemaMbo
	case "mbp-1":
		*s = SchemaMbp1
	case "mbp-10":
		*s = SchemaMbp10
	case "tbbo":
		*s = SchemaTbbo
	case "trades":
		*s = SchemaTrades
	case "ohlcv-1s":
		*s = SchemaOhlcv1S
	case "ohlcv-1m":
		*s = SchemaOhlcv1M
	case "ohlcv-1h":
		*s = SchemaOhlcv1H
	case "ohlcv-1d":
		*s = SchemaOhlcv1D
	case "definition":
		*s = SchemaDefinition
	case "statistics":
		*s = SchemaStatistics
	default:
		return fmt.Errorf("unknown schema '%s'", text)
	}
	return nil
}

// SType identifies a symbology type, the namespace a symbol is expressed in.
type SType int

// Symbology type constants.
const (
	// STypeNative is the venue's own symbology.
	STypeNative SType = iota
	// STypeProductID is the service's numeric instrument identifier.
	STypeProductID
	// STypeSmart is the service's smart symbology, resolving continuous and
	// lead-month aliases.
	STypeSmart
)

// String returns the service's string representation of the symbology type.
func (s SType) String() string {
	return [...]string{
		"native",
		"product_id",
		"smart",
	}[s]
}

// MarshalText implements encoding.TextMarshaler for SType.
func (s SType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for SType.
// Unrecognized text is an error; the mapping is bijective.
func (s *SType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "native":
		*s = STypeNative
	case "product_id":
		*s = STypeProductID
	case "smart":
		*s = STypeSmart
	default:
		return fmt.Errorf("unknown stype '%s'", text)
	}
	return nil
}

// FeedMode identifies how data is consumed for billing purposes.
type FeedMode int

// Feed mode constants.
const (
	FeedModeHistorical FeedMode = iota
	FeedModeHistoricalStreaming
	FeedModeLive
)

// String returns the service's string representation of the feed mode.
func (m FeedMode) String() string {
	return [...]string{
		"historical",
		"historical-streaming",
		"live",
	}[m]
}

// MarshalText implements encoding.TextMarshaler for FeedMode.
func (m FeedMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for FeedMode.
// Unrecognized text is an error; the mapping is bijective.
func (m *FeedMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "historical":
		*m = FeedModeHistorical
	case "historical-streaming":
		*m = FeedModeHistoricalStreaming
	case "live":
		*m = FeedModeLive
	default:
		return fmt.Errorf("unknown feed mode '%s'", text)
	}
	return nil
}

// Delivery identifies how a batch job's files reach the user.
type Delivery int

// Delivery constants. The zero value is the service default.
const (
	DeliveryDownload Delivery = iota
	DeliveryS3
	DeliveryDisk
)

// String returns the service's string representation of the delivery method.
func (d Delivery) String() string {
	return [...]string{
		"download",
		"s3",
		"disk",
	}[d]
}

// MarshalText implements encoding.TextMarshaler for Delivery.
func (d Delivery) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for Delivery.
// Unrecognized text is an error; the mapping is bijective.
func (d *Delivery) UnmarshalText(text []byte) error {
	switch string(text) {
	case "download":
		*d = DeliveryDownload
	case "s3":
		*d = DeliveryS3
	case "disk":
		*d = DeliveryDisk
	default:
		return fmt.Errorf("unknown delivery '%s'", text)
	}
	return nil
}

// Packaging identifies how a batch job's files are bundled.
type Packaging int

// Packaging constants. The zero value is the service default.
const (
	PackagingNone Packaging = iota
	PackagingZip
	PackagingTar
)

// String returns the service's string representation of the packaging.
func (p Packaging) String() string {
	return [...]string{
		"none",
		"zip",
		"tar",
	}[p]
}

// MarshalText implements encoding.TextMarshaler for Packaging.
func (p Packaging) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for Packaging.
// Unrecognized text is an error; the mapping is bijective.
func (p *Packaging) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*p = PackagingNone
	case "zip":
		*p = PackagingZip
	case "tar":
		*p = PackagingTar
	default:
		return fmt.Errorf("unknown packaging '%s'", text)
	}
	return nil
}

// BatchState identifies where a batch job sits in its lifecycle.
type BatchState int

// Batch state constants, in lifecycle order.
const (
	BatchStateReceived BatchState = iota
	BatchStateQueued
	BatchStateProcessing
	BatchStateDone
	BatchStateExpired
)

// String returns the service's string representation of the batch state.
func (s BatchState) String() string {
	return [...]string{
		"received",
		"queued",
		"processing",
		"done",
		"expired",
	}[s]
}

// IsTerminal returns true if the job will not change state again.
func (s BatchState) IsTerminal() bool {
	return s == BatchStateDone || s == BatchStateExpired
}

// MarshalText implements encoding.TextMarshaler for BatchState.
func (s BatchState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for BatchState.
// Unrecognized text is an error; the mapping is bijective.
func (s *BatchState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "received":
		*s = BatchStateReceived
	case "queued":
		*s = BatchStateQueued
	case "processing":
		*s = BatchStateProcessing
	case "done":
		*s = BatchStateDone
	case "expired":
		*s = BatchStateExpired
	default:
		return fmt.Errorf("unknown batch state '%s'", text)
	}
	return nil
}

// DurationInterval identifies the time span a batch job is split by.
type DurationInterval int

// Duration interval constants. The zero value is the service default.
const (
	DurationIntervalDay DurationInterval = iota
	DurationIntervalWeek
	DurationIntervalMonth
	DurationIntervalNone
)

// String returns the service's string representation of the interval.
func (d DurationInterval) String() string {
	return [...]string{
		"day",
		"week",
		"month",
		"none",
	}[d]
}

// MarshalText implements encoding.TextMarshaler for DurationInterval.
func (d DurationInterval) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for DurationInterval.
// Unrecognized text is an error; the mapping is bijective.
func (d *DurationInterval) UnmarshalText(text []byte) error {
	switch string(text) {
	case "day":
		*d = DurationIntervalDay
	case "week":
		*d = DurationIntervalWeek
	case "month":
		*d = DurationIntervalMonth
	case "none":
		*d = DurationIntervalNone
	default:
		return fmt.Errorf("unknown duration interval '%s'", text)
	}
	return nil
}

// Compression identifies how a record stream is compressed.
type Compression int

// Compression constants. The zero value is no compression.
const (
	CompressionNone Compression = iota
	CompressionZstd
)

// String returns the service's string representation of the compression.
func (c Compression) String() string {
	return [...]string{
		"none",
		"zstd",
	}[c]
}

// MarshalText implements encoding.TextMarshaler for Compression.
func (c Compression) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for Compression.
// Unrecognized text is an error; the mapping is bijective.
func (c *Compression) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*c = CompressionNone
	case "zstd":
		*c = CompressionZstd
	default:
		return fmt.Errorf("unknown compression '%s'", text)
	}
	return nil
}
