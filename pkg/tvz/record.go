package tvz

import (
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// RType identifies the concrete type of a record on the wire.
type RType uint8

const (
	// RTypeMbo is a market-by-order message.
	RTypeMbo RType = 0x01
	// RTypeTrade is a trade message.
	RTypeTrade RType = 0x02
	// RTypeOhlcv is a bar aggregate message.
	RTypeOhlcv RType = 0x03
)

func (t RType) String() string {
	switch t {
	case RTypeMbo:
		return "mbo"
	case RTypeTrade:
		return "trade"
	case RTypeOhlcv:
		return "ohlcv"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(t))
	}
}

// PriceScale is the number of fixed-point price units per currency unit.
// A wire price of 21_050_000_000 is 21.05.
const PriceScale = 1_000_000_000

// DecimalPrice converts a fixed-point wire price into an exact decimal.
func DecimalPrice(units int64) *apd.Decimal {
	return apd.New(units, -9)
}

// RecordHeader is the fixed 16-byte header every record starts with.
type RecordHeader struct {
	// Length is the total record size, header included, in 4-byte words.
	Length uint8
	// RType identifies the record type that follows the header.
	RType RType
	// PublisherID identifies the publisher within the dataset.
	PublisherID uint16
	// InstrumentID is the numeric instrument identifier.
	InstrumentID uint32
	// TsEvent is the matching-engine event time in nanoseconds since the
	// UNIX epoch.
	TsEvent uint64
}

// Header returns the header itself so embedding it satisfies Record.
func (h RecordHeader) Header() RecordHeader { return h }

// Time returns TsEvent as a UTC time.
func (h RecordHeader) Time() time.Time {
	return time.Unix(0, int64(h.TsEvent)).UTC()
}

// Record is any decoded TVZ record. Concrete types embed RecordHeader.
type Record interface {
	Header() RecordHeader
}

// MboMsg is a single order event from the market-by-order feed.
type MboMsg struct {
	RecordHeader
	// OrderID is the venue-assigned order identifier.
	OrderID uint64
	// Price is the order price in fixed-point units, see PriceScale.
	Price int64
	// Size is the order quantity.
	Size uint32
	// Flags carries venue bit flags.
	Flags uint8
	// ChannelID is the venue channel the event arrived on.
	ChannelID uint8
	// Action is the order action, such as 'A' add or 'C' cancel.
	Action byte
	// Side is the order side, 'B', 'A' or 'N'.
	Side byte
	// TsRecv is the capture-server receive time in nanoseconds.
	TsRecv uint64
	// TsInDelta is the nanoseconds between venue send and capture.
	TsInDelta int32
	// Sequence is the venue message sequence number.
	Sequence uint32
}

// TradeMsg is an executed trade.
type TradeMsg struct {
	RecordHeader
	// Price is the trade price in fixed-point units, see PriceScale.
	Price int64
	// Size is the traded quantity.
	Size uint32
	// Action is always 'T' for trades.
	Action byte
	// Side is the aggressing side, 'B', 'A' or 'N'.
	Side byte
	// Flags carries venue bit flags.
	Flags uint8
	// Depth is the book level the trade occurred at.
	Depth uint8
	// TsRecv is the capture-server receive time in nanoseconds.
	TsRecv uint64
	// TsInDelta is the nanoseconds between venue send and capture.
	TsInDelta int32
	// Sequence is the venue message sequence number.
	Sequence uint32
}

// OhlcvMsg is one aggregated bar. The bar interval is carried by the
// stream's schema, not by the record.
type OhlcvMsg struct {
	RecordHeader
	// Open is the bar open price in fixed-point units.
	Open int64
	// High is the bar high price in fixed-point units.
	High int64
	// Low is the bar low price in fixed-point units.
	Low int64
	// Close is the bar close price in fixed-point units.
	Close int64
	// Volume is the total volume traded in the bar.
	Volume uint64
}

// UnknownMsg carries a record whose RType this package does not know.
// Decoding preserves it so newer stream revisions pass through intact.
type UnknownMsg struct {
	RecordHeader
	// Body is the raw record payload after the 16-byte header.
	Body []byte
}

// Record body sizes in bytes, without the 16-byte header, and the
// corresponding header Length values in 4-byte words.
const (
	mboBodyLen   = 40
	tradeBodyLen = 32
	ohlcvBodyLen = 40

	mboLength   = (recordHeaderLen + mboBodyLen) / lengthUnit
	tradeLength = (recordHeaderLen + tradeBodyLen) / lengthUnit
	ohlcvLength = (recordHeaderLen + ohlcvBodyLen) / lengthUnit
)
