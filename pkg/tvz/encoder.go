package tvz

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"tickvault/pkg/core"
)

// Encoder writes a TVZ stream to w. The metadata header and symbol table
// go out in NewEncoder; records follow through WriteRecord, compressed
// when the metadata asks for zstd. Close flushes the compressor but not w.
type Encoder struct {
	out io.Writer
	zw  *zstd.Encoder
}

// NewEncoder writes the metadata for md to w and returns an encoder for
// the stream's records.
func NewEncoder(w io.Writer, md *Metadata) (*Encoder, error) {
	if len(md.Dataset) > datasetLen {
		return nil, &core.InvalidArgumentError{
			Op: "NewEncoder", Param: "dataset",
			Detail: fmt.Sprintf("%q exceeds %d bytes", md.Dataset, datasetLen),
		}
	}
	if len(md.Symbols) > maxSymbolCount {
		return nil, &core.InvalidArgumentError{
			Op: "NewEncoder", Param: "symbols",
			Detail: fmt.Sprintf("%d symbols exceed limit %d", len(md.Symbols), maxSymbolCount),
		}
	}
	version := md.Version
	if version == 0 {
		version = FormatVersion
	}

	var buf [metadataLen]byte
	copy(buf[0:3], magic)
	buf[3] = version
	binary.LittleEndian.PutUint16(buf[4:6], uint16(md.Schema))
	buf[6] = uint8(md.STypeIn)
	buf[7] = uint8(md.STypeOut)
	copy(buf[8:8+datasetLen], md.Dataset)
	buf[24] = uint8(md.Compression)
	binary.LittleEndian.PutUint32(buf[28:32], uint32(len(md.Symbols)))
	binary.LittleEndian.PutUint64(buf[32:40], nsField(md.Start))
	binary.LittleEndian.PutUint64(buf[40:48], nsField(md.End))
	binary.LittleEndian.PutUint64(buf[48:56], md.Limit)
	binary.LittleEndian.PutUint64(buf[56:64], md.RecordCount)
	if _, err := w.Write(buf[:]); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	var sym [symbolLen]byte
	for _, s := range md.Symbols {
		if len(s) > symbolLen {
			return nil, &core.InvalidArgumentError{
				Op: "NewEncoder", Param: "symbols",
				Detail: fmt.Sprintf("%q exceeds %d bytes", s, symbolLen),
			}
		}
		clear(sym[:])
		copy(sym[:], s)
		if _, err := w.Write(sym[:]); err != nil {
			return nil, fmt.Errorf("write symbol table: %w", err)
		}
	}

	e := &Encoder{out: w}
	if md.Compression == core.CompressionZstd {
		zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("init zstd writer: %w", err)
		}
		e.zw = zw
		e.out = zw
	}
	return e, nil
}

// WriteRecord appends one record to the stream. The header's Length and
// RType are derived from the concrete type, so callers only fill the
// remaining header fields.
func (e *Encoder) WriteRecord(rec Record) error {
	var (
		buf   []byte
		rtype RType
	)
	switch m := rec.(type) {
	case *MboMsg:
		rtype = RTypeMbo
		buf = make([]byte, recordHeaderLen+mboBodyLen)
		putHeader(buf, m.RecordHeader, mboLength, rtype)
		binary.LittleEndian.PutUint64(buf[16:24], m.OrderID)
		binary.LittleEndian.PutUint64(buf[24:32], uint64(m.Price))
		binary.LittleEndian.PutUint32(buf[32:36], m.Size)
		buf[36] = m.Flags
		buf[37] = m.ChannelID
		buf[38] = m.Action
		buf[39] = m.Side
		binary.LittleEndian.PutUint64(buf[40:48], m.TsRecv)
		binary.LittleEndian.PutUint32(buf[48:52], uint32(m.TsInDelta))
		binary.LittleEndian.PutUint32(buf[52:56], m.Sequence)
	case *TradeMsg:
		rtype = RTypeTrade
		buf = make([]byte, recordHeaderLen+tradeBodyLen)
		putHeader(buf, m.RecordHeader, tradeLength, rtype)
		binary.LittleEndian.PutUint64(buf[16:24], uint64(m.Price))
		binary.LittleEndian.PutUint32(buf[24:28], m.Size)
		buf[28] = m.Action
		buf[29] = m.Side
		buf[30] = m.Flags
		buf[31] = m.Depth
		binary.LittleEndian.PutUint64(buf[32:40], m.TsRecv)
		binary.LittleEndian.PutUint32(buf[40:44], uint32(m.TsInDelta))
		binary.LittleEndian.PutUint32(buf[44:48], m.Sequence)
	case *OhlcvMsg:
		rtype = RTypeOhlcv
		buf = make([]byte, recordHeaderLen+ohlcvBodyLen)
		putHeader(buf, m.RecordHeader, ohlcvLength, rtype)
		binary.LittleEndian.PutUint64(buf[16:24], uint64(m.Open))
		binary.LittleEndian.PutUint64(buf[24:32], uint64(m.High))
		binary.LittleEndian.PutUint64(buf[32:40], uint64(m.Low))
		binary.LittleEndian.PutUint64(buf[40:48], uint64(m.Close))
		binary.LittleEndian.PutUint64(buf[48:56], m.Volume)
	case *UnknownMsg:
		total := recordHeaderLen + len(m.Body)
		if len(m.Body)%lengthUnit != 0 || total/lengthUnit > 0xFF {
			return &core.InvalidArgumentError{
				Op: "WriteRecord", Param: "record",
				Detail: fmt.Sprintf("body of %d bytes does not fit the length field", len(m.Body)),
			}
		}
		rtype = m.RType
		buf = make([]byte, total)
		putHeader(buf, m.RecordHeader, uint8(total/lengthUnit), rtype)
		copy(buf[recordHeaderLen:], m.Body)
	default:
		return &core.InvalidArgumentError{
			Op: "WriteRecord", Param: "record",
			Detail: fmt.Sprintf("unsupported record type %T", rec),
		}
	}
	if _, err := e.out.Write(buf); err != nil {
		return fmt.Errorf("write %s record: %w", rtype, err)
	}
	return nil
}

// Close flushes any compressed tail. The underlying writer stays open.
func (e *Encoder) Close() error {
	if e.zw != nil {
		return e.zw.Close()
	}
	return nil
}

func putHeader(buf []byte, h RecordHeader, length uint8, rtype RType) {
	buf[0] = length
	buf[1] = uint8(rtype)
	binary.LittleEndian.PutUint16(buf[2:4], h.PublisherID)
	binary.LittleEndian.PutUint32(buf[4:8], h.InstrumentID)
	binary.LittleEndian.PutUint64(buf[8:16], h.TsEvent)
}

func nsField(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.UnixNano())
}
