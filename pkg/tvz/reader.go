package tvz

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"tickvault/pkg/core"
)

const (
	opDecodeMetadata = "DecodeMetadata"
	opDecodeRecord   = "DecodeRecord"
)

// ReadMetadata decodes the stream metadata and symbol table from r,
// blocking until enough bytes are available. Short input yields a
// ParseError wrapping io.ErrUnexpectedEOF.
func ReadMetadata(r io.Reader) (*Metadata, error) {
	var buf [metadataLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, readErr(opDecodeMetadata, "metadata header", err)
	}
	if string(buf[0:3]) != magic {
		return nil, parseErr(opDecodeMetadata, fmt.Errorf("bad magic %q", buf[0:3]))
	}
	version := buf[3]
	if version == 0 || version > FormatVersion {
		return nil, parseErr(opDecodeMetadata, fmt.Errorf("unsupported version %d", version))
	}
	schema := binary.LittleEndian.Uint16(buf[4:6])
	if schema > uint16(core.SchemaStatistics) {
		return nil, parseErr(opDecodeMetadata, fmt.Errorf("unknown schema %d", schema))
	}
	stypeIn, stypeOut := buf[6], buf[7]
	if stypeIn > uint8(core.STypeSmart) || stypeOut > uint8(core.STypeSmart) {
		return nil, parseErr(opDecodeMetadata, fmt.Errorf("unknown symbology type %d", max(stypeIn, stypeOut)))
	}
	compression := buf[24]
	if compression > uint8(core.CompressionZstd) {
		return nil, parseErr(opDecodeMetadata, fmt.Errorf("unknown compression %d", compression))
	}
	symbolCount := binary.LittleEndian.Uint32(buf[28:32])
	if symbolCount > maxSymbolCount {
		return nil, parseErr(opDecodeMetadata, fmt.Errorf("symbol count %d exceeds limit %d", symbolCount, maxSymbolCount))
	}

	md := &Metadata{
		Version:     version,
		Dataset:     trimPadding(buf[8 : 8+datasetLen]),
		Schema:      core.Schema(schema),
		STypeIn:     core.SType(stypeIn),
		STypeOut:    core.SType(stypeOut),
		Compression: core.Compression(compression),
		Start:       nsTime(binary.LittleEndian.Uint64(buf[32:40])),
		End:         nsTime(binary.LittleEndian.Uint64(buf[40:48])),
		Limit:       binary.LittleEndian.Uint64(buf[48:56]),
		RecordCount: binary.LittleEndian.Uint64(buf[56:64]),
	}

	var sym [symbolLen]byte
	for i := uint32(0); i < symbolCount; i++ {
		if _, err := io.ReadFull(r, sym[:]); err != nil {
			return nil, readErr(opDecodeMetadata, fmt.Sprintf("symbol %d of %d", i+1, symbolCount), err)
		}
		md.Symbols = append(md.Symbols, trimPadding(sym[:]))
	}
	return md, nil
}

// ReadRecord decodes the next record from r, blocking until it is complete.
// A clean end of input at a record boundary returns io.EOF. Input ending
// mid-record yields a ParseError wrapping io.ErrUnexpectedEOF.
func ReadRecord(r io.Reader) (Record, error) {
	var hdr [recordHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, readErr(opDecodeRecord, "record header", err)
	}
	length := int(hdr[0]) * lengthUnit
	if length < recordHeaderLen {
		return nil, parseErr(opDecodeRecord, fmt.Errorf("record length %d bytes is shorter than its header", length))
	}
	h := RecordHeader{
		Length:       hdr[0],
		RType:        RType(hdr[1]),
		PublisherID:  binary.LittleEndian.Uint16(hdr[2:4]),
		InstrumentID: binary.LittleEndian.Uint32(hdr[4:8]),
		TsEvent:      binary.LittleEndian.Uint64(hdr[8:16]),
	}
	body := make([]byte, length-recordHeaderLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, readErr(opDecodeRecord, fmt.Sprintf("%s record body", h.RType), err)
	}

	switch h.RType {
	case RTypeMbo:
		return decodeMbo(h, body)
	case RTypeTrade:
		return decodeTrade(h, body)
	case RTypeOhlcv:
		return decodeOhlcv(h, body)
	default:
		return &UnknownMsg{RecordHeader: h, Body: body}, nil
	}
}

func decodeMbo(h RecordHeader, body []byte) (*MboMsg, error) {
	if len(body) < mboBodyLen {
		return nil, truncatedErr(h.RType, len(body), mboBodyLen)
	}
	return &MboMsg{
		RecordHeader: h,
		OrderID:      binary.LittleEndian.Uint64(body[0:8]),
		Price:        int64(binary.LittleEndian.Uint64(body[8:16])),
		Size:         binary.LittleEndian.Uint32(body[16:20]),
		Flags:        body[20],
		ChannelID:    body[21],
		Action:       body[22],
		Side:         body[23],
		TsRecv:       binary.LittleEndian.Uint64(body[24:32]),
		TsInDelta:    int32(binary.LittleEndian.Uint32(body[32:36])),
		Sequence:     binary.LittleEndian.Uint32(body[36:40]),
	}, nil
}

func decodeTrade(h RecordHeader, body []byte) (*TradeMsg, error) {
	if len(body) < tradeBodyLen {
		return nil, truncatedErr(h.RType, len(body), tradeBodyLen)
	}
	return &TradeMsg{
		RecordHeader: h,
		Price:        int64(binary.LittleEndian.Uint64(body[0:8])),
		Size:         binary.LittleEndian.Uint32(body[8:12]),
		Action:       body[12],
		Side:         body[13],
		Flags:        body[14],
		Depth:        body[15],
		TsRecv:       binary.LittleEndian.Uint64(body[16:24]),
		TsInDelta:    int32(binary.LittleEndian.Uint32(body[24:28])),
		Sequence:     binary.LittleEndian.Uint32(body[28:32]),
	}, nil
}

func decodeOhlcv(h RecordHeader, body []byte) (*OhlcvMsg, error) {
	if len(body) < ohlcvBodyLen {
		return nil, truncatedErr(h.RType, len(body), ohlcvBodyLen)
	}
	return &OhlcvMsg{
		RecordHeader: h,
		Open:         int64(binary.LittleEndian.Uint64(body[0:8])),
		High:         int64(binary.LittleEndian.Uint64(body[8:16])),
		Low:          int64(binary.LittleEndian.Uint64(body[16:24])),
		Close:        int64(binary.LittleEndian.Uint64(body[24:32])),
		Volume:       binary.LittleEndian.Uint64(body[32:40]),
	}, nil
}

func truncatedErr(t RType, got, want int) error {
	return parseErr(opDecodeRecord, fmt.Errorf("%s record body is %d bytes, need %d", t, got, want))
}

// readErr wraps an io failure mid-structure. io.EOF is promoted to
// io.ErrUnexpectedEOF because the structure had already begun.
func readErr(op, what string, err error) error {
	if errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.ErrUnexpectedEOF
	}
	return &core.ParseError{Op: op, Err: fmt.Errorf("%s: %w", what, err)}
}

func parseErr(op string, err error) error {
	return &core.ParseError{Op: op, Err: err}
}

func trimPadding(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// nsTime converts nanoseconds since the UNIX epoch, with zero meaning unset.
func nsTime(ns uint64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(ns)).UTC()
}
