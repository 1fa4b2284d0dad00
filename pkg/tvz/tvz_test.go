package tvz

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickvault/pkg/core"
)

func sampleMetadata(compression core.Compression) *Metadata {
	return &Metadata{
		Version:     FormatVersion,
		Dataset:     "XNAS.ITCH",
		Schema:      core.SchemaTrades,
		STypeIn:     core.STypeNative,
		STypeOut:    core.STypeProductID,
		Compression: compression,
		Start:       time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC),
		Limit:       1000,
		RecordCount: 3,
		Symbols:     []string{"AAPL", "MSFT"},
	}
}

func sampleRecords() []Record {
	return []Record{
		&TradeMsg{
			RecordHeader: RecordHeader{
				Length: tradeLength, RType: RTypeTrade,
				PublisherID: 40, InstrumentID: 5482, TsEvent: 1719792000000000000,
			},
			Price: 21_050_000_000, Size: 15, Action: 'T', Side: 'A',
			Flags: 130, Depth: 0, TsRecv: 1719792000000000500, TsInDelta: 250, Sequence: 777,
		},
		&MboMsg{
			RecordHeader: RecordHeader{
				Length: mboLength, RType: RTypeMbo,
				PublisherID: 40, InstrumentID: 5482, TsEvent: 1719792000000001000,
			},
			OrderID: 990011, Price: 21_049_000_000, Size: 3, Flags: 128,
			ChannelID: 1, Action: 'A', Side: 'B',
			TsRecv: 1719792000000001200, TsInDelta: -80, Sequence: 778,
		},
		&OhlcvMsg{
			RecordHeader: RecordHeader{
				Length: ohlcvLength, RType: RTypeOhlcv,
				PublisherID: 40, InstrumentID: 5482, TsEvent: 1719792060000000000,
			},
			Open: 21_050_000_000, High: 21_060_000_000,
			Low: 21_040_000_000, Close: 21_055_000_000, Volume: 912,
		},
	}
}

func encodeStream(t *testing.T, md *Metadata, recs []Record) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, md)
	require.NoError(t, err)
	for _, rec := range recs {
		require.NoError(t, enc.WriteRecord(rec))
	}
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		compression core.Compression
	}{
		{name: "uncompressed", compression: core.CompressionNone},
		{name: "zstd", compression: core.CompressionZstd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := sampleMetadata(tt.compression)
			recs := sampleRecords()
			raw := encodeStream(t, md, recs)

			dec := NewDecoder()
			errs := feed(dec, raw, len(raw))

			got, err := dec.DecodeMetadata()
			require.NoError(t, err)
			assert.Equal(t, md, got)

			for i, want := range recs {
				rec, err := dec.DecodeRecord()
				require.NoError(t, err, "record %d", i)
				assert.Equal(t, want, rec, "record %d", i)
			}
			_, err = dec.DecodeRecord()
			require.Equal(t, io.EOF, err)
			require.NoError(t, <-errs)
		})
	}
}

func TestReadMetadata_Errors(t *testing.T) {
	valid := encodeStream(t, sampleMetadata(core.CompressionNone), nil)

	mutate := func(f func(b []byte)) []byte {
		b := bytes.Clone(valid)
		f(b)
		return b
	}

	tests := []struct {
		name       string
		input      []byte
		wantMsg    string
		wantHungry bool
	}{
		{
			name:       "empty input",
			input:      nil,
			wantMsg:    "metadata header",
			wantHungry: true,
		},
		{
			name:       "truncated header",
			input:      valid[:10],
			wantMsg:    "metadata header",
			wantHungry: true,
		},
		{
			name:       "truncated symbol table",
			input:      valid[:metadataLen+symbolLen+5],
			wantMsg:    "symbol 2 of 2",
			wantHungry: true,
		},
		{
			name:    "bad magic",
			input:   mutate(func(b []byte) { b[0] = 'X' }),
			wantMsg: `bad magic "XVZ"`,
		},
		{
			name:    "unsupported version",
			input:   mutate(func(b []byte) { b[3] = 9 }),
			wantMsg: "unsupported version 9",
		},
		{
			name:    "unknown schema",
			input:   mutate(func(b []byte) { binary.LittleEndian.PutUint16(b[4:6], 999) }),
			wantMsg: "unknown schema 999",
		},
		{
			name:    "unknown symbology type",
			input:   mutate(func(b []byte) { b[6] = 9 }),
			wantMsg: "unknown symbology type 9",
		},
		{
			name:    "unknown compression",
			input:   mutate(func(b []byte) { b[24] = 7 }),
			wantMsg: "unknown compression 7",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMetadata(bytes.NewReader(tt.input))
			require.Error(t, err)

			var parseErr *core.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, "DecodeMetadata", parseErr.Op)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, tt.wantHungry, errors.Is(err, io.ErrUnexpectedEOF))
		})
	}
}

func TestReadRecord_CleanBoundary(t *testing.T) {
	_, err := ReadRecord(bytes.NewReader(nil))
	require.Equal(t, io.EOF, err)
}

func TestReadRecord_Errors(t *testing.T) {
	trade := encodeStream(t, sampleMetadata(core.CompressionNone), sampleRecords()[:1])[metadataLen+2*symbolLen:]

	tests := []struct {
		name       string
		input      []byte
		wantMsg    string
		wantHungry bool
	}{
		{
			name:       "truncated header",
			input:      trade[:7],
			wantMsg:    "record header",
			wantHungry: true,
		},
		{
			name:       "truncated body",
			input:      trade[:30],
			wantMsg:    "trade record body",
			wantHungry: true,
		},
		{
			name: "length shorter than header",
			input: func() []byte {
				b := bytes.Clone(trade)
				b[0] = 2
				return b
			}(),
			wantMsg: "record length 8 bytes is shorter than its header",
		},
		{
			name: "body shorter than schema needs",
			input: func() []byte {
				b := bytes.Clone(trade[:recordHeaderLen+4])
				b[0] = 5
				return b
			}(),
			wantMsg: "trade record body is 4 bytes, need 32",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRecord(bytes.NewReader(tt.input))
			require.Error(t, err)

			var parseErr *core.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, "DecodeRecord", parseErr.Op)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, tt.wantHungry, errors.Is(err, io.ErrUnexpectedEOF))
		})
	}
}

func TestReadRecord_UnknownTypePassesThrough(t *testing.T) {
	raw := make([]byte, recordHeaderLen+8)
	raw[0] = 6
	raw[1] = 0x77
	binary.LittleEndian.PutUint16(raw[2:4], 12)
	binary.LittleEndian.PutUint32(raw[4:8], 4242)
	binary.LittleEndian.PutUint64(raw[8:16], 1719792000000000000)
	copy(raw[recordHeaderLen:], []byte{1, 2, 3, 4, 5, 6, 7, 8})

	rec, err := ReadRecord(bytes.NewReader(raw))
	require.NoError(t, err)

	unknown, ok := rec.(*UnknownMsg)
	require.True(t, ok)
	assert.Equal(t, RType(0x77), unknown.RType)
	assert.Equal(t, uint16(12), unknown.PublisherID)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, unknown.Body)
	assert.Equal(t, "unknown(0x77)", unknown.RType.String())
}

func TestReadRecord_IgnoresTrailingBodyBytes(t *testing.T) {
	want := sampleRecords()[0].(*TradeMsg)
	raw := encodeStream(t, sampleMetadata(core.CompressionNone), []Record{want})[metadataLen+2*symbolLen:]

	// A newer stream revision may append fields to the body. The header
	// length grows and the known prefix still decodes.
	grown := bytes.Clone(raw)
	grown[0]++
	grown = append(grown, 0, 0, 0, 0)

	rec, err := ReadRecord(bytes.NewReader(grown))
	require.NoError(t, err)
	got, ok := rec.(*TradeMsg)
	require.True(t, ok)
	assert.Equal(t, want.Price, got.Price)
	assert.Equal(t, want.Sequence, got.Sequence)
	assert.Equal(t, uint8(tradeLength+1), got.Length)
}

func TestRecordHeader_Time(t *testing.T) {
	h := RecordHeader{TsEvent: 1609459200000000000}
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), h.Time())
	assert.Equal(t, time.UTC, h.Time().Location())
}

func TestDecimalPrice(t *testing.T) {
	assert.Equal(t, "21.050000000", DecimalPrice(21_050_000_000).String())
	assert.Equal(t, "1.000000000", DecimalPrice(PriceScale).String())
	assert.Equal(t, "-0.000000001", DecimalPrice(-1).String())
}

func TestEncoder_Validation(t *testing.T) {
	var buf bytes.Buffer

	md := sampleMetadata(core.CompressionNone)
	md.Dataset = "DATASET.NAME.TOO.LONG"
	_, err := NewEncoder(&buf, md)
	var invalid *core.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "dataset", invalid.Param)

	md = sampleMetadata(core.CompressionNone)
	md.Symbols = []string{"THIS.SYMBOL.IS.FAR.TOO.LONG"}
	_, err = NewEncoder(&buf, md)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "symbols", invalid.Param)
}

func TestEncoder_RejectsUnencodableRecords(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, sampleMetadata(core.CompressionNone))
	require.NoError(t, err)

	var invalid *core.InvalidArgumentError

	err = enc.WriteRecord(RecordHeader{})
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Detail, "unsupported record type")

	err = enc.WriteRecord(&UnknownMsg{RecordHeader: RecordHeader{RType: 0x42}, Body: []byte{1, 2, 3}})
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Detail, "does not fit the length field")
}

func TestEncoder_DefaultsVersion(t *testing.T) {
	md := sampleMetadata(core.CompressionNone)
	md.Version = 0
	raw := encodeStream(t, md, nil)

	got, err := ReadMetadata(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, uint8(FormatVersion), got.Version)
}

func TestMetadata_UnsetTimesRoundTripToZero(t *testing.T) {
	md := sampleMetadata(core.CompressionNone)
	md.Start = time.Time{}
	md.End = time.Time{}
	raw := encodeStream(t, md, nil)

	got, err := ReadMetadata(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.True(t, got.Start.IsZero())
	assert.True(t, got.End.IsZero())
}
