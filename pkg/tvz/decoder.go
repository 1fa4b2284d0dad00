package tvz

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"tickvault/pkg/core"
)

// Decoder decodes a TVZ stream fed to it incrementally. A transport
// goroutine pushes raw bytes with Write and signals the end with Close;
// a consumer calls DecodeMetadata once and then DecodeRecord until io.EOF.
// Write blocks until the consumer needs the bytes, so the decoder holds
// only one chunk in flight rather than the whole payload.
type Decoder struct {
	pr *io.PipeReader
	pw *io.PipeWriter

	closeOnce sync.Once

	meta    *Metadata
	records io.Reader
	zr      *zstd.Decoder
	decoded uint64
}

// NewDecoder returns a decoder with an empty pipe.
func NewDecoder() *Decoder {
	pr, pw := io.Pipe()
	return &Decoder{pr: pr, pw: pw}
}

// Write feeds raw stream bytes to the decoder. It blocks until the decode
// side has consumed p and returns io.ErrClosedPipe once CloseRead has been
// called.
func (d *Decoder) Write(p []byte) (int, error) {
	return d.pw.Write(p)
}

// Close marks the end of the input. The decode side sees end of stream
// once buffered bytes run out. Close is idempotent and safe to call from
// the writing goroutine's defer.
func (d *Decoder) Close() error {
	d.closeOnce.Do(func() { d.pw.Close() })
	return nil
}

// CloseRead abandons decoding and unblocks any goroutine stuck in Write,
// which then fails with io.ErrClosedPipe. No Decode calls may follow.
func (d *Decoder) CloseRead() error {
	d.pr.Close()
	if d.zr != nil {
		d.zr.Close()
	}
	return nil
}

// DecodeMetadata decodes the stream metadata, blocking until it has been
// fully written. It is called once per stream; later calls return the same
// metadata without touching the input.
func (d *Decoder) DecodeMetadata() (*Metadata, error) {
	if d.meta != nil {
		return d.meta, nil
	}
	md, err := ReadMetadata(d.pr)
	if err != nil {
		return nil, err
	}
	switch md.Compression {
	case core.CompressionZstd:
		zr, err := zstd.NewReader(d.pr, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, parseErr(opDecodeMetadata, err)
		}
		d.zr = zr
		d.records = zr
	default:
		d.records = d.pr
	}
	d.meta = md
	return md, nil
}

// DecodeRecord decodes the next record, blocking until it is complete.
// It returns io.EOF once the announced record count has been decoded,
// without touching any trailing bytes, or, for unbounded streams, once
// the input ends at a record boundary. An input that ends early,
// mid-record or short of the count, yields a ParseError wrapping
// io.ErrUnexpectedEOF.
func (d *Decoder) DecodeRecord() (Record, error) {
	if d.meta == nil {
		return nil, parseErr(opDecodeRecord, errors.New("metadata has not been decoded"))
	}
	if d.meta.RecordCount != NoRecordCount && d.decoded >= d.meta.RecordCount {
		return nil, io.EOF
	}
	rec, err := ReadRecord(d.records)
	if err != nil {
		if err == io.EOF && d.shortOfCount() {
			return nil, parseErr(opDecodeRecord, fmt.Errorf(
				"input ended after %d of %d records: %w",
				d.decoded, d.meta.RecordCount, io.ErrUnexpectedEOF))
		}
		return nil, err
	}
	d.decoded++
	return rec, nil
}

func (d *Decoder) shortOfCount() bool {
	return d.meta.RecordCount != NoRecordCount && d.decoded < d.meta.RecordCount
}
