// Package slice implements the Slice Format (§4.2): write-once encode/decode
// of a batch of vector rows under `staged/<index>/`. Two wire forms carry
// identical semantics — a compact columnar container (default) and an
// NDJSON fallback — selected per-install by config (VDB_SLICE_FORMAT).
package slice

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/meta"
	"github.com/klauspost/compress/zstd"
)

// Row is the on-slice representation: metadata is carried pre-serialized
// (JSON string) since the schema engine, not the slice format, decides
// typed-column-vs-JSON placement on consolidation (§4.4).
type Row struct {
	Key          string
	Vector       []float32
	MetadataJSON string
}

func FromVectorRow(v meta.VectorRow) (Row, error) {
	raw, err := json.Marshal(v.Metadata)
	if err != nil {
		return Row{}, cmn.ErrValidation("metadata for key %q is not valid JSON: %v", v.Key, err)
	}
	return Row{Key: v.Key, Vector: v.Vector, MetadataJSON: string(raw)}, nil
}

// Format selects the wire encoding, mirroring cmn.SliceConf.Format.
type Format string

const (
	FormatColumnar Format = "parquet" // name kept per §6 file extension, not a literal Parquet file
	FormatJSONL    Format = "jsonl"
)

func (f Format) Ext() string {
	if f == FormatJSONL {
		return "jsonl"
	}
	return "parquet"
}

// SliceKeyTimestamp returns the millisecond timestamp used to name a staged
// slice file, giving a stable ingest ordering when the builder later reads
// the `staged/<index>/` prefix lexicographically (§4.2, §4.6 step 1).
func SliceKeyTimestamp(now time.Time) int64 {
	return now.UnixMilli()
}

// Encode writes rows in the given format.
func Encode(w io.Writer, rows []Row, format Format) error {
	switch format {
	case FormatJSONL:
		return encodeJSONL(w, rows)
	default:
		return encodeColumnar(w, rows)
	}
}

// Decode reads rows back. The format is self-describing via a magic-byte
// sniff, so callers do not need to track which format was used when.
func Decode(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdFrameMagic))
	if err == nil && bytes.Equal(head, zstdFrameMagic[:]) {
		return decodeColumnar(br)
	}
	return decodeJSONL(br)
}

func encodeJSONL(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	for _, r := range rows {
		raw, err := json.Marshal(jsonlRow{Key: r.Key, Vec: r.Vector, Meta: r.MetadataJSON})
		if err != nil {
			return err
		}
		if _, err := bw.Write(raw); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type jsonlRow struct {
	Key  string    `json:"key"`
	Vec  []float32 `json:"vec"`
	Meta string    `json:"meta"`
}

func decodeJSONL(r io.Reader) ([]Row, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var rows []Row
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var jr jsonlRow
		if err := json.Unmarshal(line, &jr); err != nil {
			return nil, cmn.ErrDependency(err, "corrupt jsonl slice row")
		}
		rows = append(rows, Row{Key: jr.Key, Vector: jr.Vec, MetadataJSON: jr.Meta})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Columnar container layout: one zstd-compressed stream holding
// magic | count (u32 BE) | three length-prefixed column streams (keys,
// vectors, metadata_json) — a minimal zstd columnar format with no
// dictionary encoding, not a general-purpose one. Decode recognizes it by
// the zstd frame magic that starts the stream.
var columnarMagic = [4]byte{'v', 's', 'l', '1'}

var zstdFrameMagic = [4]byte{0x28, 0xB5, 0x2F, 0xFD}

func encodeColumnar(w io.Writer, rows []Row) error {
	var payload bytes.Buffer
	if err := writeColumn(&payload, func(bw *bufio.Writer) error {
		for _, r := range rows {
			if err := writeString(bw, r.Key); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	if err := writeColumn(&payload, func(bw *bufio.Writer) error {
		for _, r := range rows {
			if err := writeVector(bw, r.Vector); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	if err := writeColumn(&payload, func(bw *bufio.Writer) error {
		for _, r := range rows {
			if err := writeString(bw, r.MetadataJSON); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := zw.Write(columnarMagic[:]); err != nil {
		zw.Close()
		return err
	}
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(rows)))
	if _, err := zw.Write(countBuf[:]); err != nil {
		zw.Close()
		return err
	}
	if _, err := zw.Write(payload.Bytes()); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func decodeColumnar(r io.Reader) ([]Row, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, cmn.ErrDependency(err, "open zstd slice stream")
	}
	defer zr.Close()

	var head [8]byte
	if _, err := io.ReadFull(zr, head[:]); err != nil {
		return nil, cmn.ErrDependency(err, "truncated slice header")
	}
	if !bytes.Equal(head[:4], columnarMagic[:]) {
		return nil, cmn.ErrDependency(nil, "bad slice magic")
	}
	n := int(binary.BigEndian.Uint32(head[4:8]))

	keys, err := readStringColumn(zr, n)
	if err != nil {
		return nil, err
	}
	vecs, err := readVectorColumn(zr, n)
	if err != nil {
		return nil, err
	}
	metas, err := readStringColumn(zr, n)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		rows[i] = Row{Key: keys[i], Vector: vecs[i], MetadataJSON: metas[i]}
	}
	return rows, nil
}

// writeColumn is a placeholder seam kept for symmetry with readStringColumn
// below: each column is just a length-prefixed run written directly via the
// writer functions, no framing needed since decode reads exactly n entries
// per column.
func writeColumn(w io.Writer, write func(bw *bufio.Writer) error) error {
	bw := bufio.NewWriter(w)
	if err := write(bw); err != nil {
		return err
	}
	return bw.Flush()
}

func writeString(w io.Writer, s string) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readStringColumn(r io.Reader, n int) ([]string, error) {
	out := make([]string, n)
	var lenBuf [4]byte
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, cmn.ErrDependency(err, "truncated string column")
		}
		l := binary.BigEndian.Uint32(lenBuf[:])
		buf := make([]byte, l)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, cmn.ErrDependency(err, "truncated string value")
		}
		out[i] = string(buf)
	}
	return out, nil
}

func writeVector(w io.Writer, v []float32) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	for _, f := range v {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(f))
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	return nil
}

func readVectorColumn(r io.Reader, n int) ([][]float32, error) {
	out := make([][]float32, n)
	var lenBuf [4]byte
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, cmn.ErrDependency(err, "truncated vector column")
		}
		d := binary.BigEndian.Uint32(lenBuf[:])
		vec := make([]float32, d)
		var b [4]byte
		for j := uint32(0); j < d; j++ {
			if _, err := io.ReadFull(r, b[:]); err != nil {
				return nil, cmn.ErrDependency(err, "truncated vector value")
			}
			vec[j] = math.Float32frombits(binary.BigEndian.Uint32(b[:]))
		}
		out[i] = vec
	}
	return out, nil
}
