// Package jsp (JSON persistence) frames a JSON payload with optional
// zstd compression and an optional checksum trailer, for callers that
// persist an artifact through store.Adapter.PutBytes/GetBytes.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package jsp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/annstore/vecdb/cmn/cos"
	"github.com/klauspost/compress/zstd"
)

// On-disk layout of every jsp-encoded file:
//
//   [4]byte magic | [1]byte version | [1]byte flags | [8]byte payload len (BE) |
//   payload | [[2]byte cksum len (BE) | cksum]
//
// flags bit 0 set => payload is zstd-compressed. The checksum, when present,
// covers the (possibly compressed) payload bytes only and is written last so
// readers can stream-verify without a second pass over the file.
var magic = [4]byte{'v', 'd', 'b', '1'}

const (
	flagCompressed = 1 << 0

	Metaver = 3 // current jsp encoding version
)

func Encode(w io.Writer, v interface{}, opts Options) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	payload := raw
	flags := byte(0)
	if opts.Compressed {
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return err
		}
		if _, err := zw.Write(raw); err != nil {
			zw.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		payload = buf.Bytes()
		flags |= flagCompressed
	}

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{Metaver, flags}); err != nil {
		return err
	}
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if opts.Checksum {
		ck := cos.ChecksumBytes(payload)
		ckBytes := []byte(ck.Value())
		var ckLen [2]byte
		binary.BigEndian.PutUint16(ckLen[:], uint16(len(ckBytes)))
		if _, err := w.Write(ckLen[:]); err != nil {
			return err
		}
		if _, err := w.Write(ckBytes); err != nil {
			return err
		}
	}
	return nil
}

func Decode(r io.Reader, v interface{}, opts Options, tag string) (*cos.Cksum, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(all) < len(magic)+2+8 {
		return nil, fmt.Errorf("%s: truncated jsp header", tag)
	}
	if !bytes.Equal(all[:4], magic[:]) {
		return nil, fmt.Errorf("%s: bad magic", tag)
	}
	ver, flags := all[4], all[5]
	if ver != Metaver {
		return nil, fmt.Errorf("%s: unsupported jsp version %d", tag, ver)
	}
	off := 6
	plen := binary.BigEndian.Uint64(all[off : off+8])
	off += 8
	if uint64(len(all)-off) < plen {
		return nil, fmt.Errorf("%s: truncated payload", tag)
	}
	payload := all[off : off+plen]
	off += int(plen)

	var checksum *cos.Cksum
	if opts.Checksum {
		if len(all)-off < 2 {
			return nil, fmt.Errorf("%s: missing checksum trailer", tag)
		}
		ckLen := int(binary.BigEndian.Uint16(all[off : off+2]))
		off += 2
		if len(all)-off < ckLen {
			return nil, fmt.Errorf("%s: truncated checksum", tag)
		}
		stored := string(all[off : off+ckLen])
		expected := cos.NewCksum(cos.ChecksumXXHash, stored)
		actual := cos.ChecksumBytes(payload)
		if !expected.Equal(actual) {
			return nil, cos.NewErrBadCksum(expected, actual)
		}
		checksum = actual
	}

	raw := payload
	if flags&flagCompressed != 0 {
		zr, err := zstd.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, err
	}
	return checksum, nil
}
