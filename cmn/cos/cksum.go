// Package cos (common OS) provides low-level checksum, HTTP transport, and
// JSON helpers shared by every higher-level package.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"
	"hash"
	"io"

	"github.com/OneOfOne/xxhash"
)

const ChecksumXXHash = "xxhash"

// Cksum is a (type, value) pair persisted alongside durable artifacts
// (the idmap's jsp trailer, the backend blob's checksum in the manifest)
// so a reader can detect truncation or a
// torn write without having to re-derive the artifact's size from content.
type Cksum struct {
	ty    string
	value string
}

func NewCksum(ty, value string) *Cksum { return &Cksum{ty: ty, value: value} }

func (c *Cksum) Type() string  { return c.ty }
func (c *Cksum) Value() string { return c.value }

func (c *Cksum) Equal(other *Cksum) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.ty == other.ty && c.value == other.value
}

func (c *Cksum) String() string {
	if c == nil {
		return "cksum[nil]"
	}
	return fmt.Sprintf("%s[%s]", c.ty, c.value)
}

// ErrBadCksum signals a checksum mismatch on load; callers treat the file
// as corrupt (a Dependency error, never silently-ignored).
type ErrBadCksum struct {
	expected *Cksum
	actual   *Cksum
}

func NewErrBadCksum(expected, actual *Cksum) *ErrBadCksum {
	return &ErrBadCksum{expected: expected, actual: actual}
}

func (e *ErrBadCksum) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.expected, e.actual)
}

func (e *ErrBadCksum) Is(target error) bool {
	_, ok := target.(*ErrBadCksum)
	return ok
}

// CksumHash wraps xxhash so callers can compute a checksum while streaming
// a write, then finalize it once, instead of buffering the whole payload.
type CksumHash struct {
	h hash.Hash64
}

func NewCksumHash() *CksumHash { return &CksumHash{h: xxhash.New64()} }

func (ch *CksumHash) Writer() io.Writer { return ch.h }

func (ch *CksumHash) Finalize() *Cksum {
	return NewCksum(ChecksumXXHash, fmt.Sprintf("%x", ch.h.Sum64()))
}

func ChecksumBytes(b []byte) *Cksum {
	h := xxhash.Checksum64(b)
	return NewCksum(ChecksumXXHash, fmt.Sprintf("%x", h))
}
