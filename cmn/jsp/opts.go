/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package jsp

// Options controls how a single artifact is encoded: whether it carries a
// trailing xxhash checksum and whether the payload is zstd-compressed.
// The ID map saves with CksumOpts (checksum, no compression); manifests
// and backend blobs do not go through jsp.
type Options struct {
	Checksum   bool
	Compressed bool
}

// Opts is implemented by any type that knows its own persistence options.
// No type in this module implements it; callers pass Options directly.
type Opts interface {
	JspOpts() Options
}

func CksumOpts() Options               { return Options{Checksum: true} }
func CompressedOpts() Options          { return Options{Checksum: true, Compressed: true} }
func PlainOpts() Options               { return Options{} }
