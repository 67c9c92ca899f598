package jsp

import (
	"bytes"
	"testing"
)

type sample struct {
	Name   string   `json:"name"`
	Values []int    `json:"values"`
	Tags   []string `json:"tags"`
}

func roundtrip(t *testing.T, opts Options) {
	t.Helper()
	in := sample{Name: "widget", Values: []int{1, 2, 3}, Tags: []string{"a", "b"}}
	var buf bytes.Buffer
	if err := Encode(&buf, in, opts); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var out sample
	if _, err := Decode(&buf, &out, opts, "test"); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", out, in)
	}
}

func TestEncodeDecodePlain(t *testing.T) { roundtrip(t, PlainOpts()) }

func TestEncodeDecodeWithChecksum(t *testing.T) { roundtrip(t, CksumOpts()) }

func TestEncodeDecodeCompressed(t *testing.T) { roundtrip(t, CompressedOpts()) }

func TestDecodeDetectsTornChecksum(t *testing.T) {
	in := sample{Name: "widget"}
	var buf bytes.Buffer
	if err := Encode(&buf, in, CksumOpts()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF

	var out sample
	_, err := Decode(bytes.NewReader(corrupted), &out, CksumOpts(), "test")
	if err == nil {
		t.Fatalf("expected a checksum error on a corrupted trailer")
	}
	if _, ok := err.(interface{ Is(error) bool }); !ok {
		t.Fatalf("expected an error satisfying errors.Is(ErrBadCksum), got %T", err)
	}
}

func TestDecodeRejectsTruncatedHeader(t *testing.T) {
	var out sample
	_, err := Decode(bytes.NewReader([]byte{'v', 'd'}), &out, PlainOpts(), "test")
	if err == nil {
		t.Fatalf("expected an error on a truncated header")
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sample{}, PlainOpts()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	corrupted := buf.Bytes()
	corrupted[0] = 'x'
	var out sample
	_, err := Decode(bytes.NewReader(corrupted), &out, PlainOpts(), "test")
	if err == nil {
		t.Fatalf("expected an error on bad magic")
	}
}
