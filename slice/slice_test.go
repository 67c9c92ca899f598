package slice

import (
	"bytes"
	"testing"
)

func rowsEqual(t *testing.T, got, want []Row) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("row count: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Key != want[i].Key || got[i].MetadataJSON != want[i].MetadataJSON {
			t.Fatalf("row %d: got %+v want %+v", i, got[i], want[i])
		}
		if len(got[i].Vector) != len(want[i].Vector) {
			t.Fatalf("row %d vector length mismatch", i)
		}
		for j := range want[i].Vector {
			if got[i].Vector[j] != want[i].Vector[j] {
				t.Fatalf("row %d vector[%d]: got %v want %v", i, j, got[i].Vector[j], want[i].Vector[j])
			}
		}
	}
}

func TestColumnarRoundTrip(t *testing.T) {
	rows := []Row{
		{Key: "a", Vector: []float32{1, 0, 0}, MetadataJSON: `{"cat":"x"}`},
		{Key: "b", Vector: []float32{0, 1, 0}, MetadataJSON: `{}`},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, rows, FormatColumnar); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rowsEqual(t, got, rows)
}

func TestJSONLRoundTrip(t *testing.T) {
	rows := []Row{
		{Key: "a", Vector: []float32{1, 0, 0}, MetadataJSON: `{"cat":"x"}`},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, rows, FormatJSONL); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rowsEqual(t, got, rows)
}

func TestEmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil, FormatColumnar); err != nil {
		t.Fatalf("encode empty: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 rows, got %d", len(got))
	}
}
