package cmn

import "testing"

func TestValidateBucketName(t *testing.T) {
	ok := []string{"abc", "my-bucket", "my.bucket.1", "a23"}
	for _, n := range ok {
		if err := ValidateBucketName(n); err != nil {
			t.Errorf("ValidateBucketName(%q) = %v, want nil", n, err)
		}
	}
	bad := []string{"ab", "-abc", "abc-", "Abc", "a..b", "a_b"}
	for _, n := range bad {
		if err := ValidateBucketName(n); err == nil {
			t.Errorf("ValidateBucketName(%q) = nil, want error", n)
		}
	}
}

func TestValidateIndexName(t *testing.T) {
	if err := ValidateIndexName("my_index-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateIndexName(""); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := ValidateIndexName("bad name"); err == nil {
		t.Fatalf("expected error for space in name")
	}
}

func TestValidateDimensionUsesConfiguredCeiling(t *testing.T) {
	if err := ValidateDimension(0); err == nil {
		t.Fatalf("expected error for dimension 0")
	}
	limits := GCO.Get().Limits
	if err := ValidateDimension(limits.MaxDimension); err != nil {
		t.Fatalf("dimension at the ceiling must be valid: %v", err)
	}
	if err := ValidateDimension(limits.MaxDimension + 1); err == nil {
		t.Fatalf("expected error past the ceiling")
	}
}

func TestValidateDistanceMetric(t *testing.T) {
	for _, m := range []string{"cosine", "euclidean", "dot_product"} {
		if err := ValidateDistanceMetric(m); err != nil {
			t.Errorf("ValidateDistanceMetric(%q) = %v, want nil", m, err)
		}
	}
	if err := ValidateDistanceMetric("manhattan"); err == nil {
		t.Fatalf("expected error for an unrecognized metric")
	}
}

func TestValidateDataType(t *testing.T) {
	if err := ValidateDataType("float32"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateDataType("float64"); err == nil {
		t.Fatalf("expected error for a non-float32 type")
	}
}

func TestValidateKey(t *testing.T) {
	if err := ValidateKey(""); err == nil {
		t.Fatalf("expected error for empty key")
	}
	limits := GCO.Get().Limits
	long := make([]byte, limits.MaxKeyLen+1)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateKey(string(long)); err == nil {
		t.Fatalf("expected error for a key past the length limit")
	}
}
