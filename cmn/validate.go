/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"regexp"
	"strings"
)

var (
	bucketNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)
	indexNameRe  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,255}$`)
)

// ValidateBucketName enforces §4.8: 3-63 chars, lowercase alphanumeric plus
// '.' and '-', no leading or trailing dot or hyphen.
func ValidateBucketName(name string) error {
	if len(name) < 3 || len(name) > 63 {
		return ErrValidation("bucket name %q must be between 3 and 63 characters", name)
	}
	if !bucketNameRe.MatchString(name) {
		return ErrValidation("bucket name %q must contain only lowercase letters, digits, '.' and '-', and not start or end with '.' or '-'", name)
	}
	if strings.Contains(name, "..") {
		return ErrValidation("bucket name %q must not contain consecutive dots", name)
	}
	return nil
}

// ValidateIndexName enforces §4.8: 1-255 chars, alphanumeric plus '_' and '-'.
func ValidateIndexName(name string) error {
	if !indexNameRe.MatchString(name) {
		return ErrValidation("index name %q must be 1-255 characters of letters, digits, '_' or '-'", name)
	}
	return nil
}

// ValidateDimension enforces §4.8 against the configured ceiling.
func ValidateDimension(dim int) error {
	limits := GCO.Get().Limits
	if dim < 1 || dim > limits.MaxDimension {
		return ErrValidation("dimension %d must be between 1 and %d", dim, limits.MaxDimension)
	}
	return nil
}

func ValidateBatchSize(n int) error {
	limits := GCO.Get().Limits
	if n < 1 || n > limits.MaxBatch {
		return ErrValidation("batch size %d exceeds the limit of %d", n, limits.MaxBatch)
	}
	return nil
}

func ValidateTopK(k int) error {
	limits := GCO.Get().Limits
	if k < 1 || k > limits.MaxTopK {
		return ErrValidation("topK %d must be between 1 and %d", k, limits.MaxTopK)
	}
	return nil
}

func ValidateKey(key string) error {
	limits := GCO.Get().Limits
	if key == "" {
		return ErrValidation("key must not be empty")
	}
	if len(key) > limits.MaxKeyLen {
		return ErrValidation("key %q exceeds the limit of %d bytes", key, limits.MaxKeyLen)
	}
	return nil
}

func ValidateMetadataSize(n int) error {
	limits := GCO.Get().Limits
	if n > limits.MaxMetaBytes {
		return ErrValidation("metadata of %d bytes exceeds the limit of %d", n, limits.MaxMetaBytes)
	}
	return nil
}

func ValidateGetKeysCount(n int) error {
	limits := GCO.Get().Limits
	if n > limits.MaxGetKeys {
		return ErrValidation("requested %d keys exceeds the limit of %d", n, limits.MaxGetKeys)
	}
	return nil
}

// ValidateDistanceMetric enforces §3's closed set.
func ValidateDistanceMetric(m string) error {
	switch m {
	case "cosine", "euclidean", "dot_product":
		return nil
	default:
		return ErrValidation("distance metric %q must be one of cosine, euclidean, dot_product", m)
	}
}

// ValidateDataType enforces §3's closed set.
func ValidateDataType(dt string) error {
	if dt != "float32" {
		return ErrValidation("data type %q must be float32", dt)
	}
	return nil
}
