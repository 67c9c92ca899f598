// Package api is the HTTP/REST front door (§6): two coexisting URL
// shapes over the same control/builder/query operations, JSON request
// and error bodies, coordinate canonicalization, and a liveness probe.
// Grounded on aistore's ais/proxy.go method-switch handler style
// (bucketHandler/objectHandler dispatching on r.Method) and its
// healthHandler.
package api

import (
	"strings"

	"github.com/annstore/vecdb/cmn"
)

// coords is the canonical (bucket, index) pair every request resolves
// to, regardless of which of the three equivalent forms the action
// surface accepted it in (§4 "Coordinate canonicalization").
type coords struct {
	Bucket string
	Index  string
}

// resolveBucket canonicalizes the three equivalent ways the action
// surface names a vector bucket: a plain name, an ARN (last path
// segment is the name), or either field under its Pascal-cased spelling.
func resolveBucket(body map[string]interface{}) (string, error) {
	if v, ok := stringField(body, cmn.FieldVectorBucketName, "VectorBucketName"); ok {
		return v, nil
	}
	if v, ok := stringField(body, cmn.FieldVectorBucketArn, "VectorBucketArn"); ok {
		return arnToName(v), nil
	}
	return "", cmn.ErrValidation("request is missing vectorBucketName or vectorBucketArn")
}

func resolveIndex(body map[string]interface{}) (string, error) {
	if v, ok := stringField(body, cmn.FieldIndexName, "IndexName"); ok {
		return v, nil
	}
	if v, ok := stringField(body, cmn.FieldIndexArn, "IndexArn"); ok {
		return arnToName(v), nil
	}
	return "", cmn.ErrValidation("request is missing indexName or indexArn")
}

// stringField looks up key under both its camelCase and PascalCase
// spelling, since the action surface accepts either (§4).
func stringField(body map[string]interface{}, camel, pascal string) (string, bool) {
	if v, ok := body[camel]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	if v, ok := body[pascal]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// arnToName extracts the resource name from an ARN's last path segment,
// e.g. "arn:aws:s3vectors:us-east-1:123:bucket/my-bucket" -> "my-bucket".
func arnToName(arn string) string {
	if i := strings.LastIndexByte(arn, '/'); i >= 0 {
		return arn[i+1:]
	}
	return arn
}
