/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

// HTTP header and query-parameter names used across the native and
// action-coordinate REST surfaces (SPEC_FULL.md §4).
const (
	HdrContentType   = "Content-Type"
	HdrContentLength = "Content-Length"
	HdrRequestID     = "X-Request-Id"

	MIMEJSON = "application/json"
)

// Native path-style URL elements.
const (
	URLParamBucket = "bucket"
	URLParamIndex  = "index"
)

// Action-coordinate field names (camelCase, mirroring the AWS-style
// request/response envelopes; api/coords.go also accepts PascalCase
// variants).
const (
	FieldVectorBucketName = "vectorBucketName"
	FieldVectorBucketArn  = "vectorBucketArn"
	FieldIndexName        = "indexName"
	FieldIndexArn         = "indexArn"
	FieldDataType         = "dataType"
	FieldDimension        = "dimension"
	FieldDistanceMetric   = "distanceMetric"
	FieldMetadataConfig   = "metadataConfiguration"
	FieldNonFilterable    = "nonFilterableMetadataKeys"
	FieldPolicy           = "algorithmPolicy"
)

// Action names, one per control-plane and data-plane operation in §4.8/§4.7.
const (
	ActCreateVectorBucket = "CreateVectorBucket"
	ActGetVectorBucket    = "GetVectorBucket"
	ActListVectorBuckets  = "ListVectorBuckets"
	ActDeleteVectorBucket = "DeleteVectorBucket"

	ActCreateIndex = "CreateIndex"
	ActGetIndex    = "GetIndex"
	ActListIndexes = "ListIndexes"
	ActDeleteIndex = "DeleteIndex"

	ActPutVectors    = "PutVectors"
	ActGetVectors    = "GetVectors"
	ActListVectors   = "ListVectors"
	ActDeleteVectors = "DeleteVectors"
	ActQueryVectors  = "QueryVectors"
)
