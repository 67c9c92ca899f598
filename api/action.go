package api

import (
	"net/http"

	"github.com/annstore/vecdb/cmn"
)

// actionHandler serves the action-coordinate surface (§6): the path is an
// action name (e.g. POST /CreateVectorBucket) and the body carries the
// resource coordinates, canonicalized by api/coords.go.
func (s *Server) actionHandler(w http.ResponseWriter, r *http.Request, action string, body map[string]interface{}) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	switch action {
	case cmn.ActCreateVectorBucket:
		bucket, err := resolveBucket(body)
		if err != nil {
			writeError(w, err)
			return
		}
		s.createBucket(w, r, bucket)

	case cmn.ActGetVectorBucket:
		bucket, err := resolveBucket(body)
		if err != nil {
			writeError(w, err)
			return
		}
		s.getBucket(w, r, bucket)

	case cmn.ActListVectorBuckets:
		s.listBuckets(w, r)

	case cmn.ActDeleteVectorBucket:
		bucket, err := resolveBucket(body)
		if err != nil {
			writeError(w, err)
			return
		}
		s.deleteBucket(w, r, bucket)

	case cmn.ActCreateIndex:
		bucket, err := resolveBucket(body)
		if err != nil {
			writeError(w, err)
			return
		}
		name, ok := stringField(body, cmn.FieldIndexName, "IndexName")
		if !ok {
			writeError(w, cmn.ErrValidation("request is missing indexName"))
			return
		}
		s.createIndex(w, r, body, bucket, name)

	case cmn.ActGetIndex:
		bucket, index, err := resolveBucketAndIndex(body)
		if err != nil {
			writeError(w, err)
			return
		}
		s.getIndex(w, r, bucket, index)

	case cmn.ActListIndexes:
		bucket, err := resolveBucket(body)
		if err != nil {
			writeError(w, err)
			return
		}
		s.listIndexes(w, r, bucket)

	case cmn.ActDeleteIndex:
		bucket, index, err := resolveBucketAndIndex(body)
		if err != nil {
			writeError(w, err)
			return
		}
		s.deleteIndex(w, r, bucket, index)

	case cmn.ActPutVectors:
		bucket, index, err := resolveBucketAndIndex(body)
		if err != nil {
			writeError(w, err)
			return
		}
		s.putVectors(w, r, body, bucket, index)

	case cmn.ActGetVectors:
		bucket, index, err := resolveBucketAndIndex(body)
		if err != nil {
			writeError(w, err)
			return
		}
		s.getVectors(w, r, body, bucket, index)

	case cmn.ActListVectors:
		bucket, index, err := resolveBucketAndIndex(body)
		if err != nil {
			writeError(w, err)
			return
		}
		s.listVectors(w, r, body, bucket, index)

	case cmn.ActDeleteVectors:
		bucket, index, err := resolveBucketAndIndex(body)
		if err != nil {
			writeError(w, err)
			return
		}
		s.deleteVectors(w, r, body, bucket, index)

	case cmn.ActQueryVectors:
		bucket, index, err := resolveBucketAndIndex(body)
		if err != nil {
			writeError(w, err)
			return
		}
		s.queryVectors(w, r, body, bucket, index)

	default:
		writeError(w, cmn.ErrValidation("unknown action %q", action))
	}
}

func resolveBucketAndIndex(body map[string]interface{}) (bucket, index string, err error) {
	bucket, err = resolveBucket(body)
	if err != nil {
		return "", "", err
	}
	index, err = resolveIndex(body)
	if err != nil {
		return "", "", err
	}
	return bucket, index, nil
}
