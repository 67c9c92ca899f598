package api

import (
	"net/http"

	"github.com/annstore/vecdb/cmn"
)

var errNotFoundPath = cmn.ErrValidation("no such route")

// nativeHandler serves the path-style surface (§6):
//
//	PUT    /buckets/{b}
//	GET    /buckets/{b}
//	DELETE /buckets/{b}
//	GET    /buckets/{b}/indexes
//	POST   /buckets/{b}/indexes/{i}
//	GET    /buckets/{b}/indexes/{i}
//	DELETE /buckets/{b}/indexes/{i}
//	POST   /buckets/{b}/indexes/{i}/vectors
//	POST   /buckets/{b}/indexes/{i}/query
//	POST   /buckets/{b}/indexes/{i}/vectors:get
//	POST   /buckets/{b}/indexes/{i}/vectors:list
//	POST   /buckets/{b}/indexes/{i}/vectors:delete
//
// segs is the path with the leading "buckets" segment already stripped.
func (s *Server) nativeHandler(w http.ResponseWriter, r *http.Request, segs []string, body map[string]interface{}) {
	switch len(segs) {
	case 0:
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		s.listBuckets(w, r)
	case 1:
		s.bucketHandler(w, r, segs[0])
	case 2:
		if segs[1] != "indexes" {
			writeError(w, errNotFoundPath)
			return
		}
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		s.listIndexes(w, r, segs[0])
	case 3:
		if segs[1] != "indexes" {
			writeError(w, errNotFoundPath)
			return
		}
		s.indexHandler(w, r, body, segs[0], segs[2])
	case 4:
		if segs[1] != "indexes" {
			writeError(w, errNotFoundPath)
			return
		}
		s.vectorsHandler(w, r, body, segs[0], segs[2], segs[3])
	default:
		writeError(w, errNotFoundPath)
	}
}

func (s *Server) bucketHandler(w http.ResponseWriter, r *http.Request, bucket string) {
	switch r.Method {
	case http.MethodPut:
		s.createBucket(w, r, bucket)
	case http.MethodGet:
		s.getBucket(w, r, bucket)
	case http.MethodDelete:
		s.deleteBucket(w, r, bucket)
	default:
		writeMethodNotAllowed(w, http.MethodPut, http.MethodGet, http.MethodDelete)
	}
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request, body map[string]interface{}, bucket, index string) {
	switch r.Method {
	case http.MethodPost:
		s.createIndex(w, r, body, bucket, index)
	case http.MethodGet:
		s.getIndex(w, r, bucket, index)
	case http.MethodDelete:
		s.deleteIndex(w, r, bucket, index)
	default:
		writeMethodNotAllowed(w, http.MethodPost, http.MethodGet, http.MethodDelete)
	}
}

func (s *Server) vectorsHandler(w http.ResponseWriter, r *http.Request, body map[string]interface{}, bucket, index, action string) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	switch action {
	case "vectors":
		s.putVectors(w, r, body, bucket, index)
	case "query":
		s.queryVectors(w, r, body, bucket, index)
	case "vectors:get":
		s.getVectors(w, r, body, bucket, index)
	case "vectors:list":
		s.listVectors(w, r, body, bucket, index)
	case "vectors:delete":
		s.deleteVectors(w, r, body, bucket, index)
	default:
		writeError(w, errNotFoundPath)
	}
}
