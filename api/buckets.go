package api

import (
	"net/http"

	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/control"
	"github.com/annstore/vecdb/meta"
)

// The handlers in this file implement the control-plane half of §4.8: both
// the native path-style surface and the action-coordinate surface resolve
// to the same (bucket[, index]) pair and call straight into control.Plane,
// the way aistore's bucketHandler/objectHandler forward into bmdowner
// lookups regardless of which URL shape the caller used.

func (s *Server) createBucket(w http.ResponseWriter, r *http.Request, bucket string) {
	b, err := s.Control.CreateBucket(r.Context(), bucket)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) getBucket(w http.ResponseWriter, r *http.Request, bucket string) {
	b, err := s.Control.GetBucket(r.Context(), bucket)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) listBuckets(w http.ResponseWriter, r *http.Request) {
	names, err := s.Control.ListBuckets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vectorBuckets": names})
}

func (s *Server) deleteBucket(w http.ResponseWriter, r *http.Request, bucket string) {
	if err := s.Control.DeleteBucket(r.Context(), bucket); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) createIndex(w http.ResponseWriter, r *http.Request, body map[string]interface{}, bucket, name string) {
	metric := meta.DistanceMetric(bodyString(body, cmn.FieldDistanceMetric))
	req := control.CreateIndexRequest{
		Name:                      name,
		Dimension:                 bodyInt(body, cmn.FieldDimension, 0),
		DataType:                  bodyString(body, cmn.FieldDataType),
		DistanceMetric:            metric,
		Policy:                    meta.Policy(bodyString(body, cmn.FieldPolicy)),
		NonFilterableMetadataKeys: bodyStringSlice(body, cmn.FieldNonFilterable),
	}
	cfg, err := s.Control.CreateIndex(r.Context(), bucket, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) getIndex(w http.ResponseWriter, r *http.Request, bucket, index string) {
	cfg, err := s.Control.GetIndex(r.Context(), bucket, index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) listIndexes(w http.ResponseWriter, r *http.Request, bucket string) {
	names, err := s.Control.ListIndexes(r.Context(), bucket)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"indexes": names})
}

func (s *Server) deleteIndex(w http.ResponseWriter, r *http.Request, bucket, index string) {
	if err := s.Control.DeleteIndex(r.Context(), bucket, index); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
