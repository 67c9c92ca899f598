package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/annstore/vecdb/authn"
	"github.com/annstore/vecdb/builder"
	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/control"
	"github.com/annstore/vecdb/meta"
	"github.com/annstore/vecdb/query"
	"github.com/annstore/vecdb/stats"
	"github.com/annstore/vecdb/store"
	"github.com/prometheus/client_golang/prometheus"
)

func reqCtx() context.Context { return context.Background() }

func issueTestToken(secret string) (string, error) {
	return authn.IssueToken("test-user", secret, time.Hour)
}

func testServer(t *testing.T) (*Server, store.Adapter) {
	t.Helper()
	s := store.NewMem()
	ctrl := control.New(s)
	eng := query.NewEngine(s, query.NewBackendCache(8), 4)
	reg := stats.New(prometheus.NewRegistry())
	cfg := cmn.DefaultConfig()
	cfg.Hybrid.Threshold = 1000
	return NewServer(ctrl, eng, s, reg, cfg, ""), s
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthzReturnsOK(t *testing.T) {
	s, _ := testServer(t)
	rec := doRequest(t, s.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestNativeBucketLifecycle(t *testing.T) {
	s, _ := testServer(t)
	h := s.Handler()

	rec := doRequest(t, h, http.MethodPut, "/buckets/my-bucket", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("create bucket: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodGet, "/buckets/my-bucket", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get bucket: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodDelete, "/buckets/my-bucket", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete bucket: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodGet, "/buckets/my-bucket", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestActionSurfaceCreateBucketAndIndex(t *testing.T) {
	s, _ := testServer(t)
	h := s.Handler()

	rec := doRequest(t, h, http.MethodPost, "/CreateVectorBucket", map[string]interface{}{
		"vectorBucketName": "b01",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create bucket action: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPost, "/CreateIndex", map[string]interface{}{
		"vectorBucketArn": "arn:aws:s3vectors:us-east-1:123:bucket/b01",
		"indexName":       "idx",
		"dimension":       3,
		"dataType":        "float32",
		"distanceMetric":  "cosine",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create index action: %d %s", rec.Code, rec.Body.String())
	}

	var cfg meta.IndexConfig
	decodeJSON(t, rec, &cfg)
	if cfg.Dimension != 3 || cfg.DistanceMetric != meta.MetricCosine {
		t.Fatalf("unexpected index config: %+v", cfg)
	}
}

func TestPutVectorsStagesThenBuildThenQuery(t *testing.T) {
	s, adapter := testServer(t)
	h := s.Handler()

	const bucket, index = "b01", "idx"
	if _, err := s.Control.CreateBucket(reqCtx(), bucket); err != nil {
		t.Fatalf("create bucket: %v", err)
	}
	if _, err := s.Control.CreateIndex(reqCtx(), bucket, control.CreateIndexRequest{
		Name: index, Dimension: 3, DataType: "float32", DistanceMetric: meta.MetricCosine, Policy: meta.PolicyGraph,
	}); err != nil {
		t.Fatalf("create index: %v", err)
	}

	putBody := map[string]interface{}{
		"vectors": []map[string]interface{}{
			{"key": "a", "data": map[string]interface{}{"float32": []float64{1, 0, 0}}, "metadata": map[string]interface{}{"color": "red"}},
			{"key": "b", "data": map[string]interface{}{"float32": []float64{0, 1, 0}}, "metadata": map[string]interface{}{"color": "blue"}},
		},
	}
	rec := doRequest(t, h, http.MethodPost, "/buckets/b01/indexes/idx/vectors", putBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("put vectors: %d %s", rec.Code, rec.Body.String())
	}

	idxCfg, err := s.Control.GetIndex(reqCtx(), bucket, index)
	if err != nil {
		t.Fatalf("get index: %v", err)
	}
	cfg := cmn.DefaultConfig()
	cfg.Hybrid.Threshold = 1000
	if _, err := builder.Build(reqCtx(), adapter, bucket, &idxCfg, cfg, "test-owner"); err != nil {
		t.Fatalf("build: %v", err)
	}

	queryBody := map[string]interface{}{
		"queryVector":    map[string]interface{}{"float32": []float64{1, 0, 0}},
		"topK":           2,
		"returnMetadata": true,
	}
	rec = doRequest(t, h, http.MethodPost, "/buckets/b01/indexes/idx/query", queryBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("query: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Results []wireResult `json:"results"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Results) == 0 || resp.Results[0].Key != "a" {
		t.Fatalf("expected nearest result to be key a, got %+v", resp.Results)
	}

	getRec := doRequest(t, h, http.MethodPost, "/buckets/b01/indexes/idx/vectors:get", map[string]interface{}{
		"keys": []string{"a", "b", "missing"},
	})
	if getRec.Code != http.StatusOK {
		t.Fatalf("get vectors: %d %s", getRec.Code, getRec.Body.String())
	}
	var getResp struct {
		Vectors []wireVectorRow `json:"vectors"`
	}
	decodeJSON(t, getRec, &getResp)
	if len(getResp.Vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %+v", getResp.Vectors)
	}

	listRec := doRequest(t, h, http.MethodPost, "/buckets/b01/indexes/idx/vectors:list", map[string]interface{}{})
	if listRec.Code != http.StatusOK {
		t.Fatalf("list vectors: %d %s", listRec.Code, listRec.Body.String())
	}
	var listResp struct {
		Keys []string `json:"keys"`
	}
	decodeJSON(t, listRec, &listResp)
	if len(listResp.Keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", listResp.Keys)
	}

	delRec := doRequest(t, h, http.MethodPost, "/buckets/b01/indexes/idx/vectors:delete", map[string]interface{}{
		"keys": []string{"a"},
	})
	if delRec.Code != http.StatusOK {
		t.Fatalf("delete vectors: %d %s", delRec.Code, delRec.Body.String())
	}

	getRec2 := doRequest(t, h, http.MethodPost, "/buckets/b01/indexes/idx/vectors:get", map[string]interface{}{
		"keys": []string{"a", "b"},
	})
	decodeJSON(t, getRec2, &getResp)
	if len(getResp.Vectors) != 1 || getResp.Vectors[0].Key != "b" {
		t.Fatalf("expected only key b to remain, got %+v", getResp.Vectors)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	s, _ := testServer(t)
	s.Secret = "shh"
	h := s.Handler()

	rec := doRequest(t, h, http.MethodPut, "/buckets/my-bucket", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}

	healthRec := doRequest(t, h, http.MethodGet, "/healthz", nil)
	if healthRec.Code != http.StatusOK {
		t.Fatalf("expected healthz to bypass auth, got %d", healthRec.Code)
	}
}

func TestAuthAcceptsValidToken(t *testing.T) {
	s, _ := testServer(t)
	s.Secret = "shh"
	h := s.Handler()

	tok, err := issueTestToken(s.Secret)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPut, "/buckets/my-bucket", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a valid token, got %d %s", rec.Code, rec.Body.String())
	}
}
