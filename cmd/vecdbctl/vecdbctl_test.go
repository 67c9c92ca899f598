package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/control"
	"github.com/annstore/vecdb/query"
	"github.com/annstore/vecdb/stats"
	"github.com/annstore/vecdb/store"
	"github.com/prometheus/client_golang/prometheus"
)

func testEnv(t *testing.T) *env {
	t.Helper()
	s := store.NewMem()
	cfg := cmn.DefaultConfig()
	cfg.Hybrid.Threshold = 1000
	reg := stats.New(prometheus.NewRegistry())
	eng := query.NewEngine(s, query.NewBackendCache(8), 4)
	eng.Stats = reg
	return &env{
		ctx:     context.Background(),
		cfg:     cfg,
		store:   s,
		control: control.New(s),
		query:   eng,
		stats:   reg,
	}
}

func TestLifecycleThroughCommands(t *testing.T) {
	e := testEnv(t)

	if err := cmdCreateBucket(e, []string{"--name", "b01"}); err != nil {
		t.Fatalf("create-bucket: %v", err)
	}
	if err := cmdCreateIndex(e, []string{
		"--bucket", "b01", "--name", "idx", "--dimension", "3",
		"--data-type", "float32", "--metric", "cosine", "--policy", "graph",
	}); err != nil {
		t.Fatalf("create-index: %v", err)
	}

	rows := []map[string]interface{}{
		{"key": "a", "vector": []float64{1, 0, 0}, "metadata": map[string]interface{}{"color": "red"}},
		{"key": "b", "vector": []float64{0, 1, 0}, "metadata": map[string]interface{}{"color": "blue"}},
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	file := filepath.Join(t.TempDir(), "rows.json")
	if err := os.WriteFile(file, raw, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := cmdPutVectors(e, []string{"--bucket", "b01", "--index", "idx", "--file", file}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := cmdBuild(e, []string{"--bucket", "b01", "--index", "idx"}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := cmdQueryVectors(e, []string{"--bucket", "b01", "--index", "idx", "--vector", "[1,0,0]", "--top-k", "1"}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if err := cmdGetVectors(e, []string{"--bucket", "b01", "--index", "idx", "--keys", "a,b"}); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := cmdListVectors(e, []string{"--bucket", "b01", "--index", "idx"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := cmdDeleteVectors(e, []string{"--bucket", "b01", "--index", "idx", "--keys", "a"}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	built := e.stats.BuildRuns
	if built == nil {
		t.Fatalf("expected BuildRuns metric to be registered")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if code := run([]string{"not-a-command"}); code != 2 {
		t.Fatalf("expected exit code 2 for an unknown command, got %d", code)
	}
}
