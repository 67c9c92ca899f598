// Package main implements vecdbctl, a CLI driving the control plane, query
// engine, and index builder directly against an object store — no HTTP hop,
// the same subcommands a smoke-test script would exercise against the
// front door (create bucket, create index, put vectors, query, clean up).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/annstore/vecdb/builder"
	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/control"
	"github.com/annstore/vecdb/meta"
	"github.com/annstore/vecdb/query"
	"github.com/annstore/vecdb/stats"
	"github.com/annstore/vecdb/store"
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
)

// env is the live set of collaborators every subcommand runs against,
// assembled once in main() the way aistore's own node wiring builds its
// fs/cluster/stats singletons before handing off to the command layer.
type env struct {
	ctx     context.Context
	cfg     *cmn.Config
	store   store.Adapter
	control *control.Plane
	query   *query.Engine
	stats   *stats.Registry
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	name, rest := args[0], args[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "vecdbctl: unknown command %q\n", name)
		printUsage()
		return 2
	}

	e := newEnv()
	if err := cmd.run(e, rest); err != nil {
		fmt.Fprintf(os.Stderr, "vecdbctl: %s: %v\n", name, cmn.AsError(err).Message)
		return 1
	}
	return 0
}

func newEnv() *env {
	cfg := cmn.LoadConfigFromEnv()
	cmn.GCO.Put(cfg)

	var adapter store.Adapter
	if os.Getenv("VDB_MEM") != "" {
		adapter = store.NewMem()
	} else {
		adapter = store.New(&cfg.Store)
	}

	reg := stats.New(prometheus.NewRegistry())
	eng := query.NewEngine(adapter, query.NewBackendCache(64), cfg.Builder.OverFetch)
	eng.Stats = reg

	return &env{
		ctx:     context.Background(),
		cfg:     cfg,
		store:   adapter,
		control: control.New(adapter),
		query:   eng,
		stats:   reg,
	}
}

// buildIndex wires builder.BuildWithStats behind the env so every
// subcommand that triggers a consolidation records the same metrics the
// periodic runner would.
func (e *env) buildIndex(bucket string, idxCfg *meta.IndexConfig) (builder.Result, error) {
	return builder.BuildWithStats(e.ctx, e.store, bucket, idxCfg, e.cfg, "vecdbctl", e.stats)
}

func init() {
	glog.V(4).Infof("vecdbctl: command set registered")
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: vecdbctl <command> [flags]")
	fmt.Fprintln(os.Stderr, "commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(os.Stderr, "  %-16s %s\n", name, commands[name].help)
	}
}
