package main

import (
	"fmt"

	"github.com/spf13/pflag"
)

// cmdBuild runs one consolidation cycle on demand (§4.6), outside of
// whatever periodic schedule a deployment runs it on — the same
// builder.BuildWithStats call site a cron-driven runner would use.
func cmdBuild(e *env, args []string) error {
	fs := pflag.NewFlagSet("build", pflag.ContinueOnError)
	bucket := fs.StringP("bucket", "b", "", "vector bucket name")
	index := fs.StringP("index", "i", "", "index name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	idxCfg, err := e.control.GetIndex(e.ctx, *bucket, *index)
	if err != nil {
		return err
	}
	res, err := e.buildIndex(*bucket, &idxCfg)
	if err != nil {
		return err
	}
	if res.NoOp {
		fmt.Println("no staged slices; nothing to do")
		return nil
	}
	fmt.Printf("consolidated %d slices, %d vectors appended, %d alive, algo=%s\n",
		res.SlicesConsolidated, res.VectorsAppended, res.TotalAlive, res.Algo)
	return nil
}
