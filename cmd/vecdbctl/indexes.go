package main

import (
	"fmt"

	"github.com/annstore/vecdb/control"
	"github.com/annstore/vecdb/meta"
	"github.com/spf13/pflag"
)

func cmdCreateIndex(e *env, args []string) error {
	fs := pflag.NewFlagSet("create-index", pflag.ContinueOnError)
	bucket := fs.StringP("bucket", "b", "", "vector bucket name")
	name := fs.StringP("name", "n", "", "index name")
	dim := fs.Int("dimension", 0, "vector dimension")
	dataType := fs.String("data-type", "float32", "vector element type")
	metric := fs.String("metric", string(meta.MetricCosine), "distance metric (cosine|euclidean|dot_product)")
	policy := fs.String("policy", string(meta.PolicyHybrid), "algorithm policy (graph|ivfpq|hybrid)")
	nonFilterable := fs.StringSlice("non-filterable", nil, "metadata keys never promoted to typed columns")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := e.control.CreateIndex(e.ctx, *bucket, control.CreateIndexRequest{
		Name:                      *name,
		Dimension:                 *dim,
		DataType:                  *dataType,
		DistanceMetric:            meta.DistanceMetric(*metric),
		Policy:                    meta.Policy(*policy),
		NonFilterableMetadataKeys: *nonFilterable,
	})
	if err != nil {
		return err
	}
	printJSON(cfg)
	return nil
}

func cmdGetIndex(e *env, args []string) error {
	fs := pflag.NewFlagSet("get-index", pflag.ContinueOnError)
	bucket := fs.StringP("bucket", "b", "", "vector bucket name")
	name := fs.StringP("name", "n", "", "index name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := e.control.GetIndex(e.ctx, *bucket, *name)
	if err != nil {
		return err
	}
	printJSON(cfg)
	return nil
}

func cmdListIndexes(e *env, args []string) error {
	fs := pflag.NewFlagSet("list-indexes", pflag.ContinueOnError)
	bucket := fs.StringP("bucket", "b", "", "vector bucket name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	names, err := e.control.ListIndexes(e.ctx, *bucket)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func cmdDeleteIndex(e *env, args []string) error {
	fs := pflag.NewFlagSet("delete-index", pflag.ContinueOnError)
	bucket := fs.StringP("bucket", "b", "", "vector bucket name")
	name := fs.StringP("name", "n", "", "index name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return e.control.DeleteIndex(e.ctx, *bucket, *name)
}
