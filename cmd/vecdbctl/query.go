package main

import (
	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/query"
	"github.com/spf13/pflag"
)

func cmdQueryVectors(e *env, args []string) error {
	fs := pflag.NewFlagSet("query", pflag.ContinueOnError)
	bucket := fs.StringP("bucket", "b", "", "vector bucket name")
	index := fs.StringP("index", "i", "", "index name")
	vecJSON := fs.String("vector", "", `query vector as a JSON array, e.g. "[0.1,0.2,0.3]"`)
	topK := fs.Int("top-k", 10, "number of nearest neighbors to return")
	nProbe := fs.Int("nprobe", 0, "IVF-PQ cells to probe (0 = backend default)")
	returnData := fs.Bool("return-data", false, "include each result's raw vector")
	returnMetadata := fs.Bool("return-metadata", true, "include each result's metadata")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var vec []float32
	if err := json.Unmarshal([]byte(*vecJSON), &vec); err != nil {
		return cmn.ErrValidation("--vector is not a JSON numeric array: %v", err)
	}
	if err := cmn.ValidateTopK(*topK); err != nil {
		return err
	}

	idxCfg, err := e.control.GetIndex(e.ctx, *bucket, *index)
	if err != nil {
		return err
	}
	results, err := e.query.Search(e.ctx, &idxCfg, query.Request{
		VectorBucket:   *bucket,
		Index:          *index,
		QueryVector:    vec,
		TopK:           *topK,
		NProbe:         *nProbe,
		ReturnData:     *returnData,
		ReturnMetadata: *returnMetadata,
		ReturnDistance: true,
	})
	if err != nil {
		return err
	}
	printJSON(results)
	return nil
}
