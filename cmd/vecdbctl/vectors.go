package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/idmap"
	"github.com/annstore/vecdb/meta"
	"github.com/annstore/vecdb/schema"
	"github.com/annstore/vecdb/slice"
	"github.com/annstore/vecdb/store"
	"github.com/spf13/pflag"
)

const idmapExt = "json"

// cmdPutVectors stages a batch read from a JSON file of meta.VectorRow
// objects (bare "vector" array — this is a direct store client, not the
// AWS-style {"float32":[...]} wire shape the HTTP front door speaks).
func cmdPutVectors(e *env, args []string) error {
	fs := pflag.NewFlagSet("put", pflag.ContinueOnError)
	bucket := fs.StringP("bucket", "b", "", "vector bucket name")
	index := fs.StringP("index", "i", "", "index name")
	file := fs.StringP("file", "f", "", "path to a JSON array of vector rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		return cmn.ErrValidation("read %s: %v", *file, err)
	}
	var rows []meta.VectorRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return cmn.ErrValidation("%s is not a JSON array of vector rows: %v", *file, err)
	}
	if len(rows) == 0 {
		fmt.Println("accepted 0")
		return nil
	}
	if err := cmn.ValidateBatchSize(len(rows)); err != nil {
		return err
	}

	idxCfg, err := e.control.GetIndex(e.ctx, *bucket, *index)
	if err != nil {
		return err
	}

	sliceRows := make([]slice.Row, len(rows))
	for i, v := range rows {
		if err := cmn.ValidateKey(v.Key); err != nil {
			return err
		}
		if len(v.Vector) != idxCfg.Dimension {
			return cmn.ErrValidation("vector for key %q has dimension %d, index dimension is %d", v.Key, len(v.Vector), idxCfg.Dimension)
		}
		sr, err := slice.FromVectorRow(v)
		if err != nil {
			return err
		}
		if err := cmn.ValidateMetadataSize(len(sr.MetadataJSON)); err != nil {
			return err
		}
		sliceRows[i] = sr
	}

	format := slice.Format(e.cfg.Slice.Format)
	var buf bytes.Buffer
	if err := slice.Encode(&buf, sliceRows, format); err != nil {
		return err
	}
	key := store.StagedSliceKey(*index, slice.SliceKeyTimestamp(time.Now()), format.Ext())
	if err := e.store.PutBytes(e.ctx, *bucket, key, buf.Bytes(), "application/octet-stream"); err != nil {
		return err
	}
	fmt.Printf("accepted %d\n", len(rows))
	return nil
}

func cmdGetVectors(e *env, args []string) error {
	fs := pflag.NewFlagSet("get", pflag.ContinueOnError)
	bucket := fs.StringP("bucket", "b", "", "vector bucket name")
	index := fs.StringP("index", "i", "", "index name")
	keys := fs.StringSlice("keys", nil, "vector keys to fetch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cmn.ValidateGetKeysCount(len(*keys)); err != nil {
		return err
	}

	m, err := idmap.Load(e.ctx, e.store, *bucket, *index, idmapExt)
	if err != nil {
		return err
	}
	rows := make([]meta.VectorRow, 0, len(*keys))
	for _, k := range *keys {
		row, ok := m.Lookup(k)
		if !ok || !row.Alive {
			continue
		}
		rows = append(rows, meta.VectorRow{Key: row.Key, Vector: row.Vector, Metadata: rowMetadata(row)})
	}
	printJSON(rows)
	return nil
}

func cmdListVectors(e *env, args []string) error {
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	bucket := fs.StringP("bucket", "b", "", "vector bucket name")
	index := fs.StringP("index", "i", "", "index name")
	cursor := fs.String("cursor", "", "pagination token from a previous call")
	limit := fs.Int("limit", 100, "max keys to return")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := idmap.Load(e.ctx, e.store, *bucket, *index, idmapExt)
	if err != nil {
		return err
	}
	page, next := m.List(*cursor, *limit)
	for _, row := range page {
		fmt.Println(row.Key)
	}
	if next != "" {
		fmt.Fprintf(os.Stderr, "nextToken: %s\n", next)
	}
	return nil
}

// cmdDeleteVectors tombstones directly against the id map, same posture as
// the HTTP front door's equivalent handler: a single mutation, not a
// backend rebuild, so it bypasses the builder's advisory lease.
func cmdDeleteVectors(e *env, args []string) error {
	fs := pflag.NewFlagSet("delete", pflag.ContinueOnError)
	bucket := fs.StringP("bucket", "b", "", "vector bucket name")
	index := fs.StringP("index", "i", "", "index name")
	keys := fs.StringSlice("keys", nil, "vector keys to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := idmap.Load(e.ctx, e.store, *bucket, *index, idmapExt)
	if err != nil {
		return err
	}
	n := m.Tombstone(*keys)
	if n > 0 {
		if err := m.Save(e.ctx, e.store, *bucket, *index, idmapExt); err != nil {
			return err
		}
	}
	fmt.Printf("deleted %d\n", n)
	return nil
}

func rowMetadata(row idmap.Row) map[string]interface{} {
	var overlay map[string]interface{}
	if row.MetadataJSON != "" {
		_ = json.Unmarshal([]byte(row.MetadataJSON), &overlay)
	}
	return schema.Merge(overlay, row.TypedColumns)
}
