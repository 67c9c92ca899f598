package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func cmdCreateBucket(e *env, args []string) error {
	fs := pflag.NewFlagSet("create-bucket", pflag.ContinueOnError)
	name := fs.StringP("name", "n", "", "vector bucket name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	b, err := e.control.CreateBucket(e.ctx, *name)
	if err != nil {
		return err
	}
	printJSON(b)
	return nil
}

func cmdGetBucket(e *env, args []string) error {
	fs := pflag.NewFlagSet("get-bucket", pflag.ContinueOnError)
	name := fs.StringP("name", "n", "", "vector bucket name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	b, err := e.control.GetBucket(e.ctx, *name)
	if err != nil {
		return err
	}
	printJSON(b)
	return nil
}

func cmdListBuckets(e *env, args []string) error {
	names, err := e.control.ListBuckets(e.ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func cmdDeleteBucket(e *env, args []string) error {
	fs := pflag.NewFlagSet("delete-bucket", pflag.ContinueOnError)
	name := fs.StringP("name", "n", "", "vector bucket name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return e.control.DeleteBucket(e.ctx, *name)
}
