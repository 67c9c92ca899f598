package main

// command is one vecdbctl subcommand: a short help string for printUsage
// and a run func taking the shared env plus its own argv slice.
type command struct {
	help string
	run  func(e *env, args []string) error
}

// commandOrder fixes printUsage's listing order; commands is the dispatch
// table main() looks subcommand names up in.
var commandOrder = []string{
	"create-bucket", "get-bucket", "list-buckets", "delete-bucket",
	"create-index", "get-index", "list-indexes", "delete-index",
	"put", "get", "list", "delete", "query", "build",
}

var commands = map[string]command{
	"create-bucket": {"create a vector bucket", cmdCreateBucket},
	"get-bucket":    {"show a vector bucket", cmdGetBucket},
	"list-buckets":  {"list vector buckets", cmdListBuckets},
	"delete-bucket": {"delete a vector bucket and everything under it", cmdDeleteBucket},

	"create-index": {"create an index in a bucket", cmdCreateIndex},
	"get-index":    {"show an index's configuration", cmdGetIndex},
	"list-indexes": {"list indexes in a bucket", cmdListIndexes},
	"delete-index": {"delete an index", cmdDeleteIndex},

	"put":    {"stage a batch of vectors from a JSON file", cmdPutVectors},
	"get":    {"fetch vectors by key", cmdGetVectors},
	"list":   {"page through an index's keys", cmdListVectors},
	"delete": {"tombstone vectors by key", cmdDeleteVectors},
	"query":  {"run a similarity search", cmdQueryVectors},
	"build":  {"run one consolidation cycle against staged slices", cmdBuild},
}
