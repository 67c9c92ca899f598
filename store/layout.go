package store

import "fmt"

// Layout centralizes the object-store key layout (§6 "Object store layout
// (bit-level stable)"). Every package that needs a key for bucket/index
// state goes through here instead of formatting paths ad hoc.
const (
	BucketMetaKey = "_meta/bucket.json"

	indexDir  = "indexes"
	stagedDir = "staged"
)

func IndexConfigKey(index string) string {
	return fmt.Sprintf("%s/%s/_index_config.json", indexDir, index)
}

func IdMapKey(index, ext string) string {
	return fmt.Sprintf("%s/%s/idmap.%s", indexDir, index, ext)
}

func ManifestKey(index string) string {
	return fmt.Sprintf("%s/%s/manifest.json", indexDir, index)
}

func BackendBlobKey(index, algoExt string) string {
	return fmt.Sprintf("%s/%s/index.%s", indexDir, index, algoExt)
}

func BuilderLockKey(index string) string {
	return fmt.Sprintf("%s/%s/.builder.lock", indexDir, index)
}

func IndexPrefix(index string) string {
	return fmt.Sprintf("%s/%s/", indexDir, index)
}

func StagedPrefix(index string) string {
	return fmt.Sprintf("%s/%s/", stagedDir, index)
}

// StagedSliceKey encodes a millisecond-timestamp (§4.2) ingest ordering.
func StagedSliceKey(index string, unixMilli int64, ext string) string {
	return fmt.Sprintf("%sslice-%d.%s", StagedPrefix(index), unixMilli, ext)
}
