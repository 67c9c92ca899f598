// Package store implements the Object Store Adapter (§4.1): uniform,
// path-style-addressed access to an S3-compatible bucket, with the
// bucket-name prefix being the only thing that distinguishes a "vector
// bucket" from any other bucket in the underlying account.
package store

import (
	"bytes"
	"context"
	"io"
	"sort"

	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/cmn/cos"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/golang/glog"
)

const deleteBatchSize = 1000

// Store is the Object Store Adapter. It is the only component in the
// system that talks to the network besides the (out-of-scope) front door.
type Store struct {
	s3     *s3.S3
	prefix string
}

// interface guard
var _ Adapter = (*Store)(nil)

// Adapter is the contract the rest of the system depends on, so that
// builder/query/control tests can substitute an in-memory fake (see
// store/memstore.go) without touching the network.
type Adapter interface {
	EnsureBucket(ctx context.Context, vectorBucket string) error
	PutBytes(ctx context.Context, vectorBucket, key string, body []byte, contentType string) error
	GetBytes(ctx context.Context, vectorBucket, key string) ([]byte, error)
	PutJSON(ctx context.Context, vectorBucket, key string, v interface{}) error
	GetJSON(ctx context.Context, vectorBucket, key string, v interface{}) error
	ListPrefix(ctx context.Context, vectorBucket, prefix string) ([]string, error)
	DeletePrefix(ctx context.Context, vectorBucket, prefix string) error
	DeleteObject(ctx context.Context, vectorBucket, key string) error
	ListVectorBuckets(ctx context.Context) ([]string, error)
	DeleteVectorBucket(ctx context.Context, vectorBucket string) error
}

// New builds a Store from the live config (§6 "Environment configuration").
func New(cfg *cmn.StoreConf) *Store {
	sess := session.Must(session.NewSession(&aws.Config{
		Endpoint:         aws.String(cfg.EndpointURL),
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(!cfg.UseHTTPS),
		HTTPClient:       cos.NewClient(cos.TransportArgs{UseHTTPS: cfg.UseHTTPS, SkipVerify: cfg.SkipVerify}),
	}))
	return &Store{s3: s3.New(sess), prefix: cfg.BucketPrefix}
}

// bucketName maps a user-visible vector bucket name to its physical
// object-store bucket name. The adapter is the only component aware of
// the prefix (§4.1).
func (s *Store) bucketName(vectorBucket string) string {
	return s.prefix + vectorBucket
}

func (s *Store) EnsureBucket(ctx context.Context, vectorBucket string) error {
	bn := s.bucketName(vectorBucket)
	_, err := s.s3.CreateBucketWithContext(ctx, &s3.CreateBucketInput{Bucket: aws.String(bn)})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeBucketAlreadyExists, s3.ErrCodeBucketAlreadyOwnedByYou:
				return nil
			}
		}
		return cmn.ErrDependency(err, "ensure bucket %q", vectorBucket)
	}
	return nil
}

func (s *Store) PutBytes(ctx context.Context, vectorBucket, key string, body []byte, contentType string) error {
	_, err := s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName(vectorBucket)),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return cmn.ErrDependency(err, "put %s/%s", vectorBucket, key)
	}
	return nil
}

func (s *Store) GetBytes(ctx context.Context, vectorBucket, key string) ([]byte, error) {
	out, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName(vectorBucket)),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, cmn.ErrNotFound("object", key)
		}
		return nil, cmn.ErrDependency(err, "get %s/%s", vectorBucket, key)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *Store) PutJSON(ctx context.Context, vectorBucket, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return cmn.ErrInternal("marshal %s: %v", key, err)
	}
	return s.PutBytes(ctx, vectorBucket, key, raw, cmn.MIMEJSON)
}

func (s *Store) GetJSON(ctx context.Context, vectorBucket, key string, v interface{}) error {
	raw, err := s.GetBytes(ctx, vectorBucket, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return cmn.ErrDependency(err, "decode %s/%s", vectorBucket, key)
	}
	return nil
}

// ListPrefix streams a full listing (pagination hidden from the caller,
// per §4.1) and returns keys in lexicographic order, which the builder
// relies on to reconstruct ingest ordering from staged slice timestamps.
func (s *Store) ListPrefix(ctx context.Context, vectorBucket, prefix string) ([]string, error) {
	bn := s.bucketName(vectorBucket)
	var keys []string
	err := s.s3.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bn),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, cmn.ErrDependency(err, "list %s/%s", vectorBucket, prefix)
	}
	sort.Strings(keys)
	return keys, nil
}

// DeletePrefix batches deletes at up to 1000 keys per call (§4.1).
func (s *Store) DeletePrefix(ctx context.Context, vectorBucket, prefix string) error {
	keys, err := s.ListPrefix(ctx, vectorBucket, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	bn := s.bucketName(vectorBucket)
	for i := 0; i < len(keys); i += deleteBatchSize {
		end := i + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		objs := make([]*s3.ObjectIdentifier, end-i)
		for j, k := range keys[i:end] {
			objs[j] = &s3.ObjectIdentifier{Key: aws.String(k)}
		}
		_, err := s.s3.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bn),
			Delete: &s3.Delete{Objects: objs},
		})
		if err != nil {
			return cmn.ErrDependency(err, "delete_prefix %s/%s", vectorBucket, prefix)
		}
	}
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, vectorBucket, key string) error {
	_, err := s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName(vectorBucket)),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return cmn.ErrDependency(err, "delete %s/%s", vectorBucket, key)
	}
	return nil
}

func (s *Store) ListVectorBuckets(ctx context.Context) ([]string, error) {
	out, err := s.s3.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, cmn.ErrDependency(err, "list buckets")
	}
	var names []string
	for _, b := range out.Buckets {
		n := aws.StringValue(b.Name)
		if len(n) > len(s.prefix) && n[:len(s.prefix)] == s.prefix {
			names = append(names, n[len(s.prefix):])
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) DeleteVectorBucket(ctx context.Context, vectorBucket string) error {
	// Buckets leave the underlying object-store bucket intact (§3
	// "Lifecycles"): only the logical contents (_meta/, indexes/, staged/)
	// are swept, the physical S3 bucket is never deleted.
	for _, prefix := range []string{"_meta/", "indexes/", "staged/"} {
		if err := s.DeletePrefix(ctx, vectorBucket, prefix); err != nil {
			return err
		}
	}
	return nil
}

func isNotFound(err error) bool {
	aerr, ok := err.(awserr.Error)
	if !ok {
		return false
	}
	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
		return true
	default:
		return false
	}
}

func init() {
	glog.V(4).Infof("store: object store adapter initialized")
}
