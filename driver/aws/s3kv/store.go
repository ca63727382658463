package s3kv

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dogmatiq/permitkv/driver/aws/internal/s3x"
	"github.com/dogmatiq/permitkv/internal/syncx"
	"github.com/dogmatiq/permitkv/kv"
)

// store is an implementation of [kv.BinaryStore] that persists each key/value
// pair as an object in an S3 bucket.
type store struct {
	Client    *s3.Client
	Bucket    string
	OnRequest func(any) []func(*s3.Options)

	createBucketOnce syncx.SucceedOnce
}

// NewBinaryStore returns a new [kv.BinaryStore] that uses the given S3 client
// to store key/value pairs in the given bucket.
//
// The bucket must support conditional writes (If-Match and If-None-Match).
func NewBinaryStore(
	client *s3.Client,
	bucket string,
	options ...Option,
) kv.BinaryStore {
	if bucket == "" {
		panic("bucket name must not be empty")
	}

	s := &store{
		Client: client,
		Bucket: bucket,
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Option is a functional option that changes the behavior of [NewBinaryStore].
type Option func(*store)

// WithRequestHook is an [Option] that configures fn as a pre-request hook.
//
// Before each S3 API request, fn is passed a pointer to the input struct, e.g.
// [s3.GetObjectInput], which it may modify in-place. Any functions returned by
// fn will be applied to the request's options before the request is sent.
func WithRequestHook(fn func(any) []func(*s3.Options)) Option {
	return func(s *store) {
		s.OnRequest = fn
	}
}

// Open returns the keyspace with the given name.
func (s *store) Open(ctx context.Context, name string) (kv.BinaryKeyspace, error) {
	if err := s.createBucketOnce.Do(
		ctx,
		func(ctx context.Context) error {
			return s3x.CreateBucketIfNotExists(ctx, s.Client, s.Bucket, s.OnRequest)
		},
	); err != nil {
		return nil, err
	}

	return &keyspace{
		Client:    s.Client,
		OnRequest: s.OnRequest,
		bucket:    s.Bucket,
		name:      name,
	}, nil
}
