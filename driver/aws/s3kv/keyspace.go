package s3kv

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dogmatiq/permitkv/driver/aws/internal/awsx"
	"github.com/dogmatiq/permitkv/driver/aws/internal/s3x"
	"github.com/dogmatiq/permitkv/kv"
)

// revisionMetaData is the name of the object metadata entry that holds the
// pair's revision.
const revisionMetaData = "revision"

// keyspace is an implementation of [kv.BinaryKeyspace] that stores each
// key/value pair as an S3 object named "<keyspace>/<base64url(key)>".
//
// Inserts use If-None-Match and updates use If-Match on the object's ETag.
// Deletes verify the revision before removing the object, so a delete racing
// a write from another process may remove the newer value.
type keyspace struct {
	Client    *s3.Client
	OnRequest func(any) []func(*s3.Options)

	bucket string
	name   string
}

func (ks *keyspace) Name() string {
	return ks.name
}

func (ks *keyspace) Get(ctx context.Context, k []byte) ([]byte, kv.Revision, error) {
	out, err := awsx.Do(
		ctx,
		ks.Client.GetObject,
		ks.OnRequest,
		&s3.GetObjectInput{
			Bucket: &ks.bucket,
			Key:    ks.objectKey(k),
		},
	)
	if err != nil {
		if s3x.IsNotExists(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("unable to get object: %w", err)
	}
	defer out.Body.Close()

	r, err := parseRevision(out.Metadata)
	if err != nil {
		return nil, 0, err
	}

	v, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("unable to read object: %w", err)
	}

	return v, r, nil
}

func (ks *keyspace) Has(ctx context.Context, k []byte) (bool, error) {
	_, _, ok, err := ks.head(ctx, k)
	return ok, err
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte, r kv.Revision) error {
	current, etag, ok, err := ks.head(ctx, k)
	if err != nil {
		return err
	}

	if current != r {
		return ks.conflict(k, r)
	}

	if len(v) == 0 {
		if !ok {
			return nil
		}
		return ks.delete(ctx, k)
	}

	in := &s3.PutObjectInput{
		Bucket: &ks.bucket,
		Key:    ks.objectKey(k),
		Body:   s3x.NewReadSeeker(v),
		Metadata: map[string]string{
			revisionMetaData: strconv.FormatUint(uint64(r+1), 10),
		},
	}

	if ok {
		in.IfMatch = aws.String(etag)
	} else {
		in.IfNoneMatch = aws.String("*")
	}

	if _, err := awsx.Do(ctx, ks.Client.PutObject, ks.OnRequest, in); err != nil {
		if s3x.IsConflict(err) {
			return ks.conflict(k, r)
		}
		return fmt.Errorf("unable to put object: %w", err)
	}

	return nil
}

func (ks *keyspace) Close() error {
	return nil
}

// head returns the revision and ETag of the object that stores k.
func (ks *keyspace) head(ctx context.Context, k []byte) (kv.Revision, string, bool, error) {
	out, err := awsx.Do(
		ctx,
		ks.Client.HeadObject,
		ks.OnRequest,
		&s3.HeadObjectInput{
			Bucket: &ks.bucket,
			Key:    ks.objectKey(k),
		},
	)
	if err != nil {
		if s3x.IsNotExists(err) {
			return 0, "", false, nil
		}
		return 0, "", false, fmt.Errorf("unable to head object: %w", err)
	}

	r, err := parseRevision(out.Metadata)
	if err != nil {
		return 0, "", false, err
	}

	return r, aws.ToString(out.ETag), true, nil
}

func (ks *keyspace) delete(ctx context.Context, k []byte) error {
	if _, err := awsx.Do(
		ctx,
		ks.Client.DeleteObject,
		ks.OnRequest,
		&s3.DeleteObjectInput{
			Bucket: &ks.bucket,
			Key:    ks.objectKey(k),
		},
	); err != nil {
		return fmt.Errorf("unable to delete object: %w", err)
	}

	return nil
}

func (ks *keyspace) objectKey(k []byte) *string {
	return aws.String(ks.name + "/" + base64.RawURLEncoding.EncodeToString(k))
}

func (ks *keyspace) conflict(k []byte, r kv.Revision) error {
	return kv.ConflictError[[]byte]{
		Keyspace: ks.name,
		Key:      k,
		Revision: r,
	}
}

func parseRevision(md map[string]string) (kv.Revision, error) {
	s, ok := md[revisionMetaData]
	if !ok {
		return 0, fmt.Errorf("object is corrupt: missing %q metadata", revisionMetaData)
	}

	r, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("object is corrupt: invalid revision: %w", err)
	}

	return kv.Revision(r), nil
}
