package s3x

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dogmatiq/permitkv/internal/x/xtesting"
)

// NewTestClient returns a new S3 client for use in a test, and the name of a
// unique bucket that is deleted when the test ends.
//
// The test is skipped unless PERMITKV_TEST_S3_ENDPOINT is set to the URL of an
// S3-compatible server that supports conditional writes, such as MinIO.
func NewTestClient(t testing.TB) (*s3.Client, string) {
	endpoint := os.Getenv("PERMITKV_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("PERMITKV_TEST_S3_ENDPOINT is not set")
	}

	accessKey := os.Getenv("PERMITKV_TEST_S3_ACCESS_KEY")
	if accessKey == "" {
		accessKey = "minio"
	}

	secretKey := os.Getenv("PERMITKV_TEST_S3_SECRET_KEY")
	if secretKey == "" {
		secretKey = "password"
	}

	cfg, err := config.LoadDefaultConfig(
		context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
		config.WithRetryer(
			func() aws.Retryer {
				return aws.NopRetryer{}
			},
		),
	)
	if err != nil {
		t.Fatal(err)
	}

	client := s3.NewFromConfig(
		cfg,
		func(opts *s3.Options) {
			opts.BaseEndpoint = aws.String(endpoint)
			opts.UsePathStyle = true
		},
	)

	bucket := xtesting.UniqueName("bucket")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := DeleteBucketIfExists(ctx, client, bucket, nil); err != nil {
			t.Error(err)
		}
	})

	return client, bucket
}
