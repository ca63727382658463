package dynamox

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/dogmatiq/permitkv/internal/x/xtesting"
)

// NewTestClient returns a new DynamoDB client for use in a test, and the name
// of a unique table that is deleted when the test ends.
//
// The test is skipped unless PERMITKV_TEST_DYNAMODB_ENDPOINT is set to the
// URL of a DynamoDB-compatible server, such as amazon/dynamodb-local.
func NewTestClient(t testing.TB) (*dynamodb.Client, string) {
	endpoint := os.Getenv("PERMITKV_TEST_DYNAMODB_ENDPOINT")
	if endpoint == "" {
		t.Skip("PERMITKV_TEST_DYNAMODB_ENDPOINT is not set")
	}

	cfg, err := config.LoadDefaultConfig(
		context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("id", "secret", ""),
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

	client := dynamodb.NewFromConfig(
		cfg,
		func(opts *dynamodb.Options) {
			opts.BaseEndpoint = aws.String(endpoint)
		},
	)

	table := xtesting.UniqueName("table")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := DeleteTableIfExists(ctx, client, table); err != nil {
			t.Error(err)
		}
	})

	return client, table
}
