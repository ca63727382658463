package s3x_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	. "github.com/dogmatiq/permitkv/driver/aws/internal/s3x"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	notFound := fmt.Errorf("<context>: %w", &types.NoSuchKey{})
	exists := fmt.Errorf("<context>: %w", &types.BucketAlreadyOwnedByYou{})
	conflict := fmt.Errorf("<context>: %w", &smithy.GenericAPIError{Code: "PreconditionFailed"})
	other := errors.New("<error>")

	if !IsNotExists(notFound) || IsNotExists(other) {
		t.Fatal("IsNotExists() misclassified an error")
	}

	if IgnoreNotExists(notFound) != nil || IgnoreNotExists(other) != other {
		t.Fatal("IgnoreNotExists() misclassified an error")
	}

	if !IsAlreadyExists(exists) || IsAlreadyExists(other) {
		t.Fatal("IsAlreadyExists() misclassified an error")
	}

	if !IsConflict(conflict) || IsConflict(other) {
		t.Fatal("IsConflict() misclassified an error")
	}
}
