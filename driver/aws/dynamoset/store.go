package dynamoset

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dogmatiq/permitkv/driver/aws/internal/dynamox"
	"github.com/dogmatiq/permitkv/internal/syncx"
	"github.com/dogmatiq/permitkv/set"
)

var (
	// setAttr is the name of the attribute that stores the set name on each
	// item. Together with [memberAttr], it forms the primary key of the table.
	setAttr = "S"

	// memberAttr is the name of the attribute that stores the member value on
	// each item.
	memberAttr = "M"

	// nonExistentAttr is the name of an attribute that does not exist on any
	// item. It is used to test for the existence of an item without fetching
	// unnecessary data.
	nonExistentAttr = "X"
)

// store is an implementation of [set.BinaryStore] that persists to a DynamoDB
// table.
type store struct {
	Client    *dynamodb.Client
	Table     string
	OnRequest func(any) []func(*dynamodb.Options)

	createTableOnce syncx.SucceedOnce
}

// NewBinaryStore returns a new [set.BinaryStore] that uses the given DynamoDB
// client to store set members in the given table.
func NewBinaryStore(
	client *dynamodb.Client,
	table string,
	options ...Option,
) set.BinaryStore {
	if table == "" {
		panic("table name must not be empty")
	}

	s := &store{
		Client: client,
		Table:  table,
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
// Before each DynamoDB API request, fn is passed a pointer to the input struct
// which it may modify in-place. Any functions returned by fn will be applied
// to the request's options before the request is sent.
func WithRequestHook(fn func(any) []func(*dynamodb.Options)) Option {
	return func(s *store) {
		s.OnRequest = fn
	}
}

// Open returns the set with the given name.
func (s *store) Open(ctx context.Context, name string) (set.BinarySet, error) {
	if err := s.createTableOnce.Do(
		ctx,
		func(ctx context.Context) error {
			return dynamox.CreateTableIfNotExists(
				ctx,
				s.Client,
				s.Table,
				s.OnRequest,
				dynamox.KeyAttr{
					Name:    &setAttr,
					Type:    types.ScalarAttributeTypeS,
					KeyType: types.KeyTypeHash,
				},
				dynamox.KeyAttr{
					Name:    &memberAttr,
					Type:    types.ScalarAttributeTypeB,
					KeyType: types.KeyTypeRange,
				},
			)
		},
	); err != nil {
		return nil, err
	}

	return &setimpl{
		Client:    s.Client,
		OnRequest: s.OnRequest,
		table:     s.Table,
		name:      name,
	}, nil
}
