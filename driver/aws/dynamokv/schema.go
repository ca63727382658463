package dynamokv

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dogmatiq/permitkv/driver/aws/internal/dynamox"
)

var (
	// keyspaceAttr is the name of the attribute that stores the keyspace name
	// on each item. Together with [keyAttr], it forms the primary key of the
	// table.
	keyspaceAttr = "S"

	// keyAttr is the name of the attribute that stores the key on each item.
	// Together with [keyspaceAttr], it forms the primary key of the table.
	keyAttr = "K"

	// valueAttr is the name of the attribute that stores the value on each
	// item.
	valueAttr = "V"

	// revisionAttr is the name of the attribute that stores the revision of
	// the key/value pair on each item.
	revisionAttr = "R"

	// nonExistentAttr is the name of an attribute that does not exist on any
	// item. It is used to test for the existence of an item without fetching
	// unnecessary data.
	nonExistentAttr = "X"
)

// createTable creates the DynamoDB table if it does not already exist.
func (s *store) createTable(ctx context.Context) error {
	return dynamox.CreateTableIfNotExists(
		ctx,
		s.Client,
		s.Table,
		s.OnRequest,
		dynamox.KeyAttr{
			Name:    &keyspaceAttr,
			Type:    types.ScalarAttributeTypeS,
			KeyType: types.KeyTypeHash,
		},
		dynamox.KeyAttr{
			Name:    &keyAttr,
			Type:    types.ScalarAttributeTypeB,
			KeyType: types.KeyTypeRange,
		},
	)
}
