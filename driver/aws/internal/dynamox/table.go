package dynamox

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dogmatiq/permitkv/driver/aws/internal/awsx"
)

// KeyAttr describes one element of a table's primary key.
type KeyAttr struct {
	Name    *string
	Type    types.ScalarAttributeType
	KeyType types.KeyType
}

// CreateTableIfNotExists creates a DynamoDB table with the given primary key,
// and waits for it to become active.
//
// It is not an error if the table already exists.
func CreateTableIfNotExists(
	ctx context.Context,
	client *dynamodb.Client,
	table string,
	m func(any) []func(*dynamodb.Options),
	keys ...KeyAttr,
) error {
	in := &dynamodb.CreateTableInput{
		TableName:   aws.String(table),
		BillingMode: types.BillingModePayPerRequest,
	}

	for _, k := range keys {
		in.AttributeDefinitions = append(
			in.AttributeDefinitions,
			types.AttributeDefinition{
				AttributeName: k.Name,
				AttributeType: k.Type,
			},
		)

		in.KeySchema = append(
			in.KeySchema,
			types.KeySchemaElement{
				AttributeName: k.Name,
				KeyType:       k.KeyType,
			},
		)
	}

	if _, err := awsx.Do(ctx, client.CreateTable, m, in); err != nil {
		if !errors.As(err, new(*types.ResourceInUseException)) {
			return err
		}
	}

	return dynamodb.
		NewTableExistsWaiter(client).
		Wait(
			ctx,
			&dynamodb.DescribeTableInput{
				TableName: aws.String(table),
			},
			tableWaitTimeout,
		)
}

// tableWaitTimeout is the maximum time to wait for a newly created table to
// become active.
const tableWaitTimeout = 2 * time.Minute

// DeleteTableIfExists deletes a DynamoDB table if it exists.
func DeleteTableIfExists(
	ctx context.Context,
	client *dynamodb.Client,
	table string,
) error {
	if _, err := client.DeleteTable(
		ctx,
		&dynamodb.DeleteTableInput{
			TableName: aws.String(table),
		},
	); err != nil {
		if !errors.As(err, new(*types.ResourceNotFoundException)) {
			return err
		}
	}

	return nil
}

// IsConditionalCheckFailed returns true if err indicates that a request's
// condition expression evaluated to false.
func IsConditionalCheckFailed(err error) bool {
	return errors.As(err, new(*types.ConditionalCheckFailedException))
}
