package dynamokv

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dogmatiq/permitkv/driver/aws/internal/awsx"
	"github.com/dogmatiq/permitkv/driver/aws/internal/dynamox"
	"github.com/dogmatiq/permitkv/kv"
)

// keyspace is an implementation of [kv.BinaryKeyspace] that stores each
// key/value pair as an item in a DynamoDB table.
//
// Requests are built per call so that a keyspace may be shared between
// goroutines.
type keyspace struct {
	Client    *dynamodb.Client
	OnRequest func(any) []func(*dynamodb.Options)

	table string
	name  string
}

func (ks *keyspace) Name() string {
	return ks.name
}

func (ks *keyspace) Get(ctx context.Context, k []byte) ([]byte, kv.Revision, error) {
	out, err := awsx.Do(
		ctx,
		ks.Client.GetItem,
		ks.OnRequest,
		&dynamodb.GetItemInput{
			TableName:            &ks.table,
			Key:                  ks.key(k),
			ConsistentRead:       aws.Bool(true),
			ProjectionExpression: aws.String(`#V, #R`),
			ExpressionAttributeNames: map[string]string{
				"#V": valueAttr,
				"#R": revisionAttr,
			},
		},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("unable to get keyspace pair: %w", err)
	}

	if out.Item == nil {
		return nil, 0, nil
	}

	v, err := dynamox.AttrAs[*types.AttributeValueMemberB](out.Item, valueAttr)
	if err != nil {
		return nil, 0, err
	}

	r, err := dynamox.AttrAs[*types.AttributeValueMemberN](out.Item, revisionAttr)
	if err != nil {
		return nil, 0, err
	}

	rev, err := strconv.ParseUint(r.Value, 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("item is corrupt: invalid revision: %w", err)
	}

	return v.Value, kv.Revision(rev), nil
}

func (ks *keyspace) Has(ctx context.Context, k []byte) (bool, error) {
	out, err := awsx.Do(
		ctx,
		ks.Client.GetItem,
		ks.OnRequest,
		&dynamodb.GetItemInput{
			TableName:            &ks.table,
			Key:                  ks.key(k),
			ConsistentRead:       aws.Bool(true),
			ProjectionExpression: &nonExistentAttr,
		},
	)
	if err != nil {
		return false, fmt.Errorf("unable to get keyspace pair: %w", err)
	}

	return out.Item != nil, nil
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte, r kv.Revision) error {
	var err error

	switch {
	case len(v) == 0 && r == 0:
		var exists bool
		exists, err = ks.Has(ctx, k)
		if err == nil && exists {
			return ks.conflict(k, r)
		}
	case len(v) == 0:
		err = ks.delete(ctx, k, r)
	case r == 0:
		err = ks.put(ctx, k, v, r, `attribute_not_exists(#K)`)
	default:
		err = ks.put(ctx, k, v, r, `#R = :R`)
	}

	if dynamox.IsConditionalCheckFailed(err) {
		return ks.conflict(k, r)
	}

	return err
}

func (ks *keyspace) put(
	ctx context.Context,
	k, v []byte,
	r kv.Revision,
	condition string,
) error {
	item := ks.key(k)
	item[valueAttr] = &types.AttributeValueMemberB{Value: v}
	item[revisionAttr] = revision(r + 1)

	in := &dynamodb.PutItemInput{
		TableName:           &ks.table,
		Item:                item,
		ConditionExpression: aws.String(condition),
		ExpressionAttributeNames: map[string]string{
			"#K": keyAttr,
		},
	}

	if r != 0 {
		in.ExpressionAttributeNames = map[string]string{
			"#R": revisionAttr,
		}
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":R": revision(r),
		}
	}

	if _, err := awsx.Do(ctx, ks.Client.PutItem, ks.OnRequest, in); err != nil {
		return fmt.Errorf("unable to put keyspace pair: %w", err)
	}

	return nil
}

func (ks *keyspace) delete(ctx context.Context, k []byte, r kv.Revision) error {
	if _, err := awsx.Do(
		ctx,
		ks.Client.DeleteItem,
		ks.OnRequest,
		&dynamodb.DeleteItemInput{
			TableName:           &ks.table,
			Key:                 ks.key(k),
			ConditionExpression: aws.String(`#R = :R`),
			ExpressionAttributeNames: map[string]string{
				"#R": revisionAttr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":R": revision(r),
			},
		},
	); err != nil {
		return fmt.Errorf("unable to delete keyspace pair: %w", err)
	}

	return nil
}

func (ks *keyspace) Close() error {
	return nil
}

// key returns the primary key of the item that stores k.
func (ks *keyspace) key(k []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyspaceAttr: &types.AttributeValueMemberS{Value: ks.name},
		keyAttr:      &types.AttributeValueMemberB{Value: k},
	}
}

func (ks *keyspace) conflict(k []byte, r kv.Revision) error {
	return kv.ConflictError[[]byte]{
		Keyspace: ks.name,
		Key:      k,
		Revision: r,
	}
}

func revision(r kv.Revision) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{
		Value: strconv.FormatUint(uint64(r), 10),
	}
}
