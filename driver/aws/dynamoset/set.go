package dynamoset

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dogmatiq/permitkv/driver/aws/internal/awsx"
	"github.com/dogmatiq/permitkv/driver/aws/internal/dynamox"
)

type setimpl struct {
	Client    *dynamodb.Client
	OnRequest func(any) []func(*dynamodb.Options)

	table string
	name  string
}

func (s *setimpl) Name() string {
	return s.name
}

func (s *setimpl) Has(ctx context.Context, v []byte) (bool, error) {
	out, err := awsx.Do(
		ctx,
		s.Client.GetItem,
		s.OnRequest,
		&dynamodb.GetItemInput{
			TableName:            &s.table,
			Key:                  s.key(v),
			ConsistentRead:       aws.Bool(true),
			ProjectionExpression: &nonExistentAttr,
		},
	)
	if err != nil {
		return false, fmt.Errorf("unable to get set member: %w", err)
	}

	return out.Item != nil, nil
}

func (s *setimpl) Add(ctx context.Context, v []byte) error {
	if _, err := awsx.Do(
		ctx,
		s.Client.PutItem,
		s.OnRequest,
		&dynamodb.PutItemInput{
			TableName: &s.table,
			Item:      s.key(v),
		},
	); err != nil {
		return fmt.Errorf("unable to put set member: %w", err)
	}

	return nil
}

func (s *setimpl) TryAdd(ctx context.Context, v []byte) (bool, error) {
	if _, err := awsx.Do(
		ctx,
		s.Client.PutItem,
		s.OnRequest,
		&dynamodb.PutItemInput{
			TableName:           &s.table,
			Item:                s.key(v),
			ConditionExpression: aws.String(`attribute_not_exists(#M)`),
			ExpressionAttributeNames: map[string]string{
				"#M": memberAttr,
			},
		},
	); err != nil {
		if dynamox.IsConditionalCheckFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("unable to put set member: %w", err)
	}

	return true, nil
}

func (s *setimpl) Remove(ctx context.Context, v []byte) error {
	_, err := s.TryRemove(ctx, v)
	return err
}

func (s *setimpl) TryRemove(ctx context.Context, v []byte) (bool, error) {
	out, err := awsx.Do(
		ctx,
		s.Client.DeleteItem,
		s.OnRequest,
		&dynamodb.DeleteItemInput{
			TableName:    &s.table,
			Key:          s.key(v),
			ReturnValues: types.ReturnValueAllOld,
		},
	)
	if err != nil {
		return false, fmt.Errorf("unable to delete set member: %w", err)
	}

	return len(out.Attributes) != 0, nil
}

func (s *setimpl) Close() error {
	return nil
}

func (s *setimpl) key(v []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		setAttr:    &types.AttributeValueMemberS{Value: s.name},
		memberAttr: &types.AttributeValueMemberB{Value: v},
	}
}
