package dynamo

import (
	"context"
	"fmt"

	"github.com/akvora-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// CounterRepo holds named sequence counters. Counters are never deleted.
type CounterRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCounterRepo(client *dynamodb.Client, tableName string) *CounterRepo {
	return &CounterRepo{client: client, tableName: tableName}
}

// Increment atomically adds one to the named counter and returns the new
// value. A missing counter is created with value 1.
func (r *CounterRepo) Increment(ctx context.Context, name string) (int64, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("name", name),
		UpdateExpression:         aws.String("ADD #c :one"),
		ExpressionAttributeNames: map[string]string{"#c": fieldCurrentCount},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, storeErr("increment counter "+name, err)
	}
	var c domain.SequenceCounter
	if err := attributevalue.UnmarshalMap(out.Attributes, &c); err != nil {
		return 0, fmt.Errorf("unmarshal counter: %w", err)
	}
	if c.CurrentCount < 1 {
		return 0, fmt.Errorf("counter %s returned %d: %w", name, c.CurrentCount, domain.ErrStoreUnavailable)
	}
	return c.CurrentCount, nil
}

func (r *CounterRepo) Get(ctx context.Context, name string) (*domain.SequenceCounter, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("name", name),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storeErr("get counter", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("counter %s not found: %w", name, domain.ErrNotFound)
	}
	var c domain.SequenceCounter
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("unmarshal counter: %w", err)
	}
	return &c, nil
}
