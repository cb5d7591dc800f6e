package dynamo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/akvora-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// EndpointID derives the table key from a push endpoint URL. Endpoint URLs
// exceed comfortable key sizes, so the key is their SHA-256.
func EndpointID(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return hex.EncodeToString(sum[:])
}

// PushEndpointRepo stores browser push subscriptions, unique by endpoint URL.
type PushEndpointRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPushEndpointRepo(client *dynamodb.Client, tableName string) *PushEndpointRepo {
	return &PushEndpointRepo{client: client, tableName: tableName}
}

// PutIfAbsent stores ep unless its endpoint is already registered.
// It reports whether a new record was written.
func (r *PushEndpointRepo) PutIfAbsent(ctx context.Context, ep *domain.PushEndpoint) (bool, error) {
	ep.EndpointID = EndpointID(ep.Endpoint)
	item, err := attributevalue.MarshalMap(ep)
	if err != nil {
		return false, fmt.Errorf("marshal push endpoint: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(endpoint_id)"),
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("put push endpoint", err)
	}
	return true, nil
}

func (r *PushEndpointRepo) ListByUser(ctx context.Context, userID string) ([]domain.PushEndpoint, error) {
	return queryAll[domain.PushEndpoint](ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUser),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": strVal(userID)},
	})
}

func (r *PushEndpointRepo) ListAll(ctx context.Context) ([]domain.PushEndpoint, error) {
	return scanAll[domain.PushEndpoint](ctx, r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
}

// DeleteByEndpoint removes the subscription for endpoint. Missing records are not an error.
func (r *PushEndpointRepo) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("endpoint_id", EndpointID(endpoint)),
	})
	if err != nil {
		return storeErr("delete push endpoint", err)
	}
	return nil
}

// DeleteOwned removes the subscription for endpoint only when userID owns it.
func (r *PushEndpointRepo) DeleteOwned(ctx context.Context, endpoint, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("endpoint_id", EndpointID(endpoint)),
		ConditionExpression:       aws.String("#u = :uid"),
		ExpressionAttributeNames:  map[string]string{"#u": fieldUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": strVal(userID)},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("push endpoint: %w", domain.ErrNotFound)
	}
	if err != nil {
		return storeErr("delete push endpoint", err)
	}
	return nil
}
