package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// RegistrationRepo provides typed DynamoDB operations for the registrations table.
type RegistrationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRegistrationRepo(client *dynamodb.Client, tableName string) *RegistrationRepo {
	return &RegistrationRepo{client: client, tableName: tableName}
}

// Create writes reg unless a live registration already occupies its key.
// Registration IDs are derived from (user, event), so a second sign-up for
// the same event collides here and yields ErrConflict; a rejected one may
// be replaced.
func (r *RegistrationRepo) Create(ctx context.Context, reg *domain.Registration) error {
	item, err := attributevalue.MarshalMap(reg)
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      item,
		ConditionExpression:       aws.String("attribute_not_exists(registration_id) OR #s = :rejected"),
		ExpressionAttributeNames:  map[string]string{"#s": fieldStatus},
		ExpressionAttributeValues: map[string]types.AttributeValue{":rejected": strVal(string(domain.RegistrationRejected))},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("already registered for this event: %w", domain.ErrConflict)
	}
	if err != nil {
		return storeErr("create registration", err)
	}
	return nil
}

func (r *RegistrationRepo) Get(ctx context.Context, registrationID string) (*domain.Registration, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("registration_id", registrationID),
	})
	if err != nil {
		return nil, storeErr("get registration", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("registration not found: %w", domain.ErrNotFound)
	}
	var reg domain.Registration
	if err := attributevalue.UnmarshalMap(out.Item, &reg); err != nil {
		return nil, fmt.Errorf("unmarshal registration: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepo) ListByUser(ctx context.Context, userID string) ([]domain.Registration, error) {
	return queryAll[domain.Registration](ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUser),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": strVal(userID)},
	})
}

func (r *RegistrationRepo) ListByEvent(ctx context.Context, eventID string) ([]domain.Registration, error) {
	return queryAll[domain.Registration](ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexEvent),
		KeyConditionExpression:    aws.String("event_id = :eid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":eid": strVal(eventID)},
	})
}

func (r *RegistrationRepo) UpdateStatus(ctx context.Context, registrationID string, status domain.RegistrationStatus, note string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldStatus:    status,
		"note":         note,
		fieldUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("registration_id", registrationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(registration_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("registration not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return storeErr("update registration", err)
	}
	return nil
}
