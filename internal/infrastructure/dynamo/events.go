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

// EventRepo provides typed DynamoDB operations for the events table.
type EventRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEventRepo(client *dynamodb.Client, tableName string) *EventRepo {
	return &EventRepo{client: client, tableName: tableName}
}

func (r *EventRepo) Put(ctx context.Context, e *domain.Event) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storeErr("put event", err)
	}
	return nil
}

func (r *EventRepo) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("event_id", eventID),
	})
	if err != nil {
		return nil, storeErr("get event", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("event not found: %w", domain.ErrNotFound)
	}
	var e domain.Event
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &e, nil
}

// List returns the events matching f. A type filter is served by the
// type-date index in date order; otherwise the table is scanned.
func (r *EventRepo) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	if f.Type != "" {
		return queryAll[domain.Event](ctx, r.client, r.typeQuery(f))
	}
	input := &dynamodb.ScanInput{TableName: aws.String(r.tableName)}
	if f.Status != "" {
		input.FilterExpression = aws.String("#s = :s")
		input.ExpressionAttributeNames = map[string]string{"#s": fieldStatus}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{":s": strVal(string(f.Status))}
	}
	return scanAll[domain.Event](ctx, r.client, input)
}

func (r *EventRepo) typeQuery(f domain.EventFilter) *dynamodb.QueryInput {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexTypeDate),
		KeyConditionExpression:    aws.String("#t = :t"),
		ExpressionAttributeNames:  map[string]string{"#t": fieldType},
		ExpressionAttributeValues: map[string]types.AttributeValue{":t": strVal(string(f.Type))},
		ScanIndexForward:          aws.Bool(true),
	}
	if f.Status != "" {
		input.FilterExpression = aws.String("#s = :s")
		input.ExpressionAttributeNames["#s"] = fieldStatus
		input.ExpressionAttributeValues[":s"] = strVal(string(f.Status))
	}
	return input
}

// Update applies a partial update to an existing event.
func (r *EventRepo) Update(ctx context.Context, eventID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("event_id", eventID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(event_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("event not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return storeErr("update event", err)
	}
	return nil
}

// AdjustParticipants adds delta to the event's participant count. A seat is
// only taken while the event is uncapped or below its cap, and the count
// never drops below zero; either violation yields ErrConflict.
func (r *EventRepo) AdjustParticipants(ctx context.Context, eventID string, delta int) error {
	_, err := r.client.UpdateItem(ctx, r.adjustInput(eventID, delta))
	if isConditionFailed(err) {
		if delta > 0 {
			return fmt.Errorf("event %s is full or missing: %w", eventID, domain.ErrConflict)
		}
		return fmt.Errorf("event %s has no participants to release: %w", eventID, domain.ErrConflict)
	}
	if err != nil {
		return storeErr("adjust event participants", err)
	}
	return nil
}

func (r *EventRepo) adjustInput(eventID string, delta int) *dynamodb.UpdateItemInput {
	names := map[string]string{
		"#c": fieldParticipants,
		"#u": fieldUpdatedAt,
	}
	cond := "attribute_exists(event_id) AND #c > :zero"
	if delta > 0 {
		cond = "attribute_exists(event_id) AND (#m = :zero OR #c < #m)"
		names["#m"] = fieldMaxSeats
	}
	return &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("event_id", eventID),
		UpdateExpression:         aws.String("SET #c = #c + :d, #u = :now"),
		ConditionExpression:      aws.String(cond),
		ExpressionAttributeNames: names,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d":    numVal(int64(delta)),
			":zero": numVal(0),
			":now":  strVal(time.Now().UTC().Format(time.RFC3339Nano)),
		},
	}
}

func (r *EventRepo) Delete(ctx context.Context, eventID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("event_id", eventID),
		ConditionExpression: aws.String("attribute_exists(event_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("event not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return storeErr("delete event", err)
	}
	return nil
}
