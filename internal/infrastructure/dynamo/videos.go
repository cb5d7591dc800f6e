package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// VideoRepo provides typed DynamoDB operations for the videos table.
type VideoRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVideoRepo(client *dynamodb.Client, tableName string) *VideoRepo {
	return &VideoRepo{client: client, tableName: tableName}
}

func (r *VideoRepo) Put(ctx context.Context, v *domain.Video) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal video: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storeErr("put video", err)
	}
	return nil
}

func (r *VideoRepo) Get(ctx context.Context, videoID string) (*domain.Video, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("video_id", videoID),
	})
	if err != nil {
		return nil, storeErr("get video", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("video not found: %w", domain.ErrNotFound)
	}
	var v domain.Video
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, fmt.Errorf("unmarshal video: %w", err)
	}
	return &v, nil
}

func (r *VideoRepo) List(ctx context.Context) ([]domain.Video, error) {
	return scanAll[domain.Video](ctx, r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
}

func (r *VideoRepo) Update(ctx context.Context, videoID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("video_id", videoID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(video_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("video not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return storeErr("update video", err)
	}
	return nil
}

func (r *VideoRepo) Delete(ctx context.Context, videoID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("video_id", videoID),
		ConditionExpression: aws.String("attribute_exists(video_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("video not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return storeErr("delete video", err)
	}
	return nil
}
