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

// AnnouncementRepo provides typed DynamoDB operations for the announcements table.
type AnnouncementRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAnnouncementRepo(client *dynamodb.Client, tableName string) *AnnouncementRepo {
	return &AnnouncementRepo{client: client, tableName: tableName}
}

func (r *AnnouncementRepo) Put(ctx context.Context, a *domain.Announcement) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal announcement: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storeErr("put announcement", err)
	}
	return nil
}

func (r *AnnouncementRepo) Get(ctx context.Context, announcementID string) (*domain.Announcement, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("announcement_id", announcementID),
	})
	if err != nil {
		return nil, storeErr("get announcement", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("announcement not found: %w", domain.ErrNotFound)
	}
	var a domain.Announcement
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, fmt.Errorf("unmarshal announcement: %w", err)
	}
	return &a, nil
}

func (r *AnnouncementRepo) List(ctx context.Context) ([]domain.Announcement, error) {
	return scanAll[domain.Announcement](ctx, r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
}

// ListActive queries the status index for active announcements expiring after now.
func (r *AnnouncementRepo) ListActive(ctx context.Context, now time.Time) ([]domain.Announcement, error) {
	return queryAll[domain.Announcement](ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexStatusExpiresAt),
		KeyConditionExpression: aws.String("#s = :active AND #e > :now"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldStatus,
			"#e": fieldExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":active": strVal(string(domain.AnnouncementActive)),
			":now":    strVal(now.UTC().Truncate(time.Second).Format(time.RFC3339Nano)),
		},
	})
}

// Update applies a partial update to an existing announcement.
func (r *AnnouncementRepo) Update(ctx context.Context, announcementID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("announcement_id", announcementID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(announcement_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("announcement not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return storeErr("update announcement", err)
	}
	return nil
}

func (r *AnnouncementRepo) SetStatus(ctx context.Context, announcementID string, status domain.AnnouncementStatus) error {
	return r.Update(ctx, announcementID, map[string]interface{}{fieldStatus: status})
}

func (r *AnnouncementRepo) Delete(ctx context.Context, announcementID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("announcement_id", announcementID),
		ConditionExpression: aws.String("attribute_exists(announcement_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("announcement not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return storeErr("delete announcement", err)
	}
	return nil
}
