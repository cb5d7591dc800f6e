package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const batchWriteLimit = 25

// NotificationRepo provides typed DynamoDB operations for the notifications table.
// Expired records are removed by the table's TTL on expires_at.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storeErr("put notification", err)
	}
	return nil
}

// liveFilter matches records whose expiry has not passed at now, and only
// unread ones when unreadOnly is set. TTL deletion lags expiry, so reads
// filter on expires_at themselves.
func liveFilter(now time.Time, unreadOnly bool) (string, map[string]string, map[string]types.AttributeValue) {
	expr := "(attribute_not_exists(#e) OR #e > :now)"
	names := map[string]string{"#e": fieldExpiresAt}
	values := map[string]types.AttributeValue{":now": numVal(now.Unix())}
	if unreadOnly {
		expr += " AND #r = :f"
		names["#r"] = fieldIsRead
		values[":f"] = boolVal(false)
	}
	return expr, names, values
}

// userQuery builds the newest-first query over one recipient's live records.
func (r *NotificationRepo) userQuery(q domain.NotificationQuery) (*dynamodb.QueryInput, error) {
	filter, names, values := liveFilter(q.Now, q.UnreadOnly)
	names["#u"] = fieldUserID
	values[":uid"] = strVal(q.UserID)
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserCreated),
		KeyConditionExpression:    aws.String("#u = :uid"),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false),
	}
	if q.Cursor != "" {
		start, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		owner, ok := start[fieldUserID].(*types.AttributeValueMemberS)
		if !ok || owner.Value != q.UserID {
			return nil, fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = start
	}
	return input, nil
}

// ListPage returns up to q.Limit live records of q.UserID starting after
// q.Cursor, and the cursor of the next window ("" when exhausted).
// Limit bounds the items DynamoDB evaluates before the filter, so the query
// is repeated until the window is full or the index is exhausted.
func (r *NotificationRepo) ListPage(ctx context.Context, q domain.NotificationQuery) ([]domain.Notification, string, error) {
	input, err := r.userQuery(q)
	if err != nil {
		return nil, "", err
	}
	var items []domain.Notification
	for {
		input.Limit = aws.Int32(int32(q.Limit - len(items)))
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, "", storeErr("query notifications", err)
		}
		var page []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, "", fmt.Errorf("unmarshal notifications: %w", err)
		}
		items = append(items, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, "", nil
		}
		if len(items) >= q.Limit {
			return items, encodeCursor(out.LastEvaluatedKey), nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Count returns how many live records userID has, only unread ones when
// unreadOnly is set. Items are counted server-side with Select COUNT.
func (r *NotificationRepo) Count(ctx context.Context, userID string, now time.Time, unreadOnly bool) (int, error) {
	input, err := r.userQuery(domain.NotificationQuery{UserID: userID, UnreadOnly: unreadOnly, Now: now})
	if err != nil {
		return 0, err
	}
	input.Select = types.SelectCount
	total := 0
	p := dynamodb.NewQueryPaginator(r.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, storeErr("count notifications", err)
		}
		total += int(page.Count)
	}
	return total, nil
}

func (r *NotificationRepo) markReadInput(notificationID, userID string, now time.Time) *dynamodb.UpdateItemInput {
	return &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("notification_id", notificationID),
		UpdateExpression:    aws.String("SET #r = :t"),
		ConditionExpression: aws.String("#u = :uid AND (attribute_not_exists(#e) OR #e > :now)"),
		ExpressionAttributeNames: map[string]string{
			"#r": fieldIsRead,
			"#u": fieldUserID,
			"#e": fieldExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":   boolVal(true),
			":uid": strVal(userID),
			":now": numVal(now.Unix()),
		},
	}
}

// MarkRead sets is_read on a live record owned by userID. Records that are
// missing, expired at now or owned by someone else yield ErrNotFound.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, userID string, now time.Time) error {
	_, err := r.client.UpdateItem(ctx, r.markReadInput(notificationID, userID, now))
	if isConditionFailed(err) {
		return fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	if err != nil {
		return storeErr("mark notification read", err)
	}
	return nil
}

// MarkAllRead marks every live unread record of userID and returns how many changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string, now time.Time) (int, error) {
	input, err := r.userQuery(domain.NotificationQuery{UserID: userID, UnreadOnly: true, Now: now})
	if err != nil {
		return 0, err
	}
	input.ProjectionExpression = aws.String("notification_id")
	unread, err := queryAll[domain.Notification](ctx, r.client, input)
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, n := range unread {
		if err := r.MarkRead(ctx, n.NotificationID, userID, now); err != nil {
			// Deleted or expired between the query and the update.
			if isNotFound(err) {
				continue
			}
			return marked, err
		}
		marked++
	}
	return marked, nil
}

// Delete removes a record owned by userID.
func (r *NotificationRepo) Delete(ctx context.Context, notificationID, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("notification_id", notificationID),
		ConditionExpression:       aws.String("#u = :uid"),
		ExpressionAttributeNames:  map[string]string{"#u": fieldUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": strVal(userID)},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	if err != nil {
		return storeErr("delete notification", err)
	}
	return nil
}

// DeleteByAnnouncement removes every record that references announcementID
// and returns how many were deleted.
func (r *NotificationRepo) DeleteByAnnouncement(ctx context.Context, announcementID string) (int, error) {
	refs, err := queryAll[domain.Notification](ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexAnnouncement),
		KeyConditionExpression:    aws.String("#a = :aid"),
		ProjectionExpression:      aws.String("notification_id"),
		ExpressionAttributeNames:  map[string]string{"#a": fieldAnnouncementID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":aid": strVal(announcementID)},
	})
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, group := range chunk(refs, batchWriteLimit) {
		reqs := make([]types.WriteRequest, 0, len(group))
		for _, n := range group {
			reqs = append(reqs, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: strKey("notification_id", n.NotificationID)},
			})
		}
		if err := r.batchWrite(ctx, reqs); err != nil {
			return deleted, err
		}
		deleted += len(group)
	}
	return deleted, nil
}

// batchWrite submits requests and resubmits unprocessed items with a short backoff.
func (r *NotificationRepo) batchWrite(ctx context.Context, reqs []types.WriteRequest) error {
	backoff := 50 * time.Millisecond
	for attempt := 0; len(reqs) > 0; attempt++ {
		if attempt > 0 {
			if attempt > 5 {
				return fmt.Errorf("batch write: %d items unprocessed: %w", len(reqs), domain.ErrStoreUnavailable)
			}
			slog.Warn("retrying unprocessed batch items", "table", r.tableName, "count", len(reqs))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: reqs},
		})
		if err != nil {
			return storeErr("batch write notifications", err)
		}
		reqs = out.UnprocessedItems[r.tableName]
	}
	return nil
}
