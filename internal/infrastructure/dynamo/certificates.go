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

// CertificateRepo stores certificate metadata; the files live in S3.
type CertificateRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCertificateRepo(client *dynamodb.Client, tableName string) *CertificateRepo {
	return &CertificateRepo{client: client, tableName: tableName}
}

func (r *CertificateRepo) Put(ctx context.Context, c *domain.Certificate) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal certificate: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storeErr("put certificate", err)
	}
	return nil
}

func (r *CertificateRepo) Get(ctx context.Context, certificateID string) (*domain.Certificate, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("certificate_id", certificateID),
	})
	if err != nil {
		return nil, storeErr("get certificate", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("certificate not found: %w", domain.ErrNotFound)
	}
	var c domain.Certificate
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("unmarshal certificate: %w", err)
	}
	return &c, nil
}

func (r *CertificateRepo) List(ctx context.Context) ([]domain.Certificate, error) {
	return scanAll[domain.Certificate](ctx, r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
}

func (r *CertificateRepo) ListByUser(ctx context.Context, userID string) ([]domain.Certificate, error) {
	return queryAll[domain.Certificate](ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUser),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": strVal(userID)},
	})
}

func (r *CertificateRepo) ListByAkvoraID(ctx context.Context, akvoraID string) ([]domain.Certificate, error) {
	return queryAll[domain.Certificate](ctx, r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexAkvoraID),
		KeyConditionExpression:    aws.String("akvora_id = :aid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":aid": strVal(akvoraID)},
	})
}

func (r *CertificateRepo) UpdateTitle(ctx context.Context, certificateID, title string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		"title":        title,
		fieldUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("certificate_id", certificateID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(certificate_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("certificate not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return storeErr("update certificate", err)
	}
	return nil
}

func (r *CertificateRepo) Delete(ctx context.Context, certificateID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("certificate_id", certificateID),
	})
	if err != nil {
		return storeErr("delete certificate", err)
	}
	return nil
}
