package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-xray-sdk-go/xray"
)

// sessionRecord is one active token. ExpiresAt is epoch seconds so the
// table's TTL setting can reap it; TTL deletion lags, so reads check it too.
type sessionRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	ExpiresAt  int64  `dynamodbav:"ExpiresAt,omitempty"`
}

type RevocationStore struct {
	client *Client
	now    func() time.Time
}

func NewRevocationStore(client *Client) *RevocationStore {
	return &RevocationStore{client: client, now: time.Now}
}

func (s *RevocationStore) Register(ctx context.Context, token string, expiresAt time.Time) error {
	rec := sessionRecord{PK: tokenPK(token), SK: metaSK(), EntityType: "SESSION"}
	if !expiresAt.IsZero() {
		rec.ExpiresAt = expiresAt.Unix()
	}
	if err := s.client.putNew(ctx, "DynamoDB.PutSession", rec); err != nil && !isConditionalCheckFailure(err) {
		return fmt.Errorf("register token: %w", err)
	}
	return nil
}

func (s *RevocationStore) Revoke(ctx context.Context, token string) error {
	err := xray.Capture(ctx, "DynamoDB.DeleteSession", func(ctx context.Context) error {
		_, err := s.client.db.DeleteItem(ctx, &awsv2dynamodb.DeleteItemInput{
			TableName: aws.String(s.client.tableName),
			Key:       key(tokenPK(token), metaSK()),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *RevocationStore) IsActive(ctx context.Context, token string) (bool, error) {
	var rec sessionRecord
	found, err := s.client.getItem(ctx, "DynamoDB.GetSession", tokenPK(token), metaSK(), &rec)
	if err != nil {
		return false, fmt.Errorf("lookup token: %w", err)
	}
	if !found {
		return false, nil
	}
	if rec.ExpiresAt > 0 && s.now().Unix() >= rec.ExpiresAt {
		return false, nil
	}
	return true, nil
}
