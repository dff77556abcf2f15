package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Every cached dashboard lives under the same sort key; the partition key
// is the subject (user) it belongs to.
const coldCacheKey = "dashboard"

// DynamoStore is the durable cold tier. Expiry is enforced lazily on read:
// DynamoDB TTL deletion can lag by hours, so expired items are treated as
// misses and cleaned up opportunistically.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewDynamoStore creates a DynamoStore.
func NewDynamoStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

type coldItem struct {
	UserID    string `dynamodbav:"userId"`
	CacheKey  string `dynamodbav:"cacheKey"`
	Subject   string `dynamodbav:"subject"`
	Payload   string `dynamodbav:"payload"`
	CachedAt  int64  `dynamodbav:"cachedAt"`
	CreatedAt int64  `dynamodbav:"createdAt"`
	UpdatedAt int64  `dynamodbav:"updatedAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt"`
}

func (s *DynamoStore) key(subject string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId":   &types.AttributeValueMemberS{Value: subject},
		"cacheKey": &types.AttributeValueMemberS{Value: coldCacheKey},
	}
}

// Get fetches an envelope. Expired or missing items return (nil, nil).
func (s *DynamoStore) Get(ctx context.Context, subject string) (*Envelope, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(subject),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get cold entry %q: %w", subject, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item coldItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cold entry %q: %w", subject, err)
	}

	if item.ExpiresAt > 0 && time.Now().Unix() > item.ExpiresAt {
		if err := s.Delete(ctx, subject); err != nil {
			s.logger.Warn("failed to delete expired cold entry",
				zap.String("subject", subject),
				zap.Error(err),
			)
		}
		return nil, nil
	}

	return &Envelope{
		Subject:  item.Subject,
		Payload:  json.RawMessage(item.Payload),
		CachedAt: item.CachedAt,
	}, nil
}

// Put writes an envelope with an absolute expiry ttl from now.
func (s *DynamoStore) Put(ctx context.Context, env *Envelope, ttl time.Duration) error {
	now := time.Now().Unix()
	item := coldItem{
		UserID:    env.Subject,
		CacheKey:  coldCacheKey,
		Subject:   env.Subject,
		Payload:   string(env.Payload),
		CachedAt:  env.CachedAt,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal cold entry %q: %w", env.Subject, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put cold entry %q: %w", env.Subject, err)
	}
	return nil
}

// Delete removes an entry. Deleting a missing entry is not an error.
func (s *DynamoStore) Delete(ctx context.Context, subject string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(subject),
	})
	if err != nil {
		return fmt.Errorf("failed to delete cold entry %q: %w", subject, err)
	}
	return nil
}

// ListSubjects scans the table for subjects with unexpired entries.
func (s *DynamoStore) ListSubjects(ctx context.Context) ([]SubjectRef, error) {
	proj := expression.NamesList(
		expression.Name("subject"),
		expression.Name("updatedAt"),
		expression.Name("expiresAt"),
	)
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scan expression: %w", err)
	}

	now := time.Now().Unix()
	var subjects []SubjectRef

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                aws.String(s.tableName),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cold entries: %w", err)
		}

		var items []coldItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cold entries: %w", err)
		}
		for _, item := range items {
			if item.ExpiresAt > 0 && now > item.ExpiresAt {
				continue
			}
			subjects = append(subjects, SubjectRef{Subject: item.Subject, LastUpdated: item.UpdatedAt})
		}
	}

	return subjects, nil
}

// Ping checks that the backing table exists and is reachable.
func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return fmt.Errorf("failed to describe table %q: %w", s.tableName, err)
	}
	return nil
}
