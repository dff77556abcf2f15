package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"devinsights-backend/domain/accounts"
)

// OrganizationIndexName is the GSI that lists users by organization.
const OrganizationIndexName = "OrganizationIndex"

// UserRepository persists users, keyed by email.
type UserRepository struct {
	client    *awsdynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(client *awsdynamodb.Client, tableName string, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

type userItem struct {
	Email          string `dynamodbav:"email"`
	OrganizationID string `dynamodbav:"organizationId"`
	Name           string `dynamodbav:"name"`
	Role           string `dynamodbav:"role"`
	Status         string `dynamodbav:"status"`
	PasswordHash   string `dynamodbav:"passwordHash"`
	CreatedAt      int64  `dynamodbav:"createdAt"`
	LastLoginAt    int64  `dynamodbav:"lastLoginAt,omitempty"`
	UpdatedAt      int64  `dynamodbav:"updatedAt"`
}

func userToItem(user *accounts.User) userItem {
	return userItem(*user)
}

func itemToUser(item userItem) *accounts.User {
	user := accounts.User(item)
	return &user
}

// Save writes a user record.
func (r *UserRepository) Save(ctx context.Context, user *accounts.User) error {
	av, err := attributevalue.MarshalMap(userToItem(user))
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.Email, err)
	}
	return nil
}

// FindByEmail fetches a user. Missing records return (nil, nil).
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*accounts.User, error) {
	result, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", email, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user %s: %w", email, err)
	}
	return itemToUser(item), nil
}

// ListByOrganization returns all users of an organization via the GSI.
func (r *UserRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*accounts.User, error) {
	keyCond := expression.Key("organizationId").Equal(expression.Value(organizationID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	var users []*accounts.User
	paginator := awsdynamodb.NewQueryPaginator(r.client, &awsdynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(OrganizationIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query users for organization %s: %w", organizationID, err)
		}

		var items []userItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal users: %w", err)
		}
		for _, item := range items {
			users = append(users, itemToUser(item))
		}
	}

	return users, nil
}

// Delete removes a user record.
func (r *UserRepository) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", email, err)
	}
	return nil
}
