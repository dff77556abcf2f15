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

// TokenIndexName is the GSI that resolves an invitation by its token.
const TokenIndexName = "TokenIndex"

// InvitationRepository persists invitations under (organizationId, invitationId).
type InvitationRepository struct {
	client    *awsdynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewInvitationRepository creates an InvitationRepository.
func NewInvitationRepository(client *awsdynamodb.Client, tableName string, logger *zap.Logger) *InvitationRepository {
	return &InvitationRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

type invitationItem struct {
	OrganizationID string `dynamodbav:"organizationId"`
	InvitationID   string `dynamodbav:"invitationId"`
	InvitedEmail   string `dynamodbav:"invitedEmail"`
	InvitedBy      string `dynamodbav:"invitedBy"`
	Role           string `dynamodbav:"role"`
	Token          string `dynamodbav:"token"`
	Status         string `dynamodbav:"status"`
	CreatedAt      int64  `dynamodbav:"createdAt"`
	ExpiresAt      int64  `dynamodbav:"expiresAt"`
	UpdatedAt      int64  `dynamodbav:"updatedAt"`
}

func (r *InvitationRepository) key(organizationID, invitationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"organizationId": &types.AttributeValueMemberS{Value: organizationID},
		"invitationId":   &types.AttributeValueMemberS{Value: invitationID},
	}
}

// Save writes an invitation record.
func (r *InvitationRepository) Save(ctx context.Context, inv *accounts.Invitation) error {
	av, err := attributevalue.MarshalMap(invitationItem(*inv))
	if err != nil {
		return fmt.Errorf("failed to marshal invitation: %w", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to save invitation %s: %w", inv.InvitationID, err)
	}
	return nil
}

// FindByID fetches one invitation. Missing records return (nil, nil).
func (r *InvitationRepository) FindByID(ctx context.Context, organizationID, invitationID string) (*accounts.Invitation, error) {
	result, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(organizationID, invitationID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation %s: %w", invitationID, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item invitationItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invitation %s: %w", invitationID, err)
	}
	inv := accounts.Invitation(item)
	return &inv, nil
}

// FindByToken resolves an invitation by its redemption token via the GSI.
func (r *InvitationRepository) FindByToken(ctx context.Context, token string) (*accounts.Invitation, error) {
	keyCond := expression.Key("token").Equal(expression.Value(token))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	result, err := r.client.Query(ctx, &awsdynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(TokenIndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query invitation by token: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var item invitationItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invitation: %w", err)
	}
	inv := accounts.Invitation(item)
	return &inv, nil
}

// ListByOrganization returns all invitations of an organization.
func (r *InvitationRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*accounts.Invitation, error) {
	keyCond := expression.Key("organizationId").Equal(expression.Value(organizationID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	var invitations []*accounts.Invitation
	paginator := awsdynamodb.NewQueryPaginator(r.client, &awsdynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query invitations for organization %s: %w", organizationID, err)
		}

		var items []invitationItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal invitations: %w", err)
		}
		for _, item := range items {
			inv := accounts.Invitation(item)
			invitations = append(invitations, &inv)
		}
	}

	return invitations, nil
}

// Delete removes an invitation record.
func (r *InvitationRepository) Delete(ctx context.Context, organizationID, invitationID string) error {
	_, err := r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(organizationID, invitationID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete invitation %s: %w", invitationID, err)
	}
	return nil
}
