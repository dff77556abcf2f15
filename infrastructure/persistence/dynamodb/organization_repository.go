// Package dynamodb implements the account repositories on DynamoDB.
package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"devinsights-backend/domain/accounts"
)

// OrganizationRepository persists organizations.
type OrganizationRepository struct {
	client    *awsdynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewOrganizationRepository creates an OrganizationRepository.
func NewOrganizationRepository(client *awsdynamodb.Client, tableName string, logger *zap.Logger) *OrganizationRepository {
	return &OrganizationRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

type organizationItem struct {
	OrganizationID string `dynamodbav:"organizationId"`
	Name           string `dynamodbav:"name"`
	Plan           string `dynamodbav:"plan"`
	MaxMembers     int    `dynamodbav:"maxMembers"`
	BillingStatus  string `dynamodbav:"billingStatus"`
	BillingCreated string `dynamodbav:"billingCreated"`
	NextBillDate   string `dynamodbav:"nextBillDate,omitempty"`
	Timezone       string `dynamodbav:"timezone"`
	Language       string `dynamodbav:"language"`
	Notifications  bool   `dynamodbav:"notifications"`
	CreatedAt      int64  `dynamodbav:"createdAt"`
	UpdatedAt      int64  `dynamodbav:"updatedAt"`
}

func organizationToItem(org *accounts.Organization) organizationItem {
	return organizationItem{
		OrganizationID: org.ID,
		Name:           org.Name,
		Plan:           org.Plan,
		MaxMembers:     org.MaxMembers,
		BillingStatus:  org.Billing.Status,
		BillingCreated: org.Billing.CreatedAt,
		NextBillDate:   org.Billing.NextBillDate,
		Timezone:       org.Settings.Timezone,
		Language:       org.Settings.Language,
		Notifications:  org.Settings.Notifications,
		CreatedAt:      org.CreatedAt,
		UpdatedAt:      org.UpdatedAt,
	}
}

func itemToOrganization(item organizationItem) *accounts.Organization {
	return &accounts.Organization{
		ID:         item.OrganizationID,
		Name:       item.Name,
		Plan:       item.Plan,
		MaxMembers: item.MaxMembers,
		Billing: accounts.OrganizationBilling{
			Status:       item.BillingStatus,
			CreatedAt:    item.BillingCreated,
			NextBillDate: item.NextBillDate,
		},
		Settings: accounts.OrganizationConfig{
			Timezone:      item.Timezone,
			Language:      item.Language,
			Notifications: item.Notifications,
		},
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

// Save writes an organization record.
func (r *OrganizationRepository) Save(ctx context.Context, org *accounts.Organization) error {
	av, err := attributevalue.MarshalMap(organizationToItem(org))
	if err != nil {
		return fmt.Errorf("failed to marshal organization: %w", err)
	}

	_, err = r.client.PutItem(ctx, &awsdynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to save organization %s: %w", org.ID, err)
	}
	return nil
}

// FindByID fetches an organization. Missing records return (nil, nil).
func (r *OrganizationRepository) FindByID(ctx context.Context, organizationID string) (*accounts.Organization, error) {
	result, err := r.client.GetItem(ctx, &awsdynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"organizationId": &types.AttributeValueMemberS{Value: organizationID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get organization %s: %w", organizationID, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item organizationItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal organization %s: %w", organizationID, err)
	}
	return itemToOrganization(item), nil
}

// Delete removes an organization record.
func (r *OrganizationRepository) Delete(ctx context.Context, organizationID string) error {
	_, err := r.client.DeleteItem(ctx, &awsdynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"organizationId": &types.AttributeValueMemberS{Value: organizationID},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete organization %s: %w", organizationID, err)
	}
	return nil
}
