package repository

import (
	"context"
	"errors"
	"fmt"

	"product-api/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ErrStoreFailure matches every error returned by a ProductRepository
var ErrStoreFailure = errors.New("store failure")

// StoreError wraps an underlying persistence error. Callers treat it as an
// opaque failure; the cause is kept for logging only.
type StoreError struct {
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure on table %q: %v", e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreFailure }

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// Save writes product under tableName, overwriting any item with the same id
	Save(ctx context.Context, tableName string, product *domain.Product) error
}

// PutItemAPI is the subset of the DynamoDB client used by the repository
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type dynamoProductRepository struct {
	client PutItemAPI
}

// NewDynamoProductRepository creates a ProductRepository backed by DynamoDB
func NewDynamoProductRepository(client PutItemAPI) ProductRepository {
	return &dynamoProductRepository{client: client}
}

// Save issues one unconditional PutItem with the full product
func (r *dynamoProductRepository) Save(ctx context.Context, tableName string, product *domain.Product) error {
	item, err := attributevalue.MarshalMap(product)
	if err != nil {
		return &StoreError{Table: tableName, Err: fmt.Errorf("failed to marshal product: %w", err)}
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return &StoreError{Table: tableName, Err: fmt.Errorf("failed to put product: %w", err)}
	}

	return nil
}
