package service

import (
	"context"
	"fmt"
	"time"

	"product-api/internal/domain"
	"product-api/internal/repository"
)

// Validator checks a raw product payload and returns the normalized product
type Validator interface {
	Validate(record map[string]interface{}) (*domain.Product, error)
}

// ProductService defines the interface for product business logic
type ProductService interface {
	Create(ctx context.Context, record map[string]interface{}) (*domain.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	validator   Validator
	ids         IDGenerator
	now         func() time.Time
	tableName   string
}

// NewProductService creates a new instance of ProductService writing to tableName
func NewProductService(
	productRepo repository.ProductRepository,
	validator Validator,
	ids IDGenerator,
	now func() time.Time,
	tableName string,
) ProductService {
	if now == nil {
		now = time.Now
	}
	return &productService{
		productRepo: productRepo,
		validator:   validator,
		ids:         ids,
		now:         now,
		tableName:   tableName,
	}
}

// Create validates record, assigns a fresh id and lastModified (overwriting
// any supplied values) and stores the product with a single put.
// Validation failures are returned as ValidationErrors without touching the store.
func (s *productService) Create(ctx context.Context, record map[string]interface{}) (*domain.Product, error) {
	product, err := s.validator.Validate(record)
	if err != nil {
		return nil, err
	}

	id, err := s.ids.Generate()
	if err != nil {
		return nil, err
	}
	product.ID = id
	product.LastModified = s.now().UTC().Format(domain.LastModifiedLayout)

	if err := s.productRepo.Save(ctx, s.tableName, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}
