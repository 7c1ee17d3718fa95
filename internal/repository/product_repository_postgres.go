package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"product-api/internal/domain"

	"github.com/jackc/pgx/v5"
)

type postgresProductRepository struct {
	db     *sql.DB
	schema string
}

// NewPostgresProductRepository creates a ProductRepository that keeps each
// product as a JSONB document keyed by id. The table must already exist:
//
//	CREATE TABLE products (id TEXT PRIMARY KEY, item JSONB NOT NULL, last_modified TEXT NOT NULL)
func NewPostgresProductRepository(db *sql.DB, schema string) ProductRepository {
	return &postgresProductRepository{db: db, schema: schema}
}

// Save upserts the product using parameterized values; the table name is
// quoted as an identifier.
func (r *postgresProductRepository) Save(ctx context.Context, tableName string, product *domain.Product) error {
	item, err := json.Marshal(product)
	if err != nil {
		return &StoreError{Table: tableName, Err: fmt.Errorf("failed to marshal product: %w", err)}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, item, last_modified)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET item = EXCLUDED.item, last_modified = EXCLUDED.last_modified
	`, r.identifier(tableName))

	if _, err := r.db.ExecContext(ctx, query, product.ID, string(item), product.LastModified); err != nil {
		return &StoreError{Table: tableName, Err: fmt.Errorf("failed to save product: %w", err)}
	}

	return nil
}

func (r *postgresProductRepository) identifier(tableName string) string {
	if strings.TrimSpace(r.schema) == "" {
		return pgx.Identifier{tableName}.Sanitize()
	}
	return pgx.Identifier{r.schema, tableName}.Sanitize()
}
