package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"product-catalog/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidCategoryReference is returned when an association insert
	// hits the foreign key, e.g. a category was deleted concurrently.
	ErrInvalidCategoryReference = errors.New("association references a nonexistent category")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product, categoryIDs []int64) (int64, error)
	Update(ctx context.Context, id int64, product *domain.Product, categoryIDs []int64) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, page, pageSize int, search string) ([]*domain.Product, int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts the product row and its association rows in a single
// transaction and returns the assigned product id. A failure on any
// association insert rolls back the product row as well.
func (r *productRepository) Create(ctx context.Context, product *domain.Product, categoryIDs []int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (name, description, price, stock_quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err = tx.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.StockQuantity,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create product: %w", err)
	}

	if err := insertAssociations(ctx, tx, id, categoryIDs); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit product create: %w", err)
	}

	return id, nil
}

// Update overwrites all scalar fields and replaces the full association set
// in a single transaction. created_at is deliberately left untouched.
func (r *productRepository) Update(ctx context.Context, id int64, product *domain.Product, categoryIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock_quantity = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		id,
		product.Name,
		product.Description,
		product.Price,
		product.StockQuantity,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	// Full replace, not a diff: drop every existing association row and
	// insert the new set.
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear product associations: %w", err)
	}

	if err := insertAssociations(ctx, tx, id, categoryIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product update: %w", err)
	}

	return nil
}

// insertAssociations inserts one join row per category id within tx
func insertAssociations(ctx context.Context, tx *sql.Tx, productID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO product_categories (product_id, category_id)
		VALUES ($1, $2)
	`

	for _, categoryID := range categoryIDs {
		if _, err := tx.ExecContext(ctx, query, productID, categoryID); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
				return ErrInvalidCategoryReference
			}
			return fmt.Errorf("failed to insert product association: %w", err)
		}
	}

	return nil
}

// Delete removes a product; association rows go with it via ON DELETE CASCADE
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product with its resolved category list
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price, stock_quantity, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	product := &domain.Product{}
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&description,
		&product.Price,
		&product.StockQuantity,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	product.Description = description.String

	categoriesByProduct, err := r.loadCategories(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	product.Categories = categoriesByProduct[id]
	if product.Categories == nil {
		product.Categories = []domain.CategoryRef{}
	}

	return product, nil
}

// List retrieves a page of products ordered by id ascending, each hydrated
// with its category list, plus the total matching count. Pages are 1-based;
// bounds are enforced by the caller. The name filter uses ILIKE, so the
// substring match is case-insensitive.
func (r *productRepository) List(ctx context.Context, page, pageSize int, search string) ([]*domain.Product, int, error) {
	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	if search != "" {
		whereClause = fmt.Sprintf("WHERE name ILIKE $%d", argIndex)
		args = append(args, "%"+search+"%")
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT id, name, description, price, stock_quantity, created_at, updated_at
		FROM products
		%s
		ORDER BY id ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	ids := []int64{}
	for rows.Next() {
		product := &domain.Product{Categories: []domain.CategoryRef{}}
		var description sql.NullString
		err := rows.Scan(
			&product.ID,
			&product.Name,
			&description,
			&product.Price,
			&product.StockQuantity,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		product.Description = description.String
		products = append(products, product)
		ids = append(ids, product.ID)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	if len(ids) > 0 {
		categoriesByProduct, err := r.loadCategories(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, product := range products {
			if refs, ok := categoriesByProduct[product.ID]; ok {
				product.Categories = refs
			}
		}
	}

	return products, total, nil
}

// loadCategories resolves the category lists for the given product ids in
// one query over the join table, keyed by product id.
func (r *productRepository) loadCategories(ctx context.Context, productIDs []int64) (map[int64][]domain.CategoryRef, error) {
	query := `
		SELECT pc.product_id, c.id, c.name
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = ANY($1)
		ORDER BY pc.product_id, c.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load product categories: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]domain.CategoryRef)
	for rows.Next() {
		var productID int64
		var ref domain.CategoryRef
		if err := rows.Scan(&productID, &ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("failed to scan product category: %w", err)
		}
		result[productID] = append(result[productID], ref)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product categories: %w", err)
	}

	return result, nil
}
