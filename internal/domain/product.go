package domain

import "time"

// Product represents a product in the catalog. Categories holds the
// resolved category list when the product was loaded hydrated.
type Product struct {
	ID            int64         `json:"id" db:"id"`
	Name          string        `json:"name" db:"name"`
	Description   string        `json:"description" db:"description"`
	Price         float64       `json:"price" db:"price"`
	StockQuantity int           `json:"stockQuantity" db:"stock_quantity"`
	Categories    []CategoryRef `json:"categories"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" db:"updated_at"`
}

// Category represents a product category
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// CategoryRef is the id+name pair embedded in hydrated products
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductCategory is one association row in the many-to-many join table
type ProductCategory struct {
	ProductID  int64 `json:"productId" db:"product_id"`
	CategoryID int64 `json:"categoryId" db:"category_id"`
}
