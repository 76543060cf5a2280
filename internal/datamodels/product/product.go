package product

import "context"

// Product is a single menu item. Like categories, product rows are a cache
// of the remote catalog and are replaced wholesale on refresh.
type Product struct {
	ID            int64   `gorm:"primaryKey" json:"id"`
	Name          string  `gorm:"size:128;not null" json:"name"`
	Description   string  `gorm:"size:512" json:"description"`
	Price         float64 `gorm:"not null" json:"price"`
	ImageURL      string  `gorm:"size:512" json:"imageUrl"`
	CategoryID    int64   `gorm:"index;not null" json:"categoryId"`
	StockQuantity int     `gorm:"not null" json:"stockQuantity"`
}

// InStock reports whether the item can currently be ordered.
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

// Repository is the local mirror of products.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*Product, error)
	ListInStock(ctx context.Context) ([]*Product, error)
	Search(ctx context.Context, term string) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	// ReplaceAll swaps the whole cached set in one transaction.
	ReplaceAll(ctx context.Context, products []*Product) error
}
