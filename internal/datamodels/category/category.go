package category

import (
	"context"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/product"
)

// Category is a menu section (nigiri, maki, drinks...). Rows only exist
// between two successful catalog refreshes: every refresh replaces the
// whole table, there is no incremental diffing.
type Category struct {
	ID          int64             `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Description string            `gorm:"size:512" json:"description"`
	Products    []product.Product `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"products,omitempty"`
}

// Repository is the local mirror of categories.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Category, error)
	ListAll(ctx context.Context) ([]*Category, error)
	SearchByName(ctx context.Context, name string) ([]*Category, error)
	Create(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id int64) error
	// ReplaceAll swaps the whole cached set in one transaction so readers
	// never observe a half-empty mirror.
	ReplaceAll(ctx context.Context, categories []*Category) error
}
