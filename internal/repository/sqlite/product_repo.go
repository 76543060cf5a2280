package sqlite

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/product"
)

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository creates the local product mirror.
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) ListAll(ctx context.Context) ([]*product.Product, error) {
	list := []*product.Product{}
	if err := r.db.WithContext(ctx).Order("id").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListByCategory(ctx context.Context, categoryID int64) ([]*product.Product, error) {
	list := []*product.Product{}
	if err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListInStock(ctx context.Context) ([]*product.Product, error) {
	list := []*product.Product{}
	if err := r.db.WithContext(ctx).
		Where("stock_quantity > 0").
		Order("id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Search(ctx context.Context, term string) ([]*product.Product, error) {
	list := []*product.Product{}
	pattern := "%" + term + "%"
	if err := r.db.WithContext(ctx).
		Where("name LIKE ? OR description LIKE ?", pattern, pattern).
		Order("id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&product.Product{}, id).Error
}

func (r *productRepo) ReplaceAll(ctx context.Context, products []*product.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&product.Product{}).Error; err != nil {
			return err
		}
		if len(products) == 0 {
			return nil
		}
		return tx.Create(products).Error
	})
}
