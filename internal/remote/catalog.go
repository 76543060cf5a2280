package remote

import (
	"context"
	"fmt"
	"net/url"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/category"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/product"
)

// Categories fetches the whole category list.
func (c *Client) Categories(ctx context.Context) ([]*category.Category, error) {
	var out []*category.Category
	if err := c.get(ctx, "/categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CategoryByID fetches one category.
func (c *Client) CategoryByID(ctx context.Context, id int64) (*category.Category, error) {
	var out category.Category
	if err := c.get(ctx, fmt.Sprintf("/categories/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchCategories searches categories by name.
func (c *Client) SearchCategories(ctx context.Context, name string) ([]*category.Category, error) {
	var out []*category.Category
	if err := c.get(ctx, "/categories/search?name="+url.QueryEscape(name), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Products fetches the whole product list.
func (c *Client) Products(ctx context.Context) ([]*product.Product, error) {
	var out []*product.Product
	if err := c.get(ctx, "/products", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductByID fetches one product.
func (c *Client) ProductByID(ctx context.Context, id int64) (*product.Product, error) {
	var out product.Product
	if err := c.get(ctx, fmt.Sprintf("/products/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductsByCategory fetches the products of one category.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID int64) ([]*product.Product, error) {
	var out []*product.Product
	if err := c.get(ctx, fmt.Sprintf("/products/category/%d", categoryID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchProducts searches products by term.
func (c *Client) SearchProducts(ctx context.Context, term string) ([]*product.Product, error) {
	var out []*product.Product
	if err := c.get(ctx, "/products/search?term="+url.QueryEscape(term), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductsInStock fetches the currently orderable products.
func (c *Client) ProductsInStock(ctx context.Context) ([]*product.Product, error) {
	var out []*product.Product
	if err := c.get(ctx, "/products/instock", &out); err != nil {
		return nil, err
	}
	return out, nil
}
