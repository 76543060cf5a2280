package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/product"
)

func nigiri() *product.Product {
	return &product.Product{ID: 1, Name: "Sake Nigiri", Price: 8.50, StockQuantity: 10}
}

func maki() *product.Product {
	return &product.Product{ID: 2, Name: "California Maki", Price: 6.25, StockQuantity: 4}
}

func TestAddMergesSameProduct(t *testing.T) {
	c := New()
	c.Add(nigiri(), 2)
	c.Add(nigiri(), 3)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ProductID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 8.50, items[0].UnitPrice)
	assert.Equal(t, 5, c.ItemCount())
}

func TestAddCapturesPriceAtAddTime(t *testing.T) {
	c := New()
	p := nigiri()
	c.Add(p, 1)

	p.Price = 99.99

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 8.50, items[0].UnitPrice)
}

func TestAddIgnoresNonPositiveQuantity(t *testing.T) {
	c := New()
	c.Add(nigiri(), 0)
	c.Add(nigiri(), -2)
	assert.Empty(t, c.Items())
}

func TestSetQuantity(t *testing.T) {
	c := New()
	c.Add(nigiri(), 2)

	c.SetQuantity(1, 7)
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)

	// Zero or negative removes the line.
	c.SetQuantity(1, 0)
	assert.Empty(t, c.Items())

	// Unknown ids are ignored.
	c.SetQuantity(42, 3)
	assert.Empty(t, c.Items())
}

func TestRemove(t *testing.T) {
	c := New()
	c.Add(nigiri(), 1)
	c.Add(maki(), 1)

	c.Remove(1)
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ProductID)
}

func TestTotalAndItemCount(t *testing.T) {
	c := New()
	c.Add(nigiri(), 2) // 17.00
	c.Add(maki(), 4)   // 25.00

	assert.InDelta(t, 42.00, c.Total(), 1e-9)
	assert.Equal(t, 6, c.ItemCount())
}

func TestClear(t *testing.T) {
	c := New()
	c.Add(nigiri(), 2)
	c.Clear()

	assert.Empty(t, c.Items())
	assert.Zero(t, c.ItemCount())
	assert.Zero(t, c.Total())
}
