package cart

import (
	"sort"
	"sync"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/order"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/product"
)

// Cart is the in-memory working set of order lines for one client session.
// It is never persisted and holds at most one line per product id; adding
// the same product again merges into the existing line. Unit prices are
// captured at add time so later catalog changes don't alter the cart.
type Cart struct {
	mu    sync.Mutex
	lines map[int64]*order.OrderItem
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{lines: make(map[int64]*order.OrderItem)}
}

// Add merges qty of p into the cart. Non-positive quantities are ignored.
func (c *Cart) Add(p *product.Product, qty int) {
	if p == nil || qty <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if line, ok := c.lines[p.ID]; ok {
		line.Quantity += qty
		return
	}
	c.lines[p.ID] = &order.OrderItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		UnitPrice:   p.Price,
	}
}

// Remove drops the line for productID, if any.
func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lines, productID)
}

// SetQuantity overwrites the quantity for productID. A quantity of zero or
// less removes the line. Unknown product ids are ignored.
func (c *Cart) SetQuantity(productID int64, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.lines[productID]
	if !ok {
		return
	}
	if qty <= 0 {
		delete(c.lines, productID)
		return
	}
	line.Quantity = qty
}

// Items returns a copy of the current lines, ordered by product id.
func (c *Cart) Items() []order.OrderItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]order.OrderItem, 0, len(c.lines))
	for _, line := range c.lines {
		items = append(items, *line)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items
}

// Total is the sum of line subtotals.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, line := range c.lines {
		total += line.Subtotal()
	}
	return total
}

// ItemCount is the sum of line quantities.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var count int
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

// Clear empties the cart. Called after every successful order creation,
// whether the order reached the server or was only queued locally.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = make(map[int64]*order.OrderItem)
}
