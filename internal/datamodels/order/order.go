package order

import (
	"context"
	"time"
)

// Status is the business lifecycle of an order. It is independent of the
// sync state: a locally queued order is still "Pending" to the customer.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// SyncState is local-only bookkeeping: whether the remote API has accepted
// this order. It is never sent over the wire.
type SyncState string

const (
	SyncStateSynced        SyncState = "synced"
	SyncStatePendingUpload SyncState = "pending_upload"
)

// Order is a placed order. ID is server-assigned; orders queued while the
// remote API is unreachable carry a local auto-increment placeholder until
// the next successful upload rewrites it.
type Order struct {
	ID              int64       `gorm:"primaryKey" json:"id"`
	OrderDate       time.Time   `gorm:"index;not null" json:"orderDate"`
	CustomerName    string      `gorm:"size:128;not null" json:"customerName"`
	CustomerEmail   string      `gorm:"size:128;index;not null" json:"customerEmail"`
	DeliveryAddress string      `gorm:"size:512;not null" json:"deliveryAddress"`
	Status          Status      `gorm:"size:32;index;not null" json:"status"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	SyncState       SyncState   `gorm:"size:32;index;not null;default:synced" json:"-"`
	// IdempotencyKey is generated once at creation time and resent on every
	// upload attempt, so a retried upload identifies itself to the server.
	IdempotencyKey string `gorm:"size:64" json:"-"`
}

// TotalAmount is always derived from the items, never stored.
func (o *Order) TotalAmount() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	return total
}

// OrderItem is one order line. Name and price are snapshots taken at
// add-to-cart time; later catalog changes don't alter placed orders, which
// is also why ProductID carries no foreign key into the replaceable
// products table.
type OrderItem struct {
	ID          int64   `gorm:"primaryKey" json:"id"`
	OrderID     int64   `gorm:"index;not null" json:"-"`
	ProductID   int64   `gorm:"index" json:"productId"`
	ProductName string  `gorm:"size:128" json:"productName"`
	Quantity    int     `gorm:"not null" json:"quantity"`
	UnitPrice   float64 `gorm:"not null" json:"unitPrice"`
}

// Subtotal is quantity times the captured unit price.
func (i OrderItem) Subtotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// Repository is the local order mirror: synced copies of remote orders
// plus the write-behind queue of not-yet-uploaded ones.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
	ListByCustomer(ctx context.Context, email string) ([]*Order, error)
	ListByStatus(ctx context.Context, status Status) ([]*Order, error)
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
	// ListPendingUpload returns the write-behind queue: orders the remote
	// API has not accepted yet and whose status is not final.
	ListPendingUpload(ctx context.Context) ([]*Order, error)
	Create(ctx context.Context, o *Order) error
	// UpdateStatus reports whether a row existed to update.
	UpdateStatus(ctx context.Context, id int64, status Status) (bool, error)
	// Delete removes an order and its items; reports whether a row existed.
	Delete(ctx context.Context, id int64) (bool, error)
	// ReplaceID rewrites a queued order under its server-assigned identity
	// in one transaction.
	ReplaceID(ctx context.Context, oldID int64, o *Order) error
	// MergeRemote replaces the synced part of the mirror with the given
	// remote orders while preserving pending-upload rows.
	MergeRemote(ctx context.Context, orders []*Order) error
}
