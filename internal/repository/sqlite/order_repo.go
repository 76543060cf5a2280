package sqlite

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository creates the local order mirror.
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ListAll(ctx context.Context) ([]*order.Order, error) {
	list := []*order.Order{}
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Order("order_date DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListByCustomer(ctx context.Context, email string) ([]*order.Order, error) {
	list := []*order.Order{}
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_email = ?", email).
		Order("order_date DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListByStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	list := []*order.Order{}
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", status).
		Order("order_date DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	list := []*order.Order{}
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Order("order_date DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListPendingUpload(ctx context.Context) ([]*order.Order, error) {
	list := []*order.Order{}
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("sync_state = ?", order.SyncStatePendingUpload).
		Where("status IN ?", []order.Status{order.StatusPending, order.StatusProcessing}).
		Order("order_date").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, status order.Status) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Select(clause.Associations).Delete(&order.Order{ID: id})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReplaceID moves a queued order under its server-assigned identity. The
// old row and its items go away and the server's copy is inserted in the
// same transaction, so the order is never absent from the mirror.
func (r *orderRepo) ReplaceID(ctx context.Context, oldID int64, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", oldID).Delete(&order.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&order.Order{}, oldID).Error; err != nil {
			return err
		}
		// An idempotent replay can come back under an id a history merge
		// already pulled into the mirror. The server's copy is already here,
		// only the queued duplicate had to go.
		var taken int64
		if err := tx.Model(&order.Order{}).Where("id = ?", o.ID).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return nil
		}
		for i := range o.Items {
			o.Items[i].ID = 0
			o.Items[i].OrderID = o.ID
		}
		return tx.Create(o).Error
	})
}

// MergeRemote replaces the synced part of the mirror with the server's
// orders. Pending-upload rows survive: the server doesn't know them yet, a
// plain clear-and-insert would silently drop them.
func (r *orderRepo) MergeRemote(ctx context.Context, orders []*order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var syncedIDs []int64
		if err := tx.Model(&order.Order{}).
			Where("sync_state = ?", order.SyncStateSynced).
			Pluck("id", &syncedIDs).Error; err != nil {
			return err
		}
		if len(syncedIDs) > 0 {
			if err := tx.Where("order_id IN ?", syncedIDs).Delete(&order.OrderItem{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&order.Order{}, syncedIDs).Error; err != nil {
				return err
			}
		}
		var pendingIDs []int64
		if err := tx.Model(&order.Order{}).
			Where("sync_state = ?", order.SyncStatePendingUpload).
			Pluck("id", &pendingIDs).Error; err != nil {
			return err
		}
		pending := make(map[int64]bool, len(pendingIDs))
		for _, id := range pendingIDs {
			pending[id] = true
		}

		for _, o := range orders {
			// A server id colliding with a still-pending local row keeps
			// the pending row; it will be re-identified on its own upload.
			if pending[o.ID] {
				continue
			}
			o.SyncState = order.SyncStateSynced
			for i := range o.Items {
				o.Items[i].ID = 0
				o.Items[i].OrderID = o.ID
			}
			if err := tx.Create(o).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
