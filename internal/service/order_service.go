package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	radix "github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/cart"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/order"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/infra/mq"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/remote"
)

// syncLockKey guards one pending order against concurrent upload attempts.
const syncLockKey = "order:sync:lock:%d"

const syncLockTTLSeconds = 60

// OrderService is the write-behind queue for orders.
//
// Creation is remote-first: if the ordering API accepts the order, the
// server's copy is mirrored locally as synced; on any failure short of a
// 401 the order is written to the local store tagged pending-upload and the
// customer still gets an "order placed" answer. SyncPendingOrders later
// re-posts queued orders and rewrites their identity to the server's.
//
// Redis and the event publisher are optional: without Redis overlapping
// sync runs may race (the idempotency key still identifies replays to the
// server), without the publisher reconciliation relies on its periodic
// schedule.
type OrderService struct {
	remote  *remote.Client
	orders  order.Repository
	redis   radix.Client
	events  *mq.Publisher
	monitor *Monitor
	log     *zap.Logger
}

// NewOrderService builds the order coordinator.
func NewOrderService(
	rc *remote.Client,
	orders order.Repository,
	redisClient radix.Client,
	events *mq.Publisher,
	monitor *Monitor,
	log *zap.Logger,
) *OrderService {
	if monitor == nil {
		monitor = NewMonitor()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		remote:  rc,
		orders:  orders,
		redis:   redisClient,
		events:  events,
		monitor: monitor,
		log:     log,
	}
}

func validateOrderInput(name, email, address string, items []order.OrderItem) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Reason: "customer name is required"}
	}
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Reason: "customer email is required"}
	}
	if strings.TrimSpace(address) == "" {
		return &ValidationError{Reason: "delivery address is required"}
	}
	if len(items) == 0 {
		return &ValidationError{Reason: "order has no items"}
	}
	for _, item := range items {
		if item.ProductID <= 0 {
			return &ValidationError{Reason: "item has no product"}
		}
		if item.Quantity <= 0 {
			return &ValidationError{Reason: "item quantity must be positive"}
		}
		if item.UnitPrice < 0 {
			return &ValidationError{Reason: "item price cannot be negative"}
		}
	}
	return nil
}

// CreateOrder places an order from the cart's current lines.
//
// Validation failures and 401s are the only errors a caller sees. Any
// other remote failure queues the order locally; the cart is cleared in
// both branches because the order is considered placed the moment it is
// durably recorded somewhere. Only a local-store failure on the fallback
// path is surfaced, since then the order is recorded nowhere.
func (s *OrderService) CreateOrder(ctx context.Context, customerName, customerEmail, deliveryAddress string, c *cart.Cart) (*order.Order, error) {
	items := c.Items()
	if err := validateOrderInput(customerName, customerEmail, deliveryAddress, items); err != nil {
		return nil, err
	}

	o := &order.Order{
		OrderDate:       time.Now(),
		CustomerName:    strings.TrimSpace(customerName),
		CustomerEmail:   strings.TrimSpace(customerEmail),
		DeliveryAddress: strings.TrimSpace(deliveryAddress),
		Status:          order.StatusPending,
		Items:           items,
		IdempotencyKey:  uuid.NewString(),
	}

	created, err := s.remote.CreateOrder(ctx, o)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return nil, err
	case err == nil:
		created.SyncState = order.SyncStateSynced
		created.IdempotencyKey = o.IdempotencyKey
		if storeErr := s.orders.Create(ctx, created); storeErr != nil {
			// The server has the order; a broken mirror only costs offline
			// visibility.
			s.monitor.RecordStorageError()
			s.log.Error("mirror created order", zap.Int64("order_id", created.ID), zap.Error(storeErr))
		}
		c.Clear()
		return created, nil
	}

	s.monitor.RecordRemoteFailure()
	s.log.Warn("remote order create failed, queuing locally", zap.Error(err))

	o.ID = 0
	o.SyncState = order.SyncStatePendingUpload
	if storeErr := s.orders.Create(ctx, o); storeErr != nil {
		s.monitor.RecordStorageError()
		return nil, fmt.Errorf("queue order locally: %w", storeErr)
	}
	s.monitor.RecordOrderQueued()

	if s.events != nil {
		if pubErr := s.events.OrderQueued(ctx, o.ID); pubErr != nil {
			s.log.Debug("order-queued event not published", zap.Error(pubErr))
		}
	}

	c.Clear()
	return o, nil
}

func (s *OrderService) acquireSyncLock(orderID int64) bool {
	if s.redis == nil {
		return true
	}
	key := fmt.Sprintf(syncLockKey, orderID)
	var reply string
	err := s.redis.Do(radix.Cmd(&reply, "SET", key, "1", "EX", fmt.Sprint(syncLockTTLSeconds), "NX"))
	if err != nil {
		s.log.Warn("sync lock unavailable, proceeding without", zap.Error(err))
		return true
	}
	return reply == "OK"
}

func (s *OrderService) releaseSyncLock(orderID int64) {
	if s.redis == nil {
		return
	}
	key := fmt.Sprintf(syncLockKey, orderID)
	_ = s.redis.Do(radix.Cmd(nil, "DEL", key))
}

// SyncPendingOrders re-posts every queued order and returns how many the
// server accepted. Accepted orders are rewritten under their server id and
// marked synced; rejected ones stay queued for the next run. A 401 aborts
// the run and propagates.
func (s *OrderService) SyncPendingOrders(ctx context.Context) (int, error) {
	pending, err := s.orders.ListPendingUpload(ctx)
	if err != nil {
		s.monitor.RecordStorageError()
		s.log.Error("read pending orders", zap.Error(err))
		return 0, nil
	}

	var synced int
	for _, o := range pending {
		if !s.acquireSyncLock(o.ID) {
			continue
		}

		created, err := s.remote.CreateOrder(ctx, o)
		if errors.Is(err, remote.ErrUnauthorized) {
			s.releaseSyncLock(o.ID)
			return synced, err
		}
		if err != nil {
			s.monitor.RecordSyncFailure()
			s.log.Warn("pending order upload failed",
				zap.Int64("local_order_id", o.ID),
				zap.Error(err))
			s.releaseSyncLock(o.ID)
			continue
		}

		created.SyncState = order.SyncStateSynced
		created.IdempotencyKey = o.IdempotencyKey
		if err := s.orders.ReplaceID(ctx, o.ID, created); err != nil {
			s.monitor.RecordStorageError()
			s.log.Error("rewrite synced order identity",
				zap.Int64("local_order_id", o.ID),
				zap.Int64("server_order_id", created.ID),
				zap.Error(err))
			s.releaseSyncLock(o.ID)
			continue
		}

		s.monitor.RecordOrderSynced()
		s.log.Info("pending order synced",
			zap.Int64("local_order_id", o.ID),
			zap.Int64("server_order_id", created.ID))
		synced++
	}
	return synced, nil
}

// GetOrderHistory returns a customer's orders. On a successful remote
// fetch the synced part of the local mirror is replaced while queued
// orders survive, and the returned history is the union of both.
func (s *OrderService) GetOrderHistory(ctx context.Context, email string) ([]*order.Order, Origin, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, OriginCache, &ValidationError{Reason: "customer email is required"}
	}

	remoteOrders, err := s.remote.OrdersByCustomer(ctx, email)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return nil, OriginRemote, err
	case err == nil:
		if storeErr := s.orders.MergeRemote(ctx, remoteOrders); storeErr != nil {
			s.monitor.RecordStorageError()
			s.log.Error("merge remote order history", zap.Error(storeErr))
			return remoteOrders, OriginRemote, nil
		}
		merged, storeErr := s.orders.ListByCustomer(ctx, email)
		if storeErr != nil {
			s.monitor.RecordStorageError()
			return remoteOrders, OriginRemote, nil
		}
		return merged, OriginRemote, nil
	}

	s.monitor.RecordRemoteFailure()
	s.log.Warn("remote order history failed, serving mirror", zap.Error(err))

	cached, storeErr := s.orders.ListByCustomer(ctx, email)
	if storeErr != nil {
		s.monitor.RecordStorageError()
		return []*order.Order{}, OriginCache, nil
	}
	s.monitor.RecordCacheFallback()
	return cached, OriginCache, nil
}

// GetOrderByID is remote-first with mirror fallback; a locally queued
// order is found here under its placeholder id.
func (s *OrderService) GetOrderByID(ctx context.Context, id int64) (*order.Order, Origin, error) {
	o, err := s.remote.OrderByID(ctx, id)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return nil, OriginRemote, err
	case err == nil:
		return o, OriginRemote, nil
	}
	s.monitor.RecordRemoteFailure()

	cached, storeErr := s.orders.GetByID(ctx, id)
	if storeErr != nil {
		s.monitor.RecordStorageError()
		return nil, OriginCache, nil
	}
	s.monitor.RecordCacheFallback()
	return cached, OriginCache, nil
}

// ListOrdersByStatus is remote-first with mirror fallback.
func (s *OrderService) ListOrdersByStatus(ctx context.Context, status order.Status) ([]*order.Order, Origin, error) {
	if !status.Valid() {
		return nil, OriginCache, &ValidationError{Reason: "unknown order status"}
	}

	list, err := s.remote.OrdersByStatus(ctx, status)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return nil, OriginRemote, err
	case err == nil:
		return list, OriginRemote, nil
	}
	s.monitor.RecordRemoteFailure()

	cached, storeErr := s.orders.ListByStatus(ctx, status)
	if storeErr != nil {
		s.monitor.RecordStorageError()
		return []*order.Order{}, OriginCache, nil
	}
	s.monitor.RecordCacheFallback()
	return cached, OriginCache, nil
}

// ListRecentOrders is remote-first with mirror fallback.
func (s *OrderService) ListRecentOrders(ctx context.Context, count int) ([]*order.Order, Origin, error) {
	if count <= 0 {
		count = 20
	}

	list, err := s.remote.RecentOrders(ctx, count)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return nil, OriginRemote, err
	case err == nil:
		return list, OriginRemote, nil
	}
	s.monitor.RecordRemoteFailure()

	cached, storeErr := s.orders.ListRecent(ctx, count)
	if storeErr != nil {
		s.monitor.RecordStorageError()
		return []*order.Order{}, OriginCache, nil
	}
	s.monitor.RecordCacheFallback()
	return cached, OriginCache, nil
}

// UpdateOrderStatus changes the business status, remote-first with local
// fallback so an offline status change is at least visible locally.
// ErrOrderNotFound is returned when neither side had the order to update.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id int64, status order.Status) error {
	if !status.Valid() {
		return &ValidationError{Reason: "unknown order status"}
	}

	remoteUpdated := false
	err := s.remote.UpdateOrderStatus(ctx, id, status)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return err
	case err != nil:
		s.monitor.RecordRemoteFailure()
		s.log.Warn("remote status update failed, applying locally",
			zap.Int64("order_id", id),
			zap.String("status", string(status)),
			zap.Error(err))
	default:
		remoteUpdated = true
	}

	locallyUpdated, storeErr := s.orders.UpdateStatus(ctx, id, status)
	if storeErr != nil {
		s.monitor.RecordStorageError()
		s.log.Error("update local order status", zap.Int64("order_id", id), zap.Error(storeErr))
	}

	if !remoteUpdated && !locallyUpdated {
		return ErrOrderNotFound
	}
	return nil
}

// DeleteOrder removes an order remotely, then locally. Remote failure
// degrades to a local-only delete; ErrOrderNotFound is returned only when
// neither side knew the order.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	remoteDeleted := false
	err := s.remote.DeleteOrder(ctx, id)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return err
	case err != nil:
		s.monitor.RecordRemoteFailure()
		s.log.Debug("remote order delete failed, deleting locally only",
			zap.Int64("order_id", id),
			zap.Error(err))
	default:
		remoteDeleted = true
	}

	locallyDeleted, storeErr := s.orders.Delete(ctx, id)
	if storeErr != nil {
		s.monitor.RecordStorageError()
		s.log.Error("delete local order", zap.Int64("order_id", id), zap.Error(storeErr))
	}

	if !remoteDeleted && !locallyDeleted {
		return ErrOrderNotFound
	}
	return nil
}
