package service

import (
	"sync"
	"time"
)

// Monitor counts the degraded paths the coordinators take. The public API
// never surfaces "remote down, served from cache" as an error, so these
// counters are how telemetry tells a true empty result from a fallback.
// One instance per client session, injected into the coordinators.
type Monitor struct {
	mu sync.RWMutex

	RemoteFailures int64
	CacheFallbacks int64
	StorageErrors  int64

	OrdersQueued int64
	OrdersSynced int64
	SyncFailures int64

	LastRemoteFailure time.Time
	LastCatalogSync   time.Time
	LastOrderSync     time.Time
}

// NewMonitor starts with zeroed counters.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// RecordRemoteFailure notes a remote call that fell back.
func (m *Monitor) RecordRemoteFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoteFailures++
	m.LastRemoteFailure = time.Now()
}

// RecordCacheFallback notes a read served from the local mirror.
func (m *Monitor) RecordCacheFallback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheFallbacks++
}

// RecordStorageError notes a local store failure that was absorbed.
func (m *Monitor) RecordStorageError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StorageErrors++
}

// RecordCatalogSync notes a successful catalog refresh.
func (m *Monitor) RecordCatalogSync() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastCatalogSync = time.Now()
}

// RecordOrderQueued notes an order written to the write-behind queue.
func (m *Monitor) RecordOrderQueued() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersQueued++
}

// RecordOrderSynced notes a queued order accepted by the server.
func (m *Monitor) RecordOrderSynced() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersSynced++
	m.LastOrderSync = time.Now()
}

// RecordSyncFailure notes a queued order the server rejected or missed.
func (m *Monitor) RecordSyncFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SyncFailures++
}

// Stats snapshots the counters for the telemetry endpoint.
func (m *Monitor) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"degraded": map[string]interface{}{
			"remote_failures": m.RemoteFailures,
			"cache_fallbacks": m.CacheFallbacks,
			"storage_errors":  m.StorageErrors,
		},
		"sync": map[string]interface{}{
			"orders_queued": m.OrdersQueued,
			"orders_synced": m.OrdersSynced,
			"sync_failures": m.SyncFailures,
		},
		"last_events": map[string]interface{}{
			"remote_failure": m.LastRemoteFailure,
			"catalog_sync":   m.LastCatalogSync,
			"order_sync":     m.LastOrderSync,
		},
	}
}
