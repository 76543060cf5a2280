package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/category"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/datamodels/product"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/remote"
)

// CatalogService is the read-through cache for categories and products.
//
// Full listings follow a TTL: within the refresh interval they are served
// from the local mirror without touching the network, after it (or on
// force) the remote catalog is fetched and the mirror replaced wholesale.
// Targeted reads (by id, by category, search, in-stock) are remote-first
// regardless of the TTL and fall back to filtering the mirror.
//
// Remote failures other than 401 never surface as errors; the caller gets
// whatever the mirror holds, possibly nothing, and the Origin return says
// which world answered.
type CatalogService struct {
	remote     *remote.Client
	categories category.Repository
	products   product.Repository

	refreshInterval time.Duration
	monitor         *Monitor
	log             *zap.Logger

	// mu only guards the sync timestamps; operations themselves are not
	// serialized.
	mu               sync.Mutex
	lastCategorySync time.Time
	lastProductSync  time.Time
}

// NewCatalogService builds the catalog coordinator. Each instance owns its
// own staleness clock.
func NewCatalogService(
	rc *remote.Client,
	categories category.Repository,
	products product.Repository,
	refreshInterval time.Duration,
	monitor *Monitor,
	log *zap.Logger,
) *CatalogService {
	if refreshInterval <= 0 {
		refreshInterval = time.Hour
	}
	if monitor == nil {
		monitor = NewMonitor()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{
		remote:          rc,
		categories:      categories,
		products:        products,
		refreshInterval: refreshInterval,
		monitor:         monitor,
		log:             log,
	}
}

func (s *CatalogService) categoriesStale(force bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return force || s.lastCategorySync.IsZero() || time.Since(s.lastCategorySync) > s.refreshInterval
}

func (s *CatalogService) productsStale(force bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return force || s.lastProductSync.IsZero() || time.Since(s.lastProductSync) > s.refreshInterval
}

// GetCategories returns the menu sections, refreshing the mirror when the
// cached copy is stale or forceRefresh is set.
func (s *CatalogService) GetCategories(ctx context.Context, forceRefresh bool) ([]*category.Category, Origin, error) {
	if s.categoriesStale(forceRefresh) {
		list, err := s.remote.Categories(ctx)
		switch {
		case errors.Is(err, remote.ErrUnauthorized):
			return nil, OriginRemote, err
		case err != nil:
			s.monitor.RecordRemoteFailure()
			s.log.Warn("category refresh failed, serving cache", zap.Error(err))
		case len(list) > 0:
			if err := s.categories.ReplaceAll(ctx, list); err != nil {
				s.monitor.RecordStorageError()
				s.log.Error("replace category mirror", zap.Error(err))
			}
			s.mu.Lock()
			s.lastCategorySync = time.Now()
			s.mu.Unlock()
			s.monitor.RecordCatalogSync()
			return list, OriginRemote, nil
		}
	}

	cached, err := s.categories.ListAll(ctx)
	if err != nil {
		s.monitor.RecordStorageError()
		s.log.Error("read category mirror", zap.Error(err))
		return []*category.Category{}, OriginCache, nil
	}
	s.monitor.RecordCacheFallback()
	return cached, OriginCache, nil
}

// GetProducts returns the full menu, refreshing like GetCategories.
func (s *CatalogService) GetProducts(ctx context.Context, forceRefresh bool) ([]*product.Product, Origin, error) {
	if s.productsStale(forceRefresh) {
		list, err := s.remote.Products(ctx)
		switch {
		case errors.Is(err, remote.ErrUnauthorized):
			return nil, OriginRemote, err
		case err != nil:
			s.monitor.RecordRemoteFailure()
			s.log.Warn("product refresh failed, serving cache", zap.Error(err))
		case len(list) > 0:
			if err := s.products.ReplaceAll(ctx, list); err != nil {
				s.monitor.RecordStorageError()
				s.log.Error("replace product mirror", zap.Error(err))
			}
			s.mu.Lock()
			s.lastProductSync = time.Now()
			s.mu.Unlock()
			s.monitor.RecordCatalogSync()
			return list, OriginRemote, nil
		}
	}

	cached, err := s.products.ListAll(ctx)
	if err != nil {
		s.monitor.RecordStorageError()
		s.log.Error("read product mirror", zap.Error(err))
		return []*product.Product{}, OriginCache, nil
	}
	s.monitor.RecordCacheFallback()
	return cached, OriginCache, nil
}

// GetCategoryByID is remote-first with mirror fallback. A nil result with a
// nil error means the category exists nowhere.
func (s *CatalogService) GetCategoryByID(ctx context.Context, id int64) (*category.Category, Origin, error) {
	c, err := s.remote.CategoryByID(ctx, id)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return nil, OriginRemote, err
	case err == nil:
		return c, OriginRemote, nil
	}
	s.monitor.RecordRemoteFailure()

	cached, err := s.categories.GetByID(ctx, id)
	if err != nil {
		s.monitor.RecordStorageError()
		s.log.Error("read category mirror", zap.Error(err))
		return nil, OriginCache, nil
	}
	s.monitor.RecordCacheFallback()
	return cached, OriginCache, nil
}

// SearchCategories is remote-first with mirror fallback.
func (s *CatalogService) SearchCategories(ctx context.Context, name string) ([]*category.Category, Origin, error) {
	list, err := s.remote.SearchCategories(ctx, name)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return nil, OriginRemote, err
	case err == nil:
		return list, OriginRemote, nil
	}
	s.monitor.RecordRemoteFailure()

	cached, err := s.categories.SearchByName(ctx, name)
	if err != nil {
		s.monitor.RecordStorageError()
		s.log.Error("search category mirror", zap.Error(err))
		return []*category.Category{}, OriginCache, nil
	}
	s.monitor.RecordCacheFallback()
	return cached, OriginCache, nil
}

// GetProductByID is remote-first with mirror fallback.
func (s *CatalogService) GetProductByID(ctx context.Context, id int64) (*product.Product, Origin, error) {
	p, err := s.remote.ProductByID(ctx, id)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return nil, OriginRemote, err
	case err == nil:
		return p, OriginRemote, nil
	}
	s.monitor.RecordRemoteFailure()

	cached, err := s.products.GetByID(ctx, id)
	if err != nil {
		s.monitor.RecordStorageError()
		s.log.Error("read product mirror", zap.Error(err))
		return nil, OriginCache, nil
	}
	s.monitor.RecordCacheFallback()
	return cached, OriginCache, nil
}

// GetProductsByCategory is remote-first with mirror fallback.
func (s *CatalogService) GetProductsByCategory(ctx context.Context, categoryID int64) ([]*product.Product, Origin, error) {
	list, err := s.remote.ProductsByCategory(ctx, categoryID)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return nil, OriginRemote, err
	case err == nil:
		return list, OriginRemote, nil
	}
	s.monitor.RecordRemoteFailure()

	cached, err := s.products.ListByCategory(ctx, categoryID)
	if err != nil {
		s.monitor.RecordStorageError()
		s.log.Error("read product mirror", zap.Error(err))
		return []*product.Product{}, OriginCache, nil
	}
	s.monitor.RecordCacheFallback()
	return cached, OriginCache, nil
}

// SearchProducts is remote-first with mirror fallback.
func (s *CatalogService) SearchProducts(ctx context.Context, term string) ([]*product.Product, Origin, error) {
	list, err := s.remote.SearchProducts(ctx, term)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return nil, OriginRemote, err
	case err == nil:
		return list, OriginRemote, nil
	}
	s.monitor.RecordRemoteFailure()

	cached, err := s.products.Search(ctx, term)
	if err != nil {
		s.monitor.RecordStorageError()
		s.log.Error("search product mirror", zap.Error(err))
		return []*product.Product{}, OriginCache, nil
	}
	s.monitor.RecordCacheFallback()
	return cached, OriginCache, nil
}

// GetInStockProducts is remote-first with mirror fallback.
func (s *CatalogService) GetInStockProducts(ctx context.Context) ([]*product.Product, Origin, error) {
	list, err := s.remote.ProductsInStock(ctx)
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return nil, OriginRemote, err
	case err == nil:
		return list, OriginRemote, nil
	}
	s.monitor.RecordRemoteFailure()

	cached, err := s.products.ListInStock(ctx)
	if err != nil {
		s.monitor.RecordStorageError()
		s.log.Error("read product mirror", zap.Error(err))
		return []*product.Product{}, OriginCache, nil
	}
	s.monitor.RecordCacheFallback()
	return cached, OriginCache, nil
}
