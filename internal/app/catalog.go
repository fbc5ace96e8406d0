package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"hotel_inventory/internal/domain"
)

const catalogCacheKey = "parametricas"

// CatalogService serves the compatibility catalog. The reference tables are
// immutable at runtime, so a snapshot is kept in process for ttl and shared
// through the cache between instances.
type CatalogService struct {
	repo  domain.CatalogRepository
	cache domain.Cache
	ttl   time.Duration
	clock domain.Clock

	sf       singleflight.Group
	mu       sync.RWMutex
	snap     *domain.Catalog
	loadedAt time.Time
}

func NewCatalogService(r domain.CatalogRepository, c domain.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{repo: r, cache: c, ttl: ttl, clock: domain.SystemClock{}}
}

// Snapshot returns the current catalog, loading it at most once per ttl even
// under concurrent callers.
func (s *CatalogService) Snapshot(ctx context.Context) (*domain.Catalog, error) {
	s.mu.RLock()
	snap, at := s.snap, s.loadedAt
	s.mu.RUnlock()
	if snap != nil && s.clock.Now().Sub(at) < s.ttl {
		return snap, nil
	}

	v, err, _ := s.sf.Do(catalogCacheKey, func() (any, error) {
		data, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		c := domain.NewCatalog(data)
		s.mu.Lock()
		s.snap, s.loadedAt = c, s.clock.Now()
		s.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Catalog), nil
}

// Parameters returns the raw lookup tables for clients building forms.
func (s *CatalogService) Parameters(ctx context.Context) (domain.CatalogData, error) {
	c, err := s.Snapshot(ctx)
	if err != nil {
		return domain.CatalogData{}, err
	}
	return c.Data(), nil
}

// Forget drops both the in-process snapshot and the shared cache entry.
func (s *CatalogService) Forget(ctx context.Context) {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
	if s.cache != nil {
		_ = s.cache.Del(ctx, catalogCacheKey)
	}
}

func (s *CatalogService) load(ctx context.Context) (domain.CatalogData, error) {
	var data domain.CatalogData
	if s.cache != nil {
		if ok, err := s.cache.Get(ctx, catalogCacheKey, &data); err == nil && ok {
			return data, nil
		} else if err != nil {
			log.Warn().Err(err).Msg("catalog cache read failed")
		}
	}
	data, err := s.repo.LoadCatalog(ctx)
	if err != nil {
		return domain.CatalogData{}, domain.Persistence("load catalog", err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, catalogCacheKey, data, int(s.ttl.Seconds()))
	}
	return data, nil
}
