package app

import (
	"context"
	"fmt"
	"time"

	"hotel_inventory/internal/domain"
)

type QueryService struct {
	repo     domain.HotelReader
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.HotelReader, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func hotelKey(id int64) string { return fmt.Sprintf("hotel:%d", id) }

// GetHotel returns the hotel, its rooms and the per-pair room counts.
func (s *QueryService) GetHotel(ctx context.Context, id int64) (domain.HotelView, error) {
	key := hotelKey(id)
	var hv domain.HotelView
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &hv); ok {
			return hv, nil
		}
	}
	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return domain.HotelView{}, domain.Persistence("get hotel", err)
	}
	hv = domain.NewHotelView(h)
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, hv, int(s.cacheTTL.Seconds()))
	}
	return hv, nil
}

// ListHotels pages through hotels; each item carries its room summary.
// Pages are not cached since any write may shift them.
func (s *QueryService) ListHotels(ctx context.Context, q domain.PageQuery) (domain.HotelsPage, error) {
	hs, total, err := s.repo.ListHotels(ctx, q)
	if err != nil {
		return domain.HotelsPage{}, domain.Persistence("list hotels", err)
	}
	items := make([]domain.HotelView, 0, len(hs))
	for _, h := range hs {
		items = append(items, domain.NewHotelView(h))
	}
	return domain.NewHotelsPage(items, q, total), nil
}
