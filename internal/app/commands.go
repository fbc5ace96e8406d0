package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_inventory/internal/adapters/observability"
	"hotel_inventory/internal/domain"
)

// CommandService owns every write to a hotel aggregate.
type CommandService struct {
	uow     domain.UnitOfWorkFactory
	catalog *CatalogService
	cache   domain.Cache
	clock   domain.Clock
}

func NewCommandService(u domain.UnitOfWorkFactory, catalog *CatalogService, cache domain.Cache) *CommandService {
	return &CommandService{uow: u, catalog: catalog, cache: cache, clock: domain.SystemClock{}}
}

// WithClock replaces the clock used for row timestamps.
func (s *CommandService) WithClock(c domain.Clock) *CommandService {
	s.clock = c
	return s
}

func (s *CommandService) CreateHotel(ctx context.Context, in domain.HotelInput) (domain.Hotel, error) {
	return s.observe(ctx, "create", 0, in, false)
}

func (s *CommandService) UpdateHotel(ctx context.Context, id int64, in domain.HotelInput) (domain.Hotel, error) {
	return s.observe(ctx, "update", id, in, true)
}

func (s *CommandService) DeleteHotel(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { observability.ObserveSave("delete", outcome(err), time.Since(start)) }()

	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return domain.Persistence("begin", err)
	}
	defer func() { _ = uow.Rollback(ctx) }()

	if _, err := uow.Hotels().FindByID(ctx, id, true); err != nil {
		return domain.Persistence("find hotel", err)
	}
	if _, err := uow.Rooms().DeleteByHotel(ctx, id); err != nil {
		return domain.Persistence("delete rooms", err)
	}
	if err := uow.Hotels().Delete(ctx, id); err != nil {
		return domain.Persistence("delete hotel", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return domain.Persistence("commit", err)
	}
	s.invalidateHotel(ctx, id)
	log.Info().Int64("hotel_id", id).Msg("hotel deleted")
	return nil
}

func (s *CommandService) observe(ctx context.Context, op string, id int64, in domain.HotelInput, isUpdate bool) (domain.Hotel, error) {
	start := time.Now()
	h, err := s.saveWithRooms(ctx, id, in, isUpdate)
	observability.ObserveSave(op, outcome(err), time.Since(start))

	switch {
	case err == nil:
		s.invalidateHotel(ctx, h.ID)
		log.Info().Str("op", op).Int64("hotel_id", h.ID).Int("rooms", len(h.Habitaciones)).Msg("hotel saved")
	case domain.IsRoomLineError(err), errors.Is(err, domain.ErrDuplicateHotel), errors.Is(err, domain.ErrNotFound):
		log.Warn().Str("op", op).Int64("hotel_id", id).Str("kind", outcome(err)).Err(err).Msg("hotel save rejected")
	default:
		log.Error().Str("op", op).Int64("hotel_id", id).Err(err).Msg("hotel save failed")
	}
	return h, err
}

// saveWithRooms creates or fully replaces a hotel and its rooms inside one
// unit of work. Nothing is visible to other readers unless every line is
// accepted and the commit succeeds.
func (s *CommandService) saveWithRooms(ctx context.Context, id int64, in domain.HotelInput, isUpdate bool) (domain.Hotel, error) {
	cat, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return domain.Hotel{}, err
	}

	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return domain.Hotel{}, domain.Persistence("begin", err)
	}
	defer func() { _ = uow.Rollback(ctx) }()

	hotels, rooms := uow.Hotels(), uow.Rooms()
	now := s.clock.Now()

	var h domain.Hotel
	if isUpdate {
		if h, err = hotels.FindByID(ctx, id, true); err != nil {
			return domain.Hotel{}, domain.Persistence("find hotel", err)
		}
		if err := checkUnique(ctx, hotels, in, id); err != nil {
			return domain.Hotel{}, err
		}
		h.ApplyHeader(in)
		h.UpdatedAt = now
		if err := hotels.Update(ctx, &h); err != nil {
			return domain.Hotel{}, domain.Persistence("update hotel", err)
		}
		if _, err := rooms.DeleteByHotel(ctx, h.ID); err != nil {
			return domain.Hotel{}, domain.Persistence("delete rooms", err)
		}
	} else {
		if err := checkUnique(ctx, hotels, in, 0); err != nil {
			return domain.Hotel{}, err
		}
		h.ApplyHeader(in)
		h.CreatedAt, h.UpdatedAt = now, now
		if err := hotels.Create(ctx, &h); err != nil {
			return domain.Hotel{}, domain.Persistence("create hotel", err)
		}
	}

	v := NewRoomLineValidator(cat, s.clock)
	sess := NewSaveSession(h)
	var batch []domain.Room
	for i, line := range in.Habitaciones {
		rs, err := v.ValidateAndExpand(sess, i, line)
		if err != nil {
			return domain.Hotel{}, err
		}
		batch = append(batch, rs...)
	}

	if err := rooms.BulkInsert(ctx, batch); err != nil {
		return domain.Hotel{}, domain.Persistence("insert rooms", err)
	}

	saved, err := hotels.FindByID(ctx, h.ID, false)
	if err != nil {
		return domain.Hotel{}, domain.Persistence("reload hotel", err)
	}
	if saved.Habitaciones, err = rooms.ListByHotel(ctx, h.ID); err != nil {
		return domain.Hotel{}, domain.Persistence("reload rooms", err)
	}

	if err := uow.Commit(ctx); err != nil {
		return domain.Hotel{}, domain.Persistence("commit", err)
	}
	return saved, nil
}

func checkUnique(ctx context.Context, hotels domain.HotelRepository, in domain.HotelInput, excludeID int64) error {
	field, err := hotels.FindConflict(ctx, in.Nombre, in.NIT, excludeID)
	if err != nil {
		return domain.Persistence("check unique", err)
	}
	switch field {
	case "":
		return nil
	case "nombre":
		return &domain.DuplicateHotelError{Field: field, Value: in.Nombre}
	case "nit":
		return &domain.DuplicateHotelError{Field: field, Value: in.NIT}
	}
	return fmt.Errorf("unexpected conflict field %q", field)
}

func (s *CommandService) invalidateHotel(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, hotelKey(id))
}

func outcome(err error) string {
	var rl *domain.RoomLineError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &rl):
		return string(rl.Kind)
	case errors.Is(err, domain.ErrDuplicateHotel):
		return "duplicateHotel"
	case errors.Is(err, domain.ErrNotFound):
		return "notFound"
	}
	return "error"
}
