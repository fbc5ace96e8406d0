package domain

import (
	"context"
	"time"
)

// Write side. Repositories handed out by a UnitOfWork share its transaction.

type HotelRepository interface {
	// FindByID loads the header only. forUpdate locks the row until the
	// unit of work ends.
	FindByID(ctx context.Context, id int64, forUpdate bool) (Hotel, error)
	// FindConflict returns the first unique field ("nombre", then "nit")
	// already used by a hotel other than excludeID, or "" when none is.
	FindConflict(ctx context.Context, nombre, nit string, excludeID int64) (string, error)
	Create(ctx context.Context, h *Hotel) error
	Update(ctx context.Context, h *Hotel) error
	Delete(ctx context.Context, id int64) error
}

type RoomRepository interface {
	ListByHotel(ctx context.Context, hotelID int64) ([]Room, error)
	DeleteByHotel(ctx context.Context, hotelID int64) (int64, error)
	BulkInsert(ctx context.Context, rooms []Room) error
}

type UnitOfWork interface {
	Hotels() HotelRepository
	Rooms() RoomRepository
	Commit(ctx context.Context) error
	// Rollback is a no-op once Commit succeeded.
	Rollback(ctx context.Context) error
}

type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// Read side.

type HotelReader interface {
	// GetHotel returns the hotel with its rooms (descriptions filled),
	// rooms ordered by id.
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context, q PageQuery) ([]Hotel, int, error)
}

type CatalogRepository interface {
	LoadCatalog(ctx context.Context) (CatalogData, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

// Now is truncated to seconds, the precision of the stored timestamps.
func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Second) }
