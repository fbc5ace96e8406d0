// Package memory is a transactional in-memory store implementing the same
// ports as the MySQL store. A unit of work edits a private copy of the data
// and publishes it on commit; one unit of work runs at a time.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	"hotel_inventory/internal/domain"
)

type state struct {
	hotels     map[int64]domain.Hotel
	rooms      map[int64][]domain.Room
	nextHotel  int64
	nextRoomID int64
}

func (s state) clone() state {
	out := state{
		hotels:     make(map[int64]domain.Hotel, len(s.hotels)),
		rooms:      make(map[int64][]domain.Room, len(s.rooms)),
		nextHotel:  s.nextHotel,
		nextRoomID: s.nextRoomID,
	}
	for id, h := range s.hotels {
		out.hotels[id] = h
	}
	for id, rs := range s.rooms {
		out.rooms[id] = append([]domain.Room(nil), rs...)
	}
	return out
}

type Store struct {
	writer chan struct{} // single-writer token

	mu        sync.RWMutex
	committed state
	catalog   domain.CatalogData
	cat       *domain.Catalog
	faults    map[string]error
}

func New(catalog domain.CatalogData) *Store {
	return &Store{
		writer:    make(chan struct{}, 1),
		committed: state{hotels: map[int64]domain.Hotel{}, rooms: map[int64][]domain.Room{}},
		catalog:   catalog,
		cat:       domain.NewCatalog(catalog),
		faults:    map[string]error{},
	}
}

// FailNext makes the next call of op ("create", "update", "delete",
// "deleteRooms", "bulkInsert", "commit") return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.faults[op]
	delete(s.faults, op)
	return err
}

func (s *Store) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.mu.RLock()
	st := s.committed.clone()
	s.mu.RUnlock()
	return &unit{store: s, st: st}, nil
}

func (s *Store) LoadCatalog(ctx context.Context) (domain.CatalogData, error) {
	return s.catalog, nil
}

// RoomCount is the number of committed rooms across all hotels.
func (s *Store) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rs := range s.committed.rooms {
		n += len(rs)
	}
	return n
}

func (s *Store) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.committed.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	h.Habitaciones = s.describe(s.committed.rooms[id])
	return h, nil
}

func (s *Store) ListHotels(ctx context.Context, q domain.PageQuery) ([]domain.Hotel, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.committed.hotels))
	for id := range s.committed.hotels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total := len(ids)
	from := min(q.Offset(), total)
	to := min(from+q.PerPage, total)
	out := make([]domain.Hotel, 0, to-from)
	for _, id := range ids[from:to] {
		h := s.committed.hotels[id]
		h.Habitaciones = s.describe(s.committed.rooms[id])
		out = append(out, h)
	}
	return out, total, nil
}

// describe copies rooms and fills their descriptions, like the SQL join does.
func (s *Store) describe(rooms []domain.Room) []domain.Room {
	out := make([]domain.Room, len(rooms))
	for i, r := range rooms {
		r.RoomTypeDescription, _ = s.cat.DescribeRoomType(r.RoomTypeCode)
		r.AccommodationDescription, _ = s.cat.DescribeAccommodation(r.AccommodationCode)
		out[i] = r
	}
	return out
}

type unit struct {
	store *Store
	st    state
	done  bool
}

func (u *unit) Hotels() domain.HotelRepository { return hotelRepo{u} }
func (u *unit) Rooms() domain.RoomRepository   { return roomRepo{u} }

func (u *unit) Commit(ctx context.Context) error {
	if u.done {
		return sql.ErrTxDone
	}
	if err := u.store.fault("commit"); err != nil {
		u.release()
		return err
	}
	u.store.mu.Lock()
	u.store.committed = u.st
	u.store.mu.Unlock()
	u.release()
	return nil
}

func (u *unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.release()
	return nil
}

func (u *unit) release() {
	u.done = true
	<-u.store.writer
}

type hotelRepo struct{ u *unit }

func (r hotelRepo) FindByID(ctx context.Context, id int64, forUpdate bool) (domain.Hotel, error) {
	h, ok := r.u.st.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (r hotelRepo) FindConflict(ctx context.Context, nombre, nit string, excludeID int64) (string, error) {
	for _, field := range []string{"nombre", "nit"} {
		for id, h := range r.u.st.hotels {
			if id == excludeID {
				continue
			}
			if (field == "nombre" && h.Nombre == nombre) || (field == "nit" && h.NIT == nit) {
				return field, nil
			}
		}
	}
	return "", nil
}

func (r hotelRepo) Create(ctx context.Context, h *domain.Hotel) error {
	if err := r.u.store.fault("create"); err != nil {
		return err
	}
	if field, _ := r.FindConflict(ctx, h.Nombre, h.NIT, 0); field != "" {
		return &domain.DuplicateHotelError{Field: field, Value: map[string]string{"nombre": h.Nombre, "nit": h.NIT}[field]}
	}
	r.u.st.nextHotel++
	h.ID = r.u.st.nextHotel
	stored := *h
	stored.Habitaciones = nil
	r.u.st.hotels[h.ID] = stored
	return nil
}

func (r hotelRepo) Update(ctx context.Context, h *domain.Hotel) error {
	if err := r.u.store.fault("update"); err != nil {
		return err
	}
	prev, ok := r.u.st.hotels[h.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored := *h
	stored.CreatedAt = prev.CreatedAt
	stored.Habitaciones = nil
	r.u.st.hotels[h.ID] = stored
	return nil
}

func (r hotelRepo) Delete(ctx context.Context, id int64) error {
	if err := r.u.store.fault("delete"); err != nil {
		return err
	}
	if _, ok := r.u.st.hotels[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.u.st.hotels, id)
	delete(r.u.st.rooms, id)
	return nil
}

type roomRepo struct{ u *unit }

func (r roomRepo) ListByHotel(ctx context.Context, hotelID int64) ([]domain.Room, error) {
	return r.u.store.describe(r.u.st.rooms[hotelID]), nil
}

func (r roomRepo) DeleteByHotel(ctx context.Context, hotelID int64) (int64, error) {
	if err := r.u.store.fault("deleteRooms"); err != nil {
		return 0, err
	}
	n := int64(len(r.u.st.rooms[hotelID]))
	delete(r.u.st.rooms, hotelID)
	return n, nil
}

var errUnknownHotel = errors.New("memory: room references unknown hotel")

func (r roomRepo) BulkInsert(ctx context.Context, rooms []domain.Room) error {
	if err := r.u.store.fault("bulkInsert"); err != nil {
		return err
	}
	for _, room := range rooms {
		if _, ok := r.u.st.hotels[room.HotelID]; !ok {
			return errUnknownHotel
		}
		r.u.st.nextRoomID++
		room.ID = r.u.st.nextRoomID
		room.RoomTypeDescription, room.AccommodationDescription = "", ""
		r.u.st.rooms[room.HotelID] = append(r.u.st.rooms[room.HotelID], room)
	}
	return nil
}
