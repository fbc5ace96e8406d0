package app

import (
	"math"

	"hotel_inventory/internal/domain"
)

// SaveSession carries the running state of one hotel save: how many rooms
// have been assigned so far and which pairs were already used.
type SaveSession struct {
	hotel domain.Hotel
	total int
	seen  map[domain.CompatibilityEdge]struct{}
}

func NewSaveSession(h domain.Hotel) *SaveSession {
	return &SaveSession{hotel: h, seen: map[domain.CompatibilityEdge]struct{}{}}
}

// Total is the number of rooms assigned by the lines accepted so far.
func (s *SaveSession) Total() int { return s.total }

// RoomLineValidator checks one line at a time against the catalog and the
// session, expanding accepted lines into room rows.
type RoomLineValidator struct {
	catalog *domain.Catalog
	clock   domain.Clock
}

func NewRoomLineValidator(c *domain.Catalog, clock domain.Clock) *RoomLineValidator {
	return &RoomLineValidator{catalog: c, clock: clock}
}

// ValidateAndExpand runs the checks in fixed order: duplicate pair, capacity,
// code existence, compatibility. A quantity below 1 is rejected before any of
// them. The first failing check is reported.
func (v *RoomLineValidator) ValidateAndExpand(s *SaveSession, idx int, line domain.RoomLine) ([]domain.Room, error) {
	key := domain.CompatibilityEdge{RoomTypeCode: line.RoomTypeCode, AccommodationCode: line.AccommodationCode}
	base := domain.RoomLineError{Index: idx, RoomTypeCode: line.RoomTypeCode, AccommodationCode: line.AccommodationCode}

	if line.Quantity < 1 {
		e := base
		e.Kind = domain.KindInvalidQuantity
		e.Quantity = line.Quantity
		return nil, &e
	}

	if _, dup := s.seen[key]; dup {
		e := base
		e.Kind = domain.KindDuplicateRoomCombination
		e.Key = line.RoomTypeCode + "-" + line.AccommodationCode
		return nil, &e
	}

	limit := min(s.hotel.NumeroHabitaciones, domain.MaxRoomsPerHotel)
	if line.Quantity > limit-s.total {
		e := base
		e.Kind = domain.KindCapacityExceeded
		e.Total = s.total + line.Quantity
		if e.Total < s.total {
			e.Total = math.MaxInt
		}
		e.Capacity = limit
		return nil, &e
	}

	rtDesc, ok := v.catalog.DescribeRoomType(line.RoomTypeCode)
	if !ok {
		e := base
		e.Kind = domain.KindUnknownReferenceCode
		e.Code, e.CodeTable = line.RoomTypeCode, "tipoHabitacion"
		return nil, &e
	}
	accDesc, ok := v.catalog.DescribeAccommodation(line.AccommodationCode)
	if !ok {
		e := base
		e.Kind = domain.KindUnknownReferenceCode
		e.Code, e.CodeTable = line.AccommodationCode, "tipoAcomodacion"
		return nil, &e
	}

	if !v.catalog.IsValidPair(line.RoomTypeCode, line.AccommodationCode) {
		e := base
		e.Kind = domain.KindIncompatiblePair
		e.RoomTypeDescription = rtDesc
		e.AccommodationDescription = accDesc
		return nil, &e
	}

	now := v.clock.Now()
	rooms := make([]domain.Room, line.Quantity)
	for i := range rooms {
		rooms[i] = domain.Room{
			HotelID:                  s.hotel.ID,
			RoomTypeCode:             line.RoomTypeCode,
			AccommodationCode:        line.AccommodationCode,
			RoomTypeDescription:      rtDesc,
			AccommodationDescription: accDesc,
			InfoAdicional:            domain.DefaultRoomInfo,
			CreatedAt:                now,
			UpdatedAt:                now,
		}
	}
	s.total += line.Quantity
	s.seen[key] = struct{}{}
	return rooms, nil
}
