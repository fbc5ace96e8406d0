package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                 = errors.New("hotel not found")
	ErrDuplicateHotel           = errors.New("duplicate hotel")
	ErrDuplicateRoomCombination = errors.New("duplicate room combination")
	ErrCapacityExceeded         = errors.New("room capacity exceeded")
	ErrUnknownReferenceCode     = errors.New("unknown reference code")
	ErrIncompatiblePair         = errors.New("incompatible room type and accommodation")
	ErrInvalidQuantity          = errors.New("invalid room quantity")
	ErrPersistence              = errors.New("persistence failure")
)

// DuplicateHotelError reports which unique hotel attribute collided.
type DuplicateHotelError struct {
	Field string // "nombre" or "nit"
	Value string
}

func (e *DuplicateHotelError) Error() string {
	return fmt.Sprintf("hotel with %s %q already exists", e.Field, e.Value)
}

func (e *DuplicateHotelError) Unwrap() error { return ErrDuplicateHotel }

type RoomLineErrorKind string

const (
	KindDuplicateRoomCombination RoomLineErrorKind = "duplicateRoomCombination"
	KindCapacityExceeded         RoomLineErrorKind = "capacityExceeded"
	KindUnknownReferenceCode     RoomLineErrorKind = "unknownReferenceCode"
	KindIncompatiblePair         RoomLineErrorKind = "incompatiblePair"
	KindInvalidQuantity          RoomLineErrorKind = "invalidQuantity"
)

// RoomLineError is raised by the room-line validator. Only the fields that
// make sense for Kind are set.
type RoomLineError struct {
	Kind  RoomLineErrorKind
	Index int // position of the offending line in the payload

	RoomTypeCode      string
	AccommodationCode string

	// InvalidQuantity
	Quantity int
	// DuplicateRoomCombination
	Key string
	// CapacityExceeded
	Total    int
	Capacity int
	// UnknownReferenceCode: the code that did not resolve and its table
	Code      string
	CodeTable string // "tipoHabitacion" | "tipoAcomodacion"
	// IncompatiblePair
	RoomTypeDescription      string
	AccommodationDescription string
}

func (e *RoomLineError) Error() string {
	switch e.Kind {
	case KindDuplicateRoomCombination:
		return fmt.Sprintf("habitaciones[%d]: duplicate room combination %s", e.Index, e.Key)
	case KindCapacityExceeded:
		return fmt.Sprintf("habitaciones[%d]: assigned rooms (%d) exceed hotel capacity (%d)", e.Index, e.Total, e.Capacity)
	case KindUnknownReferenceCode:
		return fmt.Sprintf("habitaciones[%d]: unknown %s code %q", e.Index, e.CodeTable, e.Code)
	case KindInvalidQuantity:
		return fmt.Sprintf("habitaciones[%d]: cantidad must be at least 1, got %d", e.Index, e.Quantity)
	case KindIncompatiblePair:
		return fmt.Sprintf("habitaciones[%d]: accommodation %q is not valid for room type %q",
			e.Index, e.AccommodationDescription, e.RoomTypeDescription)
	}
	return fmt.Sprintf("habitaciones[%d]: invalid room line", e.Index)
}

func (e *RoomLineError) Unwrap() error {
	switch e.Kind {
	case KindDuplicateRoomCombination:
		return ErrDuplicateRoomCombination
	case KindCapacityExceeded:
		return ErrCapacityExceeded
	case KindUnknownReferenceCode:
		return ErrUnknownReferenceCode
	case KindIncompatiblePair:
		return ErrIncompatiblePair
	case KindInvalidQuantity:
		return ErrInvalidQuantity
	}
	return nil
}

// PersistenceError wraps a storage failure. errors.Is matches both
// ErrPersistence and the wrapped cause.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// Persistence wraps err unless it is nil or already a domain error.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateHotel) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsRoomLineError reports whether err belongs to the room-line family.
func IsRoomLineError(err error) bool {
	var rl *RoomLineError
	return errors.As(err, &rl)
}
