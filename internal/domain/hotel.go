package domain

import "time"

// MaxRoomsPerHotel bounds the rooms a single save may assign, whatever
// numeroHabitaciones declares.
const MaxRoomsPerHotel = 10000

// DefaultRoomInfo is stored in Room.InfoAdicional when nothing else is given.
const DefaultRoomInfo = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Nullam nec purus nec sapien."

type Hotel struct {
	ID                 int64     `json:"id" db:"id"`
	Nombre             string    `json:"nombre" db:"nombre"`
	Direccion          string    `json:"direccion" db:"direccion"`
	Ciudad             string    `json:"ciudad" db:"ciudad"`
	NIT                string    `json:"nit" db:"nit"`
	NumeroHabitaciones int       `json:"numeroHabitaciones" db:"numero_habitaciones"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
	Habitaciones       []Room    `json:"habitaciones" db:"-"`
}

// Room is one physical unit. Descriptions are filled on read paths only.
type Room struct {
	ID                       int64     `json:"id" db:"id"`
	HotelID                  int64     `json:"hotelId" db:"hotel_id"`
	RoomTypeCode             string    `json:"tipoHabitacionCodigo" db:"tipo_habitacion_codigo"`
	AccommodationCode        string    `json:"tipoAcomodacionCodigo" db:"tipo_acomodacion_codigo"`
	RoomTypeDescription      string    `json:"tipoHabitacion,omitempty" db:"tipo_habitacion_descripcion"`
	AccommodationDescription string    `json:"tipoAcomodacion,omitempty" db:"tipo_acomodacion_descripcion"`
	InfoAdicional            string    `json:"infoAdicional" db:"info_adicional"`
	CreatedAt                time.Time `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time `json:"updated_at" db:"updated_at"`
}

// RoomLine asks for Quantity rooms of one (room type, accommodation) pair.
type RoomLine struct {
	RoomTypeCode      string `json:"tipoHabitacionCodigo" yaml:"tipoHabitacionCodigo"`
	AccommodationCode string `json:"tipoAcomodacionCodigo" yaml:"tipoAcomodacionCodigo"`
	Quantity          int    `json:"cantidad" yaml:"cantidad"`
}

// HotelInput is the write payload shared by create and update.
type HotelInput struct {
	Nombre             string     `json:"nombre" yaml:"nombre"`
	Direccion          string     `json:"direccion" yaml:"direccion"`
	Ciudad             string     `json:"ciudad" yaml:"ciudad"`
	NIT                string     `json:"nit" yaml:"nit"`
	NumeroHabitaciones int        `json:"numeroHabitaciones" yaml:"numeroHabitaciones"`
	Habitaciones       []RoomLine `json:"habitaciones" yaml:"habitaciones"`
}

// ApplyHeader copies the header fields of in onto h.
func (h *Hotel) ApplyHeader(in HotelInput) {
	h.Nombre = in.Nombre
	h.Direccion = in.Direccion
	h.Ciudad = in.Ciudad
	h.NIT = in.NIT
	h.NumeroHabitaciones = in.NumeroHabitaciones
}

// RoomCount sums the requested quantities of all lines.
func (in HotelInput) RoomCount() int {
	n := 0
	for _, l := range in.Habitaciones {
		n += l.Quantity
	}
	return n
}

// Read models

type HotelView struct {
	Hotel
	InfoHabitaciones []RoomSummary `json:"infoHabitaciones"`
}

type PageQuery struct {
	Page    int
	PerPage int
}

// Offset is the number of rows skipped before this page.
func (q PageQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

type HotelsPage struct {
	Items    []HotelView `json:"data"`
	Page     int         `json:"current_page"`
	PerPage  int         `json:"per_page"`
	Total    int         `json:"total"`
	LastPage int         `json:"last_page"`
}

// NewHotelsPage fills the derived pagination fields.
func NewHotelsPage(items []HotelView, q PageQuery, total int) HotelsPage {
	last := 1
	if q.PerPage > 0 && total > 0 {
		last = (total + q.PerPage - 1) / q.PerPage
	}
	if items == nil {
		items = []HotelView{}
	}
	return HotelsPage{Items: items, Page: q.Page, PerPage: q.PerPage, Total: total, LastPage: last}
}
