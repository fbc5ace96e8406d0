package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"hotel_inventory/internal/domain"
	"hotel_inventory/internal/i18n"
)

// Upper bound on numeroHabitaciones when a hotel is created. Updates may
// raise it up to domain.MaxRoomsPerHotel.
const maxRoomsOnCreate = 300

const maxBodyBytes = 1 << 20

type roomLineRequest struct {
	TipoHabitacionCodigo  string `json:"tipoHabitacionCodigo" validate:"required,max=32"`
	TipoAcomodacionCodigo string `json:"tipoAcomodacionCodigo" validate:"required,max=32"`
	Cantidad              int    `json:"cantidad" validate:"required,gte=1"`
}

type hotelRequest struct {
	Nombre             string            `json:"nombre" validate:"required,max=255"`
	Direccion          string            `json:"direccion" validate:"required,max=255"`
	Ciudad             string            `json:"ciudad" validate:"required,max=100"`
	NIT                string            `json:"nit" validate:"required,max=20"`
	NumeroHabitaciones int               `json:"numeroHabitaciones" validate:"required,gte=1"`
	Habitaciones       []roomLineRequest `json:"habitaciones" validate:"required,min=1,dive"`
}

func (req hotelRequest) input() domain.HotelInput {
	in := domain.HotelInput{
		Nombre:             strings.TrimSpace(req.Nombre),
		Direccion:          strings.TrimSpace(req.Direccion),
		Ciudad:             strings.TrimSpace(req.Ciudad),
		NIT:                strings.TrimSpace(req.NIT),
		NumeroHabitaciones: req.NumeroHabitaciones,
		Habitaciones:       make([]domain.RoomLine, len(req.Habitaciones)),
	}
	for i, l := range req.Habitaciones {
		in.Habitaciones[i] = domain.RoomLine{
			RoomTypeCode:      strings.TrimSpace(l.TipoHabitacionCodigo),
			AccommodationCode: strings.TrimSpace(l.TipoAcomodacionCodigo),
			Quantity:          l.Cantidad,
		}
	}
	return in
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report payload names, not Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors maps a payload path (e.g. "habitaciones[0].cantidad") to its
// first failure message.
type fieldErrors map[string]string

var errBadJSON = errors.New("malformed JSON body")

// decodeHotel reads and validates a hotel payload. It returns errBadJSON
// for unreadable bodies and non-nil fieldErrors for rule failures.
func decodeHotel(w http.ResponseWriter, r *http.Request, msgs *i18n.Messages, create bool) (domain.HotelInput, fieldErrors, error) {
	var req hotelRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return domain.HotelInput{}, nil, errBadJSON
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return domain.HotelInput{}, nil, errBadJSON
	}

	fe := fieldErrors{}
	if err := validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return domain.HotelInput{}, nil, err
		}
		for _, e := range ve {
			path := strings.TrimPrefix(e.Namespace(), "hotelRequest.")
			if _, seen := fe[path]; !seen {
				fe[path] = msgs.Validation(e.Field(), e.Tag(), e.Param())
			}
		}
	}
	ceiling := domain.MaxRoomsPerHotel
	if create {
		ceiling = maxRoomsOnCreate
	}
	limit := strconv.Itoa(ceiling)
	if err := validate.Var(req.NumeroHabitaciones, "lte="+limit); err != nil {
		if _, seen := fe["numeroHabitaciones"]; !seen {
			fe["numeroHabitaciones"] = msgs.Validation("numeroHabitaciones", "lte", limit)
		}
	}
	if len(fe) > 0 {
		return domain.HotelInput{}, fe, nil
	}
	return req.input(), nil, nil
}
