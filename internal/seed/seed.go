// Package seed holds the reference catalog and demo hotels loaded by
// hotelctl and by the in-memory API.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"hotel_inventory/internal/domain"
)

// Catalog is the default compatibility catalog.
func Catalog() domain.CatalogData {
	return domain.CatalogData{
		RoomTypes: []domain.RoomType{
			{Code: "ESTANDAR", Description: "Estándar"},
			{Code: "JUNIOR", Description: "Junior"},
			{Code: "SUITE", Description: "Suite"},
		},
		Accommodations: []domain.AccommodationType{
			{Code: "SENCILLA", Description: "Sencilla"},
			{Code: "DOBLE", Description: "Doble"},
			{Code: "TRIPLE", Description: "Triple"},
			{Code: "CUADRUPLE", Description: "Cuádruple"},
		},
		Edges: []domain.CompatibilityEdge{
			{RoomTypeCode: "ESTANDAR", AccommodationCode: "SENCILLA"},
			{RoomTypeCode: "ESTANDAR", AccommodationCode: "DOBLE"},
			{RoomTypeCode: "JUNIOR", AccommodationCode: "TRIPLE"},
			{RoomTypeCode: "JUNIOR", AccommodationCode: "CUADRUPLE"},
			{RoomTypeCode: "SUITE", AccommodationCode: "SENCILLA"},
			{RoomTypeCode: "SUITE", AccommodationCode: "DOBLE"},
			{RoomTypeCode: "SUITE", AccommodationCode: "TRIPLE"},
		},
	}
}

// DemoHotels are sample aggregates for local environments.
func DemoHotels() []domain.HotelInput {
	return []domain.HotelInput{
		{
			Nombre:             "Decameron Cartagena",
			Direccion:          "Calle 23 58-25",
			Ciudad:             "Cartagena",
			NIT:                "12345678-9",
			NumeroHabitaciones: 42,
			Habitaciones: []domain.RoomLine{
				{RoomTypeCode: "ESTANDAR", AccommodationCode: "SENCILLA", Quantity: 25},
				{RoomTypeCode: "JUNIOR", AccommodationCode: "TRIPLE", Quantity: 12},
				{RoomTypeCode: "ESTANDAR", AccommodationCode: "DOBLE", Quantity: 5},
			},
		},
		{
			Nombre:             "Decameron San Andrés",
			Direccion:          "Av. Las Américas 12-34",
			Ciudad:             "San Andrés",
			NIT:                "87654321-0",
			NumeroHabitaciones: 55,
			Habitaciones: []domain.RoomLine{
				{RoomTypeCode: "JUNIOR", AccommodationCode: "CUADRUPLE", Quantity: 20},
				{RoomTypeCode: "SUITE", AccommodationCode: "SENCILLA", Quantity: 15},
				{RoomTypeCode: "SUITE", AccommodationCode: "DOBLE", Quantity: 20},
			},
		},
	}
}

// LoadHotels reads a YAML list of hotels using the API field names.
func LoadHotels(r io.Reader) ([]domain.HotelInput, error) {
	var doc struct {
		Hoteles []domain.HotelInput `yaml:"hoteles"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode hotels: %w", err)
	}
	return doc.Hoteles, nil
}

// HotelCreator is the slice of the command service seeding needs.
type HotelCreator interface {
	CreateHotel(ctx context.Context, in domain.HotelInput) (domain.Hotel, error)
}

// Hotels creates each hotel through the aggregate writer, at most workers at
// a time. Hotels that already exist are skipped; the number created is
// returned together with the first other failure.
func Hotels(ctx context.Context, svc HotelCreator, hotels []domain.HotelInput, workers int) (int, error) {
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	created := make([]bool, len(hotels))
	for i, in := range hotels {
		g.Go(func() error {
			h, err := svc.CreateHotel(ctx, in)
			switch {
			case errors.Is(err, domain.ErrDuplicateHotel):
				log.Info().Str("nombre", in.Nombre).Msg("hotel exists, skipped")
				return nil
			case err != nil:
				return err
			}
			created[i] = true
			log.Info().Int64("hotel_id", h.ID).Str("nombre", h.Nombre).Msg("hotel created")
			return nil
		})
	}
	err := g.Wait()

	n := 0
	for _, ok := range created {
		if ok {
			n++
		}
	}
	return n, err
}
