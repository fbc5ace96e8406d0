//go:build integration || !unit

package integration

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"hotel_inventory/internal/adapters/apiclient"
	server "hotel_inventory/internal/adapters/http_server"
	"hotel_inventory/internal/app"
	"hotel_inventory/internal/domain"
	"hotel_inventory/internal/i18n"
	"hotel_inventory/internal/seed"
	"hotel_inventory/internal/storage/memory"
)

// ---------- helpers ----------

func startAPI(t *testing.T) *apiclient.Client {
	t.Helper()
	store := memory.New(seed.Catalog())
	catalog := app.NewCatalogService(store, nil, time.Minute)

	srv := server.New()
	srv.MountHandlers(&server.Handlers{
		Q:             app.NewQueryService(store, nil, time.Minute),
		C:             app.NewCommandService(store, catalog, nil),
		Catalog:       catalog,
		Messages:      map[string]*i18n.Messages{"es": i18n.MustLoad("es"), "en": i18n.MustLoad("en")},
		DefaultLocale: "es",
		PerPage:       15,
		MaxPerPage:    100,
	}, nil)
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)

	cl, err := apiclient.New(ts.URL, 1000)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return cl
}

func lines(ls ...domain.RoomLine) []domain.RoomLine { return ls }

// ---------- the test ----------

func TestHTTP_EndToEnd_HotelLifecycle(t *testing.T) {
	cl := startAPI(t)
	ctx := context.Background()

	params, err := cl.Parameters(ctx)
	if err != nil {
		t.Fatalf("parametricas: %v", err)
	}
	if len(params.RoomTypes) != 3 || len(params.Edges) != 7 {
		t.Fatalf("unexpected catalog: %+v", params)
	}

	// create
	in := domain.HotelInput{
		Nombre: "Decameron Cartagena", Direccion: "Calle 23 58-25", Ciudad: "Cartagena",
		NIT: "12345678-9", NumeroHabitaciones: 10,
		Habitaciones: lines(
			domain.RoomLine{RoomTypeCode: "ESTANDAR", AccommodationCode: "SENCILLA", Quantity: 4},
			domain.RoomLine{RoomTypeCode: "ESTANDAR", AccommodationCode: "DOBLE", Quantity: 6},
		),
	}
	created, err := cl.CreateHotel(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created.Habitaciones) != 10 {
		t.Fatalf("expected 10 rooms, got %d", len(created.Habitaciones))
	}

	// same NIT again
	dup := in
	dup.Nombre = "Otro"
	if _, err := cl.CreateHotel(ctx, dup); !errors.Is(err, apiclient.ErrConflict) {
		t.Fatalf("want conflict, got %v", err)
	}

	// over capacity: rejected, nothing changes
	bad := in
	bad.Habitaciones = lines(domain.RoomLine{RoomTypeCode: "JUNIOR", AccommodationCode: "TRIPLE", Quantity: 11})
	_, err = cl.UpdateHotel(ctx, created.ID, bad)
	var p *apiclient.ProblemError
	if !errors.As(err, &p) || p.Status != 422 || p.Kind != "capacityExceeded" {
		t.Fatalf("want capacity problem, got %v", err)
	}

	got, err := cl.GetHotel(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Habitaciones) != 10 || len(got.InfoHabitaciones) != 2 ||
		got.InfoHabitaciones[0].Total != 4 || got.InfoHabitaciones[1].Total != 6 {
		t.Fatalf("unexpected hotel after rejected update: %+v", got.InfoHabitaciones)
	}

	// valid replace
	ok := in
	ok.Habitaciones = lines(domain.RoomLine{RoomTypeCode: "SUITE", AccommodationCode: "TRIPLE", Quantity: 3})
	updated, err := cl.UpdateHotel(ctx, created.ID, ok)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.InfoHabitaciones) != 1 || updated.InfoHabitaciones[0].Total != 3 {
		t.Fatalf("unexpected summary: %+v", updated.InfoHabitaciones)
	}

	page, err := cl.ListHotels(ctx, 1, 15)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}

	// delete
	if err := cl.DeleteHotel(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := cl.GetHotel(ctx, created.ID); !errors.Is(err, apiclient.ErrNotFound) {
		t.Fatalf("want not found after delete, got %v", err)
	}
}
