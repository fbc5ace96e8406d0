package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"hotel_inventory/internal/app"
	"hotel_inventory/internal/domain"
	"hotel_inventory/internal/storage/memory"
)

// fixtureCatalog mirrors the seeded catalog minus the SUITE/TRIPLE edge.
func fixtureCatalog() domain.CatalogData {
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
		},
	}
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var t0 = time.Date(2025, 2, 13, 16, 4, 27, 0, time.UTC)

// jsonCache stores values as JSON, like the Redis adapter, and records deletes.
type jsonCache struct {
	mu   sync.Mutex
	data map[string][]byte
	dels []string
	gets int
}

func newJSONCache() *jsonCache { return &jsonCache{data: map[string][]byte{}} }

func (c *jsonCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *jsonCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *jsonCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.dels = append(c.dels, key)
	return nil
}

func (c *jsonCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type services struct {
	store   *memory.Store
	cache   *jsonCache
	catalog *app.CatalogService
	cmds    *app.CommandService
	queries *app.QueryService
}

func newServices() services {
	store := memory.New(fixtureCatalog())
	cache := newJSONCache()
	catalog := app.NewCatalogService(store, cache, time.Minute)
	return services{
		store:   store,
		cache:   cache,
		catalog: catalog,
		cmds:    app.NewCommandService(store, catalog, cache).WithClock(fixedClock{t0}),
		queries: app.NewQueryService(store, cache, time.Minute),
	}
}

func line(rt, acc string, n int) domain.RoomLine {
	return domain.RoomLine{RoomTypeCode: rt, AccommodationCode: acc, Quantity: n}
}

func hotelInput(name, nit string, capacity int, lines ...domain.RoomLine) domain.HotelInput {
	return domain.HotelInput{
		Nombre:             name,
		Direccion:          "Calle 23 58-25",
		Ciudad:             "Cartagena",
		NIT:                nit,
		NumeroHabitaciones: capacity,
		Habitaciones:       lines,
	}
}
