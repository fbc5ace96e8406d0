package httpserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	httpserver "hotel_inventory/internal/adapters/http_server"
	"hotel_inventory/internal/app"
	"hotel_inventory/internal/domain"
	"hotel_inventory/internal/i18n"
	"hotel_inventory/internal/storage/memory"
)

// Catalog without the SUITE/TRIPLE edge.
func fixtureCatalog() domain.CatalogData {
	return domain.CatalogData{
		RoomTypes: []domain.RoomType{
			{Code: "ESTANDAR", Description: "Estándar"},
			{Code: "SUITE", Description: "Suite"},
		},
		Accommodations: []domain.AccommodationType{
			{Code: "SENCILLA", Description: "Sencilla"},
			{Code: "DOBLE", Description: "Doble"},
			{Code: "TRIPLE", Description: "Triple"},
		},
		Edges: []domain.CompatibilityEdge{
			{RoomTypeCode: "ESTANDAR", AccommodationCode: "SENCILLA"},
			{RoomTypeCode: "ESTANDAR", AccommodationCode: "DOBLE"},
			{RoomTypeCode: "SUITE", AccommodationCode: "SENCILLA"},
		},
	}
}

func newAPI(t *testing.T, writes *rate.Limiter) http.Handler {
	t.Helper()
	store := memory.New(fixtureCatalog())
	catalog := app.NewCatalogService(store, nil, time.Minute)
	h := &httpserver.Handlers{
		Q:             app.NewQueryService(store, nil, time.Minute),
		C:             app.NewCommandService(store, catalog, nil),
		Catalog:       catalog,
		Messages:      map[string]*i18n.Messages{"es": i18n.MustLoad("es"), "en": i18n.MustLoad("en")},
		DefaultLocale: "es",
		PerPage:       15,
		MaxPerPage:    100,
	}
	srv := httpserver.New()
	srv.MountHandlers(h, writes)
	return srv.Mux()
}

func do(t *testing.T, h http.Handler, method, path, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

const cartagena = `{
  "nombre": "Decameron Cartagena",
  "direccion": "Calle 23 58-25",
  "ciudad": "Cartagena",
  "nit": "12345678-9",
  "numeroHabitaciones": 10,
  "habitaciones": [
    {"tipoHabitacionCodigo": "ESTANDAR", "tipoAcomodacionCodigo": "SENCILLA", "cantidad": 4},
    {"tipoHabitacionCodigo": "ESTANDAR", "tipoAcomodacionCodigo": "DOBLE", "cantidad": 6}
  ]
}`

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type problemDoc struct {
	Status   int               `json:"status"`
	Detail   string            `json:"detail"`
	Kind     string            `json:"kind"`
	Index    *int              `json:"index"`
	Codes    []string          `json:"codes"`
	Total    *int              `json:"total"`
	Capacity *int              `json:"capacity"`
	Field    string            `json:"field"`
	Errors   map[string]string `json:"errors"`
}

func TestHotels_CreateThenRejectedUpdateKeepsRooms(t *testing.T) {
	api := newAPI(t, nil)

	rr := do(t, api, http.MethodPost, "/v1/hotels", cartagena)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[domain.HotelView](t, rr)
	assert.Equal(t, "/v1/hotels/1", rr.Header().Get("Location"))
	assert.Len(t, created.Habitaciones, 10)
	require.Len(t, created.InfoHabitaciones, 2)
	assert.Equal(t, 4, created.InfoHabitaciones[0].Total)
	assert.Equal(t, 6, created.InfoHabitaciones[1].Total)

	update := `{"nombre": "Decameron Cartagena", "direccion": "Calle 23 58-25", "ciudad": "Cartagena",
	  "nit": "12345678-9", "numeroHabitaciones": 10,
	  "habitaciones": [{"tipoHabitacionCodigo": "SUITE", "tipoAcomodacionCodigo": "TRIPLE", "cantidad": 5}]}`
	rr = do(t, api, http.MethodPut, "/v1/hotels/1", update)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	p := decode[problemDoc](t, rr)
	assert.Equal(t, "incompatiblePair", p.Kind)
	assert.Equal(t, []string{"SUITE", "TRIPLE"}, p.Codes)
	assert.Equal(t, "La acomodación 'Triple' no es válida para la habitación 'Suite'.", p.Detail)

	rr = do(t, api, http.MethodGet, "/v1/hotels/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[domain.HotelView](t, rr)
	assert.Equal(t, created.Habitaciones, got.Habitaciones)
}

func TestHotels_CapacityExceededProblem(t *testing.T) {
	api := newAPI(t, nil)
	body := strings.Replace(cartagena, `"numeroHabitaciones": 10`, `"numeroHabitaciones": 9`, 1)

	rr := do(t, api, http.MethodPost, "/v1/hotels", body, "Accept-Language", "en-US,en;q=0.9")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	p := decode[problemDoc](t, rr)
	assert.Equal(t, "capacityExceeded", p.Kind)
	require.NotNil(t, p.Total)
	require.NotNil(t, p.Capacity)
	assert.Equal(t, 10, *p.Total)
	assert.Equal(t, 9, *p.Capacity)
	require.NotNil(t, p.Index)
	assert.Equal(t, 1, *p.Index)
	assert.Equal(t, "Assigned rooms (10) exceed the hotel capacity (9).", p.Detail)
}

func TestHotels_RequestValidation(t *testing.T) {
	api := newAPI(t, nil)

	body := `{"nombre": "", "direccion": "x", "ciudad": "y", "nit": "1", "numeroHabitaciones": 301,
	  "habitaciones": [{"tipoHabitacionCodigo": "ESTANDAR", "tipoAcomodacionCodigo": "DOBLE", "cantidad": 0}]}`
	rr := do(t, api, http.MethodPost, "/v1/hotels", body)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	p := decode[problemDoc](t, rr)
	assert.Equal(t, "validation", p.Kind)
	assert.Equal(t, "El campo nombre es obligatorio.", p.Errors["nombre"])
	assert.Contains(t, p.Errors, "habitaciones[0].cantidad")
	assert.Equal(t, "El campo número de habitaciones no debe ser mayor que 300.", p.Errors["numeroHabitaciones"])

	rr = do(t, api, http.MethodPost, "/v1/hotels", `{"nombre": `)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, api, http.MethodPost, "/v1/hotels", `{"nombre":"a","direccion":"b","ciudad":"c","nit":"d","numeroHabitaciones":1,"habitaciones":[]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, decode[problemDoc](t, rr).Errors, "habitaciones")
}

func TestHotels_UpdateAllowsMoreThan300Rooms(t *testing.T) {
	api := newAPI(t, nil)
	require.Equal(t, http.StatusCreated, do(t, api, http.MethodPost, "/v1/hotels", cartagena).Code)

	big := strings.Replace(cartagena, `"numeroHabitaciones": 10`, `"numeroHabitaciones": 400`, 1)
	rr := do(t, api, http.MethodPut, "/v1/hotels/1", big)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 400, decode[domain.HotelView](t, rr).NumeroHabitaciones)
}

func TestHotels_DuplicateIsConflict(t *testing.T) {
	api := newAPI(t, nil)
	require.Equal(t, http.StatusCreated, do(t, api, http.MethodPost, "/v1/hotels", cartagena).Code)

	other := strings.Replace(cartagena, `"Decameron Cartagena"`, `"Otro"`, 1)
	rr := do(t, api, http.MethodPost, "/v1/hotels", other)
	require.Equal(t, http.StatusConflict, rr.Code)
	p := decode[problemDoc](t, rr)
	assert.Equal(t, "nit", p.Field)
	assert.Equal(t, "El NIT ya ha sido registrado.", p.Detail)
}

func TestHotels_GetETagAndErrors(t *testing.T) {
	api := newAPI(t, nil)
	require.Equal(t, http.StatusCreated, do(t, api, http.MethodPost, "/v1/hotels", cartagena).Code)

	rr := do(t, api, http.MethodGet, "/v1/hotels/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	etag := rr.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rr = do(t, api, http.MethodGet, "/v1/hotels/1", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rr.Code)

	assert.Equal(t, http.StatusNotFound, do(t, api, http.MethodGet, "/v1/hotels/99", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, api, http.MethodGet, "/v1/hotels/abc", "").Code)
}

func TestHotels_DeleteCascades(t *testing.T) {
	api := newAPI(t, nil)
	require.Equal(t, http.StatusCreated, do(t, api, http.MethodPost, "/v1/hotels", cartagena).Code)

	assert.Equal(t, http.StatusNoContent, do(t, api, http.MethodDelete, "/v1/hotels/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, api, http.MethodGet, "/v1/hotels/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, api, http.MethodDelete, "/v1/hotels/1", "").Code)
}

func TestHotels_ListPagination(t *testing.T) {
	api := newAPI(t, nil)
	for i, name := range []string{"A", "B", "C"} {
		body := strings.NewReplacer(`"Decameron Cartagena"`, `"`+name+`"`, `"12345678-9"`, `"nit-`+name+`"`).Replace(cartagena)
		require.Equal(t, http.StatusCreated, do(t, api, http.MethodPost, "/v1/hotels", body).Code, i)
	}

	rr := do(t, api, http.MethodGet, "/v1/hotels?page=1&per_page=2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var page struct {
		Data        []domain.HotelView `json:"data"`
		CurrentPage int                `json:"current_page"`
		PerPage     int                `json:"per_page"`
		Total       int                `json:"total"`
		LastPage    int                `json:"last_page"`
		Links       struct {
			Next *string `json:"next"`
			Prev *string `json:"prev"`
		} `json:"links"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.LastPage)
	require.NotNil(t, page.Links.Next)
	assert.Equal(t, "/v1/hotels?page=2&per_page=2", *page.Links.Next)
	assert.Nil(t, page.Links.Prev)
	require.Len(t, page.Data[0].InfoHabitaciones, 2)

	assert.Equal(t, http.StatusBadRequest, do(t, api, http.MethodGet, "/v1/hotels?per_page=500", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, api, http.MethodGet, "/v1/hotels?page=0", "").Code)
}

func TestParametricas(t *testing.T) {
	api := newAPI(t, nil)
	rr := do(t, api, http.MethodGet, "/v1/parametricas", "")
	require.Equal(t, http.StatusOK, rr.Code)
	d := decode[domain.CatalogData](t, rr)
	assert.Len(t, d.RoomTypes, 2)
	assert.Len(t, d.Accommodations, 3)
	assert.Len(t, d.Edges, 3)
}

func TestWrites_AreRateLimited(t *testing.T) {
	api := newAPI(t, rate.NewLimiter(0, 1))

	assert.Equal(t, http.StatusCreated, do(t, api, http.MethodPost, "/v1/hotels", cartagena).Code)
	rr := do(t, api, http.MethodPost, "/v1/hotels", cartagena)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, do(t, api, http.MethodGet, "/v1/hotels/1", "").Code, "reads are not throttled")
}

func TestRouter_HealthAndUnknownRoutes(t *testing.T) {
	api := newAPI(t, nil)

	rr := do(t, api, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, api, http.MethodGet, "/v2/hotels", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

	rr = do(t, api, http.MethodPatch, "/v1/hotels/1", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHotels_OutOfRangeQuantities(t *testing.T) {
	cases := []struct {
		name     string
		cantidad string
		wantKind string
	}{
		{"zero", "0", "validation"},
		{"negative", "-3", "validation"},
		{"huge", "4611686018427387903", "capacityExceeded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newAPI(t, nil)
			body := strings.Replace(cartagena, `"cantidad": 4}`, `"cantidad": `+tc.cantidad+`}`, 1)

			rr := do(t, api, http.MethodPost, "/v1/hotels", body)
			require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
			p := decode[problemDoc](t, rr)
			assert.Equal(t, tc.wantKind, p.Kind)
			if tc.wantKind == "validation" {
				assert.Contains(t, p.Errors, "habitaciones[0].cantidad")
			} else {
				require.NotNil(t, p.Capacity)
				assert.Equal(t, 10, *p.Capacity)
			}
		})
	}
}

func TestHotels_UpdateCapacityCeiling(t *testing.T) {
	api := newAPI(t, nil)
	require.Equal(t, http.StatusCreated, do(t, api, http.MethodPost, "/v1/hotels", cartagena).Code)

	huge := strings.Replace(cartagena, `"numeroHabitaciones": 10`, `"numeroHabitaciones": 2000000000`, 1)
	huge = strings.Replace(huge, `"cantidad": 4}`, `"cantidad": 1999999994}`, 1)
	rr := do(t, api, http.MethodPut, "/v1/hotels/1", huge)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	p := decode[problemDoc](t, rr)
	assert.Equal(t, "validation", p.Kind)
	assert.Contains(t, p.Errors, "numeroHabitaciones")

	rr = do(t, api, http.MethodGet, "/v1/hotels/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[domain.HotelView](t, rr).Habitaciones, 10)
}

func TestWriteValue_EncodingFailureIsServerError(t *testing.T) {
	h := &httpserver.Handlers{
		Messages:      map[string]*i18n.Messages{"es": i18n.MustLoad("es")},
		DefaultLocale: "es",
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/hotels", nil)
	rr := httptest.NewRecorder()
	rr.Header().Set("Location", "/v1/hotels/1")

	h.WriteValue(rr, req, http.StatusCreated, map[string]any{"bad": make(chan int)})

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, rr.Header().Get("Location"))
	p := decode[problemDoc](t, rr)
	assert.Equal(t, "Ocurrió un error inesperado.", p.Detail)

	rr = httptest.NewRecorder()
	h.WriteValue(rr, req, http.StatusCreated, map[string]int{"id": 1})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"id":1}`, rr.Body.String())
}
