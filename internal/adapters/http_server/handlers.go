package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"hotel_inventory/internal/app"
	"hotel_inventory/internal/domain"
	"hotel_inventory/internal/i18n"
)

type Handlers struct {
	Q       *app.QueryService
	C       *app.CommandService
	Catalog *app.CatalogService

	// Messages per locale; DefaultLocale is used when the client asks for
	// none of them.
	Messages      map[string]*i18n.Messages
	DefaultLocale string

	PerPage    int
	MaxPerPage int
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`

	// Extension members.
	Kind     string            `json:"kind,omitempty"`
	Index    *int              `json:"index,omitempty"`
	Codes    []string          `json:"codes,omitempty"`
	Total    *int              `json:"total,omitempty"`
	Capacity *int              `json:"capacity,omitempty"`
	Field    string            `json:"field,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

type pageLinks struct {
	Next *string `json:"next"`
	Prev *string `json:"prev"`
}

type hotelsPageResponse struct {
	domain.HotelsPage
	Links pageLinks `json:"links"`
}

// MountHandlers registers the API routes. writes throttles POST, PUT and
// DELETE; nil disables throttling.
func (s *Server) MountHandlers(h *Handlers, writes *rate.Limiter) {
	limited := RateLimit(writes, func(r *http.Request) string {
		return h.messages(r).Message("messages.tooManyRequests", nil)
	})
	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/parametricas", h.parameters)
		r.Route("/hotels", func(r chi.Router) {
			r.Get("/", h.listHotels)
			r.With(limited).Post("/", h.createHotel)
			r.Get("/{id}", h.getHotel)
			r.With(limited).Put("/{id}", h.updateHotel)
			r.With(limited).Delete("/{id}", h.deleteHotel)
		})
	})
}

func selectLang(al string) string {
	s := strings.ToLower(al)
	if strings.HasPrefix(s, "en") {
		return "en"
	}
	if strings.HasPrefix(s, "es") {
		return "es"
	}
	return ""
}

func (h *Handlers) messages(r *http.Request) *i18n.Messages {
	if m, ok := h.Messages[selectLang(r.Header.Get("Accept-Language"))]; ok {
		return m
	}
	if m, ok := h.Messages[h.DefaultLocale]; ok {
		return m
	}
	return i18n.MustLoad(i18n.DefaultLocale)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemDoc(w, problem{Title: title, Status: status, Detail: detail})
}

func writeProblemDoc(w http.ResponseWriter, p problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps a service error onto a problem document.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	msgs := h.messages(r)
	var rl *domain.RoomLineError
	var dup *domain.DuplicateHotelError
	switch {
	case errors.As(err, &rl):
		p := problem{
			Status: http.StatusUnprocessableEntity,
			Title:  http.StatusText(http.StatusUnprocessableEntity),
			Detail: msgs.RoomLine(rl),
			Kind:   string(rl.Kind),
			Index:  &rl.Index,
			Codes:  []string{rl.RoomTypeCode, rl.AccommodationCode},
		}
		switch rl.Kind {
		case domain.KindCapacityExceeded:
			p.Total, p.Capacity = &rl.Total, &rl.Capacity
		case domain.KindUnknownReferenceCode:
			p.Codes = []string{rl.Code}
		}
		writeProblemDoc(w, p)
	case errors.As(err, &dup):
		writeProblemDoc(w, problem{
			Status: http.StatusConflict,
			Title:  http.StatusText(http.StatusConflict),
			Detail: msgs.Validation(dup.Field, "unique", ""),
			Kind:   "duplicateHotel",
			Field:  dup.Field,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeProblemDoc(w, problem{
			Status: http.StatusNotFound,
			Title:  http.StatusText(http.StatusNotFound),
			Detail: msgs.Message("messages.notFound", nil),
			Kind:   "notFound",
		})
	default:
		log.Error().Err(err).Str("route", routeOf(r)).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError),
			msgs.Message("messages.internalError", nil))
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached writes v as JSON with a weak ETag, answering 304 when the
// client already holds that version.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// writeValue marshals v and writes it with status; an encoding failure is
// answered as a 500 problem instead of an empty success.
func (h *Handlers) writeValue(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		w.Header().Del("Location")
		h.writeError(w, r, fmt.Errorf("encode response: %w", err))
		return
	}
	writeJSON(w, status, body)
}

func (h *Handlers) hotelID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", h.messages(r).Message("validation.id", nil))
		return 0, false
	}
	return id, true
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.hotelID(w, r)
	if !ok {
		return
	}
	hv, err := h.Q.GetHotel(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Language", h.messages(r).Locale())
	writeCached(w, r, hv)
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	q, ok := h.pageQuery(w, r)
	if !ok {
		return
	}
	page, err := h.Q.ListHotels(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeCached(w, r, hotelsPageResponse{HotelsPage: page, Links: links(r.URL, page)})
}

func (h *Handlers) pageQuery(w http.ResponseWriter, r *http.Request) (domain.PageQuery, bool) {
	q := domain.PageQuery{Page: 1, PerPage: h.PerPage}
	msgs := h.messages(r)
	if s := r.URL.Query().Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeProblem(w, http.StatusBadRequest, "Invalid page", msgs.Validation("page", "min", "1"))
			return q, false
		}
		q.Page = n
	}
	if s := r.URL.Query().Get("per_page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > h.MaxPerPage {
			writeProblem(w, http.StatusBadRequest, "Invalid per_page",
				fmt.Sprintf("per_page must be an integer between 1 and %d", h.MaxPerPage))
			return q, false
		}
		q.PerPage = n
	}
	return q, true
}

func links(u *url.URL, p domain.HotelsPage) pageLinks {
	at := func(page int) *string {
		v := u.Query()
		v.Set("page", strconv.Itoa(page))
		v.Set("per_page", strconv.Itoa(p.PerPage))
		s := u.Path + "?" + v.Encode()
		return &s
	}
	var l pageLinks
	if p.Page < p.LastPage {
		l.Next = at(p.Page + 1)
	}
	if p.Page > 1 {
		l.Prev = at(min(p.Page-1, p.LastPage))
	}
	return l
}

func (h *Handlers) parameters(w http.ResponseWriter, r *http.Request) {
	d, err := h.Catalog.Parameters(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeCached(w, r, d)
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r, true)
	if !ok {
		return
	}
	saved, err := h.C.CreateHotel(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/hotels/"+strconv.FormatInt(saved.ID, 10))
	h.writeValue(w, r, http.StatusCreated, domain.NewHotelView(saved))
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.hotelID(w, r)
	if !ok {
		return
	}
	in, ok := h.decode(w, r, false)
	if !ok {
		return
	}
	saved, err := h.C.UpdateHotel(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeValue(w, r, http.StatusOK, domain.NewHotelView(saved))
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.hotelID(w, r)
	if !ok {
		return
	}
	if err := h.C.DeleteHotel(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, create bool) (domain.HotelInput, bool) {
	msgs := h.messages(r)
	in, fe, err := decodeHotel(w, r, msgs, create)
	switch {
	case errors.Is(err, errBadJSON):
		writeProblem(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest), msgs.Message("validation.json", nil))
		return in, false
	case err != nil:
		h.writeError(w, r, err)
		return in, false
	case fe != nil:
		writeProblemDoc(w, problem{
			Status: http.StatusUnprocessableEntity,
			Title:  http.StatusText(http.StatusUnprocessableEntity),
			Detail: msgs.Message("messages.requestError", nil),
			Kind:   "validation",
			Errors: fe,
		})
		return in, false
	}
	return in, true
}
