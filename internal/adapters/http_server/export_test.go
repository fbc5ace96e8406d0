package httpserver

import "net/http"

// WriteValue exposes the response encoder to the external test package.
func (h *Handlers) WriteValue(w http.ResponseWriter, r *http.Request, status int, v any) {
	h.writeValue(w, r, status, v)
}
