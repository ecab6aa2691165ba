package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"daycare/internal/core"
)

// pathID reads the {id} route parameter. Anything but a positive integer is
// reported as not found.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.NotFound("record", raw)
	}
	return id, nil
}

// parseBody parses the request body and writes the error response on failure.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r, s.maxUploadBytes)
	if err := p.Parse(); err != nil {
		p.Cleanup()
		writeError(w, r, err)
		return nil, false
	}
	return p, true
}
