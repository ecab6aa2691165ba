package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"daycare/internal/services"
)

func documentInput(p *RequestBodyParser) services.DocumentInput {
	return services.DocumentInput{
		Type:        p.Get("type"),
		Description: p.Get("description"),
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.Documents.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := s.svc.Documents.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	defer p.Cleanup()

	upload, closer, err := p.File("document")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	doc, err := s.svc.Documents.Create(r.Context(), documentInput(p), upload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	defer p.Cleanup()

	doc, err := s.svc.Documents.Update(r.Context(), id, documentInput(p))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.Documents.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteBody("Document deleted", res))
}

// handleServeUpload streams a stored receipt or document. The name is checked
// against the sanitizer before the disk is touched.
func (s *Server) handleServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	f, info, err := s.svc.Documents.Open(name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
