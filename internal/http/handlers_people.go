package http

import (
	"net/http"

	"daycare/internal/services"
)

func childInput(p *RequestBodyParser) (services.ChildInput, error) {
	parentID, err := p.OptionalID("parentId")
	if err != nil {
		return services.ChildInput{}, err
	}
	return services.ChildInput{
		FirstName:        p.Get("firstName"),
		LastName:         p.Get("lastName"),
		DOB:              p.Get("dob"),
		ParentID:         parentID,
		EmergencyContact: p.Get("emergencyContact"),
		Allergies:        p.Get("allergies"),
		Notes:            p.Get("notes"),
	}, nil
}

func (s *Server) handleListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := s.svc.Children.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, children)
}

func (s *Server) handleGetChild(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	child, err := s.svc.Children.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (s *Server) handleCreateChild(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	defer p.Cleanup()

	in, err := childInput(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	child, err := s.svc.Children.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, child)
}

func (s *Server) handleUpdateChild(w http.ResponseWriter, r *http.Request) {
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

	in, err := childInput(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	child, err := s.svc.Children.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (s *Server) handleUpdateChildStatus(w http.ResponseWriter, r *http.Request) {
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

	child, err := s.svc.Children.UpdateStatus(r.Context(), id, p.Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (s *Server) handleDeleteChild(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Children.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Message("Child deleted").Write(w)
}

func parentInput(p *RequestBodyParser) services.ParentInput {
	return services.ParentInput{
		Name:    p.Get("name"),
		Phone:   p.Get("phone"),
		Email:   p.Get("email"),
		Address: p.Get("address"),
	}
}

func (s *Server) handleListParents(w http.ResponseWriter, r *http.Request) {
	parents, err := s.svc.Parents.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parents)
}

func (s *Server) handleGetParent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	parent, err := s.svc.Parents.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parent)
}

func (s *Server) handleCreateParent(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	defer p.Cleanup()

	parent, err := s.svc.Parents.Create(r.Context(), parentInput(p))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, parent)
}

func (s *Server) handleUpdateParent(w http.ResponseWriter, r *http.Request) {
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

	parent, err := s.svc.Parents.Update(r.Context(), id, parentInput(p))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parent)
}

// handleDeleteParent answers 409 while a child or income row still points at
// the parent.
func (s *Server) handleDeleteParent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Parents.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Message("Parent deleted").Write(w)
}
