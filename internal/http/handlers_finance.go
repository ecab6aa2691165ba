package http

import (
	"net/http"

	"daycare/internal/attachment"
	"daycare/internal/services"
	"daycare/internal/storage"
)

func incomeInput(p *RequestBodyParser) (services.IncomeInput, error) {
	childID, err := p.OptionalID("relatedChildId")
	if err != nil {
		return services.IncomeInput{}, err
	}
	parentID, err := p.OptionalID("relatedParentId")
	if err != nil {
		return services.IncomeInput{}, err
	}
	return services.IncomeInput{
		Date:            p.Get("date"),
		Source:          p.Get("source"),
		Amount:          p.Get("amount"),
		RelatedChildID:  childID,
		RelatedParentID: parentID,
		Description:     p.Get("description"),
		BCMonth:         p.Get("bcMonth"),
	}, nil
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.svc.Income.List(r.Context(), storage.IncomeFilter{
		From:   sanitizeInput(q.Get("from")),
		To:     sanitizeInput(q.Get("to")),
		Source: sanitizeInput(q.Get("source")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	row, err := s.svc.Income.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	defer p.Cleanup()

	in, err := incomeInput(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	row, err := s.svc.Income.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
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

	in, err := incomeInput(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	row, err := s.svc.Income.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Income.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Message("Income deleted").Write(w)
}

func expenseInput(p *RequestBodyParser) services.ExpenseInput {
	return services.ExpenseInput{
		Date:        p.Get("date"),
		Category:    p.Get("category"),
		Amount:      p.Get("amount"),
		Vendor:      p.Get("vendor"),
		Description: p.Get("description"),
		IsPersonal:  p.Bool("is_personal"),
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.svc.Expenses.List(r.Context(), storage.ExpenseFilter{
		From:     sanitizeInput(q.Get("from")),
		To:       sanitizeInput(q.Get("to")),
		Category: sanitizeInput(q.Get("category")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	row, err := s.svc.Expenses.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// handleCreateExpense accepts JSON or a multipart form with an optional
// "receipt" file.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	defer p.Cleanup()

	receipt, closer, err := p.File("receipt")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	row, err := s.svc.Expenses.Create(r.Context(), expenseInput(p), receipt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
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

	row, err := s.svc.Expenses.Update(r.Context(), id, expenseInput(p))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.Expenses.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteBody("Expense deleted", res))
}

type deleteResponse struct {
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}

func deleteBody(msg string, res attachment.DeleteResult) deleteResponse {
	return deleteResponse{Message: msg, Warning: res.Warning}
}
