package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"daycare/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(map[string]int{"id": 3}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"id":3}` {
		t.Errorf("Body = %q, want %q", got, `{"id":3}`)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestJSONResponseBuilder_Message(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().Message("Child deleted").Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"message":"Child deleted"}` {
		t.Errorf("Body = %q", got)
	}
}

func TestJSONResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Header("X-Custom", "value").
		Status(http.StatusNoContent).
		Write(w)

	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q, want %q", got, "value")
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", w.Body.String())
	}
}

func TestErrorResponse_HidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()

	ErrorResponse(errors.New("sql: connection refused at 10.0.0.3")).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "10.0.0.3") {
		t.Errorf("internal error text leaked: %s", w.Body.String())
	}
}

func TestErrorResponse_ValidationFields(t *testing.T) {
	w := httptest.NewRecorder()

	ErrorResponse(core.Validation("invalid input", map[string]string{"amount": "required"})).Write(w)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
	for _, part := range []string{`"kind":"validation"`, `"amount":"required"`} {
		if !strings.Contains(w.Body.String(), part) {
			t.Errorf("body missing %s: %s", part, w.Body.String())
		}
	}
}
