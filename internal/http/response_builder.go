package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"daycare/internal/core"
	applog "daycare/internal/log"
)

// JSONResponseBuilder assembles a JSON response.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Message sets a {"message": msg} body.
func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	return b.Body(map[string]string{"message": msg})
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.body != nil {
		_ = json.NewEncoder(w).Encode(b.body)
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error      string            `json:"error"`
	Kind       core.ErrorKind    `json:"kind"`
	Constraint string            `json:"constraint,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(e *core.Error) int {
	switch e.Kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConstraint:
		switch e.Constraint {
		case core.UniqueConflict, core.Referenced:
			return http.StatusConflict
		default:
			return http.StatusBadRequest
		}
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse builds the response for err. Errors without a kind are
// reported as storage failures and their text is not exposed.
func ErrorResponse(err error) *JSONResponseBuilder {
	e, ok := core.AsError(err)
	if !ok {
		e = core.Storage("internal error", err)
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	return NewJSONResponse().
		Status(statusFor(e)).
		Body(ErrorBody{
			Error:      msg,
			Kind:       e.Kind,
			Constraint: string(e.Constraint),
			Fields:     e.Fields,
		})
}

// writeError logs err at a level matching its status and writes it.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse(err)
	logger := applog.FromContext(r.Context())
	switch {
	case resp.statusCode >= 500:
		logger.ErrorContext(r.Context(), "Request failed",
			applog.FieldPath, r.URL.Path, applog.FieldError, err)
	case errors.Is(err, core.ErrNotFound):
		logger.DebugContext(r.Context(), "Record not found", applog.FieldPath, r.URL.Path)
	default:
		logger.InfoContext(r.Context(), "Request rejected",
			applog.FieldPath, r.URL.Path, applog.FieldError, err)
	}
	resp.Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}
