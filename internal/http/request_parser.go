package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"daycare/internal/attachment"
	"daycare/internal/core"
)

// RequestBodyParser reads a JSON, urlencoded or multipart body once and
// exposes its fields by name. Values are sanitized and trimmed.
type RequestBodyParser struct {
	r         *http.Request
	maxBytes  int64
	jsonData  map[string]any
	formData  url.Values
	multipart *multipart.Form
	parsed    bool
	err       error
}

func NewRequestBodyParser(r *http.Request, maxBytes int64) *RequestBodyParser {
	return &RequestBodyParser{r: r, maxBytes: maxBytes}
}

// Parse decodes the body according to its Content-Type. A body that is not
// well formed yields a validation error.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	p.err = p.parse()
	return p.err
}

func (p *RequestBodyParser) parse() error {
	mediaType, _, _ := mime.ParseMediaType(p.r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := p.r.ParseMultipartForm(p.maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return core.Validation("upload is too large", nil)
			}
			return core.Validation("malformed multipart body", nil)
		}
		p.multipart = p.r.MultipartForm
		p.formData = url.Values(p.r.MultipartForm.Value)
		return nil
	}

	body, err := io.ReadAll(p.r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.Validation("request body is too large", nil)
		}
		return core.Validation("could not read request body", nil)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if mediaType == "application/json" || body[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var data map[string]any
		if err := dec.Decode(&data); err != nil {
			return core.Validation("malformed JSON body", nil)
		}
		if data == nil {
			data = map[string]any{}
		}
		p.jsonData = data
		return nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return core.Validation("malformed form body", nil)
	}
	p.formData = values
	return nil
}

// Get returns the value of key as a string, or "" when it is absent or null.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if v, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(v))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was sent at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Bool reads key as a flag. JSON booleans, "true", "1", "on" and "yes" are true.
func (p *RequestBodyParser) Bool(key string) bool {
	if p.jsonData != nil {
		if b, ok := p.jsonData[key].(bool); ok {
			return b
		}
	}
	switch strings.ToLower(p.Get(key)) {
	case "true", "1", "on", "yes":
		return true
	default:
		return false
	}
}

// OptionalID reads an optional reference. Absent, null, "" and 0 mean no
// reference; anything other than a positive integer is a validation error.
func (p *RequestBodyParser) OptionalID(key string) (*int64, error) {
	raw := p.Get(key)
	if raw == "" || raw == "0" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return nil, core.Validation("invalid reference", map[string]string{key: "must be a positive id"})
	}
	if id == 0 {
		return nil, nil
	}
	return &id, nil
}

// Object returns the JSON object stored under key, or nil.
func (p *RequestBodyParser) Object(key string) map[string]any {
	if p.jsonData == nil {
		return nil
	}
	obj, _ := p.jsonData[key].(map[string]any)
	return obj
}

// Fields returns every top-level field with its decoded value. Form values
// are returned as strings.
func (p *RequestBodyParser) Fields() map[string]any {
	if p.jsonData != nil {
		out := make(map[string]any, len(p.jsonData))
		for k, v := range p.jsonData {
			if str, ok := v.(string); ok {
				v = sanitizeInput(str)
			}
			out[k] = v
		}
		return out
	}
	out := make(map[string]any, len(p.formData))
	for k := range p.formData {
		out[k] = sanitizeInput(p.formData.Get(k))
	}
	return out
}

// File returns the uploaded file sent under field, or nil when none was
// sent. The caller must close the returned closer.
func (p *RequestBodyParser) File(field string) (*attachment.Upload, io.Closer, error) {
	if p.multipart == nil {
		return nil, nil, nil
	}
	headers := p.multipart.File[field]
	if len(headers) == 0 || headers[0].Filename == "" {
		return nil, nil, nil
	}
	f, err := headers[0].Open()
	if err != nil {
		return nil, nil, core.Attachment("could not read uploaded file", fmt.Errorf("open multipart file: %w", err))
	}
	return &attachment.Upload{Filename: headers[0].Filename, Content: f}, f, nil
}

// Cleanup removes temporary files created for a multipart body.
func (p *RequestBodyParser) Cleanup() {
	if p.multipart != nil {
		_ = p.multipart.RemoveAll()
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab, newline and
// carriage return, then trims surrounding whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
