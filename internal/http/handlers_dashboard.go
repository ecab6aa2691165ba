package http

import (
	"net/http"

	"daycare/internal/core"
	"daycare/internal/services"
)

// handleDashboardSummary always answers with a summary body. When the totals
// could not be computed the zeroed summary carries an error and the status is 500.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Dashboard.Summary(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, summary)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetAttendance(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.Attendance.Get(r.Context(), sanitizeInput(r.URL.Query().Get("date")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type attendanceSaveResponse struct {
	Message string `json:"message"`
	services.SaveResult
}

// handleSaveAttendance expects {"date": "...", "attendance": {"<childId>": {"status", "notes"}}}.
// Entries that are not objects are reported as skipped.
func (s *Server) handleSaveAttendance(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	defer p.Cleanup()

	raw := p.Object("attendance")
	if raw == nil && p.Has("attendance") {
		writeError(w, r, core.Validation("invalid attendance",
			map[string]string{"attendance": "must be an object keyed by child id"}))
		return
	}

	entries := make(map[string]services.EntryInput, len(raw))
	var malformed []services.SkippedEntry
	for key, v := range raw {
		obj, ok := v.(map[string]any)
		if !ok {
			malformed = append(malformed, services.SkippedEntry{ChildID: key, Reason: "entry is not an object"})
			continue
		}
		entries[key] = services.EntryInput{
			Status: sanitizeInput(stringValue(obj["status"])),
			Notes:  sanitizeInput(stringValue(obj["notes"])),
		}
	}

	result, err := s.svc.Attendance.Save(r.Context(), p.Get("date"), entries)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result.Skipped = append(result.Skipped, malformed...)
	writeJSON(w, http.StatusOK, attendanceSaveResponse{Message: "Attendance saved", SaveResult: result})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Settings.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

type settingsResponse struct {
	Message  string   `json:"message"`
	Updated  []string `json:"updated"`
	Rejected []string `json:"rejected"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	defer p.Cleanup()

	res, err := s.svc.Settings.Update(r.Context(), p.Fields())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		Message:  "Settings updated",
		Updated:  res.Updated,
		Rejected: res.Rejected,
	})
}
