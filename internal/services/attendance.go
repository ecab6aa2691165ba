package services

import (
	"context"
	"sort"
	"strconv"

	"daycare/internal/core"
	applog "daycare/internal/log"
	"daycare/internal/storage"
)

// EntryInput is one child's attendance as submitted.
type EntryInput struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// SkippedEntry names an entry left out of a saved batch and why.
type SkippedEntry struct {
	ChildID string `json:"child_id"`
	Reason  string `json:"reason"`
}

type SaveResult struct {
	Saved   int            `json:"saved"`
	Skipped []SkippedEntry `json:"skipped"`
}

type AttendanceService struct {
	store  *storage.Store
	logger *applog.Logger
}

func checkDay(date string) error {
	if !core.ValidDate(date) {
		return core.Validation("invalid date", map[string]string{"date": dateMessage})
	}
	return nil
}

// Get returns the records of date keyed by child id.
func (s *AttendanceService) Get(ctx context.Context, date string) (map[int64]core.AttendanceRecord, error) {
	date = trim(date)
	if err := checkDay(date); err != nil {
		return nil, err
	}
	records, err := s.store.ListAttendance(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]core.AttendanceRecord, len(records))
	for _, r := range records {
		out[r.ChildID] = r
	}
	return out, nil
}

// Save upserts every usable entry for date in one transaction. Entries with
// an empty status are ignored. Entries with a bad child id, an unknown status
// or a child that does not exist are skipped and reported.
func (s *AttendanceService) Save(ctx context.Context, date string, entries map[string]EntryInput) (SaveResult, error) {
	date = trim(date)
	if err := checkDay(date); err != nil {
		return SaveResult{}, err
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := SaveResult{Skipped: []SkippedEntry{}}
	skip := func(key, reason string) {
		s.logger.WarnContext(ctx, "Attendance entry skipped",
			applog.FieldDate, date, "child_id", key, "reason", reason)
		result.Skipped = append(result.Skipped, SkippedEntry{ChildID: key, Reason: reason})
	}

	records := make([]core.AttendanceRecord, 0, len(keys))
	for _, key := range keys {
		entry := entries[key]
		status := trim(entry.Status)
		if status == "" {
			continue
		}
		childID, err := strconv.ParseInt(trim(key), 10, 64)
		if err != nil || childID <= 0 {
			skip(key, "child id is not a positive integer")
			continue
		}
		if !core.ValidAttendanceStatus(status) {
			skip(key, "unknown status "+strconv.Quote(status))
			continue
		}
		records = append(records, core.AttendanceRecord{
			ChildID: childID,
			Status:  status,
			Notes:   optional(entry.Notes),
		})
	}

	saved, rejected, err := s.store.UpsertAttendance(ctx, date, records)
	if err != nil {
		return SaveResult{}, err
	}
	for _, r := range rejected {
		reason := "rejected by the database"
		if e, ok := core.AsError(r.Err); ok {
			reason = e.Message
		}
		if core.ConstraintOf(r.Err) == core.ForeignKeyMissing {
			reason = "child does not exist"
		}
		skip(strconv.FormatInt(r.ChildID, 10), reason)
	}
	result.Saved = saved

	s.logger.InfoContext(ctx, "Attendance saved",
		applog.FieldOperation, applog.OpSave,
		applog.FieldDate, date,
		"saved", result.Saved,
		"skipped", len(result.Skipped))
	return result, nil
}
