package storage

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"

	"daycare/internal/core"
)

// AttendanceRejection describes a record the store refused while saving a batch.
type AttendanceRejection struct {
	ChildID int64
	Err     error
}

func (s *Store) ListAttendance(ctx context.Context, date string) ([]core.AttendanceRecord, error) {
	records := []core.AttendanceRecord{}
	err := s.db.SelectContext(ctx, &records,
		`SELECT child_id, status, notes FROM attendance WHERE date = ? ORDER BY child_id`, date)
	if err != nil {
		return nil, translateError("list attendance", err)
	}
	return records, nil
}

// UpsertAttendance writes every record for date in one transaction, replacing
// any existing (date, child) row. A record rejected for a missing child is
// reported and does not stop the batch; any other failure rolls back.
func (s *Store) UpsertAttendance(ctx context.Context, date string, records []core.AttendanceRecord) (int, []AttendanceRejection, error) {
	var (
		saved    int
		rejected []AttendanceRejection
	)
	err := s.WithTx(ctx, "save attendance", func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `INSERT INTO attendance (date, child_id, status, notes)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (date, child_id) DO UPDATE SET status = excluded.status, notes = excluded.notes`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, date, r.ChildID, r.Status, r.Notes); err != nil {
				terr := translateError("save attendance", err)
				if errors.Is(terr, core.ErrForeignKeyMissing) || errors.Is(terr, core.ErrCheckFailed) {
					slog.WarnContext(ctx, "Attendance record rejected",
						"date", date,
						"child_id", strconv.FormatInt(r.ChildID, 10),
						"error", err)
					rejected = append(rejected, AttendanceRejection{ChildID: r.ChildID, Err: terr})
					continue
				}
				return err
			}
			saved++
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return saved, rejected, nil
}
