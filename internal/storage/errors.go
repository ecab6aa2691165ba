package storage

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"daycare/internal/core"
)

// translateError converts an engine error into a *core.Error with a message
// a user can act on. Errors that already carry a kind pass through.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := core.AsError(err); ok {
		return err
	}

	code := 0
	var se *sqlite.Error
	if errors.As(err, &se) {
		code = se.Code()
	}
	msg := err.Error()

	switch {
	case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
		strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return core.Constraint(core.ForeignKeyMissing, "referenced record does not exist", err)

	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		strings.Contains(msg, "UNIQUE constraint failed"):
		return core.Constraint(core.UniqueConflict, uniqueMessage(msg), err)

	case code == sqlite3.SQLITE_CONSTRAINT_CHECK ||
		code == sqlite3.SQLITE_CONSTRAINT_NOTNULL ||
		strings.Contains(msg, "CHECK constraint failed") ||
		strings.Contains(msg, "NOT NULL constraint failed"):
		return core.Constraint(core.CheckFailed, checkMessage(msg), err)
	}

	return core.Storage("could not "+op, err)
}

func uniqueMessage(msg string) string {
	switch {
	case strings.Contains(msg, "parents.email"):
		return "a parent with this email already exists"
	case strings.Contains(msg, "documents.filename"):
		return "a document with this filename already exists"
	case strings.Contains(msg, "attendance.date"):
		return "attendance for this child and date already exists"
	default:
		return "a record with these values already exists"
	}
}

func checkMessage(msg string) string {
	switch {
	case strings.Contains(msg, "amount"):
		return "amount must not be negative"
	case strings.Contains(msg, "is_personal"):
		return "personal flag must be true or false"
	case strings.Contains(msg, "status"):
		return "status is not an allowed value"
	case strings.Contains(msg, "NOT NULL"):
		if i := strings.LastIndex(msg, "."); i >= 0 && i+1 < len(msg) {
			column := msg[i+1:]
			if j := strings.IndexAny(column, " ("); j > 0 {
				column = column[:j]
			}
			return column + " is required"
		}
		return "a required value is missing"
	default:
		return "a value is outside its allowed range"
	}
}
