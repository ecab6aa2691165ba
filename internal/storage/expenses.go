package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"daycare/internal/core"
)

// ExpenseFilter narrows ListExpenses. Empty fields are ignored; date bounds are inclusive.
type ExpenseFilter struct {
	From     string
	To       string
	Category string
}

const expenseColumns = `id, date, category, amount, vendor, description, receipt_filename,
	COALESCE(is_personal, 0) AS is_personal`

func (s *Store) ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, error) {
	var (
		where []string
		args  []any
	)
	if f.From != "" {
		where = append(where, "date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		where = append(where, "date <= ?")
		args = append(args, f.To)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"

	rows := []core.Expense{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translateError("list expenses", err)
	}
	return rows, nil
}

func (s *Store) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	e, err := getExpense(ctx, s.db, id)
	return e, translateError("get expense", err)
}

func getExpense(ctx context.Context, q sqlx.QueryerContext, id int64) (core.Expense, error) {
	var e core.Expense
	err := sqlx.GetContext(ctx, q, &e, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return e, core.NotFound("expense", id)
	}
	return e, err
}

// InsertExpense stores e including its receipt reference, if any.
func (s *Store) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	var out core.Expense
	err := s.WithTx(ctx, "insert expense", func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `INSERT INTO expenses
			(date, category, amount, vendor, description, receipt_filename, is_personal)
			VALUES (:date, :category, :amount, :vendor, :description, :receipt_filename, :is_personal)`, e)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		out, err = getExpense(ctx, tx, id)
		return err
	})
	return out, err
}

// UpdateExpense leaves receipt_filename untouched.
func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	var out core.Expense
	err := s.WithTx(ctx, "update expense", func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `UPDATE expenses SET
			date = :date, category = :category, amount = :amount, vendor = :vendor,
			description = :description, is_personal = :is_personal
			WHERE id = :id`, e)
		if err != nil {
			return err
		}
		if err := requireAffected(res, "expense", e.ID); err != nil {
			return err
		}
		out, err = getExpense(ctx, tx, e.ID)
		return err
	})
	return out, err
}

// DeleteExpense removes the row and returns it as it was, so the caller
// can release the receipt file after commit.
func (s *Store) DeleteExpense(ctx context.Context, id int64) (core.Expense, error) {
	var old core.Expense
	err := s.WithTx(ctx, "delete expense", func(tx *sqlx.Tx) error {
		var err error
		if old, err = getExpense(ctx, tx, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res, "expense", id)
	})
	return old, err
}

// SumExpenses totals expenses dated within [from, to]. Personal expenses
// are counted only when includePersonal is set.
func (s *Store) SumExpenses(ctx context.Context, from, to string, includePersonal bool) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE date BETWEEN ? AND ?`
	if !includePersonal {
		query += ` AND COALESCE(is_personal, 0) = 0`
	}
	var total float64
	if err := s.db.GetContext(ctx, &total, query, from, to); err != nil {
		return 0, translateError("sum expenses", err)
	}
	return core.RoundAmount(total), nil
}
