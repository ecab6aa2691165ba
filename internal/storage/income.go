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

// IncomeFilter narrows ListIncome. Empty fields are ignored; date bounds are inclusive.
type IncomeFilter struct {
	From   string
	To     string
	Source string
}

const incomeSelect = `SELECT i.id, i.date, i.source, i.amount, i.related_child_id, i.related_parent_id,
	i.description, i.bc_month, c.first_name AS child_first_name, c.last_name AS child_last_name
	FROM income i LEFT JOIN children c ON c.id = i.related_child_id`

func (s *Store) ListIncome(ctx context.Context, f IncomeFilter) ([]core.Income, error) {
	var (
		where []string
		args  []any
	)
	if f.From != "" {
		where = append(where, "i.date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		where = append(where, "i.date <= ?")
		args = append(args, f.To)
	}
	if f.Source != "" {
		where = append(where, "i.source = ?")
		args = append(args, f.Source)
	}

	query := incomeSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY i.date DESC, i.id DESC"

	rows := []core.Income{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translateError("list income", err)
	}
	return rows, nil
}

func (s *Store) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	in, err := getIncome(ctx, s.db, id)
	return in, translateError("get income", err)
}

func getIncome(ctx context.Context, q sqlx.QueryerContext, id int64) (core.Income, error) {
	var in core.Income
	err := sqlx.GetContext(ctx, q, &in, incomeSelect+` WHERE i.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return in, core.NotFound("income", id)
	}
	return in, err
}

func (s *Store) InsertIncome(ctx context.Context, in core.Income) (core.Income, error) {
	var out core.Income
	err := s.WithTx(ctx, "insert income", func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `INSERT INTO income
			(date, source, amount, related_child_id, related_parent_id, description, bc_month)
			VALUES (:date, :source, :amount, :related_child_id, :related_parent_id, :description, :bc_month)`, in)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		out, err = getIncome(ctx, tx, id)
		return err
	})
	return out, err
}

func (s *Store) UpdateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	var out core.Income
	err := s.WithTx(ctx, "update income", func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `UPDATE income SET
			date = :date, source = :source, amount = :amount, related_child_id = :related_child_id,
			related_parent_id = :related_parent_id, description = :description, bc_month = :bc_month
			WHERE id = :id`, in)
		if err != nil {
			return err
		}
		if err := requireAffected(res, "income", in.ID); err != nil {
			return err
		}
		out, err = getIncome(ctx, tx, in.ID)
		return err
	})
	return out, err
}

// DeleteIncome removes the row and returns it as it was before deletion.
func (s *Store) DeleteIncome(ctx context.Context, id int64) (core.Income, error) {
	var old core.Income
	err := s.WithTx(ctx, "delete income", func(tx *sqlx.Tx) error {
		var err error
		if old, err = getIncome(ctx, tx, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM income WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res, "income", id)
	})
	return old, err
}

// SumIncome totals income dated within [from, to].
func (s *Store) SumIncome(ctx context.Context, from, to string) (float64, error) {
	var total float64
	err := s.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(amount), 0) FROM income WHERE date BETWEEN ? AND ?`, from, to)
	if err != nil {
		return 0, translateError("sum income", err)
	}
	return core.RoundAmount(total), nil
}
