package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"daycare/internal/core"
)

const parentColumns = `id, name, phone, email, address`

func (s *Store) ListParents(ctx context.Context) ([]core.Parent, error) {
	parents := []core.Parent{}
	if err := s.db.SelectContext(ctx, &parents, `SELECT `+parentColumns+` FROM parents ORDER BY name, id`); err != nil {
		return nil, translateError("list parents", err)
	}
	return parents, nil
}

func (s *Store) GetParent(ctx context.Context, id int64) (core.Parent, error) {
	p, err := getParent(ctx, s.db, id)
	return p, translateError("get parent", err)
}

func getParent(ctx context.Context, q sqlx.QueryerContext, id int64) (core.Parent, error) {
	var p core.Parent
	err := sqlx.GetContext(ctx, q, &p, `SELECT `+parentColumns+` FROM parents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, core.NotFound("parent", id)
	}
	return p, err
}

func (s *Store) InsertParent(ctx context.Context, p core.Parent) (core.Parent, error) {
	var out core.Parent
	err := s.WithTx(ctx, "insert parent", func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx,
			`INSERT INTO parents (name, phone, email, address) VALUES (:name, :phone, :email, :address)`, p)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		out, err = getParent(ctx, tx, id)
		return err
	})
	return out, err
}

func (s *Store) UpdateParent(ctx context.Context, p core.Parent) (core.Parent, error) {
	var out core.Parent
	err := s.WithTx(ctx, "update parent", func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx,
			`UPDATE parents SET name = :name, phone = :phone, email = :email, address = :address WHERE id = :id`, p)
		if err != nil {
			return err
		}
		if err := requireAffected(res, "parent", p.ID); err != nil {
			return err
		}
		out, err = getParent(ctx, tx, p.ID)
		return err
	})
	return out, err
}

// DeleteParent refuses to delete a parent that children still point at.
// Check and delete share one transaction.
func (s *Store) DeleteParent(ctx context.Context, id int64) error {
	return s.WithTx(ctx, "delete parent", func(tx *sqlx.Tx) error {
		var linked int
		if err := tx.GetContext(ctx, &linked, `SELECT COUNT(*) FROM children WHERE parent_id = ?`, id); err != nil {
			return fmt.Errorf("count linked children: %w", err)
		}
		if linked > 0 {
			return core.Constraint(core.Referenced,
				fmt.Sprintf("cannot delete parent: %d child record(s) still linked", linked), nil)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM parents WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res, "parent", id)
	})
}
