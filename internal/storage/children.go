package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"daycare/internal/core"
)

const childColumns = `id, first_name, last_name, dob, parent_id, emergency_contact,
	allergies, notes, COALESCE(status, 'active') AS status`

func (s *Store) ListChildren(ctx context.Context) ([]core.Child, error) {
	children := []core.Child{}
	err := s.db.SelectContext(ctx, &children,
		`SELECT `+childColumns+` FROM children ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, translateError("list children", err)
	}
	return children, nil
}

func (s *Store) GetChild(ctx context.Context, id int64) (core.Child, error) {
	c, err := getChild(ctx, s.db, id)
	return c, translateError("get child", err)
}

func getChild(ctx context.Context, q sqlx.QueryerContext, id int64) (core.Child, error) {
	var c core.Child
	err := sqlx.GetContext(ctx, q, &c, `SELECT `+childColumns+` FROM children WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return c, core.NotFound("child", id)
	}
	return c, err
}

// InsertChild stores c and returns the row as persisted.
func (s *Store) InsertChild(ctx context.Context, c core.Child) (core.Child, error) {
	if c.Status == "" {
		c.Status = core.ChildActive
	}
	var out core.Child
	err := s.WithTx(ctx, "insert child", func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `INSERT INTO children
			(first_name, last_name, dob, parent_id, emergency_contact, allergies, notes, status)
			VALUES (:first_name, :last_name, :dob, :parent_id, :emergency_contact, :allergies, :notes, :status)`, c)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		out, err = getChild(ctx, tx, id)
		return err
	})
	return out, err
}

// UpdateChild replaces every editable column except status.
func (s *Store) UpdateChild(ctx context.Context, c core.Child) (core.Child, error) {
	var out core.Child
	err := s.WithTx(ctx, "update child", func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `UPDATE children SET
			first_name = :first_name, last_name = :last_name, dob = :dob, parent_id = :parent_id,
			emergency_contact = :emergency_contact, allergies = :allergies, notes = :notes
			WHERE id = :id`, c)
		if err != nil {
			return err
		}
		if err := requireAffected(res, "child", c.ID); err != nil {
			return err
		}
		out, err = getChild(ctx, tx, c.ID)
		return err
	})
	return out, err
}

func (s *Store) UpdateChildStatus(ctx context.Context, id int64, status string) (core.Child, error) {
	var out core.Child
	err := s.WithTx(ctx, "update child status", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE children SET status = ? WHERE id = ?`, status, id)
		if err != nil {
			return err
		}
		if err := requireAffected(res, "child", id); err != nil {
			return err
		}
		out, err = getChild(ctx, tx, id)
		return err
	})
	return out, err
}

// DeleteChild removes the child. Attendance rows cascade and income
// references are nulled by the schema.
func (s *Store) DeleteChild(ctx context.Context, id int64) error {
	return s.WithTx(ctx, "delete child", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM children WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res, "child", id)
	})
}
