package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"daycare/internal/core"
)

const documentColumns = `id, type, description, upload_date, filename`

func (s *Store) ListDocuments(ctx context.Context) ([]core.Document, error) {
	docs := []core.Document{}
	err := s.db.SelectContext(ctx, &docs,
		`SELECT `+documentColumns+` FROM documents ORDER BY upload_date DESC, id DESC`)
	if err != nil {
		return nil, translateError("list documents", err)
	}
	return docs, nil
}

func (s *Store) GetDocument(ctx context.Context, id int64) (core.Document, error) {
	d, err := getDocument(ctx, s.db, id)
	return d, translateError("get document", err)
}

func getDocument(ctx context.Context, q sqlx.QueryerContext, id int64) (core.Document, error) {
	var d core.Document
	err := sqlx.GetContext(ctx, q, &d, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return d, core.NotFound("document", id)
	}
	return d, err
}

// InsertDocument stores d. The legacy filepath column mirrors filename.
func (s *Store) InsertDocument(ctx context.Context, d core.Document) (core.Document, error) {
	var out core.Document
	err := s.WithTx(ctx, "insert document", func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `INSERT INTO documents
			(type, description, upload_date, filename, filepath)
			VALUES (:type, :description, :upload_date, :filename, :filename)`, d)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		out, err = getDocument(ctx, tx, id)
		return err
	})
	return out, err
}

// UpdateDocument changes type and description only.
func (s *Store) UpdateDocument(ctx context.Context, d core.Document) (core.Document, error) {
	var out core.Document
	err := s.WithTx(ctx, "update document", func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx,
			`UPDATE documents SET type = :type, description = :description WHERE id = :id`, d)
		if err != nil {
			return err
		}
		if err := requireAffected(res, "document", d.ID); err != nil {
			return err
		}
		out, err = getDocument(ctx, tx, d.ID)
		return err
	})
	return out, err
}

// DeleteDocument removes the row and returns it as it was.
func (s *Store) DeleteDocument(ctx context.Context, id int64) (core.Document, error) {
	var old core.Document
	err := s.WithTx(ctx, "delete document", func(tx *sqlx.Tx) error {
		var err error
		if old, err = getDocument(ctx, tx, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res, "document", id)
	})
	return old, err
}

// AttachmentReferences returns every filename a surviving row points at.
func (s *Store) AttachmentReferences(ctx context.Context) ([]string, error) {
	names := []string{}
	err := s.db.SelectContext(ctx, &names, `
		SELECT receipt_filename FROM expenses WHERE receipt_filename IS NOT NULL AND receipt_filename <> ''
		UNION
		SELECT filename FROM documents`)
	if err != nil {
		return nil, translateError("list attachment references", err)
	}
	return names, nil
}
