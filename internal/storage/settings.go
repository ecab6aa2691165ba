package storage

import (
	"context"

	"github.com/jmoiron/sqlx"

	"daycare/internal/core"
)

func (s *Store) ListSettings(ctx context.Context) ([]core.Setting, error) {
	settings := []core.Setting{}
	err := s.db.SelectContext(ctx, &settings, `SELECT key, COALESCE(value, '') AS value FROM settings ORDER BY key`)
	if err != nil {
		return nil, translateError("list settings", err)
	}
	return settings, nil
}

// UpsertSettings writes all values in one transaction.
func (s *Store) UpsertSettings(ctx context.Context, settings []core.Setting) error {
	return s.WithTx(ctx, "save settings", func(tx *sqlx.Tx) error {
		for _, st := range settings {
			_, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)
				ON CONFLICT (key) DO UPDATE SET value = excluded.value`, st.Key, st.Value)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedSettings inserts the defaults that are missing and never overwrites.
func (s *Store) SeedSettings(ctx context.Context) error {
	return s.WithTx(ctx, "seed settings", func(tx *sqlx.Tx) error {
		for _, st := range core.DefaultSettings {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, st.Key, st.Value); err != nil {
				return err
			}
		}
		return nil
	})
}
