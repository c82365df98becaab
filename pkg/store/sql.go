package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQL keeps snapshots in the snapshots table. The queries work on both
// PostgreSQL (pgx) and SQLite.
type SQL struct {
	db *sql.DB
}

func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) Migrate(ctx context.Context) error {
	schema, err := fs.ReadFile(schemaFS, "schema.sql")
	if err != nil {
		return fmt.Errorf("store/sql: can't read schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("store/sql: migration failed: %w", err)
	}
	return nil
}

func (s *SQL) Load(ctx context.Context, slot Slot) ([]byte, error) {
	row := s.db.QueryRowContext(ctx, "SELECT data FROM snapshots WHERE slot = $1", string(slot))
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store/sql: could not scan %s: %w", slot, err)
	}
	return []byte(data), nil
}

func (s *SQL) Save(ctx context.Context, slot Slot, data []byte) error {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO snapshots(slot, data) VALUES($1, $2) ON CONFLICT(slot) DO UPDATE SET data = excluded.data",
		string(slot), string(data))
	if err != nil {
		return fmt.Errorf("store/sql: failed saving %s: %w", slot, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store/sql: failed saving %s: %w", slot, err)
	}
	if affected == 0 {
		return fmt.Errorf("store/sql: %s wasn't saved, no rows affected", slot)
	}
	return nil
}
