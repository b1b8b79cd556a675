package records

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS record_fields (
	record_id  TEXT NOT NULL,
	field_name TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (record_id, field_name)
)`

const upsertField = `
INSERT INTO record_fields (record_id, field_name, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (record_id, field_name)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

const selectFields = `SELECT field_name, value FROM record_fields WHERE record_id = $1`

// Postgres keeps record fields in a record_fields table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL, verifies the connection and creates
// the record_fields table if needed.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create record_fields table: %w", err)
	}

	log.Debug().Str("database", poolConfig.ConnConfig.Database).Msg("Connected record store")
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) SetField(ctx context.Context, recordID, field, value string) error {
	if recordID == "" {
		return ErrMissingRecordID
	}
	if _, err := p.pool.Exec(ctx, upsertField, recordID, field, value); err != nil {
		return fmt.Errorf("failed to store field %s: %w", field, err)
	}
	return nil
}

func (p *Postgres) Fields(ctx context.Context, recordID string) (map[string]string, error) {
	rows, err := p.pool.Query(ctx, selectFields, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query record fields: %w", err)
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan record field: %w", err)
		}
		fields[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read record fields: %w", err)
	}
	return fields, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
