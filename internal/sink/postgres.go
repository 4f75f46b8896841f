package sink

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const discoveriesSchema = `
CREATE TABLE IF NOT EXISTS discovered_resources (
    uri        TEXT PRIMARY KEY,
    first_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_seen  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres records discoveries in a table, for consumers that poll a
// database instead of listening on a socket. Re-discoveries after the TTL
// window refresh last_seen.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens the database and ensures the discoveries table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, discoveriesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure discoveries table: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Deliver upserts the discovered URI.
func (p *Postgres) Deliver(ctx context.Context, uri string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO discovered_resources (uri) VALUES ($1)
		ON CONFLICT (uri) DO UPDATE SET last_seen = now()`, uri)
	if err != nil {
		return fmt.Errorf("record discovery: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (p *Postgres) Close() error {
	return p.db.Close()
}
