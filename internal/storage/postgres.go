package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps cart payloads in a single cart_store table:
//
//	CREATE TABLE cart_store (
//	    name       TEXT PRIMARY KEY,
//	    payload    BYTEA NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	)
type PostgresStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool, timeout: 3 * time.Second}, nil
}

func (p *PostgresStore) Put(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	_, err := p.pool.Exec(ctx,
		`INSERT INTO cart_store(name, payload) VALUES($1, $2)
		 ON CONFLICT (name) DO UPDATE SET payload=EXCLUDED.payload, updated_at=now()`,
		key, value,
	)
	return err
}

func (p *PostgresStore) Get(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	var payload []byte
	err := p.pool.QueryRow(ctx, `SELECT payload FROM cart_store WHERE name=$1`, key).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (p *PostgresStore) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	_, err := p.pool.Exec(ctx, `DELETE FROM cart_store WHERE name=$1`, key)
	return err
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
