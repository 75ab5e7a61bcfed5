package keyring

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Pool is the subset of pgxpool.Pool the medium needs; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresMedium implements Medium using pgxpool.
type PostgresMedium struct {
	pool Pool
}

// NewPostgres creates a PostgresMedium with a connection pool and creates
// the credentials table.
func NewPostgres(ctx context.Context, connString string) (*PostgresMedium, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "keyring: parse postgres config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "keyring: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "keyring: ping")
	}

	m := &PostgresMedium{pool: pool}
	if err := m.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return m, nil
}

func (m *PostgresMedium) migrate(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS credentials (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	return eris.Wrap(err, "keyring: migrate")
}

func (m *PostgresMedium) Get(key string) (string, bool) {
	var value string
	err := m.pool.QueryRow(context.Background(),
		`SELECT value FROM credentials WHERE key = $1`, key,
	).Scan(&value)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			zap.L().Warn("keyring: postgres read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return value, true
}

func (m *PostgresMedium) Set(key, value string) error {
	_, err := m.pool.Exec(context.Background(),
		`INSERT INTO credentials (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	return eris.Wrapf(err, "keyring: set %s", key)
}

func (m *PostgresMedium) Delete(key string) error {
	_, err := m.pool.Exec(context.Background(),
		`DELETE FROM credentials WHERE key = $1`, key)
	return eris.Wrapf(err, "keyring: delete %s", key)
}

func (m *PostgresMedium) Close() error {
	m.pool.Close()
	return nil
}
