package keyring

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteMedium implements Medium using modernc.org/sqlite.
type SQLiteMedium struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path, configures WAL mode
// and creates the credentials table.
func NewSQLite(dsn string) (*SQLiteMedium, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "keyring: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "keyring: exec %s", pragma)
		}
	}

	const migration = `
CREATE TABLE IF NOT EXISTS credentials (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`
	if _, err := db.Exec(migration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "keyring: migrate")
	}

	return &SQLiteMedium{db: db}, nil
}

func (m *SQLiteMedium) Get(key string) (string, bool) {
	var value string
	err := m.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			zap.L().Warn("keyring: sqlite read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return value, true
}

func (m *SQLiteMedium) Set(key, value string) error {
	_, err := m.db.Exec(
		`INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	return eris.Wrapf(err, "keyring: set %s", key)
}

func (m *SQLiteMedium) Delete(key string) error {
	_, err := m.db.Exec(`DELETE FROM credentials WHERE key = ?`, key)
	return eris.Wrapf(err, "keyring: delete %s", key)
}

func (m *SQLiteMedium) Close() error {
	return m.db.Close()
}
