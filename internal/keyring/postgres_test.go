package keyring

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresMedium creates a PostgresMedium backed by pgxmock.
func newMockPostgresMedium(t *testing.T) (*PostgresMedium, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresMedium{pool: mock}, mock
}

func TestPostgresMedium_GetAbsent(t *testing.T) {
	m, mock := newMockPostgresMedium(t)

	mock.ExpectQuery(`SELECT value FROM credentials WHERE key = \$1`).
		WithArgs("fanout_openai_key").
		WillReturnError(pgx.ErrNoRows)

	_, ok := m.Get("fanout_openai_key")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMedium_GetPresent(t *testing.T) {
	m, mock := newMockPostgresMedium(t)

	mock.ExpectQuery(`SELECT value FROM credentials WHERE key = \$1`).
		WithArgs("fanout_openai_key").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("sk-test"))

	v, ok := m.Get("fanout_openai_key")
	require.True(t, ok)
	assert.Equal(t, "sk-test", v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMedium_SetUpsert(t *testing.T) {
	m, mock := newMockPostgresMedium(t)

	mock.ExpectExec(`ON CONFLICT \(key\) DO UPDATE`).
		WithArgs("fanout_gemini_key", "g-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, m.Set("fanout_gemini_key", "g-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMedium_Delete(t *testing.T) {
	m, mock := newMockPostgresMedium(t)

	mock.ExpectExec(`DELETE FROM credentials WHERE key = \$1`).
		WithArgs("fanout_deepseek_key").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, m.Delete("fanout_deepseek_key"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
