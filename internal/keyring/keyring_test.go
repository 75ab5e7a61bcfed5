package keyring

import (
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fanout-cli/internal/model"
)

func TestStore_SaveGetDelete(t *testing.T) {
	s := NewStore(NewMemoryMedium())

	assert.False(t, s.Has(model.ProviderOpenAI))

	s.Save(model.ProviderOpenAI, "sk-test")
	assert.True(t, s.Has(model.ProviderOpenAI))

	secret, ok := s.Get(model.ProviderOpenAI)
	require.True(t, ok)
	assert.Equal(t, "sk-test", secret)

	s.Save(model.ProviderOpenAI, "sk-test-2")
	secret, _ = s.Get(model.ProviderOpenAI)
	assert.Equal(t, "sk-test-2", secret, "saving overwrites the previous secret")

	s.Delete(model.ProviderOpenAI)
	assert.False(t, s.Has(model.ProviderOpenAI))
}

func TestStore_ListPresentCanonicalOrder(t *testing.T) {
	s := NewStore(NewMemoryMedium())

	s.Save(model.ProviderDeepSeek, "d")
	s.Save(model.ProviderOpenAI, "o")
	s.Save(model.ProviderGemini, "g")

	assert.Equal(t,
		[]model.Provider{model.ProviderOpenAI, model.ProviderGemini, model.ProviderDeepSeek},
		s.ListPresent(),
	)
}

func TestStore_PreloadsPersistedSecrets(t *testing.T) {
	medium := NewMemoryMedium()
	require.NoError(t, medium.Set("fanout_anthropic_key", "sk-ant"))

	s := NewStore(medium)
	secret, ok := s.Get(model.ProviderAnthropic)
	require.True(t, ok)
	assert.Equal(t, "sk-ant", secret)
}

// brokenMedium fails every write, simulating an unavailable storage medium.
type brokenMedium struct{}

func (brokenMedium) Get(string) (string, bool) { return "", false }
func (brokenMedium) Set(string, string) error  { return eris.New("medium down") }
func (brokenMedium) Delete(string) error       { return eris.New("medium down") }
func (brokenMedium) Close() error              { return nil }

func TestStore_MediumFailureDoesNotCorruptState(t *testing.T) {
	s := NewStore(brokenMedium{})

	s.Save(model.ProviderOpenAI, "sk-test")
	assert.True(t, s.Has(model.ProviderOpenAI), "in-memory state survives a failed medium write")

	s.Delete(model.ProviderOpenAI)
	assert.False(t, s.Has(model.ProviderOpenAI))
}

func TestSQLiteMedium_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "keys.db")
	m, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	_, ok := m.Get("fanout_openai_key")
	assert.False(t, ok)

	require.NoError(t, m.Set("fanout_openai_key", "sk-1"))
	v, ok := m.Get("fanout_openai_key")
	require.True(t, ok)
	assert.Equal(t, "sk-1", v)

	require.NoError(t, m.Set("fanout_openai_key", "sk-2"))
	v, _ = m.Get("fanout_openai_key")
	assert.Equal(t, "sk-2", v, "set upserts")

	require.NoError(t, m.Delete("fanout_openai_key"))
	_, ok = m.Get("fanout_openai_key")
	assert.False(t, ok)
}

func TestSQLiteMedium_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "keys.db")

	m, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, m.Set("fanout_gemini_key", "g-1"))
	require.NoError(t, m.Close())

	m2, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { m2.Close() })

	v, ok := m2.Get("fanout_gemini_key")
	require.True(t, ok)
	assert.Equal(t, "g-1", v)
}
