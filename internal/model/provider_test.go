package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("openai")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p)

	_, err = ParseProvider("mistral")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestSortProviders(t *testing.T) {
	got := SortProviders([]Provider{ProviderDeepSeek, ProviderOpenAI, ProviderDeepSeek, ProviderGemini})
	assert.Equal(t, []Provider{ProviderOpenAI, ProviderGemini, ProviderDeepSeek}, got)
}

func TestNodeStatusTerminal(t *testing.T) {
	assert.False(t, NodeStatusPending.Terminal())
	assert.True(t, NodeStatusSucceeded.Terminal())
	assert.True(t, NodeStatusFailed.Terminal())
}

func TestParseLinkKind(t *testing.T) {
	for _, k := range AllLinkKinds() {
		got, err := ParseLinkKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseLinkKind("nitpick")
	require.Error(t, err)
}
