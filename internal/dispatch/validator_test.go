package dispatch

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/fanout-cli/internal/model"
)

func TestValidator_EmptyCredentialRejectedBeforeExchange(t *testing.T) {
	callers := NewRegistry()
	callers.Register(&fakeCaller{provider: model.ProviderOpenAI, validateErr: eris.New("should not be reached")})

	v := NewValidator(callers)

	for _, secret := range []string{"", "   ", "\t\n"} {
		out := v.Validate(context.Background(), model.ProviderOpenAI, secret)
		assert.False(t, out.OK)
		assert.Equal(t, "empty credential", out.Reason)
	}
}

func TestValidator_AcceptedSecret(t *testing.T) {
	callers := NewRegistry()
	callers.Register(&fakeCaller{provider: model.ProviderGemini})

	out := NewValidator(callers).Validate(context.Background(), model.ProviderGemini, "g-key")
	assert.True(t, out.OK)
	assert.Empty(t, out.Reason)
}

func TestValidator_RejectedSecret(t *testing.T) {
	callers := NewRegistry()
	callers.Register(&fakeCaller{provider: model.ProviderOpenAI, validateErr: eris.New("unexpected status 401")})

	out := NewValidator(callers).Validate(context.Background(), model.ProviderOpenAI, "sk-bad")
	assert.False(t, out.OK)
	assert.Contains(t, out.Reason, "401")
}

func TestValidator_UnconfiguredProvider(t *testing.T) {
	out := NewValidator(NewRegistry()).Validate(context.Background(), model.ProviderDeepSeek, "d-key")
	assert.False(t, out.OK)
	assert.Contains(t, out.Reason, "no client configured")
}
