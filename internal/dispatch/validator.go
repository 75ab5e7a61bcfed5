package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/fanout-cli/internal/model"
)

// Outcome is the result of one credential validation attempt.
type Outcome struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// Validator checks provider credentials with exactly one exchange per call
// and no retries.
type Validator struct {
	callers *Registry
}

// NewValidator creates a validator over the configured callers.
func NewValidator(callers *Registry) *Validator {
	return &Validator{callers: callers}
}

// Validate classifies a (provider, secret) pair. Blank secrets are rejected
// before any network exchange.
func (v *Validator) Validate(ctx context.Context, provider model.Provider, secret string) Outcome {
	if strings.TrimSpace(secret) == "" {
		return Outcome{Reason: "empty credential"}
	}

	caller := v.callers.Get(provider)
	if caller == nil {
		return Outcome{Reason: fmt.Sprintf("no client configured for provider %q", provider)}
	}

	if err := caller.Validate(ctx, secret); err != nil {
		return Outcome{Reason: err.Error()}
	}
	return Outcome{OK: true}
}
