// Package keyring stores provider API credentials behind an opaque
// key-value medium. Store operations are total: a broken medium degrades
// to in-memory behavior instead of surfacing errors to callers.
package keyring

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/fanout-cli/internal/model"
)

// Medium is the persisted key-value capability backing the store. Get
// reports absence via its second return; implementations log their own
// read failures and report them as absent.
type Medium interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// mediumKey namespaces a provider's credential inside the medium.
func mediumKey(p model.Provider) string {
	return fmt.Sprintf("fanout_%s_key", p)
}

// Store maps provider identities to secrets, at most one secret per
// provider. A write-through cache keeps operations consistent when the
// medium is unavailable.
type Store struct {
	mu     sync.RWMutex
	medium Medium
	cache  map[model.Provider]string
}

// NewStore creates a credential store over a medium and preloads any
// persisted secrets.
func NewStore(medium Medium) *Store {
	s := &Store{
		medium: medium,
		cache:  make(map[model.Provider]string),
	}
	for _, p := range model.AllProviders() {
		if secret, ok := medium.Get(mediumKey(p)); ok {
			s.cache[p] = secret
		}
	}
	return s
}

// Save stores a secret for the provider, overwriting any previous one.
func (s *Store) Save(provider model.Provider, secret string) {
	s.mu.Lock()
	s.cache[provider] = secret
	s.mu.Unlock()

	if err := s.medium.Set(mediumKey(provider), secret); err != nil {
		zap.L().Warn("keyring: medium write failed",
			zap.String("provider", provider.String()),
			zap.Error(err),
		)
	}
}

// Get returns the stored secret for the provider, if any.
func (s *Store) Get(provider model.Provider) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secret, ok := s.cache[provider]
	return secret, ok
}

// Has reports whether a secret is stored for the provider.
func (s *Store) Has(provider model.Provider) bool {
	_, ok := s.Get(provider)
	return ok
}

// Delete removes the provider's secret.
func (s *Store) Delete(provider model.Provider) {
	s.mu.Lock()
	delete(s.cache, provider)
	s.mu.Unlock()

	if err := s.medium.Delete(mediumKey(provider)); err != nil {
		zap.L().Warn("keyring: medium delete failed",
			zap.String("provider", provider.String()),
			zap.Error(err),
		)
	}
}

// ListPresent returns the providers with a stored secret, in canonical
// provider order.
func (s *Store) ListPresent() []model.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Provider, 0, len(s.cache))
	for _, p := range model.AllProviders() {
		if _, ok := s.cache[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Close releases the underlying medium.
func (s *Store) Close() error {
	return s.medium.Close()
}
