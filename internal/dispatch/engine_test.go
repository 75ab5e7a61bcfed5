package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fanout-cli/internal/keyring"
	"github.com/sells-group/fanout-cli/internal/model"
)

// fakeCaller scripts the outcome of Complete and Validate per provider.
type fakeCaller struct {
	provider    model.Provider
	text        string
	err         error
	delay       time.Duration
	validateErr error
}

func (f *fakeCaller) Provider() model.Provider { return f.provider }

func (f *fakeCaller) Complete(ctx context.Context, prompt, secret string) (*Result, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Result{Text: f.text, Usage: model.TokenUsage{InputTokens: 1, OutputTokens: 2}}, nil
}

func (f *fakeCaller) Validate(ctx context.Context, secret string) error {
	return f.validateErr
}

// outcomeRecorder collects delivered outcomes thread-safely.
type outcomeRecorder struct {
	mu       sync.Mutex
	results  map[string]*Result
	failures map[string]error
}

func newOutcomeRecorder() *outcomeRecorder {
	return &outcomeRecorder{
		results:  make(map[string]*Result),
		failures: make(map[string]error),
	}
}

func (r *outcomeRecorder) sink(call Call, res *Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failures[call.NodeID] = err
		return
	}
	r.results[call.NodeID] = res
}

func newTestKeys(providers ...model.Provider) *keyring.Store {
	keys := keyring.NewStore(keyring.NewMemoryMedium())
	for _, p := range providers {
		keys.Save(p, "sk-"+string(p))
	}
	return keys
}

func TestEngine_DispatchAllSucceed(t *testing.T) {
	callers := NewRegistry()
	callers.Register(&fakeCaller{provider: model.ProviderOpenAI, text: "from openai"})
	callers.Register(&fakeCaller{provider: model.ProviderGemini, text: "from gemini"})

	e := NewEngine(callers, newTestKeys(model.ProviderOpenAI, model.ProviderGemini), EngineConfig{})
	rec := newOutcomeRecorder()

	e.Dispatch(context.Background(), Batch{
		ID:     "b1",
		Prompt: "ping",
		Calls: []Call{
			{NodeID: "n1", Provider: model.ProviderOpenAI},
			{NodeID: "n2", Provider: model.ProviderGemini},
		},
	}, rec.sink)

	require.Len(t, rec.results, 2)
	assert.Empty(t, rec.failures)
	assert.Equal(t, "from openai", rec.results["n1"].Text)
	assert.Equal(t, "from gemini", rec.results["n2"].Text)
}

func TestEngine_FailureDoesNotAffectSiblings(t *testing.T) {
	callers := NewRegistry()
	callers.Register(&fakeCaller{provider: model.ProviderOpenAI, err: eris.New("boom")})
	callers.Register(&fakeCaller{provider: model.ProviderDeepSeek, text: "ok"})

	e := NewEngine(callers, newTestKeys(model.ProviderOpenAI, model.ProviderDeepSeek), EngineConfig{})
	rec := newOutcomeRecorder()

	e.Dispatch(context.Background(), Batch{
		ID:     "b1",
		Prompt: "ping",
		Calls: []Call{
			{NodeID: "n1", Provider: model.ProviderOpenAI},
			{NodeID: "n2", Provider: model.ProviderDeepSeek},
		},
	}, rec.sink)

	require.Len(t, rec.failures, 1)
	assert.Contains(t, rec.failures["n1"].Error(), "boom")
	require.Len(t, rec.results, 1)
	assert.Equal(t, "ok", rec.results["n2"].Text)
}

func TestEngine_SlowProviderDoesNotDelayFastOne(t *testing.T) {
	callers := NewRegistry()
	callers.Register(&fakeCaller{provider: model.ProviderOpenAI, text: "fast"})
	callers.Register(&fakeCaller{provider: model.ProviderGemini, text: "slow", delay: 150 * time.Millisecond})

	e := NewEngine(callers, newTestKeys(model.ProviderOpenAI, model.ProviderGemini), EngineConfig{})

	var mu sync.Mutex
	landed := make(map[string]time.Time)
	start := time.Now()

	e.Dispatch(context.Background(), Batch{
		ID:     "b1",
		Prompt: "ping",
		Calls: []Call{
			{NodeID: "fast", Provider: model.ProviderOpenAI},
			{NodeID: "slow", Provider: model.ProviderGemini},
		},
	}, func(call Call, res *Result, err error) {
		mu.Lock()
		landed[call.NodeID] = time.Now()
		mu.Unlock()
	})

	assert.Less(t, landed["fast"].Sub(start), 100*time.Millisecond)
	assert.GreaterOrEqual(t, landed["slow"].Sub(start), 150*time.Millisecond)
}

func TestEngine_TimeoutClassifiedAsTimeout(t *testing.T) {
	callers := NewRegistry()
	callers.Register(&fakeCaller{provider: model.ProviderOpenAI, text: "late", delay: time.Second})

	e := NewEngine(callers, newTestKeys(model.ProviderOpenAI), EngineConfig{
		CallTimeout: 20 * time.Millisecond,
	})
	rec := newOutcomeRecorder()

	e.Dispatch(context.Background(), Batch{
		ID:     "b1",
		Prompt: "ping",
		Calls:  []Call{{NodeID: "n1", Provider: model.ProviderOpenAI}},
	}, rec.sink)

	require.Len(t, rec.failures, 1)
	assert.Equal(t, "timeout", rec.failures["n1"].Error())
}

func TestEngine_MissingCredential(t *testing.T) {
	callers := NewRegistry()
	callers.Register(&fakeCaller{provider: model.ProviderOpenAI, text: "ok"})

	e := NewEngine(callers, newTestKeys(), EngineConfig{})
	rec := newOutcomeRecorder()

	e.Dispatch(context.Background(), Batch{
		ID:     "b1",
		Prompt: "ping",
		Calls:  []Call{{NodeID: "n1", Provider: model.ProviderOpenAI}},
	}, rec.sink)

	require.Len(t, rec.failures, 1)
	assert.Contains(t, rec.failures["n1"].Error(), "no credential stored")
}

func TestEngine_UnconfiguredProvider(t *testing.T) {
	e := NewEngine(NewRegistry(), newTestKeys(model.ProviderOpenAI), EngineConfig{})
	rec := newOutcomeRecorder()

	e.Dispatch(context.Background(), Batch{
		ID:     "b1",
		Prompt: "ping",
		Calls:  []Call{{NodeID: "n1", Provider: model.ProviderOpenAI}},
	}, rec.sink)

	require.Len(t, rec.failures, 1)
	assert.Contains(t, rec.failures["n1"].Error(), "no client configured")
}

func TestRegistry_ListCanonicalOrder(t *testing.T) {
	callers := NewRegistry()
	callers.Register(&fakeCaller{provider: model.ProviderDeepSeek})
	callers.Register(&fakeCaller{provider: model.ProviderOpenAI})

	assert.Equal(t, []model.Provider{model.ProviderOpenAI, model.ProviderDeepSeek}, callers.List())
}
