package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/fanout-cli/internal/keyring"
	"github.com/sells-group/fanout-cli/internal/model"
)

// Call is one provider invocation within a batch. NodeID is the correlation
// id of the pending response node registered before dispatch; completions
// are matched by it, never by provider scanning.
type Call struct {
	NodeID   string
	Provider model.Provider
}

// Batch is one fan-out request: a prompt and the calls to issue for it.
type Batch struct {
	ID     string
	Prompt string
	Calls  []Call
}

// Sink receives each call's terminal outcome. res is nil when err is set.
type Sink func(call Call, res *Result, err error)

// EngineConfig tunes dispatch behavior.
type EngineConfig struct {
	// CallTimeout bounds each provider call. Zero disables the bound.
	CallTimeout time.Duration
	// RatePerMinute optionally throttles call issue per provider.
	RatePerMinute map[model.Provider]float64
}

// Engine issues the concurrent, independent provider calls of a batch.
type Engine struct {
	callers  *Registry
	keys     *keyring.Store
	timeout  time.Duration
	limiters map[model.Provider]*rate.Limiter
}

// NewEngine creates a dispatch engine over the configured callers and the
// credential store.
func NewEngine(callers *Registry, keys *keyring.Store, cfg EngineConfig) *Engine {
	limiters := make(map[model.Provider]*rate.Limiter, len(cfg.RatePerMinute))
	for p, perMin := range cfg.RatePerMinute {
		if perMin > 0 {
			limiters[p] = rate.NewLimiter(rate.Limit(perMin/60.0), 1)
		}
	}
	return &Engine{
		callers:  callers,
		keys:     keys,
		timeout:  cfg.CallTimeout,
		limiters: limiters,
	}
}

// Dispatch runs every call of the batch concurrently and blocks until all
// have settled. A failing call never cancels or delays its siblings; each
// outcome is delivered to the sink exactly once, as it lands.
func (e *Engine) Dispatch(ctx context.Context, batch Batch, deliver Sink) {
	g := new(errgroup.Group)

	for _, call := range batch.Calls {
		g.Go(func() error {
			res, err := e.issue(ctx, batch.Prompt, call)
			deliver(call, res, err)
			return nil
		})
	}

	_ = g.Wait()

	zap.L().Debug("batch settled",
		zap.String("batch_id", batch.ID),
		zap.Int("calls", len(batch.Calls)),
	)
}

func (e *Engine) issue(ctx context.Context, prompt string, call Call) (*Result, error) {
	caller := e.callers.Get(call.Provider)
	if caller == nil {
		return nil, eris.Errorf("no client configured for provider %q", call.Provider)
	}

	secret, ok := e.keys.Get(call.Provider)
	if !ok {
		return nil, eris.Errorf("no credential stored for provider %q", call.Provider)
	}

	if limiter := e.limiters[call.Provider]; limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limit wait")
		}
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	res, err := caller.Complete(callCtx, prompt, secret)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, eris.New("timeout")
		}
		return nil, err
	}
	return res, nil
}
