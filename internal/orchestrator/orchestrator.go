// Package orchestrator is the facade coordinating credential storage,
// fan-out dispatch, the response registry, the history ledger, and the
// correction-link graph. It owns all collections and serializes access to
// them with one mutex; everything below it is unsynchronized.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fanout-cli/internal/cost"
	"github.com/sells-group/fanout-cli/internal/dispatch"
	"github.com/sells-group/fanout-cli/internal/events"
	"github.com/sells-group/fanout-cli/internal/graph"
	"github.com/sells-group/fanout-cli/internal/keyring"
	"github.com/sells-group/fanout-cli/internal/ledger"
	"github.com/sells-group/fanout-cli/internal/model"
	"github.com/sells-group/fanout-cli/internal/registry"
)

var (
	// ErrNodeNotFound is returned when a referenced response node is absent.
	ErrNodeNotFound = eris.New("response node not found")
	// ErrEmptyCredential is returned when a credential to save is blank.
	ErrEmptyCredential = eris.New("credential cannot be blank")
)

// Deps are the orchestrator's collaborators. Broker may be nil when no
// surface subscribes to change events.
type Deps struct {
	Keys      *keyring.Store
	Engine    *dispatch.Engine
	Validator *dispatch.Validator
	Broker    *events.Broker
	Costs     *cost.Calculator
}

// Orchestrator coordinates all state mutation for one session.
type Orchestrator struct {
	mu     sync.Mutex
	nodes  *registry.Nodes
	ledger *ledger.Ledger
	graph  *graph.Graph

	keys      *keyring.Store
	engine    *dispatch.Engine
	validator *dispatch.Validator
	broker    *events.Broker
	costs     *cost.Calculator
}

// New creates an orchestrator with empty collections.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{
		nodes:     registry.NewNodes(),
		ledger:    ledger.New(),
		graph:     graph.New(),
		keys:      deps.Keys,
		engine:    deps.Engine,
		validator: deps.Validator,
		broker:    deps.Broker,
		costs:     deps.Costs,
	}
}

func (o *Orchestrator) publish(eventType string, data any) {
	if o.broker != nil {
		o.broker.Publish(events.Event{Type: eventType, Data: data})
	}
}

// FanOutRequest is one fan-out invocation.
type FanOutRequest struct {
	Prompt    string
	Providers []model.Provider
	Tags      []string
}

// Validate rejects blank prompts, empty provider sets, and unknown
// provider identities before any state is touched.
func (r FanOutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Prompt, validation.By(notBlank)),
		validation.Field(&r.Providers,
			validation.Required.Error("at least one provider is required"),
			validation.Each(validation.By(knownProvider)),
		),
	)
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return eris.New("cannot be blank")
	}
	return nil
}

func knownProvider(value any) error {
	p, _ := value.(model.Provider)
	if !p.Valid() {
		return eris.Errorf("unknown provider %q", p)
	}
	return nil
}

// FanOut validates the request, synchronously registers one pending node
// per selected provider, records a history entry snapshotting those
// pending nodes, and dispatches the provider calls in the background.
// The returned entry reflects the state at dispatch initiation.
func (o *Orchestrator) FanOut(ctx context.Context, req FanOutRequest) (model.HistoryEntry, error) {
	if err := req.Validate(); err != nil {
		return model.HistoryEntry{}, eris.Wrap(err, "fan-out request")
	}

	prompt := strings.TrimSpace(req.Prompt)
	providers := model.SortProviders(req.Providers)
	now := time.Now().UTC()

	batch := dispatch.Batch{ID: uuid.New().String(), Prompt: prompt}

	o.mu.Lock()
	snapshot := make([]model.ResponseNode, 0, len(providers))
	for _, p := range providers {
		node := model.ResponseNode{
			ID:        uuid.New().String(),
			BatchID:   batch.ID,
			Provider:  p,
			Prompt:    prompt,
			Status:    model.NodeStatusPending,
			CreatedAt: now,
		}
		o.nodes.Add(node)
		snapshot = append(snapshot, node)
		batch.Calls = append(batch.Calls, dispatch.Call{NodeID: node.ID, Provider: p})
	}

	entry := model.HistoryEntry{
		ID:        uuid.New().String(),
		Prompt:    prompt,
		Providers: providers,
		Tags:      append([]string(nil), req.Tags...),
		Responses: snapshot,
		CreatedAt: now,
	}
	o.ledger.Record(entry)
	o.mu.Unlock()

	for _, node := range snapshot {
		o.publish(events.TypeNodeCreated, node)
	}
	o.publish(events.TypeHistoryRecorded, entry)

	zap.L().Info("fan-out dispatched",
		zap.String("batch_id", batch.ID),
		zap.Int("providers", len(providers)),
	)

	// Outcomes land regardless of the caller's context lifetime.
	go func(ctx context.Context) {
		o.engine.Dispatch(ctx, batch, o.applyOutcome)
		o.publish(events.TypeBatchSettled, batch.ID)
	}(context.WithoutCancel(ctx))

	return entry, nil
}

// applyOutcome settles one call's node by correlation id. Late outcomes
// for removed or already-terminal nodes are dropped by the registry.
func (o *Orchestrator) applyOutcome(call dispatch.Call, res *dispatch.Result, err error) {
	var patch model.NodePatch
	if err != nil {
		status := model.NodeStatusFailed
		reason := err.Error()
		patch = model.NodePatch{Status: &status, Reason: &reason}
	} else {
		status := model.NodeStatusSucceeded
		costUSD := o.costs.Completion(call.Provider, res.Usage)
		patch = model.NodePatch{
			Status:  &status,
			Output:  &res.Text,
			Usage:   &res.Usage,
			CostUSD: &costUSD,
		}
		o.costs.LogCompletion(call.Provider, res.Usage)
	}

	o.mu.Lock()
	applied := o.nodes.Update(call.NodeID, patch)
	node, _ := o.nodes.Get(call.NodeID)
	o.mu.Unlock()

	if applied {
		o.publish(events.TypeNodeUpdated, node)
	}
}

// Nodes returns all response nodes in insertion order.
func (o *Orchestrator) Nodes() []model.ResponseNode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.nodes.List()
}

// Node returns one response node by id.
func (o *Orchestrator) Node(id string) (model.ResponseNode, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.nodes.Get(id)
}

// BatchNodes returns the nodes of one fan-out batch in insertion order.
func (o *Orchestrator) BatchNodes(batchID string) []model.ResponseNode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.nodes.ListBatch(batchID)
}

// RemoveNode deletes a node and cascades removal of every correction link
// touching it. Reports whether the node was present.
func (o *Orchestrator) RemoveNode(id string) bool {
	o.mu.Lock()
	removed := o.nodes.Remove(id)
	linksRemoved := 0
	if removed {
		linksRemoved = o.graph.RemoveTouching(id)
	}
	o.mu.Unlock()

	if removed {
		o.publish(events.TypeNodeRemoved, id)
		if linksRemoved > 0 {
			o.publish(events.TypeLinkRemoved, map[string]any{"cascade_node_id": id, "count": linksRemoved})
		}
	}
	return removed
}

// ClearNodes removes every node and prunes all dangling links, returning
// how many nodes were removed.
func (o *Orchestrator) ClearNodes() int {
	o.mu.Lock()
	removed := o.nodes.Clear()
	pruned := o.graph.Prune(func(id string) bool {
		_, ok := o.nodes.Get(id)
		return ok
	})
	o.mu.Unlock()

	for _, id := range removed {
		o.publish(events.TypeNodeRemoved, id)
	}
	if pruned > 0 {
		o.publish(events.TypeLinkRemoved, map[string]any{"count": pruned})
	}
	return len(removed)
}

// History returns all ledger entries, most recent first.
func (o *Orchestrator) History() []model.HistoryEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ledger.List()
}

// SearchHistory filters the ledger by free-text query and exact tag.
func (o *Orchestrator) SearchHistory(query, tag string) []model.HistoryEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ledger.Search(query, tag)
}

// RemoveHistory deletes one ledger entry. Response nodes and links are
// untouched; the ledger never owns them.
func (o *Orchestrator) RemoveHistory(id string) bool {
	o.mu.Lock()
	removed := o.ledger.Remove(id)
	o.mu.Unlock()

	if removed {
		o.publish(events.TypeHistoryRemoved, id)
	}
	return removed
}

// TagHistory replaces one ledger entry's tag set.
func (o *Orchestrator) TagHistory(id string, tags []string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ledger.SetTags(id, tags)
}

// Links returns all correction links in insertion order.
func (o *Orchestrator) Links() []model.CorrectionLink {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.graph.List()
}

// Link returns one correction link by id.
func (o *Orchestrator) Link(id string) (model.CorrectionLink, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.graph.Get(id)
}

// CreateLink adds a pending correction link between two existing nodes.
func (o *Orchestrator) CreateLink(sourceID, targetID string, kind model.LinkKind) (model.CorrectionLink, error) {
	o.mu.Lock()
	source, ok := o.nodes.Get(sourceID)
	if !ok {
		o.mu.Unlock()
		return model.CorrectionLink{}, eris.Wrapf(ErrNodeNotFound, "source %s", sourceID)
	}
	target, ok := o.nodes.Get(targetID)
	if !ok {
		o.mu.Unlock()
		return model.CorrectionLink{}, eris.Wrapf(ErrNodeNotFound, "target %s", targetID)
	}
	link, err := o.graph.Create(source, target, kind)
	o.mu.Unlock()
	if err != nil {
		return model.CorrectionLink{}, err
	}

	o.publish(events.TypeLinkCreated, link)
	return link, nil
}

// UpdateLink applies a partial update to a link. A missing id is a no-op.
func (o *Orchestrator) UpdateLink(id string, patch model.LinkPatch) bool {
	o.mu.Lock()
	updated := o.graph.Update(id, patch)
	link, _ := o.graph.Get(id)
	o.mu.Unlock()

	if updated {
		o.publish(events.TypeLinkUpdated, link)
	}
	return updated
}

// RemoveLink deletes one link by id.
func (o *Orchestrator) RemoveLink(id string) bool {
	o.mu.Lock()
	removed := o.graph.Remove(id)
	o.mu.Unlock()

	if removed {
		o.publish(events.TypeLinkRemoved, id)
	}
	return removed
}

// SaveCredential stores a provider secret, overwriting any previous one.
func (o *Orchestrator) SaveCredential(provider model.Provider, secret string) error {
	if !provider.Valid() {
		return eris.Errorf("unknown provider %q", provider)
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ErrEmptyCredential
	}
	o.keys.Save(provider, secret)
	return nil
}

// DeleteCredential removes a provider's secret, reporting presence.
func (o *Orchestrator) DeleteCredential(provider model.Provider) bool {
	present := o.keys.Has(provider)
	o.keys.Delete(provider)
	return present
}

// ListCredentials returns the providers with a stored secret, in
// canonical order.
func (o *Orchestrator) ListCredentials() []model.Provider {
	return o.keys.ListPresent()
}

// ValidateCredential checks the stored secret for a provider with one
// live exchange. Absent secrets fail without touching the network.
func (o *Orchestrator) ValidateCredential(ctx context.Context, provider model.Provider) dispatch.Outcome {
	secret, ok := o.keys.Get(provider)
	if !ok {
		return dispatch.Outcome{Reason: "no credential stored"}
	}
	return o.validator.Validate(ctx, provider, secret)
}
