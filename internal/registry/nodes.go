// Package registry holds the authoritative collection of dispatched
// response nodes. The collection itself is not synchronized; the
// orchestrator owns it and serializes access.
package registry

import (
	"github.com/sells-group/fanout-cli/internal/model"
)

// Nodes is an ordered response-node collection, insertion order preserved.
type Nodes struct {
	order []string
	byID  map[string]*model.ResponseNode
}

// NewNodes creates an empty registry.
func NewNodes() *Nodes {
	return &Nodes{byID: make(map[string]*model.ResponseNode)}
}

// Add inserts a node at the end of the collection.
func (n *Nodes) Add(node model.ResponseNode) {
	if _, exists := n.byID[node.ID]; exists {
		return
	}
	n.order = append(n.order, node.ID)
	n.byID[node.ID] = &node
}

// Get returns a copy of the node, if present.
func (n *Nodes) Get(id string) (model.ResponseNode, bool) {
	node, ok := n.byID[id]
	if !ok {
		return model.ResponseNode{}, false
	}
	return *node, true
}

// Update applies a partial update. A missing id is a successful no-op,
// tolerating races with user deletion. A terminal node never changes
// status again; late outcomes for it are dropped wholesale.
func (n *Nodes) Update(id string, patch model.NodePatch) bool {
	node, ok := n.byID[id]
	if !ok {
		return false
	}
	if patch.Status != nil {
		if node.Status.Terminal() {
			return false
		}
		node.Status = *patch.Status
	}
	if patch.Output != nil {
		node.Output = *patch.Output
	}
	if patch.Reason != nil {
		node.Reason = *patch.Reason
	}
	if patch.Usage != nil {
		node.Usage = *patch.Usage
	}
	if patch.CostUSD != nil {
		node.CostUSD = *patch.CostUSD
	}
	return true
}

// Remove deletes a node, reporting whether it was present so the caller
// can cascade dependent link removal.
func (n *Nodes) Remove(id string) bool {
	if _, ok := n.byID[id]; !ok {
		return false
	}
	delete(n.byID, id)
	for i, existing := range n.order {
		if existing == id {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes all nodes and returns the removed ids.
func (n *Nodes) Clear() []string {
	removed := n.order
	n.order = nil
	n.byID = make(map[string]*model.ResponseNode)
	return removed
}

// List returns copies of all nodes in insertion order.
func (n *Nodes) List() []model.ResponseNode {
	out := make([]model.ResponseNode, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, *n.byID[id])
	}
	return out
}

// ListBatch returns copies of the nodes belonging to one fan-out batch,
// in insertion order.
func (n *Nodes) ListBatch(batchID string) []model.ResponseNode {
	var out []model.ResponseNode
	for _, id := range n.order {
		if node := n.byID[id]; node.BatchID == batchID {
			out = append(out, *node)
		}
	}
	return out
}

// Len returns the node count.
func (n *Nodes) Len() int {
	return len(n.order)
}
