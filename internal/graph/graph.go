// Package graph keeps the directed correction links between response
// nodes. The collection is owned and serialized by the orchestrator, which
// also drives cascade removal when nodes disappear.
package graph

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fanout-cli/internal/model"
)

// ErrSelfLink is returned when a link would point a node at itself.
var ErrSelfLink = eris.New("correction link cannot target its own source")

// Graph is an ordered correction-link collection, insertion order preserved.
type Graph struct {
	links []model.CorrectionLink
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{}
}

// Create adds a pending link between two nodes. Provider labels are
// denormalized from the endpoints so the link stays displayable after
// either node is removed. Multiple links over the same ordered pair are
// allowed; a self-link is not.
func (g *Graph) Create(source, target model.ResponseNode, kind model.LinkKind) (model.CorrectionLink, error) {
	if source.ID == target.ID {
		return model.CorrectionLink{}, ErrSelfLink
	}

	link := model.CorrectionLink{
		ID:             uuid.New().String(),
		SourceNodeID:   source.ID,
		SourceProvider: source.Provider,
		TargetNodeID:   target.ID,
		TargetProvider: target.Provider,
		Kind:           kind,
		Status:         model.LinkStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	g.links = append(g.links, link)
	return link, nil
}

// Update applies a partial update. A missing id is a successful no-op.
func (g *Graph) Update(id string, patch model.LinkPatch) bool {
	for i := range g.links {
		if g.links[i].ID != id {
			continue
		}
		if patch.Status != nil {
			g.links[i].Status = *patch.Status
		}
		if patch.Feedback != nil {
			g.links[i].Feedback = *patch.Feedback
		}
		return true
	}
	return false
}

// Remove deletes one link by id.
func (g *Graph) Remove(id string) bool {
	for i, l := range g.links {
		if l.ID == id {
			g.links = append(g.links[:i], g.links[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveTouching deletes every link with the node as source or target,
// returning how many were removed. Invoked by the node-deletion cascade.
func (g *Graph) RemoveTouching(nodeID string) int {
	kept := g.links[:0]
	removed := 0
	for _, l := range g.links {
		if l.SourceNodeID == nodeID || l.TargetNodeID == nodeID {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	g.links = kept
	return removed
}

// Prune deletes every link with an endpoint for which exists reports
// false, returning how many were removed. Used when the node registry is
// cleared wholesale.
func (g *Graph) Prune(exists func(nodeID string) bool) int {
	kept := g.links[:0]
	removed := 0
	for _, l := range g.links {
		if !exists(l.SourceNodeID) || !exists(l.TargetNodeID) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	g.links = kept
	return removed
}

// Get returns a link by id, if present.
func (g *Graph) Get(id string) (model.CorrectionLink, bool) {
	for _, l := range g.links {
		if l.ID == id {
			return l, true
		}
	}
	return model.CorrectionLink{}, false
}

// List returns all links in insertion order.
func (g *Graph) List() []model.CorrectionLink {
	return append([]model.CorrectionLink(nil), g.links...)
}

// Len returns the link count.
func (g *Graph) Len() int {
	return len(g.links)
}
