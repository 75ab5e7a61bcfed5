package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// LinkKind classifies a correction link.
type LinkKind string

const (
	LinkKindCodeReview   LinkKind = "code-review"
	LinkKindFactCheck    LinkKind = "fact-check"
	LinkKindOptimization LinkKind = "optimization"
)

// AllLinkKinds returns the supported correction kinds.
func AllLinkKinds() []LinkKind {
	return []LinkKind{LinkKindCodeReview, LinkKindFactCheck, LinkKindOptimization}
}

// Valid reports whether k is a supported correction kind.
func (k LinkKind) Valid() bool {
	switch k {
	case LinkKindCodeReview, LinkKindFactCheck, LinkKindOptimization:
		return true
	}
	return false
}

// ParseLinkKind converts a string into a LinkKind, rejecting unknown values.
func ParseLinkKind(s string) (LinkKind, error) {
	k := LinkKind(s)
	if !k.Valid() {
		return "", eris.Errorf("unknown correction kind %q", s)
	}
	return k, nil
}

// LinkStatus represents the lifecycle state of a correction link.
type LinkStatus string

const (
	LinkStatusPending   LinkStatus = "pending"
	LinkStatusCompleted LinkStatus = "completed"
	LinkStatusError     LinkStatus = "error"
)

// CorrectionLink is a directed, typed relationship asserting that one
// response should be reviewed against another. Provider labels are
// denormalized so the link stays displayable after an endpoint is removed.
type CorrectionLink struct {
	ID             string     `json:"id"`
	SourceNodeID   string     `json:"source_node_id"`
	SourceProvider Provider   `json:"source_provider"`
	TargetNodeID   string     `json:"target_node_id"`
	TargetProvider Provider   `json:"target_provider"`
	Kind           LinkKind   `json:"kind"`
	Status         LinkStatus `json:"status"`
	Feedback       string     `json:"feedback,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// LinkPatch describes a partial update to a correction link. Nil fields are
// left untouched.
type LinkPatch struct {
	Status   *LinkStatus
	Feedback *string
}
