package model

import "time"

// NodeStatus represents the lifecycle state of a dispatched response node.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusSucceeded NodeStatus = "succeeded"
	NodeStatusFailed    NodeStatus = "failed"
)

// Terminal reports whether the status is final. A node never leaves a
// terminal status.
func (s NodeStatus) Terminal() bool {
	return s == NodeStatusSucceeded || s == NodeStatusFailed
}

// TokenUsage tracks token consumption reported by a provider.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// ResponseNode is one provider's in-flight-or-completed result for one
// fan-out batch. Exactly one node exists per (batch, provider) pair.
type ResponseNode struct {
	ID        string     `json:"id"`
	BatchID   string     `json:"batch_id"`
	Provider  Provider   `json:"provider"`
	Prompt    string     `json:"prompt"`
	Output    string     `json:"output"`
	Status    NodeStatus `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	Usage     TokenUsage `json:"usage"`
	CostUSD   float64    `json:"cost_usd,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NodePatch describes a partial update to a response node. Nil fields are
// left untouched.
type NodePatch struct {
	Status  *NodeStatus
	Output  *string
	Reason  *string
	Usage   *TokenUsage
	CostUSD *float64
}
