package model

import "time"

// HistoryEntry is an immutable record of one past fan-out batch. The
// response snapshot is a copy taken when the entry was recorded; later
// registry mutations never alter it.
type HistoryEntry struct {
	ID        string         `json:"id"`
	Prompt    string         `json:"prompt"`
	Providers []Provider     `json:"providers"`
	Tags      []string       `json:"tags"`
	Responses []ResponseNode `json:"responses"`
	CostUSD   float64        `json:"cost_usd,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
