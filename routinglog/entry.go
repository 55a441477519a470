// Package routinglog appends one JSON record per completed request to a
// log file and aggregates it on demand for the stats endpoint. Records
// hold only a prompt hash, never content.
package routinglog

import "time"

// Entry is one completed request's routing-log record.
type Entry struct {
	RequestID        string    `json:"requestId"`
	Timestamp        time.Time `json:"timestamp"`
	PromptHash       string    `json:"promptHash"`
	Score            float64   `json:"score"`
	Confidence       float64   `json:"confidence"`
	Tier             string    `json:"tier"`
	ModelID          string    `json:"modelId"`
	Provider         string    `json:"provider"`
	Mode             string    `json:"mode"`
	Override         string    `json:"override,omitempty"`
	InputTokens      int       `json:"inputTokens"`
	OutputTokens     int       `json:"outputTokens"`
	EstimatedCostUSD float64   `json:"estimatedCostUsd"`
	LatencyMs        int64     `json:"latencyMs"`
	ParentRequestID  string    `json:"parentRequestId,omitempty"`
	ClientID         string    `json:"clientId,omitempty"`
	KeyType          string    `json:"keyType,omitempty"`
	Failover         bool      `json:"failover,omitempty"`
}
