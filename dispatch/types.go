// Package dispatch forwards a routed request to its chosen provider using
// that provider's wire protocol and authentication, in a single attempt
// except for the Anthropic adapter's one retry on its other key.
package dispatch

import (
	"io"
	"time"

	"github.com/throttlehq/throttle/catalog"
	"github.com/throttlehq/throttle/ratelimit"
)

// ProxyResponse is the neutral decoding of a non-streaming upstream reply.
type ProxyResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	FinishReason string
	ModelID      string
	Provider     catalog.Provider
	LatencyMs    int64
	KeyType      ratelimit.KeyType
	Failover     bool
}

// StreamResponse is what a streaming dispatch hands to the response
// mediator: the raw upstream byte stream plus enough metadata to attribute
// it once the stream finishes.
type StreamResponse struct {
	Body         io.ReadCloser
	ModelID      string
	Provider     catalog.Provider
	KeyType      ratelimit.KeyType
	Failover     bool
	UpstreamCode int
	StartedAt    time.Time
}

// Request is everything an adapter needs to build a provider-native call.
type Request struct {
	ModelID     string
	System      string
	Messages    []NeutralMessage
	MaxTokens   int
	Temperature *float64
	Stream      bool

	// RawBody, when non-nil, requests byte-for-byte Anthropic passthrough
	// except for model/stream. AnthropicVersion is sent as the
	// anthropic-version header. AnthropicBeta is carried here but is not
	// sent upstream.
	RawBody          []byte
	AnthropicVersion string
	AnthropicBeta    string
}

// NeutralMessage mirrors ingress.NeutralMessage without importing ingress,
// keeping dispatch's only dependency on request shape local to this
// package (ingress.ParsedRequest is converted into a dispatch.Request at
// the call site).
type NeutralMessage struct {
	Role    string
	Content string
}
